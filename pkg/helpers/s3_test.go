package helpers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func fakeS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        b,
		})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestS3Store_PutDeleteURL(t *testing.T) {
	srv, recorded := fakeS3(t)

	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:       "avatars",
		Region:       "us-east-1",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		BaseEndpoint: srv.URL,
	})
	require.NoError(t, err)

	err = store.Put(context.Background(), "avatars/u1.png", "image/png", bytes.NewReader([]byte("png-bytes")))
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "avatars/u1.png"))

	reqs := recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/avatars/avatars/u1.png", reqs[0].path)
	assert.Equal(t, "image/png", reqs[0].contentType)
	assert.Equal(t, []byte("png-bytes"), reqs[0].body)
	assert.Equal(t, http.MethodDelete, reqs[1].method)

	assert.Equal(t, srv.URL+"/avatars/avatars/u1.png", store.URL("avatars/u1.png"))
}

func TestS3Store_URLWithPublicBase(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "avatars",
		Region:    "eu-west-1",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", store.URL("a.png"))
}
