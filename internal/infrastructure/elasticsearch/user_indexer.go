package elasticsearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// NewClient creates an Elasticsearch client with optional basic auth.
func NewClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

// UserIndexer mirrors public profile fields into the users index. The
// password hash is never written.
type UserIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndexer(es *elasticsearch.Client, index string) *UserIndexer {
	if index == "" {
		index = "users"
	}
	return &UserIndexer{es: es, index: index}
}

type userDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Role         string    `json:"role"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i *UserIndexer) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(userDoc{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
		Role:         u.Role.String(),
		Verified:     u.Verified,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	})
	if err != nil {
		return err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{Index: i.index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("index user: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match on email (boosted) and full name.
func (i *UserIndexer) Search(ctx context.Context, q string, size int) ([]entity.User, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "full_name"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.es.Search(
		i.es.Search.WithContext(c),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("search users: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]entity.User, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		d := h.Source
		out = append(out, entity.User{
			ID:           d.ID,
			Email:        d.Email,
			FullName:     d.FullName,
			ProfileImage: d.ProfileImage,
			Role:         entity.Role(d.Role),
			Verified:     d.Verified,
			CreatedAt:    d.CreatedAt,
			UpdatedAt:    d.UpdatedAt,
		})
	}
	return out, nil
}
