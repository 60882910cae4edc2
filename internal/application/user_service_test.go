package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
)

func newUserService(t *testing.T) (*Service, *memUsers, *memStore, *memIndex, *entity.User) {
	t.Helper()
	users := newMemUsers()
	store := newMemStore()
	index := newMemIndex()
	logger, _ := test.NewNullLogger()

	u := &entity.User{Email: "a@x.com", FullName: "Alice", Password: "hashed:Strong123", Role: entity.RoleUser}
	require.NoError(t, users.Create(context.Background(), u))
	return NewService(users, store, index, logger, 1024), users, store, index, u
}

func png(n int) AvatarUpload {
	return AvatarUpload{
		Filename:    "me.PNG",
		ContentType: "image/png",
		Size:        int64(n),
		Body:        bytes.NewReader(bytes.Repeat([]byte{0x89}, n)),
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _, index, u := newUserService(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, u.ID, "   ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	updated, err := svc.UpdateProfile(ctx, u.ID, "  Alice Liddell ")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName)

	stored, _ := users.GetByID(ctx, u.ID)
	assert.Equal(t, "Alice Liddell", stored.FullName)
	assert.Equal(t, "Alice Liddell", index.docs[u.ID].FullName)
	assert.Empty(t, index.docs[u.ID].Password)

	_, err = svc.UpdateProfile(ctx, "missing", "Bob")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUploadAvatar_RejectsTypeAndSize(t *testing.T) {
	svc, _, store, _, u := newUserService(t)
	ctx := context.Background()

	gif := png(10)
	gif.Filename = "me.gif"
	_, err := svc.UploadAvatar(ctx, u.ID, gif)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.UploadAvatar(ctx, u.ID, png(2048))
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = svc.UploadAvatar(ctx, u.ID, png(0))
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	assert.Empty(t, store.keys())
}

func TestUploadAvatar_ReplacesPrevious(t *testing.T) {
	svc, users, store, _, u := newUserService(t)
	ctx := context.Background()

	first, err := svc.UploadAvatar(ctx, u.ID, png(100))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ProfileImage, "avatars/"+u.ID+"/"))
	assert.True(t, strings.HasSuffix(first.ProfileImage, ".png"))
	assert.Equal(t, []string{first.ProfileImage}, store.keys())
	assert.Equal(t, "https://cdn.test/"+first.ProfileImage, svc.AvatarURL(first))

	second, err := svc.UploadAvatar(ctx, u.ID, png(200))
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfileImage, second.ProfileImage)
	assert.Equal(t, []string{second.ProfileImage}, store.keys())
	assert.Len(t, store.objects[second.ProfileImage], 200)

	stored, _ := users.GetByID(ctx, u.ID)
	assert.Equal(t, second.ProfileImage, stored.ProfileImage)
}

func TestUploadAvatar_StoreFailureKeepsProfile(t *testing.T) {
	svc, users, store, _, u := newUserService(t)
	store.putErr = errors.New("bucket gone")

	_, err := svc.UploadAvatar(context.Background(), u.ID, png(10))
	assert.True(t, errors.Is(err, apperror.ErrInternal))

	stored, _ := users.GetByID(context.Background(), u.ID)
	assert.Empty(t, stored.ProfileImage)
}

func TestUploadAvatar_NoStore(t *testing.T) {
	svc, _, _, _, u := newUserService(t)
	svc.Store = nil

	_, err := svc.UploadAvatar(context.Background(), u.ID, png(10))
	assert.True(t, errors.Is(err, apperror.ErrInternal))
	assert.Empty(t, svc.AvatarURL(u))
}

func TestDeleteAvatar(t *testing.T) {
	svc, _, store, _, u := newUserService(t)
	ctx := context.Background()

	_, err := svc.DeleteAvatar(ctx, u.ID)
	assert.True(t, errors.Is(err, apperror.ErrClient))

	_, err = svc.UploadAvatar(ctx, u.ID, png(10))
	require.NoError(t, err)

	cleared, err := svc.DeleteAvatar(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cleared.ProfileImage)
	assert.Empty(t, store.keys())
	assert.Empty(t, svc.AvatarURL(cleared))
}

func TestSearchUsers(t *testing.T) {
	svc, users, _, index, u := newUserService(t)
	ctx := context.Background()
	require.NoError(t, index.Index(ctx, u))
	bob := &entity.User{Email: "bob@y.com", FullName: "Bob", Role: entity.RoleUser}
	require.NoError(t, users.Create(ctx, bob))
	require.NoError(t, index.Index(ctx, bob))

	_, err := svc.SearchUsers(ctx, " ", 10)
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	got, err := svc.SearchUsers(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, u.ID, got[0].ID)

	got, err = svc.SearchUsers(ctx, "@", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	svc.Indexer = nil
	got, err = svc.SearchUsers(ctx, "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
