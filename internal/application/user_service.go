package application

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/internal/domain/entity"
	"github.com/oksasatya/go-auth-service/internal/domain/repository"
	"github.com/oksasatya/go-auth-service/pkg/apperror"
)

var avatarTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Service handles profile reads and edits, avatars and admin search.
type Service struct {
	Repo           repository.UserRepository
	Store          ObjectStore // nil disables avatar upload
	Indexer        UserIndexer // nil disables search
	Logger         logrus.FieldLogger
	AvatarMaxBytes int64
}

func NewService(repo repository.UserRepository, store ObjectStore, indexer UserIndexer, logger logrus.FieldLogger, avatarMaxBytes int64) *Service {
	if avatarMaxBytes <= 0 {
		avatarMaxBytes = 2 << 20
	}
	return &Service{Repo: repo, Store: store, Indexer: indexer, Logger: logger, AvatarMaxBytes: avatarMaxBytes}
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal("load user", err)
	}
	return u, nil
}

// UpdateProfile changes the display name; nothing else is editable here.
func (s *Service) UpdateProfile(ctx context.Context, userID, fullName string) (*entity.User, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return nil, apperror.Validation("full name is required").WithInfo(map[string]string{"fullName": "is required"})
	}
	u, err := s.Repo.SetFullName(ctx, userID, name)
	if err != nil {
		return nil, storeErr("update user", err)
	}
	s.index(ctx, u)
	return u, nil
}

type AvatarUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadAvatar stores a jpg/png image and points the profile at it. The
// previous image is removed best-effort.
func (s *Service) UploadAvatar(ctx context.Context, userID string, in AvatarUpload) (*entity.User, error) {
	ext := strings.ToLower(path.Ext(in.Filename))
	contentType, ok := avatarTypes[ext]
	if !ok {
		return nil, apperror.Validation("only jpg, jpeg and png images are allowed")
	}
	if in.Size <= 0 || in.Size > s.AvatarMaxBytes {
		return nil, apperror.Validation("image must be smaller than 2MB").WithInfo(map[string]any{"maxBytes": s.AvatarMaxBytes})
	}
	if s.Store == nil {
		return nil, apperror.Internal("avatar storage not configured", nil)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", u.ID, uuid.NewString()+ext)
	body := io.LimitReader(in.Body, s.AvatarMaxBytes)
	if err := s.Store.Put(ctx, key, contentType, body); err != nil {
		return nil, apperror.Internal("upload avatar", err)
	}

	previous := u.ProfileImage
	if u, err = s.Repo.SetProfileImage(ctx, userID, key); err != nil {
		s.removeObject(ctx, key)
		return nil, storeErr("update user", err)
	}
	if previous != "" {
		s.removeObject(ctx, previous)
	}
	s.index(ctx, u)
	return u, nil
}

func (s *Service) DeleteAvatar(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.ProfileImage == "" {
		return nil, apperror.Client("no profile image to delete")
	}
	previous := u.ProfileImage
	if u, err = s.Repo.SetProfileImage(ctx, userID, ""); err != nil {
		return nil, storeErr("update user", err)
	}
	s.removeObject(ctx, previous)
	s.index(ctx, u)
	return u, nil
}

// AvatarURL resolves the stored object key to a URL, empty when unset.
func (s *Service) AvatarURL(u *entity.User) string {
	if u == nil || u.ProfileImage == "" || s.Store == nil {
		return ""
	}
	return s.Store.URL(u.ProfileImage)
}

// SearchUsers performs a simple multi_match search on email and name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]entity.User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.Validation("query is required").WithInfo(map[string]string{"q": "is required"})
	}
	if s.Indexer == nil {
		return []entity.User{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	users, err := s.Indexer.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal("search users", err)
	}
	return users, nil
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("delete avatar object failed")
	}
}

func (s *Service) index(ctx context.Context, u *entity.User) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
	}
}
