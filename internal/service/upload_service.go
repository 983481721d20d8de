package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/pkg/objstore"
)

var (
	ErrUploadTooLarge = errors.New("file exceeds the maximum upload size")
	ErrUploadBadType  = errors.New("file type is not allowed")
	ErrObjectNotOwned = errors.New("object key belongs to another user")
	ErrObjectNotFound = errors.New("object not found in storage")
)

// ObjectStore is the slice of the storage client the upload flow needs.
type ObjectStore interface {
	PresignedPut(ctx context.Context, key string) (string, time.Duration, error)
	Stat(ctx context.Context, key string) (objstore.ObjectInfo, error)
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

const maxUploadSize = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".txt": true, ".md": true, ".csv": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true,
}

type UploadService struct {
	store  ObjectStore
	logger *zap.Logger
}

func NewUploadService(store ObjectStore, logger *zap.Logger) *UploadService {
	return &UploadService{store: store, logger: logger}
}

type PresignRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	Size        int64  `json:"size" validate:"required,gt=0"`
}

type PresignResponse struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
	ExpiresIn int64  `json:"expiresIn"`
}

// Presign validates the announced file and hands out a one-shot PUT URL. The
// bytes never pass through this service.
func (s *UploadService) Presign(ctx context.Context, userID uuid.UUID, req PresignRequest) (*PresignResponse, error) {
	if req.Size > maxUploadSize {
		return nil, ErrUploadTooLarge
	}

	ext := strings.ToLower(path.Ext(req.Filename))
	if !allowedExtensions[ext] {
		return nil, ErrUploadBadType
	}

	key := fmt.Sprintf("uploads/%s/%s%s", userID, uuid.New(), ext)

	url, ttl, err := s.store.PresignedPut(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	s.logger.Debug("presigned upload",
		zap.String("user_id", userID.String()),
		zap.String("key", key))

	return &PresignResponse{
		UploadURL: url,
		Key:       key,
		PublicURL: s.store.PublicURL(key),
		ExpiresIn: int64(ttl.Seconds()),
	}, nil
}

// Confirm checks that the object landed in storage under the caller's prefix
// and returns the attachment metadata to record on a task.
func (s *UploadService) Confirm(ctx context.Context, userID uuid.UUID, key, originalName string) (*domain.Attachment, error) {
	if !s.owns(userID, key) {
		return nil, ErrObjectNotOwned
	}

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, objstore.ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}
	if info.Size > maxUploadSize {
		if rerr := s.store.Remove(ctx, key); rerr != nil {
			s.logger.Warn("failed to remove oversized object", zap.String("key", key), zap.Error(rerr))
		}
		return nil, ErrUploadTooLarge
	}

	return &domain.Attachment{
		ID:           uuid.New(),
		Filename:     path.Base(key),
		OriginalName: originalName,
		MimeType:     info.ContentType,
		Size:         info.Size,
		URL:          s.store.PublicURL(key),
		UploadedBy:   userID,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// Delete removes an object. The key must sit under the caller's prefix.
func (s *UploadService) Delete(ctx context.Context, userID uuid.UUID, key string) error {
	if !s.owns(userID, key) {
		return ErrObjectNotOwned
	}
	if err := s.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

func (s *UploadService) owns(userID uuid.UUID, key string) bool {
	prefix := fmt.Sprintf("uploads/%s/", userID)
	return strings.HasPrefix(key, prefix) && !strings.Contains(strings.TrimPrefix(key, prefix), "/")
}
