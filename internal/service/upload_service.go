package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edufund-api/internal/models"
	appErrors "github.com/noah-isme/edufund-api/pkg/errors"
	"github.com/noah-isme/edufund-api/pkg/storage"
)

// DefaultMaxUploadSize caps a single uploaded file.
const DefaultMaxUploadSize int64 = 10 << 20

var allowedUploadTypes = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"application/pdf": {".pdf"},
}

// UploadFile is a buffered multipart file handed to the service layer.
type UploadFile struct {
	Field    string
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// NewUploadFile buffers r fully so its type can be sniffed and the stream replayed.
func NewUploadFile(field, filename string, size int64, r io.Reader) (UploadFile, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return UploadFile{Field: field, Filename: filename, Size: size, Content: rs}, nil
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return UploadFile{}, err
	}
	return UploadFile{Field: field, Filename: filename, Size: int64(len(buf)), Content: bytes.NewReader(buf)}, nil
}

// StoredFile describes an upload persisted to the object store.
type StoredFile struct {
	Field       string
	Filename    string
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Ref converts the stored file into the reference persisted on profiles and campaigns.
func (f StoredFile) Ref() models.DocumentRef {
	return models.DocumentRef{URL: f.URL, PublicID: f.Key}
}

// UploadService validates uploads and writes them to the configured object store.
type UploadService struct {
	store   storage.ObjectStore
	maxSize int64
	logger  *zap.Logger
}

// NewUploadService constructs an UploadService.
func NewUploadService(store storage.ObjectStore, maxSize int64, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &UploadService{store: store, maxSize: maxSize, logger: logger}
}

// Validate checks size, extension and sniffed content type without writing anything.
func (s *UploadService) Validate(upload UploadFile) (string, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is empty", upload.Filename))
	}
	if upload.Size > s.maxSize {
		return "", appErrors.Clone(appErrors.ErrPayloadSize, fmt.Sprintf("%s exceeds %d bytes limit", upload.Filename, s.maxSize))
	}
	contentType, err := sniff(upload.Content)
	if err != nil {
		return "", err
	}
	exts, ok := allowedUploadTypes[contentType]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "only jpeg, jpg, png and pdf files are allowed")
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	for _, allowed := range exts {
		if ext == allowed {
			return contentType, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s does not match its content", upload.Filename))
}

// ValidateAll validates every upload, stopping at the first failure.
func (s *UploadService) ValidateAll(uploads []UploadFile) error {
	for _, u := range uploads {
		if _, err := s.Validate(u); err != nil {
			return err
		}
	}
	return nil
}

// Store validates and persists one upload under folder.
func (s *UploadService) Store(ctx context.Context, folder string, upload UploadFile) (*StoredFile, error) {
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "upload storage not configured")
	}
	contentType, err := s.Validate(upload)
	if err != nil {
		return nil, err
	}
	key := path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(upload.Filename)))
	obj, err := s.store.Put(ctx, key, upload.Content, upload.Size, contentType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	return &StoredFile{
		Field:       upload.Field,
		Filename:    upload.Filename,
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: contentType,
		Size:        obj.Size,
	}, nil
}

// StoreAll persists uploads in order. On failure the files already written are removed.
func (s *UploadService) StoreAll(ctx context.Context, folder string, uploads []UploadFile) ([]StoredFile, error) {
	stored := make([]StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.Store(ctx, folder, u)
		if err != nil {
			s.Cleanup(ctx, stored)
			return nil, err
		}
		stored = append(stored, *f)
	}
	return stored, nil
}

// Cleanup removes stored files. Failures are logged only.
func (s *UploadService) Cleanup(ctx context.Context, files []StoredFile) {
	if s.store == nil {
		return
	}
	for _, f := range files {
		if err := s.store.Remove(ctx, f.Key); err != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", f.Key), zap.Error(err))
		}
	}
}

func sniff(r io.ReadSeeker) (string, error) {
	header := make([]byte, 512)
	n, err := r.Read(header)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	if n == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	return http.DetectContentType(header[:n]), nil
}
