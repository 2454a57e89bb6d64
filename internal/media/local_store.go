package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"global-app/internal/config"
	"global-app/internal/logger"
)

// LocalStore keeps uploads on the local filesystem, one directory per kind.
type LocalStore struct {
	basePath string // e.g. "./uploads"
	baseURL  string // e.g. "/uploads"
}

// NewLocalStore creates the kind directories under cfg.LocalPath.
func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	for kind := range allowedTypes {
		dir := filepath.Join(cfg.LocalPath, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create upload directory %q: %w", dir, err)
		}
	}
	return &LocalStore{basePath: cfg.LocalPath, baseURL: cfg.BaseURL}, nil
}

// Save writes reader under a random name that keeps the original extension.
func (s *LocalStore) Save(ctx context.Context, kind Kind, reader io.Reader, fileSize int64, fileName, mimeType string) (*FileInfo, error) {
	if _, ok := allowedTypes[kind]; !ok {
		return nil, ErrUnknownKind
	}
	if !kind.Accepts(mimeType) {
		return nil, ErrUnsupportedType
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		if extensions, _ := mime.ExtensionsByType(mimeType); len(extensions) > 0 {
			ext = extensions[0]
		}
	}
	name := uuid.New().String() + ext
	dstPath := filepath.Join(s.basePath, string(kind), name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("create file %q: %w", dstPath, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, reader)
	if err != nil {
		os.Remove(dstPath)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if fileSize >= 0 && written != fileSize {
		os.Remove(dstPath)
		return nil, fmt.Errorf("%w: expected %d, wrote %d", ErrSizeMismatch, fileSize, written)
	}

	logger.L().Debug("upload stored", zap.String("kind", string(kind)), zap.String("path", dstPath), zap.Int64("size", written))
	return &FileInfo{
		Kind:     kind,
		URL:      strings.TrimSuffix(s.baseURL, "/") + "/" + string(kind) + "/" + url.PathEscape(name),
		Path:     dstPath,
		Size:     written,
		MimeType: mimeType,
		FileName: fileName,
	}, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalStore) Delete(ctx context.Context, info *FileInfo) error {
	if info == nil || info.Path == "" {
		return nil
	}
	if err := os.Remove(info.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file %q: %w", info.Path, err)
	}
	return nil
}
