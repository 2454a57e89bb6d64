// Package media stores user uploads: avatars, post attachments and resumes.
package media

import (
	"context"
	"errors"
	"io"
	"strings"
)

// Kind selects the upload category. Each kind has its own sub-directory and
// accepted content types.
type Kind string

const (
	KindAvatar Kind = "avatar"
	KindPost   Kind = "post"
	KindResume Kind = "resume"
)

var (
	ErrUnknownKind     = errors.New("unknown upload kind")
	ErrUnsupportedType = errors.New("unsupported file type for this upload kind")
	ErrSizeMismatch    = errors.New("written size does not match declared size")
)

var allowedTypes = map[Kind][]string{
	KindAvatar: {"image/"},
	KindPost:   {"image/", "video/"},
	KindResume: {"application/pdf", "application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
}

// ParseKind validates a kind received from a client. An empty value means a post attachment.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindPost, nil
	}
	k := Kind(strings.ToLower(s))
	if _, ok := allowedTypes[k]; !ok {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Accepts reports whether mimeType may be stored under kind.
func (k Kind) Accepts(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	for _, prefix := range allowedTypes[k] {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// FileInfo describes a stored upload.
type FileInfo struct {
	Kind     Kind   `json:"kind"`
	URL      string `json:"url"`
	Path     string `json:"-"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
}

// Store persists uploads and returns the reference saved on profiles, posts and applications.
type Store interface {
	Save(ctx context.Context, kind Kind, reader io.Reader, fileSize int64, fileName, mimeType string) (*FileInfo, error)
	Delete(ctx context.Context, info *FileInfo) error
}
