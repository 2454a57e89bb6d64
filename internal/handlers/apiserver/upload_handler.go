package apiserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"global-app/internal/config"
	"global-app/internal/logger"
	"global-app/internal/media"
)

const defaultMaxMemory = 32 << 20

// UploadHandler accepts avatars, post media and resumes.
type UploadHandler struct {
	store media.Store
	cfg   config.StorageConfig
}

func NewUploadHandler(store media.Store, cfg config.StorageConfig) *UploadHandler {
	return &UploadHandler{store: store, cfg: cfg}
}

// Upload handles POST /uploads with a multipart "file" and an optional "kind"
// (avatar, post or resume; post by default).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeJSONError(w, fmt.Sprintf("file too large, the limit is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	kind, err := media.ParseKind(r.FormValue("kind"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeJSONError(w, "missing 'file' field", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("read file: %v", err), http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeJSONError(w, fmt.Sprintf("file too large, the limit is %d MB", maxUploadSize>>20), http.StatusRequestEntityTooLarge)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	info, err := h.store.Save(r.Context(), kind, file, header.Size, header.Filename, mimeType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) || errors.Is(err, media.ErrUnknownKind) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L().Error("store upload", zap.String("kind", string(kind)), zap.String("file", header.Filename), zap.Error(err))
		writeJSONError(w, "could not store file", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}
