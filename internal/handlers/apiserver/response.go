package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"global-app/internal/logger"
	"global-app/internal/middleware"
	"global-app/internal/services"
	"global-app/internal/storage"
	"global-app/internal/validator"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.L().Warn("encode json response", zap.Error(err))
		}
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Success: false, Error: message})
}

// writeSuccess writes {success:true} plus any extra fields.
func writeSuccess(w http.ResponseWriter, extra map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSONResponse(w, http.StatusOK, body)
}

// writeServiceError maps service errors to status codes. Unexpected errors are
// logged and returned as 500 with their message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUserAlreadyExists):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSONError(w, err.Error(), http.StatusUnauthorized)
	case services.IsBusinessError(err), validator.IsValidationError(err):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		userID, _ := middleware.GetUserIDFromContext(r.Context())
		logger.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Uint("user_id", userID),
			zap.Error(err))
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// currentUserID returns the authenticated user or writes a 401.
func currentUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
	}
	return userID, ok
}

// pathID parses a numeric route variable or writes a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		writeJSONError(w, "missing "+name, http.StatusBadRequest)
		return 0, false
	}
	id, err := storage.StrToUint(raw)
	if err != nil {
		writeJSONError(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON reads the request body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validator, dst interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if v == nil {
		return true
	}
	if err := v.Validate(dst); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}
