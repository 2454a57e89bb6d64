package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/auth"
	"global-app/internal/config"
	"global-app/internal/models"
)

var testAuthCfg = config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour, Issuer: "global-app-test"}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := GetUserIDFromContext(r.Context())
	name, _ := GetUsernameFromContext(r.Context())
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "username": name})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	blacklist := auth.NewMemoryBlacklist()
	h := AuthMiddleware(testAuthCfg, blacklist)(http.HandlerFunc(echoUser))

	token, err := auth.GenerateToken(7, "alice", false, testAuthCfg)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/friends", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			if tt.status == http.StatusOK {
				assert.EqualValues(t, 7, body["id"])
				assert.Equal(t, "alice", body["username"])
			} else {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	blacklist := auth.NewMemoryBlacklist()
	token, err := auth.GenerateToken(7, "alice", false, testAuthCfg)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(context.Background(), token, testAuthCfg, nil)
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthMiddleware(testAuthCfg, blacklist)(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type failingBlacklist struct{}

func (failingBlacklist) Add(context.Context, string, time.Time) error { return nil }
func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestAuthMiddlewareBlacklistOutage(t *testing.T) {
	token, err := auth.GenerateToken(7, "alice", false, testAuthCfg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	AuthMiddleware(testAuthCfg, failingBlacklist{})(http.HandlerFunc(echoUser)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireStaff(ok)

	serve := func(claims *auth.Claims) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/opportunities", nil)
		if claims != nil {
			req = req.WithContext(WithClaims(req.Context(), claims))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{UserID: 1}))
	assert.Equal(t, http.StatusNoContent, serve(&auth.Claims{UserID: 1, IsStaff: true}))
}

type recordingTracker struct {
	touched []uint
	err     error
}

func (r *recordingTracker) Touch(_ context.Context, userID uint) (bool, error) {
	r.touched = append(r.touched, userID)
	return r.err == nil, r.err
}

func (r *recordingTracker) IsOnline(*models.Profile) bool { return false }

func TestPresenceMiddleware(t *testing.T) {
	tracker := &recordingTracker{}
	h := PresenceMiddleware(tracker)(http.HandlerFunc(echoUser))

	anon := httptest.NewRecorder()
	h.ServeHTTP(anon, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Empty(t, tracker.touched)

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: 3, Username: "carol"}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, []uint{3}, tracker.touched)

	tracker.err = errors.New("db down")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "presence failures never fail the request")
}
