package apiserver

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"global-app/internal/auth"
	"global-app/internal/config"
	"global-app/internal/media"
	"global-app/internal/middleware"
	"global-app/internal/services"
	"global-app/internal/validator"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Auth          services.AuthService
	Friends       services.FriendService
	Posts         services.PostService
	Profiles      services.ProfileService
	Opportunities services.OpportunityService
	Presence      services.PresenceTracker
	Media         media.Store
	Blacklist     auth.TokenBlacklist
	AuthConfig    config.AuthConfig
	StorageConfig config.StorageConfig
}

// NewRouter wires every route. Authenticated routes pass through auth, then
// presence; /admin additionally requires staff.
func NewRouter(d Dependencies) *mux.Router {
	v := validator.New()
	authHandler := NewAuthHandler(d.Auth, v)
	friendHandler := NewFriendHandler(d.Friends)
	postHandler := NewPostHandler(d.Posts, v)
	profileHandler := NewProfileHandler(d.Profiles, v)
	opportunityHandler := NewOpportunityHandler(d.Opportunities, v)
	uploadHandler := NewUploadHandler(d.Media, d.StorageConfig)

	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if d.StorageConfig.LocalPath != "" && d.StorageConfig.BaseURL != "" {
		prefix := strings.TrimSuffix(d.StorageConfig.BaseURL, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(d.StorageConfig.LocalPath)))).Methods(http.MethodGet)
	}

	public := r.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(middleware.AuthMiddleware(d.AuthConfig, d.Blacklist))
	api.Use(middleware.PresenceMiddleware(d.Presence))

	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	api.HandleFunc("/friends", friendHandler.Overview).Methods(http.MethodGet)
	api.HandleFunc("/friends/search", friendHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/friends/mutual/{userId:[0-9]+}", friendHandler.Mutual).Methods(http.MethodGet)
	api.HandleFunc("/friends/request/send/{userId:[0-9]+}", friendHandler.SendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/request/accept/{requestId:[0-9]+}", friendHandler.AcceptRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/request/reject/{requestId:[0-9]+}", friendHandler.RejectRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/request/cancel/{requestId:[0-9]+}", friendHandler.CancelRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/remove/{userId:[0-9]+}", friendHandler.RemoveFriend).Methods(http.MethodPost)

	api.HandleFunc("/feed", postHandler.Feed).Methods(http.MethodGet)
	api.HandleFunc("/posts", postHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/post/{postId:[0-9]+}/delete", postHandler.Delete).Methods(http.MethodPost)
	api.HandleFunc("/post/{postId:[0-9]+}/like", postHandler.ToggleLike).Methods(http.MethodPost)

	api.HandleFunc("/profile", profileHandler.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/profile", profileHandler.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/profile/{username}", profileHandler.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/api/update-dark-mode", profileHandler.UpdateDarkMode).Methods(http.MethodPost)
	api.HandleFunc("/api/update-vlibras", profileHandler.UpdateAssistiveMode).Methods(http.MethodPost)
	api.HandleFunc("/api/update-font-size", profileHandler.UpdateFontSize).Methods(http.MethodPost)

	api.HandleFunc("/uploads", uploadHandler.Upload).Methods(http.MethodPost)

	api.HandleFunc("/opportunities", opportunityHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/applications", opportunityHandler.MyApplications).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/{oppId:[0-9]+}", opportunityHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/opportunities/apply/{oppId:[0-9]+}", opportunityHandler.Apply).Methods(http.MethodPost)
	api.HandleFunc("/opportunities/cancel/{appId:[0-9]+}", opportunityHandler.Cancel).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireStaff)
	admin.HandleFunc("/opportunities", opportunityHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/opportunities/{oppId:[0-9]+}/status", opportunityHandler.SetStatus).Methods(http.MethodPost)
	admin.HandleFunc("/opportunities/{oppId:[0-9]+}/applications", opportunityHandler.Applications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/{appId:[0-9]+}/status", opportunityHandler.TransitionApplication).Methods(http.MethodPost)

	return r
}
