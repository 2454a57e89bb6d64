package apiserver

import (
	"net/http"

	"github.com/gorilla/mux"

	"global-app/internal/models"
	"global-app/internal/services"
	"global-app/internal/validator"
)

// ProfileHandler serves profile pages, profile edits and accessibility preferences.
type ProfileHandler struct {
	profileService services.ProfileService
	validator      *validator.Validator
}

func NewProfileHandler(ps services.ProfileService, v *validator.Validator) *ProfileHandler {
	return &ProfileHandler{profileService: ps, validator: v}
}

type UpdateProfileRequest struct {
	Bio     *string             `json:"bio" validate:"omitempty,max=500"`
	Avatar  *string             `json:"avatar" validate:"omitempty,max=255"`
	Socials []models.SocialLink `json:"socials" validate:"omitempty,max=10"`
}

type darkModeRequest struct {
	DarkMode *bool `json:"dark_mode" validate:"required"`
}

type assistiveModeRequest struct {
	AssistiveMode *bool `json:"assistive_mode" validate:"required"`
}

type fontSizeRequest struct {
	FontSize models.FontSize `json:"font_size" validate:"required,oneof=small medium large"`
}

// GetProfile handles GET /profile and GET /profile/{username}.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	page, err := h.profileService.ProfilePage(r.Context(), userID, mux.Vars(r)["username"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page)
}

// UpdateProfile handles PUT /profile.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	profile, err := h.profileService.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		Bio:     req.Bio,
		Avatar:  req.Avatar,
		Socials: req.Socials,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profile)
}

// UpdateDarkMode handles POST /api/update-dark-mode.
func (h *ProfileHandler) UpdateDarkMode(w http.ResponseWriter, r *http.Request) {
	var req darkModeRequest
	h.updatePreferences(w, r, &req, func() services.PreferencesUpdate {
		return services.PreferencesUpdate{DarkMode: req.DarkMode}
	})
}

// UpdateAssistiveMode handles POST /api/update-vlibras, which toggles the sign-language assistant.
func (h *ProfileHandler) UpdateAssistiveMode(w http.ResponseWriter, r *http.Request) {
	var req assistiveModeRequest
	h.updatePreferences(w, r, &req, func() services.PreferencesUpdate {
		return services.PreferencesUpdate{AssistiveMode: req.AssistiveMode}
	})
}

// UpdateFontSize handles POST /api/update-font-size.
func (h *ProfileHandler) UpdateFontSize(w http.ResponseWriter, r *http.Request) {
	var req fontSizeRequest
	h.updatePreferences(w, r, &req, func() services.PreferencesUpdate {
		return services.PreferencesUpdate{FontSize: &req.FontSize}
	})
}

func (h *ProfileHandler) updatePreferences(w http.ResponseWriter, r *http.Request, req interface{}, update func() services.PreferencesUpdate) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if !decodeJSON(w, r, h.validator, req) {
		return
	}
	profile, err := h.profileService.UpdatePreferences(r.Context(), userID, update())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, map[string]interface{}{
		"dark_mode":      profile.DarkMode,
		"assistive_mode": profile.AssistiveMode,
		"font_size":      profile.FontSize,
	})
}
