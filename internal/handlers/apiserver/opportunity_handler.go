package apiserver

import (
	"net/http"
	"strconv"
	"time"

	"global-app/internal/middleware"
	"global-app/internal/models"
	"global-app/internal/services"
	"global-app/internal/storage"
	"global-app/internal/validator"
)

// OpportunityHandler serves the opportunity board for users and staff.
type OpportunityHandler struct {
	opportunityService services.OpportunityService
	validator          *validator.Validator
}

func NewOpportunityHandler(svc services.OpportunityService, v *validator.Validator) *OpportunityHandler {
	return &OpportunityHandler{opportunityService: svc, validator: v}
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
	Resume      string `json:"resume" validate:"omitempty,max=255"`
}

// CreateOpportunityRequest is the staff payload for a new opportunity. Deadline is YYYY-MM-DD.
type CreateOpportunityRequest struct {
	Title        string `json:"title" validate:"notblank,max=200"`
	Description  string `json:"description" validate:"notblank"`
	Type         string `json:"type" validate:"required,oneof=job interview demand"`
	Company      string `json:"company" validate:"max=200"`
	Location     string `json:"location" validate:"max=200"`
	WorkMode     string `json:"work_mode" validate:"max=50"`
	Salary       string `json:"salary" validate:"max=100"`
	Requirements string `json:"requirements"`
	Skills       string `json:"skills"`
	Deadline     string `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

type OpportunityStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open closed paused"`
}

type ApplicationStatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	AdminNotes *string `json:"admin_notes"`
}

// List handles GET /opportunities?type=&status=&q=&page=.
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	filter := storage.OpportunityFilter{
		Type:   models.OpportunityType(q.Get("type")),
		Status: models.OpportunityStatus(q.Get("status")),
		Query:  q.Get("q"),
		Offset: (page - 1) * services.OpportunityPageSize,
		Limit:  services.OpportunityPageSize,
	}

	list, err := h.opportunityService.ListOpportunities(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"opportunities": list, "page": page})
}

// Get handles GET /opportunities/{oppId}.
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	oppID, ok := pathID(w, r, "oppId")
	if !ok {
		return
	}
	view, err := h.opportunityService.GetOpportunity(r.Context(), userID, oppID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, view)
}

// Apply handles POST /opportunities/apply/{oppId}.
func (h *OpportunityHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	oppID, ok := pathID(w, r, "oppId")
	if !ok {
		return
	}
	var req ApplyRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	app, err := h.opportunityService.Apply(r.Context(), userID, oppID, req.CoverLetter, req.Resume)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, map[string]interface{}{"application_id": app.ID})
}

// Cancel handles POST /opportunities/cancel/{appId}.
func (h *OpportunityHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	appID, ok := pathID(w, r, "appId")
	if !ok {
		return
	}
	if err := h.opportunityService.CancelApplication(r.Context(), appID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

// MyApplications handles GET /opportunities/applications.
func (h *OpportunityHandler) MyApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	apps, err := h.opportunityService.ListMyApplications(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// Create handles POST /admin/opportunities.
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req CreateOpportunityRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	input := services.OpportunityInput{
		Title:        req.Title,
		Description:  req.Description,
		Type:         models.OpportunityType(req.Type),
		Company:      req.Company,
		Location:     req.Location,
		WorkMode:     req.WorkMode,
		Salary:       req.Salary,
		Requirements: req.Requirements,
		Skills:       req.Skills,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse(time.DateOnly, req.Deadline)
		if err != nil {
			writeJSONError(w, "deadline must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.Deadline = &deadline
	}

	opp, err := h.opportunityService.CreateOpportunity(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, opp)
}

// SetStatus handles POST /admin/opportunities/{oppId}/status.
func (h *OpportunityHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	oppID, ok := pathID(w, r, "oppId")
	if !ok {
		return
	}
	var req OpportunityStatusRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	opp, err := h.opportunityService.UpdateOpportunityStatus(r.Context(), oppID, models.OpportunityStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, opp)
}

// Applications handles GET /admin/opportunities/{oppId}/applications.
func (h *OpportunityHandler) Applications(w http.ResponseWriter, r *http.Request) {
	oppID, ok := pathID(w, r, "oppId")
	if !ok {
		return
	}
	apps, err := h.opportunityService.ListApplications(r.Context(), oppID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

// TransitionApplication handles POST /admin/applications/{appId}/status.
// Any status may follow any other.
func (h *OpportunityHandler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	appID, ok := pathID(w, r, "appId")
	if !ok {
		return
	}
	var req ApplicationStatusRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	app, err := h.opportunityService.TransitionApplication(r.Context(), appID, models.ApplicationStatus(req.Status), req.AdminNotes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	staffName, _ := middleware.GetUsernameFromContext(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"application": app, "updated_by": staffName})
}
