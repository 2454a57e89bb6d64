package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"global-app/internal/events"
	"global-app/internal/metrics"
	"global-app/internal/models"
	"global-app/internal/storage"
)

const OpportunityPageSize = 20

// OpportunityInput is the data needed to post an opportunity.
type OpportunityInput struct {
	Title        string
	Description  string
	Type         models.OpportunityType
	Company      string
	Location     string
	WorkMode     string
	Salary       string
	Requirements string
	Skills       string
	Deadline     *time.Time
}

// OpportunityService runs the opportunity board and application workflow.
// Staff-only operations are gated by the caller.
type OpportunityService interface {
	CreateOpportunity(ctx context.Context, creatorID uint, input OpportunityInput) (*models.Opportunity, error)
	UpdateOpportunityStatus(ctx context.Context, opportunityID uint, status models.OpportunityStatus) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, viewerID uint, filter storage.OpportunityFilter) ([]models.OpportunityView, error)
	GetOpportunity(ctx context.Context, viewerID, opportunityID uint) (*models.OpportunityView, error)

	Apply(ctx context.Context, userID, opportunityID uint, coverLetter, resume string) (*models.Application, error)
	CancelApplication(ctx context.Context, applicationID, actorID uint) error
	// TransitionApplication moves an application to any status; there is no transition table.
	TransitionApplication(ctx context.Context, applicationID uint, status models.ApplicationStatus, notes *string) (*models.Application, error)
	ListMyApplications(ctx context.Context, userID uint) ([]models.ApplicationView, error)
	ListApplications(ctx context.Context, opportunityID uint) ([]models.ApplicationView, error)

	IsExpired(opportunity *models.Opportunity) bool
}

type opportunityService struct {
	store     storage.Store
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewOpportunityService creates an OpportunityService. publisher, log and now may be nil.
func NewOpportunityService(store storage.Store, publisher events.Publisher, log *zap.Logger, now func() time.Time) OpportunityService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &opportunityService{store: store, publisher: publisher, log: log.Named("opportunities"), now: now}
}

// IsExpired reports whether the deadline is before today. Only calendar dates
// are compared, in the deadline's location.
func (s *opportunityService) IsExpired(opportunity *models.Opportunity) bool {
	return deadlinePassed(opportunity.Deadline, s.now())
}

func deadlinePassed(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	dy, dm, dd := deadline.Date()
	ty, tm, td := now.In(deadline.Location()).Date()
	return time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC).Before(time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC))
}

func (s *opportunityService) CreateOpportunity(ctx context.Context, creatorID uint, input OpportunityInput) (*models.Opportunity, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, invalidInput("title and description are required")
	}
	if !input.Type.Valid() {
		return nil, invalidInput("type must be job, interview or demand")
	}

	opportunity := &models.Opportunity{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		Type:         input.Type,
		Status:       models.OpportunityStatusOpen,
		Company:      input.Company,
		Location:     input.Location,
		WorkMode:     input.WorkMode,
		Salary:       input.Salary,
		Requirements: input.Requirements,
		Skills:       input.Skills,
		Deadline:     input.Deadline,
		CreatedByID:  creatorID,
	}
	if err := s.store.Opportunities().Create(ctx, opportunity); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}
	s.log.Info("opportunity created", zap.Uint("opportunity_id", opportunity.ID), zap.Uint("by", creatorID))
	return opportunity, nil
}

func (s *opportunityService) UpdateOpportunityStatus(ctx context.Context, opportunityID uint, status models.OpportunityStatus) (*models.Opportunity, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.store.Opportunities().UpdateStatus(ctx, opportunityID, status); err != nil {
		return nil, notFound(err, "opportunity", opportunityID)
	}
	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return nil, notFound(err, "opportunity", opportunityID)
	}
	s.log.Info("opportunity status changed", zap.Uint("opportunity_id", opportunityID), zap.String("status", string(status)))
	return opportunity, nil
}

func (s *opportunityService) ListOpportunities(ctx context.Context, viewerID uint, filter storage.OpportunityFilter) ([]models.OpportunityView, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalidInput("unknown opportunity type %q", filter.Type)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = OpportunityPageSize
	}

	list, err := s.store.Opportunities().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	return s.views(ctx, viewerID, list)
}

func (s *opportunityService) GetOpportunity(ctx context.Context, viewerID, opportunityID uint) (*models.OpportunityView, error) {
	opportunity, err := s.store.Opportunities().GetByID(ctx, opportunityID)
	if err != nil {
		return nil, notFound(err, "opportunity", opportunityID)
	}
	views, err := s.views(ctx, viewerID, []models.Opportunity{*opportunity})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views annotates opportunities with expiry, application counts and whether the viewer applied.
func (s *opportunityService) views(ctx context.Context, viewerID uint, list []models.Opportunity) ([]models.OpportunityView, error) {
	views := make([]models.OpportunityView, 0, len(list))
	if len(list) == 0 {
		return views, nil
	}

	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	counts, err := s.store.Applications().CountByOpportunities(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	mine, err := s.store.Applications().ListByUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load applications of user %d: %w", viewerID, err)
	}
	applied := make(map[uint]uint, len(mine))
	for _, a := range mine {
		applied[a.OpportunityID] = a.ID
	}

	now := s.now()
	for i := range list {
		appID, hasApplied := applied[list[i].ID]
		views = append(views, models.OpportunityView{
			Opportunity:      list[i],
			IsExpired:        deadlinePassed(list[i].Deadline, now),
			HasApplied:       hasApplied,
			ApplicationID:    appID,
			ApplicationCount: counts[list[i].ID],
		})
	}
	return views, nil
}

func (s *opportunityService) Apply(ctx context.Context, userID, opportunityID uint, coverLetter, resume string) (*models.Application, error) {
	var application *models.Application
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		opportunity, err := tx.Opportunities().GetByID(ctx, opportunityID)
		if err != nil {
			return notFound(err, "opportunity", opportunityID)
		}
		if opportunity.Status != models.OpportunityStatusOpen {
			return ErrOpportunityClosed
		}
		if deadlinePassed(opportunity.Deadline, s.now()) {
			return ErrOpportunityExpired
		}

		_, err = tx.Applications().GetByPair(ctx, opportunityID, userID)
		if err == nil {
			return ErrDuplicateApplication
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check existing application: %w", err)
		}

		application = &models.Application{
			OpportunityID: opportunityID,
			UserID:        userID,
			CoverLetter:   strings.TrimSpace(coverLetter),
			Resume:        resume,
			Status:        models.ApplicationStatusPending,
		}
		if err := tx.Applications().Create(ctx, application); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateApplication
			}
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
	metrics.Applications.WithLabelValues("applied", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.log.Info("application submitted", zap.Uint("application_id", application.ID), zap.Uint("opportunity_id", opportunityID), zap.Uint("user_id", userID))
	events.Emit(ctx, s.publisher, events.New(events.ApplicationSubmitted, userID, 0, application.ID))
	return application, nil
}

// CancelApplication deletes a pending application on behalf of its applicant.
func (s *opportunityService) CancelApplication(ctx context.Context, applicationID, actorID uint) error {
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		application, err := tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return notFound(err, "application", applicationID)
		}
		if application.UserID != actorID {
			return ErrForbidden
		}
		if application.Status != models.ApplicationStatusPending {
			return ErrNotCancelable
		}
		if err := tx.Applications().Delete(ctx, applicationID); err != nil {
			return fmt.Errorf("delete application %d: %w", applicationID, err)
		}
		return nil
	})
	metrics.Applications.WithLabelValues("cancelled", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.log.Info("application cancelled", zap.Uint("application_id", applicationID), zap.Uint("by", actorID))
	events.Emit(ctx, s.publisher, events.New(events.ApplicationCancelled, actorID, 0, applicationID))
	return nil
}

func (s *opportunityService) TransitionApplication(ctx context.Context, applicationID uint, status models.ApplicationStatus, notes *string) (*models.Application, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var application *models.Application
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if err := tx.Applications().UpdateStatus(ctx, applicationID, status, notes); err != nil {
			return notFound(err, "application", applicationID)
		}
		var err error
		application, err = tx.Applications().GetByID(ctx, applicationID)
		if err != nil {
			return notFound(err, "application", applicationID)
		}
		return nil
	})
	metrics.Applications.WithLabelValues("transitioned", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.log.Info("application status changed", zap.Uint("application_id", applicationID), zap.String("status", string(status)))
	events.Emit(ctx, s.publisher, events.New(events.ApplicationStatusChanged, application.UserID, 0, applicationID).WithStatus(string(status)))
	return application, nil
}

func (s *opportunityService) ListMyApplications(ctx context.Context, userID uint) ([]models.ApplicationView, error) {
	apps, err := s.store.Applications().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications of user %d: %w", userID, err)
	}
	return s.applicationViews(ctx, apps)
}

func (s *opportunityService) ListApplications(ctx context.Context, opportunityID uint) ([]models.ApplicationView, error) {
	if _, err := s.store.Opportunities().GetByID(ctx, opportunityID); err != nil {
		return nil, notFound(err, "opportunity", opportunityID)
	}
	apps, err := s.store.Applications().ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list applications of opportunity %d: %w", opportunityID, err)
	}
	return s.applicationViews(ctx, apps)
}

func (s *opportunityService) applicationViews(ctx context.Context, apps []models.Application) ([]models.ApplicationView, error) {
	views := make([]models.ApplicationView, 0, len(apps))
	if len(apps) == 0 {
		return views, nil
	}

	userIDs := make([]uint, 0, len(apps))
	titles := make(map[uint]string)
	for _, a := range apps {
		userIDs = append(userIDs, a.UserID)
		if _, ok := titles[a.OpportunityID]; ok {
			continue
		}
		opportunity, err := s.store.Opportunities().GetByID(ctx, a.OpportunityID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load opportunity %d: %w", a.OpportunityID, err)
		}
		if opportunity != nil {
			titles[a.OpportunityID] = opportunity.Title
		} else {
			titles[a.OpportunityID] = ""
		}
	}
	applicants, err := basicInfosByID(ctx, s.store, userIDs)
	if err != nil {
		return nil, err
	}

	for _, a := range apps {
		views = append(views, models.ApplicationView{
			Application:      a,
			OpportunityTitle: titles[a.OpportunityID],
			Applicant:        applicants[a.UserID],
		})
	}
	return views, nil
}
