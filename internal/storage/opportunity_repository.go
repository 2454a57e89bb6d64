package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"global-app/internal/models"
)

// OpportunityFilter narrows an opportunity listing. Empty fields match everything.
type OpportunityFilter struct {
	Type   models.OpportunityType
	Status models.OpportunityStatus
	Query  string
	Offset int
	Limit  int
}

// OpportunityRepository defines the interface for opportunity data operations.
type OpportunityRepository interface {
	Create(ctx context.Context, opportunity *models.Opportunity) error
	GetByID(ctx context.Context, id uint) (*models.Opportunity, error)
	// List returns matching opportunities newest first.
	List(ctx context.Context, filter OpportunityFilter) ([]models.Opportunity, error)
	UpdateStatus(ctx context.Context, id uint, status models.OpportunityStatus) error
}

type gormOpportunityRepository struct {
	db *gorm.DB
}

// NewGormOpportunityRepository creates a new GORM-based OpportunityRepository.
func NewGormOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &gormOpportunityRepository{db: db}
}

func (r *gormOpportunityRepository) Create(ctx context.Context, opportunity *models.Opportunity) error {
	return r.db.WithContext(ctx).Create(opportunity).Error
}

func (r *gormOpportunityRepository) GetByID(ctx context.Context, id uint) (*models.Opportunity, error) {
	var opportunity models.Opportunity
	if err := r.db.WithContext(ctx).First(&opportunity, id).Error; err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *gormOpportunityRepository) List(ctx context.Context, filter OpportunityFilter) ([]models.Opportunity, error) {
	opportunities := []models.Opportunity{}
	q := r.db.WithContext(ctx).Model(&models.Opportunity{})
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		term := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(skills) LIKE ?)", term, term, term)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	err := q.Offset(filter.Offset).Order("created_at DESC, id DESC").Find(&opportunities).Error
	return opportunities, err
}

func (r *gormOpportunityRepository) UpdateStatus(ctx context.Context, id uint, status models.OpportunityStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Opportunity{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApplicationRepository defines the interface for application data operations.
type ApplicationRepository interface {
	// Create inserts an application; a second one for the same pair yields gorm.ErrDuplicatedKey.
	Create(ctx context.Context, application *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	GetByPair(ctx context.Context, opportunityID, userID uint) (*models.Application, error)
	Delete(ctx context.Context, id uint) error
	// UpdateStatus sets the status, and the admin notes when notes is non-nil.
	UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, notes *string) error
	ListByUser(ctx context.Context, userID uint) ([]models.Application, error)
	ListByOpportunity(ctx context.Context, opportunityID uint) ([]models.Application, error)
	CountByOpportunities(ctx context.Context, opportunityIDs []uint) (map[uint]int64, error)
}

type gormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GORM-based ApplicationRepository.
func NewGormApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &gormApplicationRepository{db: db}
}

func (r *gormApplicationRepository) Create(ctx context.Context, application *models.Application) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *gormApplicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	if err := r.db.WithContext(ctx).First(&application, id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *gormApplicationRepository) GetByPair(ctx context.Context, opportunityID, userID uint) (*models.Application, error) {
	var application models.Application
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ? AND user_id = ?", opportunityID, userID).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *gormApplicationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Application{}, id).Error
}

func (r *gormApplicationRepository) UpdateStatus(ctx context.Context, id uint, status models.ApplicationStatus, notes *string) error {
	updates := map[string]interface{}{"status": status}
	if notes != nil {
		updates["admin_notes"] = *notes
	}
	res := r.db.WithContext(ctx).Model(&models.Application{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gormApplicationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	applications := []models.Application{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&applications).Error
	return applications, err
}

func (r *gormApplicationRepository) ListByOpportunity(ctx context.Context, opportunityID uint) ([]models.Application, error) {
	applications := []models.Application{}
	err := r.db.WithContext(ctx).Where("opportunity_id = ?", opportunityID).Order("created_at ASC, id ASC").Find(&applications).Error
	return applications, err
}

func (r *gormApplicationRepository) CountByOpportunities(ctx context.Context, opportunityIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(opportunityIDs))
	if len(opportunityIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		OpportunityID uint
		Total         int64
	}
	err := r.db.WithContext(ctx).Model(&models.Application{}).
		Select("opportunity_id, COUNT(*) AS total").
		Where("opportunity_id IN ?", opportunityIDs).
		Group("opportunity_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.OpportunityID] = row.Total
	}
	return counts, nil
}
