package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"global-app/internal/models"
)

// ProfileRepository defines the interface for profile data operations.
type ProfileRepository interface {
	// Create inserts a profile. A taken user_id or uid yields gorm.ErrDuplicatedKey.
	Create(ctx context.Context, profile *models.Profile) error
	// GetByUserID returns gorm.ErrRecordNotFound when the user has no profile yet.
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	GetByUserIDs(ctx context.Context, userIDs []uint) ([]models.Profile, error)
	// Update persists the editable fields. The uid is never rewritten.
	Update(ctx context.Context, profile *models.Profile) error
	// UpdateLastActivity writes only last_activity.
	UpdateLastActivity(ctx context.Context, userID uint, at time.Time) error
}

type gormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GORM-based ProfileRepository.
func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &gormProfileRepository{db: db}
}

func (r *gormProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *gormProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormProfileRepository) GetByUserIDs(ctx context.Context, userIDs []uint) ([]models.Profile, error) {
	profiles := []models.Profile{}
	if len(userIDs) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

func (r *gormProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if profile.ID == 0 {
		return gorm.ErrMissingWhereClause
	}
	return r.db.WithContext(ctx).Model(profile).
		Select("avatar", "bio", "socials", "dark_mode", "assistive_mode", "font_size", "updated_at").
		Updates(profile).Error
}

func (r *gormProfileRepository) UpdateLastActivity(ctx context.Context, userID uint, at time.Time) error {
	// UpdateColumn skips the updated_at hook so only last_activity is written.
	return r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		UpdateColumn("last_activity", at).Error
}
