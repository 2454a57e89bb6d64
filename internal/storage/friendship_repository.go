package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"global-app/internal/models"
)

// FriendshipRepository defines the interface for friendship edge operations.
// Each method works on a single directed edge; callers pair them inside a
// transaction.
type FriendshipRepository interface {
	// GetOrCreate inserts the edge unless it already exists. created reports
	// whether a row was written.
	GetOrCreate(ctx context.Context, userID, friendID uint) (created bool, err error)
	Exists(ctx context.Context, userID, friendID uint) (bool, error)
	// Delete removes the edge. A missing edge is not an error.
	Delete(ctx context.Context, userID, friendID uint) error
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	Count(ctx context.Context, userID uint) (int64, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

func (r *gormFriendshipRepository) GetOrCreate(ctx context.Context, userID, friendID uint) (bool, error) {
	edge := &models.Friendship{UserID: userID, FriendID: friendID}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
		DoNothing: true,
	}).Create(edge)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendshipRepository) Exists(ctx context.Context, userID, friendID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormFriendshipRepository) Delete(ctx context.Context, userID, friendID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Delete(&models.Friendship{}).Error
}

// FriendIDs retrieves the IDs of everyone userID has an outgoing edge to.
func (r *gormFriendshipRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	friendIDs := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Order("friend_id").
		Pluck("friend_id", &friendIDs).Error
	return friendIDs, err
}

func (r *gormFriendshipRepository) Count(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
