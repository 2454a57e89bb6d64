package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"global-app/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	// GetByPair looks up the row for the ordered (from, to) pair in any status.
	GetByPair(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error)
	// FindPendingBetween returns the pending request between two users in
	// either direction, or nil when there is none.
	FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error)
	// TransitionStatus moves the request from one status to another only if it
	// is still in the from status. ok is false when no row matched.
	TransitionStatus(ctx context.Context, requestID uint, from, to models.FriendRequestStatus) (ok bool, err error)
	// DeletePending removes the request only while it is pending.
	DeletePending(ctx context.Context, requestID uint) (ok bool, err error)
	// PendingCounterpartIDs lists every user with a pending request to or from userID.
	PendingCounterpartIDs(ctx context.Context, userID uint) ([]uint, error)
	ListPendingReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error)
	ListPendingSent(ctx context.Context, userID uint) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a new GORM-based FriendRequestRepository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := r.db.WithContext(ctx).First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) GetByPair(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", userID1, userID2, userID2, userID1).
		Where("status = ?", models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request found is not an error in this context
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) TransitionStatus(ctx context.Context, requestID uint, from, to models.FriendRequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendRequestRepository) DeletePending(ctx context.Context, requestID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Delete(&models.FriendRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendRequestRepository) PendingCounterpartIDs(ctx context.Context, userID uint) ([]uint, error) {
	var sent, received []uint
	err := r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("from_user_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Pluck("to_user_id", &sent).Error
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("to_user_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Pluck("from_user_id", &received).Error
	if err != nil {
		return nil, err
	}
	return append(sent, received...), nil
}

func (r *gormFriendRequestRepository) ListPendingReceived(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Where("to_user_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) ListPendingSent(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}
