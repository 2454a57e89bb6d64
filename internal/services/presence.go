package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"global-app/internal/config"
	"global-app/internal/metrics"
	"global-app/internal/models"
	"global-app/internal/storage"
)

// PresenceTracker keeps profiles' last activity fresh and derives the online flag from it.
type PresenceTracker interface {
	// Touch persists last_activity=now if the stored value is older than the
	// debounce threshold. It reports whether a write happened. Users without a
	// profile are skipped.
	Touch(ctx context.Context, userID uint) (bool, error)
	IsOnline(profile *models.Profile) bool
}

type presenceTracker struct {
	store        storage.Store
	debounce     time.Duration
	onlineWindow time.Duration
	now          func() time.Time
}

// NewPresenceTracker creates a tracker. now may be nil.
func NewPresenceTracker(store storage.Store, cfg config.PresenceConfig, now func() time.Time) PresenceTracker {
	if now == nil {
		now = time.Now
	}
	return &presenceTracker{
		store:        store,
		debounce:     cfg.Debounce,
		onlineWindow: cfg.OnlineWindow,
		now:          now,
	}
}

func (p *presenceTracker) Touch(ctx context.Context, userID uint) (bool, error) {
	profile, err := p.store.Profiles().GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load profile for user %d: %w", userID, err)
	}

	now := p.now()
	if profile.LastActivity != nil && now.Sub(*profile.LastActivity) < p.debounce {
		return false, nil
	}
	if err := p.store.Profiles().UpdateLastActivity(ctx, userID, now); err != nil {
		return false, fmt.Errorf("update last activity for user %d: %w", userID, err)
	}
	metrics.PresenceWrites.Inc()
	return true, nil
}

func (p *presenceTracker) IsOnline(profile *models.Profile) bool {
	if profile == nil || profile.LastActivity == nil {
		return false
	}
	return p.now().Sub(*profile.LastActivity) < p.onlineWindow
}
