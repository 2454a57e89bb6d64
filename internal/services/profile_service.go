package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"global-app/internal/models"
	"global-app/internal/storage"
)

const (
	uidAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	uidMaxAttempts   = 5
	ProfileMutualMax = 6
	ProfilePostsMax  = 10
	BioMaxLength     = 500
	SocialLinksMax   = 10
)

var ErrUIDExhausted = errors.New("could not allocate a unique profile uid")

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Bio     *string
	Avatar  *string
	Socials []models.SocialLink
}

// PreferencesUpdate carries accessibility preferences. Nil fields are left unchanged.
type PreferencesUpdate struct {
	DarkMode      *bool
	AssistiveMode *bool
	FontSize      *models.FontSize
}

// ProfilePage is everything shown on a profile, from the viewer's point of view.
type ProfilePage struct {
	User          models.UserBasicInfo   `json:"user"`
	Profile       *models.Profile        `json:"profile"`
	IsOwner       bool                   `json:"is_owner"`
	IsOnline      bool                   `json:"is_online"`
	Friendship    FriendshipState        `json:"friendship"`
	FriendCount   int64                  `json:"friend_count"`
	MutualFriends []models.UserBasicInfo `json:"mutual_friends"`
	Posts         []models.FeedPost      `json:"posts"`
}

// ProfileService manages profiles. Profiles are created on first access.
type ProfileService interface {
	GetOrCreateProfile(ctx context.Context, userID uint) (*models.Profile, error)
	// ProfilePage loads username's page as seen by viewerID. An empty username means the viewer's own.
	ProfilePage(ctx context.Context, viewerID uint, username string) (*ProfilePage, error)
	UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.Profile, error)
	UpdatePreferences(ctx context.Context, userID uint, update PreferencesUpdate) (*models.Profile, error)
}

type profileService struct {
	store    storage.Store
	friends  FriendService
	posts    PostService
	presence PresenceTracker
	log      *zap.Logger
	now      func() time.Time
	newUID   func() (string, error)
}

// NewProfileService creates a ProfileService. now and log may be nil.
func NewProfileService(store storage.Store, friends FriendService, posts PostService, presence PresenceTracker, log *zap.Logger, now func() time.Time) ProfileService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &profileService{
		store:    store,
		friends:  friends,
		posts:    posts,
		presence: presence,
		log:      log.Named("profiles"),
		now:      now,
		newUID:   generateUID,
	}
}

// generateUID returns a random alphanumeric public identifier.
func generateUID() (string, error) {
	var b strings.Builder
	b.Grow(models.ProfileUIDLength)
	max := big.NewInt(int64(len(uidAlphabet)))
	for i := 0; i < models.ProfileUIDLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(uidAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func (s *profileService) GetOrCreateProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.store.Profiles().GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load profile for user %d: %w", userID, err)
	}
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, notFound(err, "user", userID)
	}

	for attempt := 1; attempt <= uidMaxAttempts; attempt++ {
		uid, err := s.newUID()
		if err != nil {
			return nil, fmt.Errorf("generate profile uid: %w", err)
		}
		now := s.now()
		profile = &models.Profile{
			UserID:       userID,
			UID:          uid,
			FontSize:     models.FontSizeMedium,
			Socials:      []models.SocialLink{},
			LastActivity: &now,
		}
		err = s.store.Profiles().Create(ctx, profile)
		if err == nil {
			s.log.Info("profile created", zap.Uint("user_id", userID), zap.String("uid", uid))
			return profile, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create profile for user %d: %w", userID, err)
		}

		// Either the uid collided or a concurrent request created the profile first.
		if existing, lookupErr := s.store.Profiles().GetByUserID(ctx, userID); lookupErr == nil {
			return existing, nil
		}
		s.log.Warn("profile uid collision, retrying", zap.String("uid", uid), zap.Int("attempt", attempt))
	}
	return nil, ErrUIDExhausted
}

func (s *profileService) ProfilePage(ctx context.Context, viewerID uint, username string) (*ProfilePage, error) {
	var (
		user *models.User
		err  error
	)
	if username == "" {
		user, err = s.store.Users().GetByID(ctx, viewerID)
		if err != nil {
			return nil, notFound(err, "user", viewerID)
		}
	} else {
		user, err = s.store.Users().GetByUsername(ctx, username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("load user %q: %w", username, err)
		}
	}

	profile, err := s.GetOrCreateProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	page := &ProfilePage{
		User:          user.BasicInfo(profile.Avatar),
		Profile:       profile,
		IsOwner:       user.ID == viewerID,
		IsOnline:      s.presence.IsOnline(profile),
		Friendship:    FriendshipState{Status: StatusNone},
		MutualFriends: []models.UserBasicInfo{},
	}

	if page.FriendCount, err = s.store.Friendships().Count(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("count friends: %w", err)
	}
	if !page.IsOwner {
		if page.Friendship, err = s.friends.FriendshipStatus(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
		if page.MutualFriends, err = s.friends.MutualFriends(ctx, viewerID, user.ID, ProfileMutualMax); err != nil {
			return nil, err
		}
	}
	if page.Posts, err = s.posts.UserPosts(ctx, viewerID, user.ID, ProfilePostsMax); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.Profile, error) {
	if update.Bio != nil && utf8.RuneCountInString(*update.Bio) > BioMaxLength {
		return nil, invalidInput("bio must be at most %d characters", BioMaxLength)
	}
	if len(update.Socials) > SocialLinksMax {
		return nil, invalidInput("at most %d social links are allowed", SocialLinksMax)
	}
	for i, link := range update.Socials {
		if strings.TrimSpace(link.Network) == "" || strings.TrimSpace(link.URL) == "" {
			return nil, invalidInput("social link %d needs a network and a url", i+1)
		}
	}

	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.Bio != nil {
		profile.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Avatar != nil {
		profile.Avatar = *update.Avatar
	}
	if update.Socials != nil {
		profile.Socials = update.Socials
	}
	if err := s.store.Profiles().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile for user %d: %w", userID, err)
	}
	return profile, nil
}

func (s *profileService) UpdatePreferences(ctx context.Context, userID uint, update PreferencesUpdate) (*models.Profile, error) {
	if update.FontSize != nil && !update.FontSize.Valid() {
		return nil, invalidInput("font size must be small, medium or large")
	}

	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if update.DarkMode != nil {
		profile.DarkMode = *update.DarkMode
	}
	if update.AssistiveMode != nil {
		profile.AssistiveMode = *update.AssistiveMode
	}
	if update.FontSize != nil {
		profile.FontSize = *update.FontSize
	}
	if err := s.store.Profiles().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update preferences for user %d: %w", userID, err)
	}
	return profile, nil
}
