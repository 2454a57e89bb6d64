package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"global-app/internal/config"
	"global-app/internal/events"
	"global-app/internal/models"
	"global-app/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ctx           context.Context
	store         *storage.MemoryStore
	clock         *fakeClock
	events        *events.Recorder
	presence      PresenceTracker
	friends       FriendService
	posts         PostService
	profiles      ProfileService
	opportunities OpportunityService
}

var testPresenceCfg = config.PresenceConfig{Debounce: 2 * time.Minute, OnlineWindow: 5 * time.Minute}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:    context.Background(),
		store:  storage.NewMemoryStore(),
		clock:  newFakeClock(),
		events: &events.Recorder{},
	}
	env.presence = NewPresenceTracker(env.store, testPresenceCfg, env.clock.Now)
	env.friends = NewFriendService(env.store, env.presence, env.events, nil)
	env.posts = NewPostService(env.store, env.friends, env.events, nil)
	env.profiles = NewProfileService(env.store, env.friends, env.posts, env.presence, nil, env.clock.Now)
	env.opportunities = NewOpportunityService(env.store, env.events, nil, env.clock.Now)
	return env
}

func (e *testEnv) user(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", FirstName: username, LastName: "Tester"}
	require.NoError(t, e.store.Users().Create(e.ctx, &u))
	return u
}

// befriend runs the full request/accept flow.
func (e *testEnv) befriend(t *testing.T, a, b uint) {
	t.Helper()
	req, err := e.friends.SendFriendRequest(e.ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, e.friends.AcceptFriendRequest(e.ctx, req.ID, b))
}

func idsOf(infos []models.UserBasicInfo) []uint {
	ids := make([]uint, len(infos))
	for i, info := range infos {
		ids[i] = info.ID
	}
	return ids
}
