package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"global-app/internal/models"
)

func seedUsers(t *testing.T, s Store, names ...string) []models.User {
	t.Helper()
	users := make([]models.User, 0, len(names))
	for _, name := range names {
		u := models.User{Username: name, Email: name + "@example.com", FirstName: name}
		require.NoError(t, s.Users().Create(context.Background(), &u))
		users = append(users, u)
	}
	return users
}

func TestMemoryUsersUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedUsers(t, s, "alice")

	err := s.Users().Create(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = s.Users().Create(ctx, &models.User{Username: "bob", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	_, err = s.Users().GetByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	u, err := s.Users().GetByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestMemoryUsersSearchAndRandom(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	users := seedUsers(t, s, "alice", "alina", "bob")

	found, err := s.Users().Search(ctx, "ALI", users[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "alina", found[0].Username)

	random, err := s.Users().RandomExcluding(ctx, []uint{users[0].ID, users[2].ID}, 10)
	require.NoError(t, err)
	require.Len(t, random, 1)
	assert.Equal(t, users[1].ID, random[0].ID)

	random, err = s.Users().RandomExcluding(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, random, 2)
}

func TestMemoryFriendRequestPendingPairIsUnordered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	users := seedUsers(t, s, "a", "b")
	a, b := users[0].ID, users[1].ID

	req := models.FriendRequest{FromUserID: a, ToUserID: b, Status: models.FriendRequestStatusPending}
	require.NoError(t, s.FriendRequests().Create(ctx, &req))

	reverse := models.FriendRequest{FromUserID: b, ToUserID: a, Status: models.FriendRequestStatusPending}
	assert.ErrorIs(t, s.FriendRequests().Create(ctx, &reverse), gorm.ErrDuplicatedKey)

	pending, err := s.FriendRequests().FindPendingBetween(ctx, b, a)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, req.ID, pending.ID)

	ok, err := s.FriendRequests().TransitionStatus(ctx, req.ID, models.FriendRequestStatusPending, models.FriendRequestStatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.FriendRequests().TransitionStatus(ctx, req.ID, models.FriendRequestStatusPending, models.FriendRequestStatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err = s.FriendRequests().FindPendingBetween(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, pending)

	ok, err = s.FriendRequests().DeletePending(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, ok, "accepted rows are never deleted through DeletePending")
}

func TestMemoryFriendshipGetOrCreateIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Friendships().GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Friendships().GetOrCreate(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := s.Friendships().Count(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Friendships().Delete(ctx, 1, 2))
	require.NoError(t, s.Friendships().Delete(ctx, 1, 2))
	exists, err := s.Friendships().Exists(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Store) error {
		if _, err := tx.Friendships().GetOrCreate(ctx, 1, 2); err != nil {
			return err
		}
		return tx.Transaction(ctx, func(inner Store) error {
			if _, err := inner.Friendships().GetOrCreate(ctx, 2, 1); err != nil {
				return err
			}
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	for _, pair := range [][2]uint{{1, 2}, {2, 1}} {
		exists, err := s.Friendships().Exists(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestMemoryTransactionsAreSerialized(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	users := seedUsers(t, s, "a", "b")
	req := models.FriendRequest{FromUserID: users[0].ID, ToUserID: users[1].ID, Status: models.FriendRequestStatusPending}
	require.NoError(t, s.FriendRequests().Create(ctx, &req))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Transaction(ctx, func(tx Store) error {
				ok, err := tx.FriendRequests().TransitionStatus(ctx, req.ID, models.FriendRequestStatusPending, models.FriendRequestStatusAccepted)
				if err != nil || !ok {
					return err
				}
				mu.Lock()
				winners++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestMemoryRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	var txPostID uint
	go func() {
		txDone <- s.Transaction(ctx, func(tx Store) error {
			post := models.Post{AuthorID: 1, Content: "inside"}
			if err := tx.Posts().Create(ctx, &post); err != nil {
				return err
			}
			txPostID = post.ID
			close(started)
			<-release
			return boom
		})
	}()

	<-started
	outside := models.Post{AuthorID: 2, Content: "outside"}
	created := make(chan error, 1)
	go func() { created <- s.Posts().Create(ctx, &outside) }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.ErrorIs(t, <-txDone, boom)
	require.NoError(t, <-created)

	got, err := s.Posts().GetByID(ctx, outside.ID)
	require.NoError(t, err)
	assert.Equal(t, "outside", got.Content)
	assert.NotEqual(t, txPostID, outside.ID)

	_, err = s.Posts().GetByID(ctx, txPostID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMemoryRollbackDoesNotReuseIDs(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := models.Post{AuthorID: 1, Content: "first"}
	require.NoError(t, s.Posts().Create(ctx, &first))

	var rolledBack uint
	err := s.Transaction(ctx, func(tx Store) error {
		post := models.Post{AuthorID: 1, Content: "discarded"}
		if err := tx.Posts().Create(ctx, &post); err != nil {
			return err
		}
		rolledBack = post.ID
		return errors.New("abort")
	})
	require.Error(t, err)

	second := models.Post{AuthorID: 1, Content: "second"}
	require.NoError(t, s.Posts().Create(ctx, &second))
	assert.Greater(t, second.ID, rolledBack)
	assert.Greater(t, rolledBack, first.ID)

	got, err := s.Posts().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content)
}

func TestMemoryLikesAndCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Likes().Create(ctx, 1, 10))
	require.NoError(t, s.Likes().Create(ctx, 1, 10))
	require.NoError(t, s.Likes().Create(ctx, 2, 10))
	require.NoError(t, s.Likes().Create(ctx, 2, 11))

	counts, err := s.Likes().CountByPosts(ctx, []uint{10, 11, 12})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[10])
	assert.EqualValues(t, 1, counts[11])
	assert.EqualValues(t, 0, counts[12])

	liked, err := s.Likes().LikedPostIDs(ctx, 1, []uint{10, 11})
	require.NoError(t, err)
	assert.True(t, liked[10])
	assert.False(t, liked[11])

	require.NoError(t, s.Likes().DeleteByPost(ctx, 10))
	n, err := s.Likes().CountByPost(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryApplicationsUniquePerOpportunity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	opp := models.Opportunity{Title: "Go developer", Type: models.OpportunityTypeJob}
	require.NoError(t, s.Opportunities().Create(ctx, &opp))
	assert.Equal(t, models.OpportunityStatusOpen, opp.Status)

	app := models.Application{OpportunityID: opp.ID, UserID: 7}
	require.NoError(t, s.Applications().Create(ctx, &app))
	assert.Equal(t, models.ApplicationStatusPending, app.Status)

	dup := models.Application{OpportunityID: opp.ID, UserID: 7}
	assert.ErrorIs(t, s.Applications().Create(ctx, &dup), gorm.ErrDuplicatedKey)

	notes := "strong profile"
	require.NoError(t, s.Applications().UpdateStatus(ctx, app.ID, models.ApplicationStatusReviewing, &notes))
	got, err := s.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusReviewing, got.Status)
	assert.Equal(t, notes, got.AdminNotes)

	list, err := s.Opportunities().List(ctx, OpportunityFilter{Query: "GO"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
