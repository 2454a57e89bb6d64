package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/events"
	"global-app/internal/models"
)

func TestSendAndAcceptCreatesBothEdges(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")

	req, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusPending, req.Status)

	state, err := env.friends.FriendshipStatus(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FriendshipState{Status: StatusRequestSent, RequestID: req.ID}, state)
	state, err = env.friends.FriendshipStatus(env.ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, FriendshipState{Status: StatusRequestReceived, RequestID: req.ID}, state)

	require.NoError(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, b.ID))

	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		exists, err := env.store.Friendships().Exists(env.ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, exists, "edge %d->%d", pair[0], pair[1])

		state, err := env.friends.FriendshipStatus(env.ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, StatusFriend, state.Status)
	}

	stored, err := env.store.FriendRequests().GetByID(env.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestStatusAccepted, stored.Status, "accepted rows are retained")

	pending, err := env.store.FriendRequests().FindPendingBetween(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, pending)

	assert.Equal(t, []events.Type{events.FriendRequestSent, events.FriendRequestAccepted}, env.events.Types())
}

func TestAcceptToleratesExistingEdge(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")

	req, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = env.store.Friendships().GetOrCreate(env.ctx, b.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, b.ID))

	for _, id := range []uint{a.ID, b.ID} {
		n, err := env.store.Friendships().Count(env.ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
}

func TestSendFriendRequestPreconditions(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.user(t, "alice"), env.user(t, "bruno"), env.user(t, "carla")

	_, err := env.friends.SendFriendRequest(env.ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = env.friends.SendFriendRequest(env.ctx, a.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrDuplicatePending)

	// B answers with its own request before responding.
	_, err = env.friends.SendFriendRequest(env.ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, ErrDuplicatePending)

	env.befriend(t, a.ID, c.ID)
	_, err = env.friends.SendFriendRequest(env.ctx, c.ID, a.ID)
	assert.ErrorIs(t, err, ErrAlreadyFriends)

	received, sent, err := env.friends.ListPendingRequests(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, received, 1)
	assert.Empty(t, sent)
}

func TestAcceptRejectCancelAuthorization(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.user(t, "alice"), env.user(t, "bruno"), env.user(t, "carla")

	req, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, a.ID), ErrForbidden)
	assert.ErrorIs(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, c.ID), ErrForbidden)
	assert.ErrorIs(t, env.friends.RejectFriendRequest(env.ctx, req.ID, a.ID), ErrForbidden)
	assert.ErrorIs(t, env.friends.CancelFriendRequest(env.ctx, req.ID, b.ID), ErrForbidden)
	assert.ErrorIs(t, env.friends.AcceptFriendRequest(env.ctx, 9999, b.ID), ErrNotFound)

	require.NoError(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, b.ID))
	assert.ErrorIs(t, env.friends.AcceptFriendRequest(env.ctx, req.ID, b.ID), ErrAlreadyProcessed)
	assert.ErrorIs(t, env.friends.RejectFriendRequest(env.ctx, req.ID, b.ID), ErrAlreadyProcessed)
	assert.ErrorIs(t, env.friends.CancelFriendRequest(env.ctx, req.ID, a.ID), ErrAlreadyProcessed)
}

func TestRejectAndCancelDeleteTheRequest(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")

	req, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, env.friends.RejectFriendRequest(env.ctx, req.ID, b.ID))
	_, err = env.store.FriendRequests().GetByID(env.ctx, req.ID)
	assert.Error(t, err)

	req, err = env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, env.friends.CancelFriendRequest(env.ctx, req.ID, a.ID))
	_, err = env.store.FriendRequests().GetByID(env.ctx, req.ID)
	assert.Error(t, err)

	state, err := env.friends.FriendshipStatus(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNone, state.Status)

	exists, err := env.store.Friendships().Exists(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConcurrentAcceptsSucceedOnce(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")
	req, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)

	const attempts = 10
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.friends.AcceptFriendRequest(env.ctx, req.ID, b.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyProcessed)
		}
	}
	assert.Equal(t, 1, succeeded)

	n, err := env.store.Friendships().Count(env.ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRemoveFriend(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")

	// No friendship yet: still a success and nothing is created.
	require.NoError(t, env.friends.RemoveFriend(env.ctx, a.ID, b.ID))
	n, err := env.store.Friendships().Count(env.ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.befriend(t, a.ID, b.ID)
	require.NoError(t, env.friends.RemoveFriend(env.ctx, b.ID, a.ID))
	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		exists, err := env.store.Friendships().Exists(env.ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

func TestRequestAgainAfterRemovalReopensRetainedRow(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")

	first, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, env.friends.AcceptFriendRequest(env.ctx, first.ID, b.ID))
	require.NoError(t, env.friends.RemoveFriend(env.ctx, a.ID, b.ID))

	again, err := env.friends.SendFriendRequest(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, models.FriendRequestStatusPending, again.Status)

	// The other direction has no retained row and gets a fresh one once this is settled.
	require.NoError(t, env.friends.CancelFriendRequest(env.ctx, again.ID, a.ID))
	reverse, err := env.friends.SendFriendRequest(env.ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, reverse.ID)
	require.NoError(t, env.friends.AcceptFriendRequest(env.ctx, reverse.ID, a.ID))

	state, err := env.friends.FriendshipStatus(env.ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFriend, state.Status)
}

func TestSuggestUsersExcludesViewerFriendsAndPending(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.user(t, "viewer")
	friend := env.user(t, "friend")
	outgoing := env.user(t, "outgoing")
	incoming := env.user(t, "incoming")
	stranger1 := env.user(t, "stranger1")
	stranger2 := env.user(t, "stranger2")

	env.befriend(t, viewer.ID, friend.ID)
	_, err := env.friends.SendFriendRequest(env.ctx, viewer.ID, outgoing.ID)
	require.NoError(t, err)
	_, err = env.friends.SendFriendRequest(env.ctx, incoming.ID, viewer.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		suggestions, err := env.friends.SuggestUsers(env.ctx, viewer.ID, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{stranger1.ID, stranger2.ID}, idsOf(suggestions))
	}

	limited, err := env.friends.SuggestUsers(env.ctx, viewer.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMutualFriends(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")
	m1, m2, m3 := env.user(t, "m1"), env.user(t, "m2"), env.user(t, "m3")
	onlyA := env.user(t, "only_a")

	for _, m := range []uint{m1.ID, m2.ID, m3.ID} {
		env.befriend(t, a.ID, m)
		env.befriend(t, m, b.ID)
	}
	env.befriend(t, a.ID, onlyA.ID)

	mutual, err := env.friends.MutualFriends(env.ctx, a.ID, b.ID, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{m1.ID, m2.ID, m3.ID}, idsOf(mutual))

	mutual, err = env.friends.MutualFriends(env.ctx, a.ID, b.ID, 2)
	require.NoError(t, err)
	assert.Len(t, mutual, 2)

	none, err := env.friends.MutualFriends(env.ctx, onlyA.ID, b.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchUsersAnnotatesStatus(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.user(t, "marina")
	friend := env.user(t, "mario")
	sentTo := env.user(t, "marta")
	receivedFrom := env.user(t, "marcos")
	stranger := env.user(t, "martim")
	env.user(t, "zeca")

	env.befriend(t, viewer.ID, friend.ID)
	sent, err := env.friends.SendFriendRequest(env.ctx, viewer.ID, sentTo.ID)
	require.NoError(t, err)
	received, err := env.friends.SendFriendRequest(env.ctx, receivedFrom.ID, viewer.ID)
	require.NoError(t, err)

	_, err = env.profiles.UpdateProfile(env.ctx, stranger.ID, ProfileUpdate{Bio: strPtr("hello")})
	require.NoError(t, err)

	results, err := env.friends.SearchUsers(env.ctx, viewer.ID, "MAR")
	require.NoError(t, err)

	byID := make(map[uint]UserSearchResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}
	require.Len(t, byID, 4, "viewer and non-matching users are excluded")

	assert.Equal(t, StatusFriend, byID[friend.ID].Status)
	assert.Nil(t, byID[friend.ID].RequestID)
	assert.Equal(t, StatusRequestSent, byID[sentTo.ID].Status)
	require.NotNil(t, byID[sentTo.ID].RequestID)
	assert.Equal(t, sent.ID, *byID[sentTo.ID].RequestID)
	assert.Equal(t, StatusRequestReceived, byID[receivedFrom.ID].Status)
	assert.Equal(t, received.ID, *byID[receivedFrom.ID].RequestID)
	assert.Equal(t, StatusNone, byID[stranger.ID].Status)
	assert.Equal(t, "hello", byID[stranger.ID].Bio)

	short, err := env.friends.SearchUsers(env.ctx, viewer.ID, " m ")
	require.NoError(t, err)
	assert.Empty(t, short)
}

func TestListFriendsReportsOnlineFlag(t *testing.T) {
	env := newTestEnv(t)
	a, b, c := env.user(t, "alice"), env.user(t, "bruno"), env.user(t, "carla")
	env.befriend(t, a.ID, b.ID)
	env.befriend(t, a.ID, c.ID)

	_, err := env.profiles.GetOrCreateProfile(env.ctx, b.ID)
	require.NoError(t, err)

	friends, err := env.friends.ListFriends(env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	online := map[uint]bool{}
	for _, f := range friends {
		online[f.ID] = f.IsOnline
	}
	assert.True(t, online[b.ID], "fresh profile counts as active")
	assert.False(t, online[c.ID], "no profile means no presence")
}

func TestNoTwoPendingRequestsPerPair(t *testing.T) {
	env := newTestEnv(t)
	users := []models.User{env.user(t, "u1"), env.user(t, "u2"), env.user(t, "u3")}

	// Fire requests in every direction, concurrently.
	var wg sync.WaitGroup
	for _, from := range users {
		for _, to := range users {
			if from.ID == to.ID {
				continue
			}
			wg.Add(1)
			go func(from, to uint) {
				defer wg.Done()
				_, _ = env.friends.SendFriendRequest(env.ctx, from, to)
			}(from.ID, to.ID)
		}
	}
	wg.Wait()

	pairs := map[[2]uint]int{}
	for _, u := range users {
		sent, err := env.store.FriendRequests().ListPendingSent(env.ctx, u.ID)
		require.NoError(t, err)
		for _, r := range sent {
			key := [2]uint{min(r.FromUserID, r.ToUserID), max(r.FromUserID, r.ToUserID)}
			pairs[key]++
		}
	}
	assert.Len(t, pairs, 3)
	for pair, n := range pairs {
		assert.Equal(t, 1, n, "pair %v", pair)
	}
}

func strPtr(s string) *string { return &s }
