package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"global-app/internal/events"
	"global-app/internal/metrics"
	"global-app/internal/models"
	"global-app/internal/storage"
)

const (
	// SearchMinQueryLength is the shortest query SearchUsers runs.
	SearchMinQueryLength = 2
	// SearchLimit caps the number of search hits.
	SearchLimit = 20
)

// FriendshipStatus describes the relation between a viewer and another user.
type FriendshipStatus string

const (
	StatusNone            FriendshipStatus = "none"
	StatusFriend          FriendshipStatus = "friend"
	StatusRequestSent     FriendshipStatus = "request_sent"
	StatusRequestReceived FriendshipStatus = "request_received"
)

// FriendshipState is a FriendshipStatus plus the pending request id, if any.
type FriendshipState struct {
	Status    FriendshipStatus `json:"status"`
	RequestID uint             `json:"request_id,omitempty"`
}

// UserSearchResult is one search hit annotated for the viewer.
type UserSearchResult struct {
	ID        uint             `json:"id"`
	Username  string           `json:"username"`
	FullName  string           `json:"full_name"`
	Avatar    string           `json:"avatar"`
	Bio       string           `json:"bio"`
	Status    FriendshipStatus `json:"status"`
	RequestID *uint            `json:"request_id"`
}

// FriendInfo is a friend with the derived online flag.
type FriendInfo struct {
	models.UserBasicInfo
	IsOnline bool `json:"is_online"`
}

// FriendService is the social graph engine: friend requests, friendship edges
// and the queries that depend on them.
type FriendService interface {
	SendFriendRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, requestID, actorID uint) error
	RejectFriendRequest(ctx context.Context, requestID, actorID uint) error
	CancelFriendRequest(ctx context.Context, requestID, actorID uint) error
	RemoveFriend(ctx context.Context, userID, friendID uint) error

	FriendshipStatus(ctx context.Context, viewerID, subjectID uint) (FriendshipState, error)
	SuggestUsers(ctx context.Context, viewerID uint, limit int) ([]models.UserBasicInfo, error)
	MutualFriends(ctx context.Context, userA, userB uint, limit int) ([]models.UserBasicInfo, error)
	SearchUsers(ctx context.Context, viewerID uint, query string) ([]UserSearchResult, error)
	ListFriends(ctx context.Context, userID uint) ([]FriendInfo, error)
	ListPendingRequests(ctx context.Context, userID uint) (received, sent []models.FriendRequestWithUser, err error)
}

type friendService struct {
	store     storage.Store
	presence  PresenceTracker
	publisher events.Publisher
	log       *zap.Logger
}

// NewFriendService creates the graph engine. publisher and log may be nil.
func NewFriendService(store storage.Store, presence PresenceTracker, publisher events.Publisher, log *zap.Logger) FriendService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &friendService{store: store, presence: presence, publisher: publisher, log: log.Named("friends")}
}

func (s *friendService) SendFriendRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	request, err := s.sendFriendRequest(ctx, fromUserID, toUserID)
	metrics.FriendRequests.WithLabelValues("sent", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.log.Info("friend request sent", zap.Uint("request_id", request.ID), zap.Uint("from", fromUserID), zap.Uint("to", toUserID))
	events.Emit(ctx, s.publisher, events.New(events.FriendRequestSent, fromUserID, toUserID, request.ID))
	return request, nil
}

func (s *friendService) sendFriendRequest(ctx context.Context, fromUserID, toUserID uint) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrInvalidOperation
	}

	var request *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if _, err := tx.Users().GetByID(ctx, toUserID); err != nil {
			return notFound(err, "user", toUserID)
		}

		friends, err := tx.Friendships().Exists(ctx, fromUserID, toUserID)
		if err != nil {
			return fmt.Errorf("check friendship: %w", err)
		}
		if friends {
			return ErrAlreadyFriends
		}

		pending, err := tx.FriendRequests().FindPendingBetween(ctx, fromUserID, toUserID)
		if err != nil {
			return fmt.Errorf("check pending requests: %w", err)
		}
		if pending != nil {
			return ErrDuplicatePending
		}

		// An accepted row survives the friendship's removal; reopen it rather
		// than violate the (from, to) uniqueness.
		existing, err := tx.FriendRequests().GetByPair(ctx, fromUserID, toUserID)
		switch {
		case err == nil:
			ok, err := tx.FriendRequests().TransitionStatus(ctx, existing.ID, existing.Status, models.FriendRequestStatusPending)
			if errors.Is(err, gorm.ErrDuplicatedKey) || (err == nil && !ok) {
				return ErrDuplicatePending
			}
			if err != nil {
				return fmt.Errorf("reopen friend request %d: %w", existing.ID, err)
			}
			existing.Status = models.FriendRequestStatusPending
			request = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("load friend request: %w", err)
		}

		created := &models.FriendRequest{
			FromUserID: fromUserID,
			ToUserID:   toUserID,
			Status:     models.FriendRequestStatusPending,
		}
		if err := tx.FriendRequests().Create(ctx, created); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicatePending
			}
			return fmt.Errorf("create friend request: %w", err)
		}
		request = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// loadForActor fetches a pending request and checks that actor may act on it.
// asRecipient selects whether the actor must be the recipient or the sender.
func loadForActor(ctx context.Context, tx storage.Store, requestID, actorID uint, asRecipient bool) (*models.FriendRequest, error) {
	request, err := tx.FriendRequests().GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, "friend request", requestID)
	}
	if asRecipient && request.ToUserID != actorID {
		return nil, ErrForbidden
	}
	if !asRecipient && request.FromUserID != actorID {
		return nil, ErrForbidden
	}
	if request.Status != models.FriendRequestStatusPending {
		return nil, ErrAlreadyProcessed
	}
	return request, nil
}

// AcceptFriendRequest flips the request to accepted and creates both edges in
// one transaction. The status change is conditional on the row still being
// pending, so of two concurrent accepts only one gets past it.
func (s *friendService) AcceptFriendRequest(ctx context.Context, requestID, actorID uint) error {
	var request *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		request, err = loadForActor(ctx, tx, requestID, actorID, true)
		if err != nil {
			return err
		}

		ok, err := tx.FriendRequests().TransitionStatus(ctx, requestID, models.FriendRequestStatusPending, models.FriendRequestStatusAccepted)
		if err != nil {
			return fmt.Errorf("accept friend request %d: %w", requestID, err)
		}
		if !ok {
			return ErrAlreadyProcessed
		}

		if _, err := tx.Friendships().GetOrCreate(ctx, request.FromUserID, request.ToUserID); err != nil {
			return fmt.Errorf("create friendship %d->%d: %w", request.FromUserID, request.ToUserID, err)
		}
		if _, err := tx.Friendships().GetOrCreate(ctx, request.ToUserID, request.FromUserID); err != nil {
			return fmt.Errorf("create friendship %d->%d: %w", request.ToUserID, request.FromUserID, err)
		}
		return nil
	})
	metrics.FriendRequests.WithLabelValues("accepted", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	s.log.Info("friend request accepted", zap.Uint("request_id", requestID), zap.Uint("from", request.FromUserID), zap.Uint("to", request.ToUserID))
	events.Emit(ctx, s.publisher, events.New(events.FriendRequestAccepted, actorID, request.FromUserID, requestID))
	return nil
}

func (s *friendService) RejectFriendRequest(ctx context.Context, requestID, actorID uint) error {
	request, err := s.deletePending(ctx, requestID, actorID, true)
	metrics.FriendRequests.WithLabelValues("rejected", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.log.Info("friend request rejected", zap.Uint("request_id", requestID), zap.Uint("by", actorID))
	events.Emit(ctx, s.publisher, events.New(events.FriendRequestRejected, actorID, request.FromUserID, requestID))
	return nil
}

func (s *friendService) CancelFriendRequest(ctx context.Context, requestID, actorID uint) error {
	request, err := s.deletePending(ctx, requestID, actorID, false)
	metrics.FriendRequests.WithLabelValues("cancelled", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.log.Info("friend request cancelled", zap.Uint("request_id", requestID), zap.Uint("by", actorID))
	events.Emit(ctx, s.publisher, events.New(events.FriendRequestCancelled, actorID, request.ToUserID, requestID))
	return nil
}

// deletePending removes a pending request on behalf of its recipient (reject)
// or its sender (cancel).
func (s *friendService) deletePending(ctx context.Context, requestID, actorID uint, asRecipient bool) (*models.FriendRequest, error) {
	var request *models.FriendRequest
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		var err error
		request, err = loadForActor(ctx, tx, requestID, actorID, asRecipient)
		if err != nil {
			return err
		}
		ok, err := tx.FriendRequests().DeletePending(ctx, requestID)
		if err != nil {
			return fmt.Errorf("delete friend request %d: %w", requestID, err)
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		return nil
	})
	return request, err
}

// RemoveFriend deletes both edges. Removing a friendship that does not exist succeeds.
func (s *friendService) RemoveFriend(ctx context.Context, userID, friendID uint) error {
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if err := tx.Friendships().Delete(ctx, userID, friendID); err != nil {
			return fmt.Errorf("delete friendship %d->%d: %w", userID, friendID, err)
		}
		if err := tx.Friendships().Delete(ctx, friendID, userID); err != nil {
			return fmt.Errorf("delete friendship %d->%d: %w", friendID, userID, err)
		}
		return nil
	})
	metrics.FriendRequests.WithLabelValues("removed", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.log.Info("friendship removed", zap.Uint("user", userID), zap.Uint("friend", friendID))
	events.Emit(ctx, s.publisher, events.New(events.FriendshipRemoved, userID, friendID, 0))
	return nil
}

func (s *friendService) FriendshipStatus(ctx context.Context, viewerID, subjectID uint) (FriendshipState, error) {
	friends, err := s.store.Friendships().Exists(ctx, viewerID, subjectID)
	if err != nil {
		return FriendshipState{}, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return FriendshipState{Status: StatusFriend}, nil
	}

	pending, err := s.store.FriendRequests().FindPendingBetween(ctx, viewerID, subjectID)
	if err != nil {
		return FriendshipState{}, fmt.Errorf("check pending requests: %w", err)
	}
	switch {
	case pending == nil:
		return FriendshipState{Status: StatusNone}, nil
	case pending.FromUserID == viewerID:
		return FriendshipState{Status: StatusRequestSent, RequestID: pending.ID}, nil
	default:
		return FriendshipState{Status: StatusRequestReceived, RequestID: pending.ID}, nil
	}
}

// SuggestUsers samples users that are neither the viewer, a friend, nor on the
// other side of a pending request.
func (s *friendService) SuggestUsers(ctx context.Context, viewerID uint, limit int) ([]models.UserBasicInfo, error) {
	friendIDs, err := s.store.Friendships().FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	pendingIDs, err := s.store.FriendRequests().PendingCounterpartIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load pending requests: %w", err)
	}

	exclude := make([]uint, 0, 1+len(friendIDs)+len(pendingIDs))
	exclude = append(exclude, viewerID)
	exclude = append(exclude, friendIDs...)
	exclude = append(exclude, pendingIDs...)

	users, err := s.store.Users().RandomExcluding(ctx, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("sample users: %w", err)
	}
	return basicInfos(ctx, s.store, users)
}

func (s *friendService) MutualFriends(ctx context.Context, userA, userB uint, limit int) ([]models.UserBasicInfo, error) {
	aFriends, err := s.store.Friendships().FriendIDs(ctx, userA)
	if err != nil {
		return nil, fmt.Errorf("load friends of %d: %w", userA, err)
	}
	bFriends, err := s.store.Friendships().FriendIDs(ctx, userB)
	if err != nil {
		return nil, fmt.Errorf("load friends of %d: %w", userB, err)
	}

	inB := make(map[uint]struct{}, len(bFriends))
	for _, id := range bFriends {
		inB[id] = struct{}{}
	}
	var mutual []uint
	for _, id := range aFriends {
		if _, ok := inB[id]; ok {
			mutual = append(mutual, id)
			if limit > 0 && len(mutual) == limit {
				break
			}
		}
	}
	if len(mutual) == 0 {
		return []models.UserBasicInfo{}, nil
	}

	users, err := s.store.Users().GetByIDs(ctx, mutual)
	if err != nil {
		return nil, fmt.Errorf("load mutual friends: %w", err)
	}
	return basicInfos(ctx, s.store, users)
}

// SearchUsers matches query against username and names. Statuses are derived
// from one read of the viewer's friends and pending requests.
func (s *friendService) SearchUsers(ctx context.Context, viewerID uint, query string) ([]UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < SearchMinQueryLength {
		return []UserSearchResult{}, nil
	}

	users, err := s.store.Users().Search(ctx, query, viewerID, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if len(users) == 0 {
		return []UserSearchResult{}, nil
	}

	friendIDs, err := s.store.Friendships().FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	isFriend := make(map[uint]bool, len(friendIDs))
	for _, id := range friendIDs {
		isFriend[id] = true
	}
	received, err := s.store.FriendRequests().ListPendingReceived(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load received requests: %w", err)
	}
	sent, err := s.store.FriendRequests().ListPendingSent(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load sent requests: %w", err)
	}
	receivedFrom := make(map[uint]uint, len(received))
	for _, r := range received {
		receivedFrom[r.FromUserID] = r.ID
	}
	sentTo := make(map[uint]uint, len(sent))
	for _, r := range sent {
		sentTo[r.ToUserID] = r.ID
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	profiles, err := profilesByUser(ctx, s.store, ids)
	if err != nil {
		return nil, err
	}

	results := make([]UserSearchResult, 0, len(users))
	for i := range users {
		u := &users[i]
		result := UserSearchResult{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName(),
			Status:   StatusNone,
		}
		if p, ok := profiles[u.ID]; ok {
			result.Avatar = p.Avatar
			result.Bio = p.Bio
		}
		if isFriend[u.ID] {
			result.Status = StatusFriend
		} else if id, ok := sentTo[u.ID]; ok {
			result.Status, result.RequestID = StatusRequestSent, &id
		} else if id, ok := receivedFrom[u.ID]; ok {
			result.Status, result.RequestID = StatusRequestReceived, &id
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *friendService) ListFriends(ctx context.Context, userID uint) ([]FriendInfo, error) {
	friendIDs, err := s.store.Friendships().FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	if len(friendIDs) == 0 {
		return []FriendInfo{}, nil
	}

	users, err := s.store.Users().GetByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("load friend users: %w", err)
	}
	profiles, err := profilesByUser(ctx, s.store, friendIDs)
	if err != nil {
		return nil, err
	}

	friends := make([]FriendInfo, 0, len(users))
	for i := range users {
		profile := profiles[users[i].ID]
		friends = append(friends, FriendInfo{
			UserBasicInfo: users[i].BasicInfo(avatarOf(profiles, users[i].ID)),
			IsOnline:      s.presence != nil && s.presence.IsOnline(profile),
		})
	}
	return friends, nil
}

// ListPendingRequests returns the viewer's pending requests, newest first.
// Each entry carries the other party's public info.
func (s *friendService) ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequestWithUser, []models.FriendRequestWithUser, error) {
	received, err := s.store.FriendRequests().ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load received requests: %w", err)
	}
	sent, err := s.store.FriendRequests().ListPendingSent(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load sent requests: %w", err)
	}

	ids := make([]uint, 0, len(received)+len(sent))
	for _, r := range received {
		ids = append(ids, r.FromUserID)
	}
	for _, r := range sent {
		ids = append(ids, r.ToUserID)
	}
	infos, err := basicInfosByID(ctx, s.store, ids)
	if err != nil {
		return nil, nil, err
	}

	withUser := func(requests []models.FriendRequest) []models.FriendRequestWithUser {
		out := make([]models.FriendRequestWithUser, 0, len(requests))
		for i := range requests {
			info, ok := infos[requests[i].Counterpart(userID)]
			if !ok {
				continue
			}
			out = append(out, models.FriendRequestWithUser{FriendRequest: requests[i], User: info})
		}
		return out
	}
	return withUser(received), withUser(sent), nil
}
