package apiserver

import (
	"context"
	"net/http"

	"global-app/internal/models"
	"global-app/internal/services"
)

const friendsPageSuggestions = 5

// FriendHandler serves the social graph: requests, friends, search and suggestions.
type FriendHandler struct {
	friendService services.FriendService
}

func NewFriendHandler(fs services.FriendService) *FriendHandler {
	return &FriendHandler{friendService: fs}
}

// FriendsOverview is the body of GET /friends.
type FriendsOverview struct {
	Friends     []services.FriendInfo          `json:"friends"`
	Received    []models.FriendRequestWithUser `json:"received"`
	Sent        []models.FriendRequestWithUser `json:"sent"`
	Suggestions []models.UserBasicInfo         `json:"suggestions"`
}

// SendRequest handles POST /friends/request/send/{userId}.
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	request, err := h.friendService.SendFriendRequest(r.Context(), userID, targetID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, map[string]interface{}{"request_id": request.ID})
}

// AcceptRequest handles POST /friends/request/accept/{requestId}.
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.friendService.AcceptFriendRequest)
}

// RejectRequest handles POST /friends/request/reject/{requestId}.
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.friendService.RejectFriendRequest)
}

// CancelRequest handles POST /friends/request/cancel/{requestId}.
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.friendService.CancelFriendRequest)
}

func (h *FriendHandler) resolve(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, requestID, actorID uint) error) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	if err := op(r.Context(), requestID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

// RemoveFriend handles POST /friends/remove/{userId}.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.friendService.RemoveFriend(r.Context(), userID, friendID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

// Overview handles GET /friends.
func (h *FriendHandler) Overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	friends, err := h.friendService.ListFriends(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	received, sent, err := h.friendService.ListPendingRequests(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	suggestions, err := h.friendService.SuggestUsers(ctx, userID, friendsPageSuggestions)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, FriendsOverview{
		Friends:     friends,
		Received:    received,
		Sent:        sent,
		Suggestions: suggestions,
	})
}

// Search handles GET /friends/search?q=. Short queries return no users.
func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	users, err := h.friendService.SearchUsers(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Mutual handles GET /friends/mutual/{userId}.
func (h *FriendHandler) Mutual(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	otherID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	users, err := h.friendService.MutualFriends(r.Context(), userID, otherID, 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"users": users})
}
