package apiserver

import (
	"net/http"
	"strconv"

	"global-app/internal/services"
	"global-app/internal/validator"
)

// PostHandler serves the feed, posts and likes.
type PostHandler struct {
	postService services.PostService
	validator   *validator.Validator
}

func NewPostHandler(ps services.PostService, v *validator.Validator) *PostHandler {
	return &PostHandler{postService: ps, validator: v}
}

type CreatePostRequest struct {
	Content string `json:"content"`
	Media   string `json:"media" validate:"omitempty,max=255"`
}

// Feed handles GET /feed?page=. Missing or invalid pages mean the first one.
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	feed, err := h.postService.Feed(r.Context(), userID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, feed)
}

// Create handles POST /posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req CreatePostRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	post, err := h.postService.CreatePost(r.Context(), userID, req.Content, req.Media)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, post)
}

// Delete handles POST /post/{postId}/delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	if err := h.postService.DeletePost(r.Context(), postID, userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

// ToggleLike handles POST /post/{postId}/like.
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	postID, ok := pathID(w, r, "postId")
	if !ok {
		return
	}
	result, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}
