package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global-app/internal/events"
	"global-app/internal/models"
)

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	_, err := env.posts.CreatePost(env.ctx, u.ID, "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.posts.CreatePost(env.ctx, u.ID, strings.Repeat("a", models.PostContentMaxLength+1), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	post, err := env.posts.CreatePost(env.ctx, u.ID, strings.Repeat("é", models.PostContentMaxLength), "")
	require.NoError(t, err)
	assert.Equal(t, "alice", post.Author.Username)

	media, err := env.posts.CreatePost(env.ctx, u.ID, "", "/uploads/post/a.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/post/a.png", media.Media)
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")
	post, err := env.posts.CreatePost(env.ctx, a.ID, "hello", "")
	require.NoError(t, err)

	res, err := env.posts.ToggleLike(env.ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, TotalLikes: 1}, res)

	res, err = env.posts.ToggleLike(env.ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: true, TotalLikes: 2}, res)

	res, err = env.posts.ToggleLike(env.ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, &LikeResult{Liked: false, TotalLikes: 1}, res)

	_, err = env.posts.ToggleLike(env.ctx, a.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedPagingLikesAndSuggestions(t *testing.T) {
	env := newTestEnv(t)
	viewer, author, friend := env.user(t, "viewer"), env.user(t, "author"), env.user(t, "friend")
	env.befriend(t, viewer.ID, friend.ID)

	var last *models.FeedPost
	for i := 0; i < FeedPageSize+3; i++ {
		p, err := env.posts.CreatePost(env.ctx, author.ID, "post", "")
		require.NoError(t, err)
		last = p
	}
	_, err := env.posts.ToggleLike(env.ctx, viewer.ID, last.ID)
	require.NoError(t, err)

	page1, err := env.posts.Feed(env.ctx, viewer.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page1.Page)
	assert.True(t, page1.HasMore)
	require.Len(t, page1.Posts, FeedPageSize)
	assert.Equal(t, last.ID, page1.Posts[0].ID, "newest first")
	assert.True(t, page1.Posts[0].Liked)
	assert.EqualValues(t, 1, page1.Posts[0].TotalLikes)
	assert.False(t, page1.Posts[1].Liked)
	assert.Equal(t, "author", page1.Posts[0].Author.Username)
	assert.Equal(t, []uint{author.ID}, idsOf(page1.Suggestions), "friends are never suggested")

	page2, err := env.posts.Feed(env.ctx, viewer.ID, 2)
	require.NoError(t, err)
	assert.False(t, page2.HasMore)
	assert.Len(t, page2.Posts, 3)
}

func TestDeletePostOnlyByAuthor(t *testing.T) {
	env := newTestEnv(t)
	a, b := env.user(t, "alice"), env.user(t, "bruno")
	post, err := env.posts.CreatePost(env.ctx, a.ID, "hello", "")
	require.NoError(t, err)
	_, err = env.posts.ToggleLike(env.ctx, b.ID, post.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.posts.DeletePost(env.ctx, post.ID, b.ID), ErrForbidden)
	require.NoError(t, env.posts.DeletePost(env.ctx, post.ID, a.ID))
	assert.ErrorIs(t, env.posts.DeletePost(env.ctx, post.ID, a.ID), ErrNotFound)

	n, err := env.store.Likes().CountByPost(env.ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Contains(t, env.events.Types(), events.PostDeleted)
}
