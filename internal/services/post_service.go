package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"global-app/internal/events"
	"global-app/internal/metrics"
	"global-app/internal/models"
	"global-app/internal/storage"
)

const (
	FeedPageSize    = 10
	FeedSuggestions = 5
)

// FeedPage is one page of the feed plus friend suggestions.
type FeedPage struct {
	Posts       []models.FeedPost      `json:"posts"`
	Page        int                    `json:"page"`
	HasMore     bool                   `json:"has_more"`
	Suggestions []models.UserBasicInfo `json:"suggestions"`
}

// LikeResult is the state of a post's likes after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"total_likes"`
}

// PostService manages posts, likes and the feed.
type PostService interface {
	CreatePost(ctx context.Context, authorID uint, content, media string) (*models.FeedPost, error)
	DeletePost(ctx context.Context, postID, actorID uint) error
	Feed(ctx context.Context, viewerID uint, page int) (*FeedPage, error)
	UserPosts(ctx context.Context, viewerID, authorID uint, limit int) ([]models.FeedPost, error)
	ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error)
}

type postService struct {
	store     storage.Store
	friends   FriendService
	publisher events.Publisher
	log       *zap.Logger
}

// NewPostService creates a PostService. Feed suggestions come from friends.
func NewPostService(store storage.Store, friends FriendService, publisher events.Publisher, log *zap.Logger) PostService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &postService{store: store, friends: friends, publisher: publisher, log: log.Named("posts")}
}

func (s *postService) CreatePost(ctx context.Context, authorID uint, content, media string) (*models.FeedPost, error) {
	content = strings.TrimSpace(content)
	if content == "" && media == "" {
		return nil, invalidInput("a post needs content or media")
	}
	if utf8.RuneCountInString(content) > models.PostContentMaxLength {
		return nil, invalidInput("content must be at most %d characters", models.PostContentMaxLength)
	}

	author, err := s.store.Users().GetByID(ctx, authorID)
	if err != nil {
		return nil, notFound(err, "user", authorID)
	}
	post := &models.Post{AuthorID: authorID, Content: content, Media: media}
	if err := s.store.Posts().Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	infos, err := basicInfos(ctx, s.store, []models.User{*author})
	if err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("author_id", authorID))
	events.Emit(ctx, s.publisher, events.New(events.PostCreated, authorID, 0, post.ID))
	return &models.FeedPost{Post: *post, Author: infos[0]}, nil
}

// DeletePost removes a post and its likes. Only the author may delete.
func (s *postService) DeletePost(ctx context.Context, postID, actorID uint) error {
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		post, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			return notFound(err, "post", postID)
		}
		if post.AuthorID != actorID {
			return ErrForbidden
		}
		if err := tx.Likes().DeleteByPost(ctx, postID); err != nil {
			return fmt.Errorf("delete likes of post %d: %w", postID, err)
		}
		if err := tx.Posts().Delete(ctx, postID); err != nil {
			return fmt.Errorf("delete post %d: %w", postID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("post deleted", zap.Uint("post_id", postID), zap.Uint("by", actorID))
	events.Emit(ctx, s.publisher, events.New(events.PostDeleted, actorID, 0, postID))
	return nil
}

// Feed returns page (1-based) of the newest posts. One extra row is read to fill HasMore.
func (s *postService) Feed(ctx context.Context, viewerID uint, page int) (*FeedPage, error) {
	if page < 1 {
		page = 1
	}
	posts, err := s.store.Posts().List(ctx, (page-1)*FeedPageSize, FeedPageSize+1)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	hasMore := len(posts) > FeedPageSize
	if hasMore {
		posts = posts[:FeedPageSize]
	}

	enriched, err := s.enrich(ctx, viewerID, posts)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.friends.SuggestUsers(ctx, viewerID, FeedSuggestions)
	if err != nil {
		return nil, err
	}
	return &FeedPage{Posts: enriched, Page: page, HasMore: hasMore, Suggestions: suggestions}, nil
}

func (s *postService) UserPosts(ctx context.Context, viewerID, authorID uint, limit int) ([]models.FeedPost, error) {
	posts, err := s.store.Posts().ListByAuthor(ctx, authorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts of user %d: %w", authorID, err)
	}
	return s.enrich(ctx, viewerID, posts)
}

// enrich attaches authors, like totals and the viewer's liked flag.
func (s *postService) enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]models.FeedPost, error) {
	feed := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return feed, nil
	}

	postIDs := make([]uint, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for i := range posts {
		postIDs[i] = posts[i].ID
		authorIDs = append(authorIDs, posts[i].AuthorID)
	}
	authors, err := basicInfosByID(ctx, s.store, authorIDs)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.Likes().CountByPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	liked, err := s.store.Likes().LikedPostIDs(ctx, viewerID, postIDs)
	if err != nil {
		return nil, fmt.Errorf("load liked posts: %w", err)
	}

	for i := range posts {
		feed = append(feed, models.FeedPost{
			Post:       posts[i],
			Author:     authors[posts[i].AuthorID],
			TotalLikes: counts[posts[i].ID],
			Liked:      liked[posts[i].ID],
		})
	}
	return feed, nil
}

// ToggleLike likes the post if the user has not, otherwise unlikes it.
func (s *postService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	result := &LikeResult{}
	err := s.store.Transaction(ctx, func(tx storage.Store) error {
		if _, err := tx.Posts().GetByID(ctx, postID); err != nil {
			return notFound(err, "post", postID)
		}
		liked, err := tx.Likes().Exists(ctx, userID, postID)
		if err != nil {
			return fmt.Errorf("check like: %w", err)
		}
		if liked {
			err = tx.Likes().Delete(ctx, userID, postID)
		} else {
			err = tx.Likes().Create(ctx, userID, postID)
		}
		if err != nil {
			return fmt.Errorf("toggle like on post %d: %w", postID, err)
		}
		result.Liked = !liked
		result.TotalLikes, err = tx.Likes().CountByPost(ctx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	state := "unliked"
	if result.Liked {
		state = "liked"
	}
	metrics.Likes.WithLabelValues(state).Inc()
	return result, nil
}
