package storage

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories behind one unit of work. Transaction runs fn
// against a Store bound to a single database transaction; returning an error
// from fn rolls everything back.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Friendships() FriendshipRepository
	FriendRequests() FriendRequestRepository
	Posts() PostRepository
	Likes() LikeRepository
	Opportunities() OpportunityRepository
	Applications() ApplicationRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store backed by the given GORM connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository                   { return NewGormUserRepository(s.db) }
func (s *gormStore) Profiles() ProfileRepository             { return NewGormProfileRepository(s.db) }
func (s *gormStore) Friendships() FriendshipRepository       { return NewGormFriendshipRepository(s.db) }
func (s *gormStore) FriendRequests() FriendRequestRepository { return NewGormFriendRequestRepository(s.db) }
func (s *gormStore) Posts() PostRepository                   { return NewGormPostRepository(s.db) }
func (s *gormStore) Likes() LikeRepository                   { return NewGormLikeRepository(s.db) }
func (s *gormStore) Opportunities() OpportunityRepository    { return NewGormOpportunityRepository(s.db) }
func (s *gormStore) Applications() ApplicationRepository     { return NewGormApplicationRepository(s.db) }

// Transaction wraps fn in a GORM transaction. Nested calls reuse the outer
// transaction through GORM's savepoint support.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
