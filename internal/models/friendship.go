package models

// Friendship is one directed edge of an accepted friendship. Every friendship
// is stored as two rows, (A,B) and (B,A), created and removed together.
type Friendship struct {
	BaseModel
	UserID   uint `gorm:"not null;uniqueIndex:idx_friendship_pair" json:"user_id"`
	FriendID uint `gorm:"not null;uniqueIndex:idx_friendship_pair;index" json:"friend_id"`
}

// TableName sets the table name for Friendship.
func (Friendship) TableName() string {
	return "friendships"
}
