package models

// PostContentMaxLength bounds post content.
const PostContentMaxLength = 5000

// Post is an entry in the feed.
type Post struct {
	SoftDeleteModel
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Content  string `gorm:"type:text;not null" json:"content"`
	Media    string `gorm:"type:varchar(255)" json:"media,omitempty"`
}

// TableName sets the table name for Post.
func (Post) TableName() string {
	return "posts"
}

// Like marks that a user liked a post. Presence of the row means liked.
type Like struct {
	BaseModel
	UserID uint `gorm:"not null;uniqueIndex:idx_like_pair" json:"user_id"`
	PostID uint `gorm:"not null;uniqueIndex:idx_like_pair;index" json:"post_id"`
}

// TableName sets the table name for Like.
func (Like) TableName() string {
	return "likes"
}

// FeedPost is a post enriched for display.
type FeedPost struct {
	Post
	Author     UserBasicInfo `json:"author"`
	TotalLikes int64         `json:"total_likes"`
	Liked      bool          `json:"liked"`
}
