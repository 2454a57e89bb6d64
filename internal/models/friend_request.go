package models

// FriendRequestStatus is the state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "pending"
	FriendRequestStatusAccepted FriendRequestStatus = "accepted"
	FriendRequestStatusRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a request from one user to another to become friends.
type FriendRequest struct {
	BaseModel
	FromUserID uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair" json:"from_user_id"`
	ToUserID   uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair;index" json:"to_user_id"`
	Status     FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
}

// TableName sets the table name for FriendRequest.
func (FriendRequest) TableName() string {
	return "friend_requests"
}

// Involves reports whether userID is either side of the request.
func (r *FriendRequest) Involves(userID uint) bool {
	return r.FromUserID == userID || r.ToUserID == userID
}

// Counterpart returns the other side of the request relative to userID.
func (r *FriendRequest) Counterpart(userID uint) uint {
	if r.FromUserID == userID {
		return r.ToUserID
	}
	return r.FromUserID
}

// FriendRequestWithUser is a friend request together with the public info
// of the other party, as seen by the viewer.
type FriendRequestWithUser struct {
	FriendRequest
	User UserBasicInfo `json:"user"`
}
