package models

import "strings"

// User is an account in the identity store.
type User struct {
	SoftDeleteModel
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"type:varchar(254);uniqueIndex;not null" json:"email,omitempty"`
	FirstName    string `gorm:"type:varchar(30)" json:"first_name"`
	LastName     string `gorm:"type:varchar(150)" json:"last_name"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	IsStaff      bool   `gorm:"default:false" json:"is_staff,omitempty"`
}

// TableName sets the table name for User.
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last", falling back to the username when both are empty.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// UserBasicInfo holds minimal public information about a user.
type UserBasicInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar,omitempty"`
}

// BasicInfo projects the user into its public shape. avatar comes from the profile, if any.
func (u *User) BasicInfo(avatar string) UserBasicInfo {
	return UserBasicInfo{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName(),
		Avatar:   avatar,
	}
}
