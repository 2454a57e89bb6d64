package models

import (
	"time"

	"gorm.io/datatypes"
)

// FontSize is the accessibility font size preference.
type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

// Valid reports whether f is one of the supported sizes.
func (f FontSize) Valid() bool {
	switch f {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
		return true
	}
	return false
}

// ProfileUIDLength is the length of the generated public identifier.
const ProfileUIDLength = 8

// SocialLink is one entry of a profile's social network list.
type SocialLink struct {
	Network string `json:"network"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Icon    string `json:"icon"`
}

// Profile carries the public, per-user data that the identity store does not.
// A user has at most one profile; it is created on first use.
type Profile struct {
	BaseModel
	UserID        uint                            `gorm:"not null;uniqueIndex" json:"user_id"`
	UID           string                          `gorm:"type:varchar(24);not null;uniqueIndex" json:"uid"`
	Avatar        string                          `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	Bio           string                          `gorm:"type:text" json:"bio"`
	Socials       datatypes.JSONSlice[SocialLink] `gorm:"type:jsonb" json:"socials"`
	DarkMode      bool                            `gorm:"default:false" json:"dark_mode"`
	AssistiveMode bool                            `gorm:"default:false" json:"assistive_mode"`
	FontSize      FontSize                        `gorm:"type:varchar(10);default:'medium'" json:"font_size"`
	LastActivity  *time.Time                      `json:"last_activity,omitempty"`
}

// TableName sets the table name for Profile.
func (Profile) TableName() string {
	return "profiles"
}
