package models

import "time"

// Profile holds the public profile data attached to a user account.
// The Karma column is a vote cache maintained by the voting service;
// it is never recomputed on read.
type Profile struct {
	// ID is the unique identifier for the profile.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the ID of the owning user. One profile per user.
	UserID uint64 `gorm:"uniqueIndex;not null"`
	// User is the owning user (enforced with a foreign key constraint).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Location is a free-form location string shown on the profile page.
	Location string `gorm:"size:100"`
	// About is the self-description source text. Rendering happens outside
	// this core.
	About string
	// EmailIsPublic controls whether the email is shown on the profile page.
	EmailIsPublic bool
	// Karma is the cached signed sum of karma votes cast on this user.
	Karma int `gorm:"not null;default:0"`
	// CreatedAt is the timestamp when the profile was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the profile was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// CanBeVotedBy reports whether the given user may cast a karma vote on
// this profile's owner. Self-votes are rejected by the karma gate before
// this is consulted.
func (p *Profile) CanBeVotedBy(user *User) bool {
	return user != nil && user.ID != 0 && user.Active
}
