package models

import "time"

// The vote tables share one shape: a composite-unique (user_id, target_id)
// key and a signed vote value. "No vote" is representable only as row
// absence; retracting a vote deletes the row. The voting service operates
// on these tables generically by name.

// PostVote is a single user's vote on a post.
type PostVote struct {
	// UserID is the voter.
	UserID uint64 `gorm:"primaryKey;autoIncrement:false"`
	// TargetID is the post voted on.
	TargetID uint64 `gorm:"primaryKey;autoIncrement:false"`
	// Vote is +1 or -1.
	Vote int `gorm:"not null"`
	// CreatedAt is the timestamp when the vote was first cast (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the vote was last changed (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the PostVote model.
func (PostVote) TableName() string {
	return "post_votes"
}

// CommentVote is a single user's vote on a comment.
type CommentVote struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Vote      int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the CommentVote model.
func (CommentVote) TableName() string {
	return "comment_votes"
}

// KarmaVote is a single user's reputation vote on another user.
type KarmaVote struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	TargetID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	Vote      int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the KarmaVote model.
func (KarmaVote) TableName() string {
	return "karma_votes"
}
