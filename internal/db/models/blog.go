package models

import "time"

// BlogType represents the visibility class of a blog.
type BlogType string

const (
	// BlogOpen means posts in the blog are visible to everyone.
	BlogOpen BlogType = "open"
	// BlogPrivate means posts are visible to non-banned members only.
	BlogPrivate BlogType = "private"
)

// JoinCondition represents the rule applied when a user asks to join a blog.
type JoinCondition string

const (
	// JoinAnyone lets any active user join immediately.
	JoinAnyone JoinCondition = "anyone"
	// JoinKarmaThreshold admits users whose karma meets JoinKarmaThreshold.
	JoinKarmaThreshold JoinCondition = "karma"
	// JoinManualApproval queues join requests for a moderator to accept.
	JoinManualApproval JoinCondition = "approval"
)

// WriteCondition represents the rule applied when a user wants to publish
// posts or comments in a blog.
type WriteCondition string

const (
	// WriteAnyone lets any permitted user write.
	WriteAnyone WriteCondition = "anyone"
	// WriteKarmaThreshold requires karma above the relevant threshold.
	WriteKarmaThreshold WriteCondition = "karma"
)

// Blog represents a topical community blog. Users join it under the
// configured access policy, publish posts into it and comment on them.
// The policy columns here are pure configuration; the decision functions
// combining them with a membership live in the policy package.
type Blog struct {
	// ID is the unique identifier for the blog.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique display name of the blog.
	Name string `gorm:"unique;size:100;not null" validate:"required,max=100"`
	// Slug is the unique lowercase URL slug, derived from Name on save.
	Slug string `gorm:"uniqueIndex;size:100;not null"`
	// About is the blog description source text. Rendering is external.
	About string

	// Type controls post visibility (open or private).
	Type BlogType `gorm:"type:varchar(20);not null;default:'open'" validate:"oneof=open private"`

	// JoinCondition controls who may join the blog.
	JoinCondition JoinCondition `gorm:"type:varchar(20);not null;default:'anyone'" validate:"oneof=anyone karma approval"`
	// JoinKarmaThreshold is the minimum karma to join when JoinCondition is karma.
	JoinKarmaThreshold int `gorm:"not null;default:0"`

	// PostCondition controls who may publish posts.
	PostCondition WriteCondition `gorm:"type:varchar(20);not null;default:'karma'" validate:"oneof=anyone karma"`
	// PostMembershipRequired requires a live membership to publish posts.
	PostMembershipRequired bool `gorm:"not null;default:true"`
	// PostKarmaThreshold is the minimum karma to post when PostCondition is karma.
	PostKarmaThreshold int `gorm:"not null;default:0"`

	// CommentCondition controls who may comment.
	CommentCondition WriteCondition `gorm:"type:varchar(20);not null;default:'anyone'" validate:"oneof=anyone karma"`
	// CommentMembershipRequired requires a live membership to comment.
	CommentMembershipRequired bool `gorm:"not null;default:false"`
	// CommentKarmaThreshold is the minimum karma to comment when CommentCondition is karma.
	CommentKarmaThreshold int `gorm:"not null;default:0"`

	// CreatedAt is the timestamp when the blog was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the blog was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Blog model.
func (Blog) TableName() string {
	return "blogs"
}
