package models

import "time"

// Comment represents one node of a post's discussion tree. The tree is
// stored arena-style: a flat table with a nullable ParentID, no in-memory
// child pointers. Traversal (ancestor path, depth) is done with iterative
// parent walks in the comment controller.
type Comment struct {
	// ID is the unique identifier for the comment.
	ID uint64 `gorm:"primaryKey"`
	// AuthorID is the ID of the user who wrote the comment.
	AuthorID uint64 `gorm:"index;not null"`
	// Author is the associated user.
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	// PostID is the post this comment belongs to.
	PostID uint64 `gorm:"index;not null"`
	// Post is the associated post (comments go away with their post).
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	// ParentID points to the parent comment; nil for top-level comments.
	ParentID *uint64 `gorm:"index"`

	// Content is the comment source text.
	Content string

	// Rating is the cached signed sum of votes on this comment.
	Rating int `gorm:"not null;default:0"`

	// IsHidden marks a comment folded by its author.
	IsHidden bool `gorm:"not null;default:false"`
	// IsHiddenByModerator marks a comment removed by a moderator.
	IsHiddenByModerator bool `gorm:"not null;default:false"`

	// CreatedAt is the timestamp when the comment was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the comment was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Comment model.
func (Comment) TableName() string {
	return "comments"
}
