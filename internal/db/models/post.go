package models

import "time"

// Post represents an article published into a blog. Content rendering
// (markdown, cut markers) happens outside this core; only the raw source
// is stored. The Rating column is a vote cache maintained by the voting
// service.
type Post struct {
	// ID is the unique identifier for the post.
	ID uint64 `gorm:"primaryKey"`
	// AuthorID is the ID of the user who wrote the post.
	AuthorID uint64 `gorm:"index;not null"`
	// Author is the associated user.
	Author User `gorm:"foreignKey:AuthorID"`
	// BlogID is the blog the post is published into. Nil while the post
	// is a draft without a chosen blog.
	BlogID *uint64 `gorm:"index"`
	// Blog is the associated blog (posts go away with their blog).
	Blog *Blog `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`

	// Heading is the post caption.
	Heading string `gorm:"size:100;not null"`
	// Slug is the unique lowercase URL slug, derived from Heading on save.
	Slug string `gorm:"uniqueIndex;size:100;not null"`
	// Content is the post source text.
	Content string
	// IsDraft hides the post from everyone but the author and staff.
	IsDraft bool `gorm:"not null;default:true"`

	// Rating is the cached signed sum of votes on this post.
	Rating int `gorm:"not null;default:0"`

	// CreatedAt is the timestamp when the post was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the post was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Post model.
func (Post) TableName() string {
	return "posts"
}
