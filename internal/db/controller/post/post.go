// Package post provides CRUD operations for posts.
package post

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/slug"
)

var (
	// ErrPostNotFound is returned when a post is not found.
	ErrPostNotFound = errors.New("post not found")
	// ErrHeadingEmpty is returned when saving a post without a heading.
	ErrHeadingEmpty = errors.New("post heading cannot be empty")
	// ErrNoBlogOnPublish is returned when publishing a post without a blog.
	ErrNoBlogOnPublish = errors.New("you must choose a blog before publishing")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Save validates and persists a post, regenerating its slug from the
// heading. New posts start as drafts unless explicitly published, and a
// published post must reference a blog.
func Save(db *gorm.DB, p *models.Post) error {
	if db == nil {
		return ErrDBNil
	}
	if p.Heading == "" {
		return ErrHeadingEmpty
	}
	if !p.IsDraft && p.BlogID == nil {
		return ErrNoBlogOnPublish
	}

	return db.Transaction(func(tx *gorm.DB) error {
		s, err := slug.MakeUnique(p.Heading, slugTaken(tx, p.ID))
		if err != nil {
			return err
		}

		p.Slug = s

		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("failed to save post: %w", err)
		}

		return nil
	})
}

// GetBySlug retrieves a post by its slug.
func GetBySlug(db *gorm.DB, s string) (*models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Post

	result := db.Where("slug = ?", s).First(&p)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}

		return nil, result.Error
	}

	return &p, nil
}

// GetByID retrieves a post by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var p models.Post

	result := db.First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}

		return nil, result.Error
	}

	return &p, nil
}

// ListByBlog retrieves the published posts of a blog, newest first.
func ListByBlog(db *gorm.DB, blogID uint64) ([]models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var posts []models.Post

	err := db.Where("blog_id = ? AND is_draft = ?", blogID, false).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return posts, nil
}

func slugTaken(tx *gorm.DB, selfID uint64) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		var count int64

		err := tx.Model(&models.Post{}).
			Where("slug = ? AND id <> ?", candidate, selfID).
			Count(&count).Error
		if err != nil {
			return false, fmt.Errorf("failed to check slug: %w", err)
		}

		return count > 0, nil
	}
}
