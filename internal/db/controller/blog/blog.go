// Package blog provides CRUD operations for blogs. Creating a blog also
// creates the owner's membership in the same transaction.
package blog

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/slug"
)

var (
	// ErrBlogNotFound is returned when a blog is not found.
	ErrBlogNotFound = errors.New("blog not found")
	// ErrBlogNameEmpty is returned when creating a blog with an empty name.
	ErrBlogNameEmpty = errors.New("blog name cannot be empty")
	// ErrInvalidSettings is returned when the blog's policy settings fail validation.
	ErrInvalidSettings = errors.New("invalid blog settings")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

var validate = validator.New()

// Create validates and persists a new blog and makes the creator its
// owner via an implicit membership.
func Create(db *gorm.DB, b *models.Blog, ownerID uint64) error {
	if db == nil {
		return ErrDBNil
	}
	if b.Name == "" {
		return ErrBlogNameEmpty
	}

	applyDefaults(b)

	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		s, err := slug.MakeUnique(b.Name, slugTaken(tx, 0))
		if err != nil {
			return err
		}

		b.Slug = s

		if err := tx.Create(b).Error; err != nil {
			return fmt.Errorf("failed to create blog: %w", err)
		}

		owner := models.Membership{
			UserID: ownerID,
			BlogID: b.ID,
			Role:   models.RoleOwner,
			Color:  models.DefaultColor,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}

		return nil
	})
}

// Update validates and persists settings changes, regenerating the slug
// when the name changed.
func Update(db *gorm.DB, b *models.Blog) error {
	if db == nil {
		return ErrDBNil
	}
	if b.Name == "" {
		return ErrBlogNameEmpty
	}

	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		s, err := slug.MakeUnique(b.Name, slugTaken(tx, b.ID))
		if err != nil {
			return err
		}

		b.Slug = s

		if err := tx.Save(b).Error; err != nil {
			return fmt.Errorf("failed to update blog: %w", err)
		}

		return nil
	})
}

// GetBySlug retrieves a blog by its slug.
func GetBySlug(db *gorm.DB, s string) (*models.Blog, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var b models.Blog

	result := db.Where("slug = ?", s).First(&b)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}

		return nil, result.Error
	}

	return &b, nil
}

// GetByID retrieves a blog by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.Blog, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var b models.Blog

	result := db.First(&b, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}

		return nil, result.Error
	}

	return &b, nil
}

// Members lists the blog's memberships ordered for display (owner first,
// left members last, names breaking ties).
func Members(db *gorm.DB, blogID uint64) ([]models.Membership, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var ms []models.Membership

	err := db.Preload("User").Where("blog_id = ?", blogID).Find(&ms).Error
	if err != nil {
		return nil, err
	}

	models.SortMemberships(ms)

	return ms, nil
}

// slugTaken builds the collision predicate for MakeUnique, ignoring the
// row currently being saved.
func slugTaken(tx *gorm.DB, selfID uint64) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		var count int64

		err := tx.Model(&models.Blog{}).
			Where("slug = ? AND id <> ?", candidate, selfID).
			Count(&count).Error
		if err != nil {
			return false, fmt.Errorf("failed to check slug: %w", err)
		}

		return count > 0, nil
	}
}

func applyDefaults(b *models.Blog) {
	if b.Type == "" {
		b.Type = models.BlogOpen
	}
	if b.JoinCondition == "" {
		b.JoinCondition = models.JoinAnyone
	}
	if b.PostCondition == "" {
		b.PostCondition = models.WriteKarmaThreshold
	}
	if b.CommentCondition == "" {
		b.CommentCondition = models.WriteAnyone
	}
}
