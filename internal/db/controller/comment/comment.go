// Package comment provides operations over the arena-style comment store:
// a flat table keyed by id with a parent_id pointer. Tree traversal walks
// parent pointers iteratively; nothing here builds recursive object graphs.
package comment

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/models"
)

var (
	// ErrCommentNotFound is returned when a comment is not found.
	ErrCommentNotFound = errors.New("comment not found")
	// ErrContentEmpty is returned when creating a comment without content.
	ErrContentEmpty = errors.New("comment content cannot be empty")
	// ErrParentMismatch is returned when the parent belongs to another post.
	ErrParentMismatch = errors.New("parent comment belongs to another post")
	// ErrCycle is returned when a parent walk revisits a node. A correct
	// store never produces this; it guards traversal termination.
	ErrCycle = errors.New("comment tree contains a cycle")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create persists a new comment under the given post and optional parent.
func Create(db *gorm.DB, c *models.Comment) error {
	if db == nil {
		return ErrDBNil
	}
	if c.Content == "" {
		return ErrContentEmpty
	}

	if c.ParentID != nil {
		parent, err := GetByID(db, *c.ParentID)
		if err != nil {
			return err
		}
		if parent.PostID != c.PostID {
			return ErrParentMismatch
		}
	}

	if err := db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment by its ID.
func GetByID(db *gorm.DB, id uint64) (*models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var c models.Comment

	result := db.First(&c, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}

		return nil, result.Error
	}

	return &c, nil
}

// AncestorPath returns the chain of comments from the tree root down to
// (and including) the given comment, computed with an iterative parent
// walk.
func AncestorPath(db *gorm.DB, id uint64) ([]models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var (
		path []models.Comment
		seen = map[uint64]bool{}
		next = &id
	)

	for next != nil {
		if seen[*next] {
			return nil, ErrCycle
		}

		seen[*next] = true

		c, err := GetByID(db, *next)
		if err != nil {
			return nil, err
		}

		path = append(path, *c)
		next = c.ParentID
	}

	// reverse: the walk collected leaf-to-root
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// Depth returns the comment's depth in its tree; top-level comments have
// depth zero.
func Depth(db *gorm.DB, id uint64) (int, error) {
	path, err := AncestorPath(db, id)
	if err != nil {
		return 0, err
	}

	return len(path) - 1, nil
}

// ListByPost retrieves all comments of a post ordered by creation time.
// The flat slice plus ParentID is enough for the rendering layer to
// reconstruct the thread.
func ListByPost(db *gorm.DB, postID uint64) ([]models.Comment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var cs []models.Comment

	err := db.Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&cs).Error
	if err != nil {
		return nil, err
	}

	return cs, nil
}

// Hide marks a comment hidden, either by its author or by a moderator.
func Hide(db *gorm.DB, id uint64, byModerator bool) error {
	if db == nil {
		return ErrDBNil
	}

	column := "is_hidden"
	if byModerator {
		column = "is_hidden_by_moderator"
	}

	result := db.Model(&models.Comment{}).Where("id = ?", id).Update(column, true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
