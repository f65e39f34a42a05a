// Package commenthandler provides the JSON endpoints for the comment
// tree under a post.
package commenthandler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AmatanHead/collective-blog/internal/config"
	blogctl "github.com/AmatanHead/collective-blog/internal/db/controller/blog"
	commentctl "github.com/AmatanHead/collective-blog/internal/db/controller/comment"
	postctl "github.com/AmatanHead/collective-blog/internal/db/controller/post"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// CommentForm is the JSON payload for posting a comment.
type CommentForm struct {
	ParentID *uint64 `json:"parent_id"`
	Content  string  `json:"content"`
}

// Service is the comment handler service.
type Service struct {
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the comment handler.
var Handler = Service{}

// Init initializes the comment handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	app.Post(handler.RootPath+"posts/:slug/comments", s.Create)
	app.Get(handler.RootPath+"posts/:slug/comments", s.List)
	app.Post(handler.RootPath+"comments/:id/hide", s.Hide)
}

// Create posts a comment under a post, subject to the blog's comment
// condition and the post's visibility.
func (s *Service) Create(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	post, b, m, err := s.postContext(c, user)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if !s.deps.Policies.PostVisibleTo(b, post, user, m) {
		return handler.RenderError(c, postctl.ErrPostNotFound)
	}

	if b != nil {
		ok, err := s.deps.Policies.CheckCanComment(b, user)
		if err != nil {
			return handler.RenderError(c, err)
		}

		if !ok {
			return handler.RenderError(c, membership.ErrPermissionDenied)
		}
	}

	form := &CommentForm{}
	if err = c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	comment := &models.Comment{
		AuthorID: user.ID,
		PostID:   post.ID,
		ParentID: form.ParentID,
		Content:  form.Content,
	}

	if err = commentctl.Create(s.deps.DB, comment); err != nil {
		return handler.RenderError(c, err)
	}

	log.Info().
		Uint64("comment_id", comment.ID).
		Uint64("post_id", post.ID).
		Uint64("author_id", user.ID).
		Msg("comment posted")

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// List returns the post's comments in thread order, subject to the
// post's visibility.
func (s *Service) List(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)

	post, b, m, err := s.postContext(c, user)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if !s.deps.Policies.PostVisibleTo(b, post, user, m) {
		return handler.RenderError(c, postctl.ErrPostNotFound)
	}

	comments, err := commentctl.ListByPost(s.deps.DB, post.ID)
	if err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(comments)
}

// Hide folds a comment. Authors fold their own comments; folding someone
// else's requires the delete-comments permission and marks the comment as
// removed by a moderator.
func (s *Service) Hide(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid comment id"})
	}

	comment, err := commentctl.GetByID(s.deps.DB, id)
	if err != nil {
		return handler.RenderError(c, err)
	}

	byModerator := comment.AuthorID != user.ID

	if byModerator {
		post, err := postctl.GetByID(s.deps.DB, comment.PostID)
		if err != nil {
			return handler.RenderError(c, err)
		}

		var m *models.Membership

		if post.BlogID != nil {
			m, err = s.deps.Memberships.MembershipFor(user.ID, *post.BlogID)
			if err != nil {
				return handler.RenderError(c, err)
			}
		}

		actor := membership.Actor{User: user, Membership: m}
		if !membership.Allows(actor, models.PermDeleteComments, time.Now()) {
			return handler.RenderError(c, membership.ErrPermissionDenied)
		}
	}

	if err = commentctl.Hide(s.deps.DB, id, byModerator); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Success"})
}

// postContext loads the post named in the route together with its blog
// and the viewer's membership in that blog.
func (s *Service) postContext(c *fiber.Ctx, user *models.User) (*models.Post, *models.Blog, *models.Membership, error) {
	post, err := postctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		b *models.Blog
		m *models.Membership
	)

	if post.BlogID != nil {
		b, err = blogctl.GetByID(s.deps.DB, *post.BlogID)
		if err != nil {
			return nil, nil, nil, err
		}

		if user != nil {
			m, err = s.deps.Memberships.MembershipFor(user.ID, b.ID)
			if err != nil {
				return nil, nil, nil, err
			}
		}
	}

	return post, b, m, nil
}
