// Package posthandler provides the JSON endpoints for writing and
// reading posts.
package posthandler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/AmatanHead/collective-blog/internal/config"
	blogctl "github.com/AmatanHead/collective-blog/internal/db/controller/blog"
	postctl "github.com/AmatanHead/collective-blog/internal/db/controller/post"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// Path is the base path for post endpoints.
const Path = handler.RootPath + "posts"

// PostForm is the JSON payload for creating or updating a post.
type PostForm struct {
	BlogSlug string `json:"blog_slug"`
	Heading  string `json:"heading"`
	Content  string `json:"content"`
	IsDraft  bool   `json:"is_draft"`
}

// Service is the post handler service.
type Service struct {
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the post handler.
var Handler = Service{}

// Init initializes the post handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	app.Post(Path, s.Create)
	app.Get(Path+"/:slug", s.Get)
	app.Get(handler.RootPath+"blogs/:slug/posts", s.ListByBlog)
}

// Create saves a new post. Publishing into a blog requires passing the
// blog's post condition; drafts are free.
func (s *Service) Create(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	form := &PostForm{}
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	post := &models.Post{
		AuthorID: user.ID,
		Heading:  form.Heading,
		Content:  form.Content,
		IsDraft:  form.IsDraft,
	}

	if form.BlogSlug != "" {
		b, err := blogctl.GetBySlug(s.deps.DB, form.BlogSlug)
		if err != nil {
			return handler.RenderError(c, err)
		}

		if !form.IsDraft {
			ok, err := s.deps.Policies.CheckCanPost(b, user)
			if err != nil {
				return handler.RenderError(c, err)
			}

			if !ok {
				return handler.RenderError(c, membership.ErrPermissionDenied)
			}
		}

		post.BlogID = &b.ID
	}

	if err := postctl.Save(s.deps.DB, post); err != nil {
		return handler.RenderError(c, err)
	}

	log.Info().
		Str("post_slug", post.Slug).
		Uint64("author_id", user.ID).
		Bool("is_draft", post.IsDraft).
		Msg("post saved")

	return c.Status(fiber.StatusCreated).JSON(post)
}

// Get returns a post by slug, subject to the visibility rules.
func (s *Service) Get(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)

	post, err := postctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	visible, err := s.postVisible(post, user)
	if err != nil {
		return handler.RenderError(c, err)
	}

	// invisible posts 404 instead of 403 to avoid leaking their existence
	if !visible {
		return handler.RenderError(c, postctl.ErrPostNotFound)
	}

	return c.JSON(post)
}

// ListByBlog returns the published posts of a blog, newest first. For
// private blogs the list is filtered by visibility.
func (s *Service) ListByBlog(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)

	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	var m *models.Membership

	if user != nil {
		m, err = s.deps.Memberships.MembershipFor(user.ID, b.ID)
		if err != nil {
			return handler.RenderError(c, err)
		}
	}

	posts, err := postctl.ListByBlog(s.deps.DB, b.ID)
	if err != nil {
		return handler.RenderError(c, err)
	}

	visible := lo.Filter(posts, func(p models.Post, _ int) bool {
		return s.deps.Policies.PostVisibleTo(b, &p, user, m)
	})

	return c.JSON(visible)
}

// postVisible resolves the post's blog and the viewer's membership, then
// applies the visibility policy.
func (s *Service) postVisible(post *models.Post, user *models.User) (bool, error) {
	var (
		b   *models.Blog
		m   *models.Membership
		err error
	)

	if post.BlogID != nil {
		b, err = blogctl.GetByID(s.deps.DB, *post.BlogID)
		if err != nil {
			return false, err
		}

		if user != nil {
			m, err = s.deps.Memberships.MembershipFor(user.ID, b.ID)
			if err != nil {
				return false, err
			}
		}
	}

	return s.deps.Policies.PostVisibleTo(b, post, user, m), nil
}
