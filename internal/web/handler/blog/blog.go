// Package bloghandler provides the JSON endpoints for creating blogs,
// reading them and managing their settings and member lists.
package bloghandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/AmatanHead/collective-blog/internal/config"
	blogctl "github.com/AmatanHead/collective-blog/internal/db/controller/blog"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// Path is the base path for blog endpoints.
const Path = handler.RootPath + "blogs"

// SettingsForm is the JSON payload for creating a blog or updating its
// settings. Field validation happens on the Blog model itself.
type SettingsForm struct {
	Name  string `json:"name"`
	About string `json:"about"`

	Type string `json:"type"`

	JoinCondition      string `json:"join_condition"`
	JoinKarmaThreshold int    `json:"join_karma_threshold"`

	PostCondition          string `json:"post_condition"`
	PostMembershipRequired bool   `json:"post_membership_required"`
	PostKarmaThreshold     int    `json:"post_karma_threshold"`

	CommentCondition          string `json:"comment_condition"`
	CommentMembershipRequired bool   `json:"comment_membership_required"`
	CommentKarmaThreshold     int    `json:"comment_karma_threshold"`
}

// Member is the JSON shape of one entry in a blog's member list.
type Member struct {
	UserID                uint64     `json:"user_id"`
	Username              string     `json:"username"`
	Role                  string     `json:"role"`
	Color                 string     `json:"color"`
	Banned                bool       `json:"banned"`
	BanExpiresAt          *time.Time `json:"ban_expires_at,omitempty"`
	OverallPostsRating    int        `json:"overall_posts_rating"`
	OverallCommentsRating int        `json:"overall_comments_rating"`
}

// Service is the blog handler service.
type Service struct {
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the blog handler.
var Handler = Service{}

// Init initializes the blog handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	app.Post(Path, s.Create)
	app.Get(Path+"/:slug", s.Get)
	app.Put(Path+"/:slug/settings", s.UpdateSettings)
	app.Get(Path+"/:slug/members", s.Members)
}

// Create handles new blog creation. The creator becomes the blog's owner.
func (s *Service) Create(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	form := &SettingsForm{}
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	b := &models.Blog{}
	applyForm(b, form)

	if err := blogctl.Create(s.deps.DB, b, user.ID); err != nil {
		return handler.RenderError(c, err)
	}

	log.Info().
		Str("blog_slug", b.Slug).
		Uint64("owner_id", user.ID).
		Msg("blog created")

	return c.Status(fiber.StatusCreated).JSON(b)
}

// Get returns a single blog by slug.
func (s *Service) Get(c *fiber.Ctx) error {
	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(b)
}

// UpdateSettings updates a blog's settings. Requires the change-settings
// permission in the blog.
func (s *Service) UpdateSettings(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	m, err := s.deps.Memberships.MembershipFor(user.ID, b.ID)
	if err != nil {
		return handler.RenderError(c, err)
	}

	actor := membership.Actor{User: user, Membership: m}
	if !membership.Allows(actor, models.PermChangeSettings, time.Now()) {
		return handler.RenderError(c, membership.ErrPermissionDenied)
	}

	form := &SettingsForm{}
	if err = c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	applyForm(b, form)

	if err = blogctl.Update(s.deps.DB, b); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(b)
}

// Members returns the blog's member list in display order.
func (s *Service) Members(c *fiber.Ctx) error {
	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	memberships, err := blogctl.Members(s.deps.DB, b.ID)
	if err != nil {
		return handler.RenderError(c, err)
	}

	now := time.Now()

	members := lo.Map(memberships, func(m models.Membership, _ int) Member {
		return Member{
			UserID:                m.UserID,
			Username:              m.User.Username,
			Role:                  string(m.Role),
			Color:                 m.Color,
			Banned:                m.IsBanned(now),
			BanExpiresAt:          m.BanExpiresAt,
			OverallPostsRating:    m.OverallPostsRating,
			OverallCommentsRating: m.OverallCommentsRating,
		}
	})

	return c.JSON(members)
}

func applyForm(b *models.Blog, form *SettingsForm) {
	b.Name = form.Name
	b.About = form.About
	b.Type = models.BlogType(form.Type)
	b.JoinCondition = models.JoinCondition(form.JoinCondition)
	b.JoinKarmaThreshold = form.JoinKarmaThreshold
	b.PostCondition = models.WriteCondition(form.PostCondition)
	b.PostMembershipRequired = form.PostMembershipRequired
	b.PostKarmaThreshold = form.PostKarmaThreshold
	b.CommentCondition = models.WriteCondition(form.CommentCondition)
	b.CommentMembershipRequired = form.CommentMembershipRequired
	b.CommentKarmaThreshold = form.CommentKarmaThreshold
}
