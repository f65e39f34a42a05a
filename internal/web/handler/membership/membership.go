// Package membershiphandler provides the JSON endpoints for joining and
// leaving blogs and for the moderation actions on members: approving and
// refusing join requests, banning, unbanning and editing permission
// flags.
package membershiphandler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AmatanHead/collective-blog/internal/config"
	blogctl "github.com/AmatanHead/collective-blog/internal/db/controller/blog"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// Path is the base path for membership endpoints, relative to a blog.
const Path = handler.RootPath + "blogs/:slug"

// banDurations maps the named ban lengths offered by the UI to concrete
// durations. "forever" is absent on purpose: it maps to a nil duration,
// which the registry stores as a permanent ban.
var banDurations = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// BanForm is the JSON payload for banning a member.
type BanForm struct {
	Duration string `json:"duration"`
}

// MessageResponse is the JSON body for actions that only produce a
// human-readable outcome message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Service is the membership handler service.
type Service struct {
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the membership handler.
var Handler = Service{}

// Init initializes the membership handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	app.Post(Path+"/join", s.Join)
	app.Post(Path+"/leave", s.Leave)
	app.Post(Path+"/members/:userID/approve", s.Approve)
	app.Post(Path+"/members/:userID/refuse", s.Refuse)
	app.Post(Path+"/members/:userID/ban", s.Ban)
	app.Post(Path+"/members/:userID/unban", s.Unban)
	app.Put(Path+"/members/:userID/flags", s.Flags)
}

// Join handles a join request under the blog's join condition.
func (s *Service) Join(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	msg, err := s.deps.Memberships.Join(b, user)
	if err != nil {
		return handler.RenderError(c, err)
	}

	log.Info().
		Uint64("user_id", user.ID).
		Str("blog_slug", b.Slug).
		Msg("user joined blog")

	return c.JSON(MessageResponse{Message: msg})
}

// Leave handles leaving a blog.
func (s *Service) Leave(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err = s.deps.Memberships.Leave(b, user); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Success"})
}

// Approve accepts a pending join request.
func (s *Service) Approve(c *fiber.Ctx) error {
	actor, target, err := s.moderationContext(c)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err = s.deps.Memberships.Approve(actor, target); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Success"})
}

// Refuse rejects a pending join request.
func (s *Service) Refuse(c *fiber.Ctx) error {
	actor, target, err := s.moderationContext(c)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err = s.deps.Memberships.Refuse(actor, target); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Success"})
}

// Ban bans a member for a named duration, or forever when the duration is
// empty or "forever".
func (s *Service) Ban(c *fiber.Ctx) error {
	actor, target, err := s.moderationContext(c)
	if err != nil {
		return handler.RenderError(c, err)
	}

	form := &BanForm{}

	// an empty body means a permanent ban
	if len(c.Body()) > 0 {
		if err = c.BodyParser(form); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
		}
	}

	var duration *time.Duration

	if form.Duration != "" && form.Duration != "forever" {
		d, ok := banDurations[form.Duration]
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "unknown ban duration"})
		}

		duration = &d
	}

	if err = s.deps.Memberships.Ban(actor, target, duration); err != nil {
		return handler.RenderError(c, err)
	}

	log.Info().
		Uint64("actor_id", actor.User.ID).
		Uint64("target_id", target.UserID).
		Str("duration", form.Duration).
		Msg("member banned")

	return c.JSON(MessageResponse{Message: "Success"})
}

// Unban lifts a ban.
func (s *Service) Unban(c *fiber.Ctx) error {
	actor, target, err := s.moderationContext(c)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err = s.deps.Memberships.Unban(actor, target); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Success"})
}

// Flags replaces a member's permission flags. Granting any flag promotes
// the member to administrator; clearing all of them demotes back.
func (s *Service) Flags(c *fiber.Ctx) error {
	actor, target, err := s.moderationContext(c)
	if err != nil {
		return handler.RenderError(c, err)
	}

	flags := models.PermissionFlags{}
	if err = c.BodyParser(&flags); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	if err = s.deps.Memberships.ManageFlags(actor, target, flags); err != nil {
		return handler.RenderError(c, err)
	}

	return c.JSON(MessageResponse{Message: "Success"})
}

// moderationContext resolves the acting user, their membership and the
// target membership for member-level moderation endpoints.
func (s *Service) moderationContext(c *fiber.Ctx) (membership.Actor, *models.Membership, error) {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return membership.Actor{}, nil, voting.ErrUnauthenticated
	}

	b, err := blogctl.GetBySlug(s.deps.DB, c.Params("slug"))
	if err != nil {
		return membership.Actor{}, nil, err
	}

	targetUserID, err := strconv.ParseUint(c.Params("userID"), 10, 64)
	if err != nil || targetUserID == 0 {
		return membership.Actor{}, nil, membership.ErrMembershipNotFound
	}

	target, err := s.deps.Memberships.MembershipFor(targetUserID, b.ID)
	if err != nil {
		return membership.Actor{}, nil, err
	}

	if target == nil {
		return membership.Actor{}, nil, membership.ErrMembershipNotFound
	}

	own, err := s.deps.Memberships.MembershipFor(user.ID, b.ID)
	if err != nil {
		return membership.Actor{}, nil, err
	}

	return membership.Actor{User: user, Membership: own}, target, nil
}
