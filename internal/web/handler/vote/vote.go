// Package votehandler provides the JSON endpoints for casting votes on
// posts, comments and user karma, and for reading vote scores.
package votehandler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AmatanHead/collective-blog/internal/config"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// VoteForm is the JSON payload for casting a vote. Zero retracts.
type VoteForm struct {
	Vote int `json:"vote"`
}

// Service is the vote handler service.
type Service struct {
	cfg  *config.Config
	deps *handler.Deps
}

// Handler is the vote handler.
var Handler = Service{}

// Init initializes the vote handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps *handler.Deps) {
	if app == nil || cfg == nil || deps == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	app.Post(handler.RootPath+"posts/:id/vote", s.VotePost)
	app.Get(handler.RootPath+"posts/:id/score", s.scoreHandler(voting.KindPost))
	app.Post(handler.RootPath+"comments/:id/vote", s.VoteComment)
	app.Get(handler.RootPath+"comments/:id/score", s.scoreHandler(voting.KindComment))
	app.Post(handler.RootPath+"users/:id/karma", s.VoteKarma)
	app.Get(handler.RootPath+"users/:id/karma", s.scoreHandler(voting.KindKarma))
}

// VotePost casts a vote on a post.
func (s *Service) VotePost(c *fiber.Ctx) error {
	return s.vote(c, s.deps.Policies.VotePost)
}

// VoteComment casts a vote on a comment.
func (s *Service) VoteComment(c *fiber.Ctx) error {
	return s.vote(c, s.deps.Policies.VoteComment)
}

// VoteKarma casts a karma vote on a user.
func (s *Service) VoteKarma(c *fiber.Ctx) error {
	return s.vote(c, s.deps.Policies.VoteKarma)
}

func (s *Service) vote(c *fiber.Ctx, cast func(user *models.User, targetID uint64, vote int) error) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return handler.RenderError(c, voting.ErrUnauthenticated)
	}

	targetID, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid target id"})
	}

	form := &VoteForm{}
	if err = c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid request body"})
	}

	if err = cast(user, targetID, form.Vote); err != nil {
		return handler.RenderError(c, err)
	}

	log.Debug().
		Uint64("voter_id", user.ID).
		Uint64("target_id", targetID).
		Int("vote", form.Vote).
		Str("path", c.Path()).
		Msg("vote cast")

	return c.JSON(fiber.Map{"message": "Success"})
}

func (s *Service) scoreHandler(kind voting.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		targetID, err := parseID(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(handler.ErrorResponse{Error: "invalid target id"})
		}

		score, err := s.deps.Votes.ScoreOf(kind, targetID)
		if err != nil {
			return handler.RenderError(c, err)
		}

		return c.JSON(score)
	}
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
