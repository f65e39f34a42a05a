package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/db/controller/blog"
	"github.com/AmatanHead/collective-blog/internal/db/controller/comment"
	"github.com/AmatanHead/collective-blog/internal/db/controller/post"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/policy"
	"github.com/AmatanHead/collective-blog/internal/voting"
)

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// RenderError translates a service error into the matching HTTP status
// and a JSON body. Unknown errors become opaque 500s so internal details
// never leak to the client.
func RenderError(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

		return c.Status(status).JSON(ErrorResponse{Error: "internal server error"})
	}

	return c.Status(status).JSON(ErrorResponse{
		Error:     err.Error(),
		Retryable: errors.Is(err, membership.ErrConcurrentModification),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, voting.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, membership.ErrPermissionDenied),
		errors.Is(err, voting.ErrAccountDisabled):
		return fiber.StatusForbidden
	case errors.Is(err, blog.ErrBlogNotFound),
		errors.Is(err, post.ErrPostNotFound),
		errors.Is(err, comment.ErrCommentNotFound),
		errors.Is(err, policy.ErrPostNotFound),
		errors.Is(err, policy.ErrCommentNotFound),
		errors.Is(err, policy.ErrProfileNotFound),
		errors.Is(err, membership.ErrMembershipNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, membership.ErrAlreadyJoined),
		errors.Is(err, membership.ErrNotAwaitingApproval),
		errors.Is(err, membership.ErrNotBannable),
		errors.Is(err, membership.ErrNotBanned),
		errors.Is(err, membership.ErrConcurrentModification):
		return fiber.StatusConflict
	case errors.Is(err, voting.ErrInvalidVoteValue),
		errors.Is(err, blog.ErrBlogNameEmpty),
		errors.Is(err, blog.ErrInvalidSettings),
		errors.Is(err, post.ErrHeadingEmpty),
		errors.Is(err, post.ErrNoBlogOnPublish),
		errors.Is(err, comment.ErrContentEmpty),
		errors.Is(err, comment.ErrParentMismatch):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
