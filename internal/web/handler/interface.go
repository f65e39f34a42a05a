package handler

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/config"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/policy"
	"github.com/AmatanHead/collective-blog/internal/voting"
)

// Deps bundles the shared services every handler works against.
type Deps struct {
	DB          *gorm.DB
	Memberships *membership.Service
	Votes       *voting.Service
	Policies    *policy.Service
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps *Deps)
}
