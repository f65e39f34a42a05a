// Package web is the JSON API boundary of the platform core. It owns the
// fiber app, the route registration and the translation of service errors
// into HTTP statuses.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/config"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
	bloghandler "github.com/AmatanHead/collective-blog/internal/web/handler/blog"
	commenthandler "github.com/AmatanHead/collective-blog/internal/web/handler/comment"
	membershiphandler "github.com/AmatanHead/collective-blog/internal/web/handler/membership"
	posthandler "github.com/AmatanHead/collective-blog/internal/web/handler/post"
	votehandler "github.com/AmatanHead/collective-blog/internal/web/handler/vote"
	"github.com/AmatanHead/collective-blog/internal/web/middleware"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	// Wait interrupt or shutdown request through /shutdown
	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration and
// services.
func New(cfg *config.Config, deps *handler.Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps == nil || deps.DB == nil {
		panic("deps cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "collective-blog",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// resolve the authenticated user for every request
	app.Use(middleware.CurrentUser(deps.DB))

	// init web service
	service := &Service{
		cfg: cfg,
		App: app,
		db:  deps.DB,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes)
	bloghandler.Handler.Init(app, cfg, deps)
	posthandler.Handler.Init(app, cfg, deps)
	commenthandler.Handler.Init(app, cfg, deps)
	membershiphandler.Handler.Init(app, cfg, deps)
	votehandler.Handler.Init(app, cfg, deps)

	// liveness endpoint for load balancers
	app.Get("/checkalive", func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	return service
}
