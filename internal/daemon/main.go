// Package daemon wires the platform together: database, migrations, the
// vote cache registry, the domain services and the web boundary.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AmatanHead/collective-blog/internal/config"
	"github.com/AmatanHead/collective-blog/internal/db/dsn"
	"github.com/AmatanHead/collective-blog/internal/db/models"
	"github.com/AmatanHead/collective-blog/internal/membership"
	"github.com/AmatanHead/collective-blog/internal/policy"
	"github.com/AmatanHead/collective-blog/internal/voting"
	"github.com/AmatanHead/collective-blog/internal/web"
	"github.com/AmatanHead/collective-blog/internal/web/handler"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service finished its graceful
// shutdown.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	var dbDriver gorm.Dialector

	switch cfg.DB.GormEngine {
	case "postgres":
		dbDriver = gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		dbDriver = sqlite.Open(dsn.Create(cfg))
	default:
		dbDriver = gormmysql.Open(dsn.Create(cfg))
	}

	db, err := gorm.Open(dbDriver, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
		return nil
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Blog{},
		&models.Membership{},
		&models.Post{},
		&models.Comment{},
		&models.PostVote{},
		&models.CommentVote{},
		&models.KarmaVote{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
		return nil
	}

	seed(cfg, db)

	reg, err := buildRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build vote cache registry")
		return nil
	}

	votes, err := voting.NewService(db, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create voting service")
		return nil
	}

	memberships, err := membership.NewService(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create membership service")
		return nil
	}

	policies, err := policy.NewService(db, memberships, votes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create policy service")
		return nil
	}

	deps := &handler.Deps{
		DB:          db,
		Memberships: memberships,
		Votes:       votes,
		Policies:    policies,
	}

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, deps),
	}
}
