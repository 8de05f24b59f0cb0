// Package common wires the shared dependencies every subcommand needs:
// configuration, logger, database connection and repositories.
package common

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/webwatch/internal/config"
	"github.com/jonesrussell/webwatch/internal/database"
	"github.com/jonesrussell/webwatch/internal/logger"
)

// Deps holds the common dependencies for a subcommand.
type Deps struct {
	Config *config.Config
	Holder *config.Holder
	Logger logger.Interface
	DB     *sqlx.DB

	Sites            *database.SiteRepository
	Tasks            *database.TaskRepository
	SeenLinks        *database.SeenLinkRepository
	CrawlLogs        *database.CrawlLogRepository
	Hits             *database.HitRepository
	NotificationLogs *database.NotificationLogRepository
	Proxies          *database.ProxyRepository
}

// New loads configuration from the given path, builds the logger, opens
// the database and ensures the schema exists. watch enables hot reload
// of the configuration file.
func New(ctx context.Context, cfgPath string, watch bool) (*Deps, error) {
	deps := &Deps{}

	if watch {
		holder, err := config.Watch(cfgPath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		deps.Holder = holder
		deps.Config = holder.Current()
	} else {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		deps.Config = cfg
	}

	log, err := logger.New(&deps.Config.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	deps.Logger = log

	db, err := database.NewPostgresConnection(deps.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	deps.DB = db

	deps.Sites = database.NewSiteRepository(db)
	deps.Tasks = database.NewTaskRepository(db)
	deps.SeenLinks = database.NewSeenLinkRepository(db)
	deps.CrawlLogs = database.NewCrawlLogRepository(db)
	deps.Hits = database.NewHitRepository(db)
	deps.NotificationLogs = database.NewNotificationLogRepository(db)
	deps.Proxies = database.NewProxyRepository(db)

	return deps, nil
}

// Close releases the database connection.
func (d *Deps) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
