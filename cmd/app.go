package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/frahmantamala/dealership-crm/internal"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/core/events"
	"github.com/frahmantamala/dealership-crm/internal/store/cloud"
	"github.com/frahmantamala/dealership-crm/internal/store/local"
	"github.com/frahmantamala/dealership-crm/pkg/logger"
	"gorm.io/gorm"
)

// App holds what every command shares. Cloud and Engine are nil when the
// cloud could not be reached and the command tolerates running offline.
type App struct {
	Config   *internal.Config
	Logger   *slog.Logger
	Local    *gorm.DB
	Cloud    *gorm.DB
	Bus      *events.EventBus
	Lock     *cloudsync.Lock
	Registry *cloudsync.Registry
	Engine   *cloudsync.Engine
}

func bootstrap(ctx context.Context, requireCloud bool) (*App, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	initLogger(cfg.Observability.Logging)
	lg := logger.LoggerWrapper()

	localDB, err := local.Open(cfg.Local)
	if err != nil {
		return nil, err
	}
	if err := local.Migrate(localDB, lg); err != nil {
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}

	app := &App{
		Config:   cfg,
		Logger:   lg,
		Local:    localDB,
		Bus:      events.NewEventBus(lg),
		Lock:     cloudsync.NewLock(),
		Registry: cloudsync.DefaultRegistry(),
	}

	cloudDB, err := cloud.Open(ctx, cfg.Cloud)
	if err != nil {
		if requireCloud {
			app.Close()
			return nil, err
		}
		lg.Warn("cloud unavailable, running on the local cache only", "error", err)
		return app, nil
	}

	app.Cloud = cloudDB
	app.Engine = cloudsync.NewEngine(localDB, cloudDB, app.Registry, app.Lock, app.Bus, cloudsync.Options{
		StoreID:     cfg.Sync.StoreID,
		BatchSize:   cfg.Sync.BatchSize,
		PruneOnPull: cfg.Sync.PruneOnPull,
		MaxRetries:  cfg.Sync.MaxRetries,
		RetryBase:   cfg.Sync.RetryBase,
	}, lg)
	return app, nil
}

func initLogger(cfg internal.LoggingConfig) {
	env := os.Getenv("APP_ENV")
	if cfg.Format == "json" {
		env = "production"
	}
	var file *logger.FileOptions
	if cfg.File != "" {
		file = &logger.FileOptions{
			Path:       cfg.File,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
		}
	}
	logger.InitWithFile(env, cfg.Level, file)
}

// newListener builds the realtime listener for the configured driver.
func (a *App) newListener() (*cloudsync.Listener, error) {
	if a.Engine == nil {
		return nil, fmt.Errorf("realtime needs the cloud database")
	}

	var feed cloudsync.Feed
	switch a.Config.Realtime.Driver {
	case "postgres":
		feed = cloudsync.NewPostgresFeed(a.Config.Cloud.GetDSN(), a.Config.Realtime, a.Logger)
	default:
		sf, err := cloudsync.NewSupabaseFeed(a.Config.Realtime, a.Logger)
		if err != nil {
			return nil, err
		}
		feed = sf
	}

	mirror := cloudsync.NewMirror(a.Local, a.Registry, a.Lock, a.Engine, a.Config.Sync.StoreID, a.Logger)
	return cloudsync.NewListener(feed, mirror, a.Registry, a.Logger), nil
}

func (a *App) Close() {
	a.Bus.Wait()
	for name, db := range map[string]*gorm.DB{"local": a.Local, "cloud": a.Cloud} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		if err := sqlDB.Close(); err != nil {
			a.Logger.Error("database close error", "database", name, "error", err)
		}
	}
}
