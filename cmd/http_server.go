package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/dealership-crm/internal/auth"
	"github.com/frahmantamala/dealership-crm/internal/cloudsync"
	"github.com/frahmantamala/dealership-crm/internal/portal"
	portalSqlite "github.com/frahmantamala/dealership-crm/internal/portal/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/script"
	scriptSqlite "github.com/frahmantamala/dealership-crm/internal/script/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/seller"
	sellerSqlite "github.com/frahmantamala/dealership-crm/internal/seller/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/setting"
	settingSqlite "github.com/frahmantamala/dealership-crm/internal/setting/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/stock"
	stockSqlite "github.com/frahmantamala/dealership-crm/internal/stock/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/transport"
	"github.com/frahmantamala/dealership-crm/internal/transport/rest"
	"github.com/frahmantamala/dealership-crm/internal/user"
	userSqlite "github.com/frahmantamala/dealership-crm/internal/user/sqlite"
	"github.com/frahmantamala/dealership-crm/internal/visit"
	visitSqlite "github.com/frahmantamala/dealership-crm/internal/visit/sqlite"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	withRealtime  bool
	withScheduler bool
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long: `Start the HTTP API over the local cache. When the cloud is reachable the
server also pushes local writes, pulls on schedule and mirrors realtime changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func init() {
	httpServerCmd.Flags().BoolVar(&withRealtime, "realtime", true, "mirror realtime cloud changes when realtime is enabled")
	httpServerCmd.Flags().BoolVar(&withScheduler, "scheduler", true, "run the periodic pull")
}

type Dependencies struct {
	App      *App
	Router   *chi.Mux
	Pusher   *cloudsync.Pusher
	Handlers rest.Handlers
}

func startHTTPServer() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	app := deps.App
	lg := app.Logger

	setupRoutes(deps)
	stopBackground := startBackground(ctx, deps)

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	lg.Info("Starting HTTP server", "address", addr, "cloud", app.Cloud != nil)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: app.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       app.Config.Server.ReadTimeout,
		WriteTimeout:      app.Config.Server.WriteTimeout,
		IdleTimeout:       app.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		lg.Info("Received signal, shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			lg.Error("Server failed to start", "error", err)
			stopBackground()
			app.Close()
			os.Exit(1)
		}
	}

	stopBackground()
	app.Close()
	lg.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	app, err := bootstrap(ctx, false)
	if err != nil {
		return nil, err
	}
	cfg := app.Config
	base := transport.NewBaseHandler(app.Logger)

	userService := user.NewService(userSqlite.NewUserRepository(app.Local), app.Bus, cfg.Security.BCryptCost, app.Logger)
	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(user.NewAccounts(userService), tokens, app.Logger)

	sellerService := seller.NewService(sellerSqlite.NewSellerRepository(app.Local), app.Bus, app.Logger)
	visitService := visit.NewService(visitSqlite.NewVisitRepository(app.Local), app.Bus, app.Logger)
	visitService.UseSellers(sellerService)

	deps := &Dependencies{
		App:    app,
		Router: chi.NewRouter(),
		Handlers: rest.Handlers{
			Auth:    auth.NewHandler(base, authService),
			User:    user.NewHandler(base, userService),
			Visit:   visit.NewHandler(base, visitService),
			Stock:   stock.NewHandler(base, stock.NewService(stockSqlite.NewStockRepository(app.Local), app.Bus, app.Logger)),
			Seller:  seller.NewHandler(base, sellerService),
			Portal:  portal.NewHandler(base, portal.NewService(portalSqlite.NewPortalRepository(app.Local), app.Bus, app.Logger)),
			Script:  script.NewHandler(base, script.NewService(scriptSqlite.NewScriptRepository(app.Local), app.Bus, app.Logger)),
			Setting: setting.NewHandler(base, setting.NewService(settingSqlite.NewSettingRepository(app.Local), app.Bus, app.Logger)),
		},
	}

	if app.Engine != nil {
		deps.Pusher = cloudsync.NewPusher(app.Engine, cloudsync.PusherConfig{
			Workers:   cfg.Sync.PushWorkers,
			QueueSize: cfg.Sync.PushQueue,
			Timeout:   cfg.Cloud.Timeout,
		}, app.Logger)
		deps.Pusher.Register(app.Bus)
		deps.Handlers.Sync = cloudsync.NewHandler(base, app.Engine, deps.Pusher)
	}

	return deps, nil
}

func setupRoutes(deps *Dependencies) {
	app := deps.App
	opts := rest.Options{
		AllowedOrigins: app.Config.Server.AllowedOrigins,
		LocalDB:        sqlDB(app, app.Local),
	}
	if app.Cloud != nil {
		opts.CloudDB = sqlDB(app, app.Cloud)
	}
	rest.RegisterAllRoutes(deps.Router, deps.Handlers, opts, app.Logger)
}

// startBackground runs the scheduler and realtime listener. The returned
// func stops them, then drains the pusher so writes made before the signal
// still reach the cloud.
func startBackground(ctx context.Context, deps *Dependencies) func() {
	app := deps.App
	bgCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	var scheduler *cloudsync.Scheduler

	if app.Engine != nil && withScheduler {
		s, err := cloudsync.NewScheduler(app.Config.Sync.PullSchedule, app.Engine, app.Logger)
		if err != nil {
			app.Logger.Error("pull scheduler disabled", "error", err)
		} else {
			scheduler = s
			scheduler.Start(bgCtx)
		}
	}

	if app.Engine != nil && withRealtime && app.Config.Realtime.Enabled {
		listener, err := app.newListener()
		if err != nil {
			app.Logger.Error("realtime listener disabled", "error", err)
			close(done)
		} else {
			go func() {
				defer close(done)
				if err := listener.Run(bgCtx); err != nil && bgCtx.Err() == nil {
					app.Logger.Error("realtime listener exited", "error", err)
				}
			}()
		}
	} else {
		close(done)
	}

	return func() {
		cancel()
		if scheduler != nil {
			scheduler.Stop()
		}
		<-done
		if deps.Pusher == nil {
			return
		}
		drainCtx, cancelDrain := context.WithTimeout(context.Background(), app.Config.Cloud.Timeout+5*time.Second)
		defer cancelDrain()
		if err := deps.Pusher.Drain(drainCtx); err != nil {
			pushed, failed := deps.Pusher.Stats()
			app.Logger.Warn("cloud pusher stopped before its queue emptied",
				"pushed", pushed, "failed", failed, "error", err)
		}
	}
}

func sqlDB(app *App, db *gorm.DB) *sql.DB {
	s, err := db.DB()
	if err != nil {
		app.Logger.Warn("health check unavailable", "error", err)
		return nil
	}
	return s
}
