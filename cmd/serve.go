package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/folio/internal/admin"
	"github.com/ziadkadry99/folio/internal/audit"
	"github.com/ziadkadry99/folio/internal/auth"
	"github.com/ziadkadry99/folio/internal/blob"
	"github.com/ziadkadry99/folio/internal/db"
	"github.com/ziadkadry99/folio/internal/gate"
	"github.com/ziadkadry99/folio/internal/gateway"
	"github.com/ziadkadry99/folio/internal/notifications"
	"github.com/ziadkadry99/folio/internal/public"
	"github.com/ziadkadry99/folio/internal/server"
	"github.com/ziadkadry99/folio/internal/site"
	"github.com/ziadkadry99/folio/internal/store"
)

var (
	servePort     int
	serveSnapshot string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portfolio and admin server",
	Long: `Serves the public page, the section API, uploaded files and the
admin console. Admin writes are accepted only from allowlisted accounts.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	policy := gate.NewAllowlist(cfg.Admins...)
	if policy.Len() == 0 {
		logger.Warn("no admins configured; the console will deny every account")
	}

	docs := store.NewStore(database)
	blobs := blob.NewStore(database, blob.Options{
		Root:    cfg.FilesDir(),
		BaseURL: cfg.BaseURL,
		Allowed: cfg.Uploads.Allowed,
		MaxSize: cfg.Uploads.MaxBytes,
	})
	backend := gateway.NewGuarded(gateway.New(docs, blobs), policy)

	sessions := auth.NewSessionStore(database, cfg.SessionTTL)
	provider := auth.NewGoogleProvider(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.RedirectURL())
	authService := auth.NewService(provider, sessions, logger)

	pub, err := newSite(cfg, backend, logger)
	if err != nil {
		return err
	}
	if serveSnapshot != "" {
		n, err := site.LoadSnapshot(serveSnapshot, pub)
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}
		logger.Info("snapshot loaded", zap.String("dir", serveSnapshot), zap.Int("sections", n))
	}

	auditStore := audit.NewStore(database)
	dispatcher := notifications.NewDispatcher(cfg.Webhooks, logger)
	console := admin.NewConsole(backend, admin.Options{
		Auditor:  auditStore,
		Notifier: dispatcher,
		Logger:   logger,
	})
	adminHandler := admin.NewHandler(console, authService, policy, admin.HandlerOptions{
		Title:     cfg.SiteTitle,
		MaxUpload: cfg.Uploads.MaxBytes,
		Secure:    strings.HasPrefix(cfg.BaseURL, "https://"),
		Logger:    logger,
	})

	srv := server.New(server.Config{
		Port:     cfg.Port,
		AllowAll: cfg.CORS.AllowAll,
		Origins:  cfg.CORS.Origins,
	}, database, logger)
	r := srv.Router()
	public.RegisterRoutes(r, pub)
	r.Handle("/files/*", http.StripPrefix("/files", blobs.Handler()))
	adminHandler.RegisterRoutes(r, func(r chi.Router) {
		audit.RegisterRoutes(r, auditStore)
	})

	warmer, err := public.NewWarmer(pub, cfg.Public.RefreshSchedule, logger)
	if err != nil {
		return err
	}
	warmer.Start()
	defer warmer.Stop()

	maintenance := cron.New()
	if _, err := maintenance.AddFunc("@hourly", func() {
		ctx := context.Background()
		if n, err := sessions.Prune(ctx); err != nil {
			logger.Warn("pruning sessions", zap.Error(err))
		} else {
			logger.Debug("sessions pruned", zap.Int64("removed", n))
		}
		if n, err := auditStore.Expire(ctx, cfg.Audit.Retention); err != nil {
			logger.Warn("expiring audit entries", zap.Error(err))
		} else if n > 0 {
			logger.Info("audit entries expired", zap.Int64("removed", n))
		}
	}); err != nil {
		return err
	}
	maintenance.Start()
	defer maintenance.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pub.RefreshAll(warmCtx)
	}()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("folio starting",
		zap.String("version", Version),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DatabasePath()),
		zap.Int("admins", policy.Len()),
	)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveSnapshot, "snapshot", "", "export directory whose sections seed the page before the first refresh")
	rootCmd.AddCommand(serveCmd)
}
