package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eero-drew/eero-business-dashboard/internal/alerting"
	"github.com/eero-drew/eero-business-dashboard/internal/config"
	cronrunner "github.com/eero-drew/eero-business-dashboard/internal/cron"
	"github.com/eero-drew/eero-business-dashboard/internal/db"
	"github.com/eero-drew/eero-business-dashboard/internal/eero"
	"github.com/eero-drew/eero-business-dashboard/internal/handler"
	"github.com/eero-drew/eero-business-dashboard/internal/insights"
	"github.com/eero-drew/eero-business-dashboard/internal/logger"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/notify"
	"github.com/eero-drew/eero-business-dashboard/internal/poller"
	gormrepository "github.com/eero-drew/eero-business-dashboard/internal/repository/gorm"
	"github.com/eero-drew/eero-business-dashboard/internal/uptime"
)

func main() {
	cfgPath := os.Getenv("EERO_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("EERO_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	if err := seedNetworks(context.Background(), store, cfg.Networks); err != nil {
		logger.Fatal("network seed failed", zap.Error(err))
	}

	var sinks []notify.Sink
	if cfg.Notify.Email.Enabled {
		sinks = append(sinks, notify.NewEmail(cfg.Notify.Email))
	}
	if cfg.Notify.Webhook.Enabled {
		sinks = append(sinks, notify.NewWebhook(cfg.Notify.Webhook))
	}
	notifier := &notify.Fanout{Sinks: sinks, Logger: logger}

	tracker := uptime.NewTracker(store, logger)
	alertMgr := alerting.NewManager(cfg.Alerting, store, logger, notifier)
	aggregator := &insights.Aggregator{Repo: store, Config: cfg.Scorecard, Logger: logger}

	eeroHTTP := &http.Client{Timeout: cfg.Eero.Timeout}
	eeroClient := eero.NewClient(eeroHTTP, cfg.Eero)
	poll := &poller.Poller{
		Fetcher: eeroClient,
		Repo:    store,
		Tracker: tracker,
		Alerts:  alertMgr,
		Scoring: cfg.Scoring,
		Logger:  logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	networkHandler := &handler.NetworkHandler{Repo: store}
	networkHandler.Register(engine)
	alertHandler := &handler.AlertHandler{Repo: store, Manager: alertMgr}
	alertHandler.Register(engine)
	insightHandler := &handler.InsightHandler{Aggregator: aggregator}
	insightHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Poller.Enabled {
		_, err = cronRunner.Add(cfg.Poller.Schedule, func(ctx context.Context) {
			poll.PollAll(ctx)
		})
		if err != nil {
			logger.Warn("cron register poll failed", zap.Error(err))
		}
		_, err = cronRunner.Add(cfg.Poller.PruneSchedule, func(ctx context.Context) {
			poll.Prune(ctx, cfg.Poller.RetentionDays)
		})
		if err != nil {
			logger.Warn("cron register prune failed", zap.Error(err))
		}

		// First pass right away so the dashboard has data before the first tick.
		go poll.PollAll(ctx)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedNetworks upserts the configured networks so config edits win over
// whatever is in the DB.
func seedNetworks(ctx context.Context, store *gormrepository.Store, networks []config.NetworkConfig) error {
	for _, n := range networks {
		item := &models.Network{
			ID:               n.ID,
			Name:             n.Name,
			Email:            n.Email,
			SiteType:         n.SiteType,
			AddressStreet:    strPtr(n.Street),
			AddressCity:      strPtr(n.City),
			AddressState:     strPtr(n.State),
			AddressZip:       strPtr(n.Zip),
			AddressCountry:   strPtr(n.Country),
			AddressFormatted: strPtr(formatAddress(n)),
			Latitude:         n.Lat,
			Longitude:        n.Lon,
		}
		if err := store.UpsertNetwork(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func formatAddress(n config.NetworkConfig) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{n.Street, n.City, n.State, n.Zip, n.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
