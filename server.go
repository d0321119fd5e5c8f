package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fra-atlas/asset_backend/assetgen"
	"github.com/fra-atlas/asset_backend/assetsync"
	"github.com/fra-atlas/asset_backend/broadcast"
	"github.com/fra-atlas/asset_backend/config"
	"github.com/fra-atlas/asset_backend/middlewares"
	"github.com/fra-atlas/asset_backend/models"
	"github.com/fra-atlas/asset_backend/utils"
	"github.com/fra-atlas/asset_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("fra-atlas/asset-backend")

// application owns the bus and everything subscribed to it.
type application struct {
	bus            *broadcast.Bus
	generator      *assetgen.Generator
	selector       *workflow.Selector
	stats          *workflow.StatsWorkflow
	detections     *workflow.DetectionWorkflow
	classification *workflow.ClassificationWorkflow
	mirror         *assetsync.Mirror
	publisher      *assetsync.Publisher
	districtsDir   string
	now            func() time.Time
}

type applicationConfig struct {
	Selector       workflow.SelectorConfig
	StatsDelay     time.Duration
	DetectionDelay time.Duration
	Rand           assetgen.RandSource
	Catalog        *assetgen.Catalog
	DistrictsDir   string
	ExportBucket   string
	CacheTTL       time.Duration
	Now            func() time.Time
}

func applicationConfigFromEnv() applicationConfig {
	return applicationConfig{
		Selector:       workflow.SelectorConfigFromEnv(),
		StatsDelay:     config.StatsProcessingDelay(),
		DetectionDelay: config.DetectionProcessingDelay(),
		DistrictsDir:   config.GeoJSONDistrictsDir(),
		ExportBucket:   config.ExportBucket(),
		CacheTTL:       config.AssetCacheTTL(),
	}
}

func newApplication(cfg applicationConfig) *application {
	if cfg.Rand == nil {
		cfg.Rand = assetgen.NewDefaultSource()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = assetgen.BuiltinCatalog()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Selector.Now = cfg.Now

	bus := broadcast.NewBus()
	gen := assetgen.NewGenerator(cfg.Catalog, cfg.Rand)
	detections := workflow.NewDetectionWorkflow(bus, cfg.Rand, cfg.DetectionDelay, cfg.Now)
	return &application{
		bus:            bus,
		generator:      gen,
		selector:       workflow.NewSelector(gen, bus, cfg.Selector),
		stats:          workflow.NewStatsWorkflow(bus, cfg.StatsDelay, cfg.Now),
		detections:     detections,
		classification: workflow.NewClassificationWorkflow(detections, cfg.ExportBucket),
		mirror:         assetsync.NewMirror(bus, cfg.CacheTTL),
		districtsDir:   cfg.DistrictsDir,
		now:            cfg.Now,
	}
}

// startPublisher forwards local events to Pub/Sub once a project is configured.
// A topic that cannot be created is logged; publishing is still attempted.
func (a *application) startPublisher(ctx context.Context, ensureTopic func(context.Context) error, publish assetsync.PublishFunc) {
	if err := ensureTopic(ctx); err != nil {
		config.LogError(config.GetLogger(), "server.go", "startPublisher", "ensure asset updates topic", config.AssetUpdatesTopic(), err)
	}
	a.publisher = assetsync.NewPublisher(a.bus, publish)
}

func (a *application) close() {
	a.selector.Close()
	a.stats.Close()
	a.detections.Close()
	a.mirror.Close()
	if a.publisher != nil {
		a.publisher.Close()
	}
}

func newCorsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production requires an explicit allowlist; everything else allows all origins.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", middlewares.CorrelationIdHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationIdHeader)
	return corsConfig
}

func newRouter(a *application, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(newCorsConfig()))

	// Optional rate limiting.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		r.Use(middlewares.NewRateLimiter(limit, time.Duration(windowSec)*time.Second).Middleware())
	}

	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api/asset-mapping")
	api.GET("/states", statesHandler())
	api.GET("/districts", districtsHandler(a))
	api.GET("/villages", villagesHandler())
	api.POST("/selection", selectionHandler(a))
	api.POST("/satellite", satelliteHandler(a))
	api.GET("/assets", assetsHandler(a))
	api.GET("/assets/cached", cachedAssetsHandler())
	api.DELETE("/assets/cached", evictCachedAssetsHandler())
	api.GET("/assets/cached/keys", cachedKeysHandler())
	api.GET("/current", currentHandler(a))
	api.GET("/stats", statsHandler(a))
	api.GET("/report", reportHandler(a))
	api.GET("/report/download", reportDownloadHandler(a))
	api.GET("/detections", detectionsHandler(a))
	api.GET("/classification", classificationHandler(a))
	api.POST("/classification/export", exportHandler(a))
	api.POST("/classification/schedule", scheduleHandler(a))
	api.GET("/classification/schedules", schedulesHandler())
	api.GET("/events", eventsHandler(a))

	r.POST("/pubsub/asset-updates", assetsync.PubSubPushHandler(a.bus))
	r.NoRoute(customNotFoundHandler)
	return r
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// connectDependencies connects the optional stores. Each one that is missing
// or unreachable is logged and the service keeps running without it.
func connectDependencies(a *application, logger *logrus.Logger) {
	if config.DatabaseConfigured() {
		if err := config.ConnectDatabaseWithRetry(5); err != nil {
			config.LogError(logger, "server.go", "connectDependencies", "database unavailable; using built-in catalog", nil, err)
		} else {
			// AutoMigrate can hold DDL locks; SKIP_MIGRATIONS=true leaves it to a separate job.
			if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
				if err := models.MigrateTable(); err != nil {
					config.LogError(logger, "server.go", "connectDependencies", "migrations failed", nil, err)
				}
			} else {
				logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
			}
			loadCuratedVillages(context.Background(), logger, a.generator.Catalog().LoadFromDatabase)
		}
	}

	if os.Getenv("REDIS_ADDRESS") != "" {
		if err := config.ConnectRedisWithRetry(5); err != nil {
			config.LogError(logger, "server.go", "connectDependencies", "redis unavailable; cache and schedules disabled", nil, err)
		}
	}

	if config.PubSubConfigured() {
		a.startPublisher(context.Background(), config.EnsureAssetUpdatesTopic, nil)
		logger.WithFields(logrus.Fields{"topic": config.AssetUpdatesTopic()}).Info("asset updates forwarded to pubsub")
	}
}

// loadCuratedVillages merges the database rows into the catalog. A failed load
// leaves the built-in table in place.
func loadCuratedVillages(ctx context.Context, logger *logrus.Logger, load func(context.Context) (int, []string, error)) {
	merged, rejected, err := load(ctx)
	if err != nil {
		config.LogError(logger, "server.go", "loadCuratedVillages", "load curated villages", nil, err)
		return
	}
	logger.WithFields(logrus.Fields{"merged": merged, "rejected": rejected}).Info("curated villages loaded")
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	app := newApplication(applicationConfigFromEnv())
	r := newRouter(app, logger)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	// Request contexts derive from streamCtx so open event streams can be ended on shutdown.
	streamCtx, endStreams := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return streamCtx },
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	connectDependencies(app, logger)

	logger.WithFields(logrus.Fields{
		"port":   port,
		"policy": app.selector.Policy(),
	}).Info("asset mapping service started")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// End SSE streams, then drain the remaining HTTP requests.
	endStreams()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	app.close()
	config.ClosePubSub()
	config.CloseRedis()
	config.CloseDB()
}
