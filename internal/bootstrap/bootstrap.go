package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/admissions/internal/app/auth"
	appControllers "github.com/yigit/admissions/internal/app/controllers"
	appMigrations "github.com/yigit/admissions/internal/app/migrations"
	appRepos "github.com/yigit/admissions/internal/app/repositories"
	"github.com/yigit/admissions/internal/app/repositories/memory"
	"github.com/yigit/admissions/internal/app/repositories/rediscache"
	appRoutes "github.com/yigit/admissions/internal/app/routes"
	appServices "github.com/yigit/admissions/internal/app/services"
	"github.com/yigit/admissions/internal/config"
	"github.com/yigit/admissions/internal/db"
	appMiddleware "github.com/yigit/admissions/internal/middleware"
	pkgAuth "github.com/yigit/admissions/internal/pkg/auth"
	"github.com/yigit/admissions/internal/pkg/docgen"
	"github.com/yigit/admissions/internal/pkg/email"
	"github.com/yigit/admissions/internal/pkg/filestorage"
	"github.com/yigit/admissions/internal/pkg/helpers"
	"github.com/yigit/admissions/internal/pkg/logger"
	"github.com/yigit/admissions/internal/pkg/metrics"
	"github.com/yigit/admissions/internal/pkg/tuition"
	"github.com/yigit/admissions/internal/pkg/websocket"
	"github.com/yigit/admissions/internal/seed"
)

// DefaultConfigPath is where LoadConfigAndSetupLogger looks when CONFIG_PATH is unset
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	AdmissionService    appServices.AdmissionService
	DocumentService     appServices.DocumentService
	NotificationService appServices.NotificationService

	// NotificationHook is kept so shutdown can wait for in-flight emails
	NotificationHook *appServices.NotificationHook
	// EventHub broadcasts transitions to /events/ws; the server runs it
	EventHub *websocket.Hub

	Controllers     appRoutes.Controllers
	ActorMiddleware *appMiddleware.ActorMiddleware
	AuthzService    *appAuth.AuthorizationService

	Repos       *appRepos.Repositories
	Database    *db.PostgresDB // nil with the memory driver
	Redis       *redis.Client  // nil when redis is disabled
	FileStorage *filestorage.LocalStorage
	Logger      zerolog.Logger
}

// Close releases the database pool and the redis client
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if d.Database != nil {
		d.Database.Close()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := DefaultConfigPath
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// MigrationSource returns the configured migrations directory, or the bundled schema
func MigrationSource(cfg *config.Config) (fs.FS, error) {
	dir := cfg.Database.MigrationsDir
	if dir == "" {
		return appMigrations.Embedded(), nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory not found at %s: %w", dir, err)
	}
	return os.DirFS(dir), nil
}

// SetupDatabase opens the configured store, applies migrations and seeds the
// course catalog. With the memory driver the returned PostgresDB is nil.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*appRepos.Repositories, *db.PostgresDB, error) {
	var (
		repos    *appRepos.Repositories
		database *db.PostgresDB
	)

	switch cfg.Database.Driver {
	case "memory":
		lgr.Warn().Msg("Using in-memory store - data is lost on restart")
		repos = memory.NewRepositories()

	default:
		lgr.Info().Msg("Establishing database connection...")
		var err error
		database, err = db.NewPostgresDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		source, err := MigrationSource(cfg)
		if err != nil {
			database.Close()
			return nil, nil, err
		}

		lgr.Info().Msg("Running database migrations...")
		applied, err := appMigrations.NewMigrator(database, lgr).Migrate(ctx, source)
		if err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			database.Close()
			return nil, nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")

		repos = appRepos.NewRepositories(database)
	}

	if err := seed.CreateDefaultData(ctx, repos.Courses, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return repos, database, nil
}

// setupRedis wraps the letter repository with a read-through cache when enabled
func setupRedis(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := rediscache.NewClient(ctx, rediscache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	ttl := helpers.ParseDuration(cfg.Redis.TTL, 24*time.Hour)
	repos.Letters = rediscache.NewLetterRepository(repos.Letters, client, ttl, lgr)
	lgr.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", ttl).Msg("Letter cache enabled")
	return client, nil
}

// newGenerator selects local rendering or the remote document service
func newGenerator(cfg *config.Config, storage filestorage.FileStorage, timeout time.Duration) (docgen.Generator, error) {
	if cfg.Documents.Mode == "http" {
		return docgen.NewHTTPGenerator(cfg.Documents.ServiceURL, timeout), nil
	}
	return docgen.NewLocalGenerator(storage)
}

// BuildDependencies initializes repositories, services, hooks and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Dependencies, error) {
	if err := tuition.ValidateFeeTable(); err != nil {
		return nil, err
	}

	repos, database, err := SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Repos: repos, Database: database, Logger: lgr}

	deps.Redis, err = setupRedis(ctx, cfg, repos, lgr)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	documentTimeout := helpers.ParseDuration(cfg.Documents.Timeout, appServices.DefaultGenerationTimeout)
	generator, err := newGenerator(cfg, deps.FileStorage, documentTimeout)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to initialize document generator: %w", err)
	}

	channel, err := email.NewChannel(email.SMTPConfig{
		Host:       cfg.Email.Host,
		Port:       cfg.Email.Port,
		Username:   cfg.Email.Username,
		Password:   cfg.Email.Password,
		FromName:   cfg.Email.FromName,
		FromEmail:  cfg.Email.FromEmail,
		UseTLS:     cfg.Email.UseTLS,
		RatePerSec: cfg.Email.RatePerSec,
		Burst:      cfg.Email.Burst,
	}, lgr)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.DocumentService = appServices.NewDocumentService(repos, generator, appServices.DocumentConfig{
		CollegeName: cfg.Admissions.CollegeName,
		Timeout:     documentTimeout,
	}, lgr)

	deps.NotificationService = appServices.NewNotificationService(repos, deps.FileStorage, channel, appServices.NotificationConfig{
		CollegeName: cfg.Admissions.CollegeName,
		AdminEmails: cfg.Email.AdminEmails,
	}, lgr)

	deps.EventHub = websocket.NewHub(lgr)

	// Letters are generated before the notification that may attach them
	deps.NotificationHook = appServices.NewNotificationHook(deps.NotificationService,
		helpers.ParseDuration(cfg.Email.Timeout, 10*time.Second), lgr)
	deps.AdmissionService = appServices.NewAdmissionService(repos, appServices.AdmissionConfig{
		OfferValidity: helpers.ParseDuration(cfg.Admissions.OfferValidity, appServices.DefaultOfferValidity),
	}, lgr,
		appServices.NewDocumentHook(deps.DocumentService, documentTimeout),
		deps.NotificationHook,
		appServices.NewEventFeedHook(deps.EventHub),
	)

	var verifier *pkgAuth.Verifier
	if cfg.Auth.JWTSecret != "" {
		verifier = pkgAuth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		lgr.Warn().Msg("No JWT secret configured - actors are taken from the X-Actor header")
	}
	deps.ActorMiddleware = appMiddleware.NewActorMiddleware(verifier)
	deps.AuthzService = appAuth.NewAuthorizationService(repos.Applications)

	deps.Controllers = appRoutes.Controllers{
		Applications:  appControllers.NewApplicationController(deps.AdmissionService, deps.AuthzService),
		Letters:       appControllers.NewLetterController(deps.DocumentService),
		Notifications: appControllers.NewNotificationController(deps.NotificationService),
		Tuition:       appControllers.NewTuitionController(),
		Events:        websocket.NewHandler(deps.EventHub, cfg.Server.AllowedOrigins, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr), appMiddleware.Metrics(), gin.Recovery())

	appRoutes.SetupRouter(router, deps.Controllers, deps.ActorMiddleware, deps.AuthzService)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
