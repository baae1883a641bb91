package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/mohammadpnp/data-import/internal/application/dataimport"
	domain "github.com/mohammadpnp/data-import/internal/domain/dataimport"
	"github.com/mohammadpnp/data-import/internal/infrastructure/db/models"
	"github.com/mohammadpnp/data-import/internal/infrastructure/events"
	"github.com/mohammadpnp/data-import/internal/infrastructure/file"
	"github.com/mohammadpnp/data-import/internal/infrastructure/media"
	"github.com/mohammadpnp/data-import/internal/infrastructure/memory"
	"github.com/mohammadpnp/data-import/internal/infrastructure/metrics"
	"github.com/mohammadpnp/data-import/internal/infrastructure/repository"
	"github.com/mohammadpnp/data-import/internal/infrastructure/schema"
	httpecho "github.com/mohammadpnp/data-import/internal/interfaces/http/echo"
)

// App holds the wired service: the HTTP server, the inbound poller and the
// initial data seeder.
type App struct {
	Server      *echo.Echo
	Poller      *app.Poller
	InitialData *app.InitialData

	closers []func()
}

// Close releases the database handles and the event writer.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func NewApp(ctx context.Context, cfg *Config, log *logrus.Logger) (*App, error) {
	registry, err := schema.Load(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}

	a := &App{}
	store, jobs, err := a.openStores(ctx, cfg, registry, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	folders, err := file.NewFolders(cfg.InboundDir, cfg.ProcessingDir, cfg.SuccessDir, cfg.ErrorDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	observers := app.JobObservers{}
	if cfg.MetricsEnabled {
		observers = append(observers, metrics.NewJobObserver())
	}
	if brokers := events.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher := events.NewPublisher(events.Config{Brokers: brokers, Topic: cfg.KafkaJobTopic}, log.WithField("component", "events"))
		observers = append(observers, publisher)
		a.closers = append(a.closers, func() {
			if err := publisher.Close(); err != nil {
				log.Errorf("close event publisher: %v", err)
			}
		})
	}

	locale := cfg.Locale()
	sites := repository.NewSiteRepository(store, registry)
	categories := repository.NewCategoryRepository(store, registry, cfg.MediaCategoryType)
	mediaStore := media.NewLocalStore(store, registry, media.LocalStoreConfig{
		Dir:     cfg.MediaDir,
		BaseURL: cfg.MediaBaseURL,
	}, log.WithField("component", "media"))
	fetcher := media.NewHTTPFetcher(media.FetcherConfig{}, log.WithField("component", "fetcher"))

	rows := app.NewRowImporter(store, registry, locale, log.WithField("component", "rows"))
	mediaImporter := app.NewMediaImporter(store, registry, mediaStore, categories, fetcher,
		app.MediaImporterConfig{UploadDir: cfg.UploadDir, Locale: locale}, log.WithField("component", "media"))

	importer := app.NewImporter(app.ImporterDeps{
		Registry: registry,
		Rows:     rows,
		Media:    mediaImporter,
		Sites:    sites,
		Jobs:     jobs,
		Folders:  folders,
		Observer: observers,
		Log:      log.WithField("component", "importer"),
	})

	tokens, err := httpecho.ParseTokenAuthorities(cfg.AuthTokens)
	if err != nil {
		a.Close()
		return nil, err
	}
	locales := httpecho.NewLocaleResolver(sites, locale)
	importHandler := httpecho.NewImportHandler(
		app.NewImportPayload(registry, importer),
		app.NewImportLocalFile(importer, cfg.InboundDir),
		tokens,
		locales,
		log.WithField("component", "http"),
	)
	jobHandler := httpecho.NewJobHandler(app.NewGetImportJob(jobs), locales)

	a.Server = NewHTTPServer(cfg, log, importHandler, jobHandler)
	a.Poller = app.NewPoller(importer, folders, app.PollerConfig{Interval: cfg.PollInterval}, log.WithField("component", "poller"))
	a.InitialData = app.NewInitialData(importer, app.InitialDataConfig{
		Path:         cfg.InitialDataPath,
		Project:      cfg.InitialProject,
		MediaEnabled: cfg.InitialDataMediaEnabled,
	}, log.WithField("component", "initial-data"))
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *Config, registry *domain.Registry, log logrus.FieldLogger) (domain.EntityStore, domain.JobRepository, error) {
	if cfg.StoreDriver == StoreDriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewEntityStore(registry), memory.NewJobRepository(), nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	a.closers = append(a.closers, func() { _ = sqlDB.Close() })

	if err := db.WithContext(ctx).AutoMigrate(&models.ImportJob{}, &models.Entity{}); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if _, err := pool.Exec(ctx, repository.EntitySchemaSQL); err != nil {
		return nil, nil, fmt.Errorf("failed to create entity schema: %w", err)
	}
	return repository.NewEntityRepository(pool, registry), repository.NewImportJobRepository(db), nil
}

func NewHTTPServer(cfg *Config, log logrus.FieldLogger, importHandler *httpecho.ImportHandler, jobHandler *httpecho.JobHandler) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))
	server.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			}).Info("request")
			return nil
		},
	}))

	httpecho.RegisterRoutes(server, importHandler, jobHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsEnabled {
		server.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	if strings.HasPrefix(cfg.MediaBaseURL, "/") {
		server.Static(strings.TrimSuffix(cfg.MediaBaseURL, "/")+"/public", filepath.Join(cfg.MediaDir, "public"))
	}

	return server
}
