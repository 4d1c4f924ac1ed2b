package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edufund-api/api/swagger"
	"github.com/noah-isme/edufund-api/internal/handler"
	"github.com/noah-isme/edufund-api/internal/repository"
	"github.com/noah-isme/edufund-api/internal/router"
	"github.com/noah-isme/edufund-api/internal/service"
	"github.com/noah-isme/edufund-api/pkg/cache"
	"github.com/noah-isme/edufund-api/pkg/config"
	"github.com/noah-isme/edufund-api/pkg/database"
	"github.com/noah-isme/edufund-api/pkg/events"
	"github.com/noah-isme/edufund-api/pkg/jobs"
	"github.com/noah-isme/edufund-api/pkg/logger"
	"github.com/noah-isme/edufund-api/pkg/storage"
	"github.com/noah-isme/edufund-api/pkg/validation"
)

// @title EduFund API
// @version 1.0.0
// @description Student crowdfunding: verified students raise education funds from donors.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	validate := validation.New()

	var redisClient *redis.Client
	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, response cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, "edufund", logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	audit, closeAudit, err := newAuditWriter(ctx, cfg, db, logr)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	defer closeAudit()

	publisher, err := newPublisher(cfg, logr)
	if err != nil {
		return fmt.Errorf("event publisher: %w", err)
	}
	defer publisher.Close() //nolint:errcheck

	users := repository.NewUserRepository(db)
	donors := repository.NewDonorRepository(db)
	profiles := repository.NewStudentProfileRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	donations := repository.NewDonationRepository(db)
	flags := repository.NewFlagRepository(db)
	withdrawals := repository.NewWithdrawalRepository(db)
	outbox := repository.NewOutboxRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)

	uploads := service.NewUploadService(objects, cfg.Uploads.MaxFileSizeBytes, logr)
	authSvc := service.NewAuthService(users, donors, profiles, audit, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		BcryptCost:         cfg.JWT.BcryptCost,
	})
	profileSvc := service.NewStudentProfileService(profiles, users, uploads, metrics, validate, logr)
	campaignSvc := service.NewCampaignService(service.CampaignServiceDeps{
		Campaigns:   campaigns,
		Users:       users,
		Profiles:    profiles,
		Flags:       flags,
		Withdrawals: withdrawals,
		Uploads:     uploads,
		Cache:       cacheSvc,
	}, validate, logr)
	moderationSvc := service.NewModerationService(campaigns, flags, cacheSvc, metrics, validate, logr)
	donationSvc := service.NewDonationService(donations, campaigns, donors, cacheSvc, metrics, validate, logr, cfg.Payments.WebhookSecret)
	donorSvc := service.NewDonorService(donors, users, donations, validate, logr)
	userSvc := service.NewUserService(users, flags, validate, logr)
	withdrawalSvc := service.NewWithdrawalService(withdrawals, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Cache.TTL})

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir, "")
	if err != nil {
		return fmt.Errorf("reports storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(reportRepo, reportStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)
	reportSvc := service.NewReportService(exportSvc, validate, logr)

	relay := service.NewOutboxRelay(outbox, publisher, metrics, logr, service.OutboxRelayConfig{BatchSize: cfg.Events.BatchSize})
	reconciler := service.NewReconcileService(donations, cacheSvc, metrics, logr)

	queue := jobs.NewQueue("maintenance", jobs.Mux{
		service.JobOutboxRelay:     relay.HandleRelay,
		service.JobOutboxPurge:     relay.HandlePurge,
		service.JobReconcileTotals: reconciler.Handle,
		service.JobReportCleanup:   reportSvc.HandleCleanup,
	}.Handle, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		Logger:     logr,
	})
	scheduler := jobs.NewScheduler(logr)
	if cfg.Jobs.Enabled {
		queue.Start(ctx)
		defer queue.Stop()
		schedules := []struct{ spec, jobType string }{
			{cfg.Events.RelaySchedule, service.JobOutboxRelay},
			{"@daily", service.JobOutboxPurge},
			{cfg.Jobs.ReconcileSchedule, service.JobReconcileTotals},
			{cfg.Reports.CleanupSchedule, service.JobReportCleanup},
		}
		for _, s := range schedules {
			if err := scheduler.Schedule(s.spec, queue, s.jobType); err != nil {
				return err
			}
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var uploadsDir string
	if cfg.Uploads.Driver == config.StorageLocal {
		uploadsDir = cfg.Uploads.Dir
	}
	engine := router.New(router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Students:    handler.NewStudentHandler(profileSvc),
		Campaigns:   handler.NewCampaignHandler(campaignSvc),
		Moderation:  handler.NewModerationHandler(moderationSvc),
		Donations:   handler.NewDonationHandler(donationSvc),
		Donors:      handler.NewDonorHandler(donorSvc),
		Users:       handler.NewUserHandler(userSvc),
		Withdrawals: handler.NewWithdrawalHandler(withdrawalSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Reports:     handler.NewReportHandler(reportSvc),
		Metrics:     handler.NewMetricsHandler(metrics, checks),
	}, router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadsDir:     uploadsDir,
		UploadsPath:    cfg.Uploads.PublicPath,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Tokens:         authSvc,
		Metrics:        metrics,
		Audit:          audit,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Uploads.Driver {
	case config.StorageMinIO:
		return storage.NewMinIOStorage(ctx, cfg.MinIO)
	case config.StorageCloudinary:
		return storage.NewCloudinaryStorage(cfg.Cloud.URL, cfg.Cloud.Folder)
	case config.StorageLocal, "":
		return storage.NewLocalStorage(cfg.Uploads.Dir, cfg.Uploads.PublicPath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Uploads.Driver)
	}
}

func newAuditWriter(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (service.AuditWriter, func(), error) {
	if cfg.Audit.Store != config.AuditStoreMongo {
		return repository.NewAuditRepository(db), func() {}, nil
	}
	client, mdb, err := database.NewMongo(ctx, cfg.Audit)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewMongoAuditRepository(mdb)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logr.Warn("failed to ensure audit indexes", zap.Error(err))
	}
	return repo, func() { disconnectMongo(client, logr) }, nil
}

func disconnectMongo(client *mongo.Client, logr *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logr.Warn("mongo disconnect failed", zap.Error(err))
	}
}

func newPublisher(cfg *config.Config, logr *zap.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.NewLogPublisher(logr), nil
	}
	return events.NewKafkaPublisher(cfg.Events.Brokers, cfg.Events.Topic, cfg.Events.PublishTimeout)
}
