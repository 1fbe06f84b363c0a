package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"reviewhub/internal/config"
	"reviewhub/internal/email/noop"
	"reviewhub/internal/email/ses"
	"reviewhub/internal/handler"
	"reviewhub/internal/port"
	"reviewhub/internal/repository/postgres"
	"reviewhub/internal/router"
	"reviewhub/internal/service"
	s3storage "reviewhub/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if closeLog := setupLogging(&cfg.Log); closeLog != nil {
		defer closeLog()
	}
	if cfg.Server.Environment == "production" || cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	productRepo := postgres.NewProductRepo(db)
	reviewRepo := postgres.NewReviewRepo(db)
	reviewFileRepo := postgres.NewReviewFileRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	emailSender, err := newEmailSender(&cfg.Email)
	if err != nil {
		return err
	}

	// Initialize services
	tasks := service.NewUploadTaskManager(cfg.Upload.TaskTTL)
	defer tasks.Stop()

	worker := service.NewIngestWorker(tasks, s3Client, reviewRepo, reviewFileRepo, productRepo, userRepo, emailSender,
		service.IngestConfig{
			Concurrency:    cfg.Upload.Concurrency,
			QueueSize:      cfg.Upload.QueueSize,
			ProcessTimeout: cfg.Upload.ProcessTimeout,
		})

	authSvc := service.NewAuthService(userRepo, emailSender, cfg.JWT)
	productSvc := service.NewProductService(productRepo, categoryRepo, reviewFileRepo, s3Client)
	reviewSvc := service.NewReviewService(productRepo, reviewRepo, reviewFileRepo, s3Client, cfg.S3.PresignExpiry)
	uploadSvc := service.NewReviewUploadService(productRepo, reviewFileRepo, s3Client, tasks, worker, cfg.S3.Bucket,
		service.UploadLimits{
			MaxFiles:         cfg.Upload.MaxFiles,
			MaxFileSizeBytes: cfg.Upload.MaxFileSizeBytes(),
		})

	// Multipart overhead on top of the largest permitted batch.
	maxBody := int64(cfg.Upload.MaxFiles)*cfg.Upload.MaxFileSizeBytes() + 1<<20

	// Setup router
	r := router.Setup(authSvc, router.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Product:      handler.NewProductHandler(productSvc),
		Review:       handler.NewReviewHandler(reviewSvc),
		ReviewUpload: handler.NewReviewUploadHandler(uploadSvc, cfg.Upload.SSEInterval, maxBody, cfg.Upload.RequestTimeout),
		Health:       handler.NewHealthHandler(db, tasks),
	}, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(workerDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		stop()
		<-workerDone
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-workerDone
	log.Printf("Shutdown complete")
	return nil
}

// setupLogging mirrors log output into a rotated file when one is
// configured. The returned func closes the file.
func setupLogging(cfg *config.LogConfig) func() {
	if cfg.File == "" {
		return nil
	}
	out := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	w := io.MultiWriter(os.Stderr, out)
	log.SetOutput(w)
	gin.DefaultWriter = w
	gin.DefaultErrorWriter = w
	return func() {
		if err := out.Close(); err != nil {
			log.Printf("closing log file: %v", err)
		}
	}
}

func newEmailSender(cfg *config.EmailConfig) (port.EmailSender, error) {
	switch cfg.Provider {
	case "ses":
		sender, err := ses.NewSESSender(cfg.Region, cfg.FromAddress, cfg.FromName, cfg.FrontendURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES sender: %w", err)
		}
		return sender, nil
	case "noop", "":
		return noop.NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
