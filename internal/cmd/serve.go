package cmd

import (
	"alcyxob/gym-app/internal/ai"
	"alcyxob/gym-app/internal/api"
	"alcyxob/gym-app/internal/config"
	"alcyxob/gym-app/internal/logging"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/repository/mongo"
	"alcyxob/gym-app/internal/service"
	"alcyxob/gym-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return Serve(ctx, cfg)
	},
}

// Serve wires the application and blocks until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config) error {
	log := logging.Logger
	log.Info().Str("address", cfg.Server.Address).Msg("starting gym-app server")

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret (JWT_SECRET) must be set")
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		log.Info().Msg("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error().Err(err).Msg("failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info().Str("database", cfg.Database.Name).Msg("database connection established")

	// --- Ensure Indexes ---
	go func() {
		idxCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(idxCtx, appDB); err != nil {
			log.Error().Err(err).Msg("index creation finished with errors")
			return
		}
		log.Info().Msg("index creation process completed")
	}()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(cfg.S3)
		if err != nil {
			return fmt.Errorf("initialize S3 storage: %w", err)
		}
	} else {
		log.Warn().Msg("s3.bucket_name not set; image uploads are disabled")
	}

	// --- Initialize AI ---
	aiClient := ai.NewClient(ai.Config{
		APIKey:          cfg.AI.APIKey,
		BaseURL:         cfg.AI.BaseURL,
		Model:           cfg.AI.Model,
		VisionModel:     cfg.AI.VisionModel,
		Timeout:         cfg.AI.Timeout,
		MaxRetries:      cfg.AI.MaxRetries,
		BreakerFailures: cfg.AI.BreakerFailures,
		BreakerTimeout:  cfg.AI.BreakerTimeout,
	})
	if !aiClient.Enabled() {
		log.Warn().Msg("ai.api_key not set; advice and classification will use fallbacks")
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	gymRepo := mongo.NewMongoGymRepository(appDB)
	equipmentRepo := mongo.NewMongoEquipmentRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshExpiration)
	gymService := service.NewGymService(gymRepo, userRepo)
	equipmentService := service.NewEquipmentService(equipmentRepo, gymService, fileStorage,
		ai.NewClassifier(aiClient), cfg.Upload.MaxImageBytes, cfg.S3.PresignExpiry)
	workoutService := service.NewWorkoutService(workoutRepo, equipmentRepo, gymService,
		ai.NewAdvisor(aiClient), cfg.Recommend.AdviceLimit, cfg.Recommend.MaxAdvice)
	recommendationService := service.NewRecommendationService(workoutRepo, equipmentRepo, gymService, recommend.Limits{
		TopCategories: cfg.Recommend.TopCategories,
		PopularLimit:  cfg.Recommend.PopularLimit,
		ResultLimit:   cfg.Recommend.ResultLimit,
	})

	// --- Initialize Gin Engine ---
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Services{
		Auth:           authService,
		Gyms:           gymService,
		Equipment:      equipmentService,
		Workouts:       workoutService,
		Recommendation: recommendationService,
	}, api.RouterOptions{
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxImageBytes: cfg.Upload.MaxImageBytes,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exiting")
	return nil
}
