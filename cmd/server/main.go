package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymtrack/progression-app/internal/api"
	"gymtrack/progression-app/internal/config"
	"gymtrack/progression-app/internal/repository/mongo"
	"gymtrack/progression-app/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.Info("Starting Progression App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.WithError(err).Fatal("Could not load config")
	}
	log.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to MongoDB")
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established.")

	// --- Ensure Indexes ---
	log.Info("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureProgramIndexes(ctx, appDB.Collection("programs"))
		mongo.EnsureInstructionIndexes(ctx, appDB.Collection("instructions"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		mongo.EnsureSetIndexes(ctx, appDB.Collection("sets"))
		log.Info("Index creation process completed.")
	}()

	// --- Initialize Repositories ---
	log.Info("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	programRepo := mongo.NewMongoProgramRepository(appDB)
	instructionRepo := mongo.NewMongoInstructionRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	setRepo := mongo.NewMongoSetRepository(appDB)

	// --- Initialize Snapshot Worker Pool ---
	snapshotter := service.NewSnapshotter(setRepo, sessionRepo, service.SnapshotterOptions{
		Workers:      cfg.Snapshot.Workers,
		QueueSize:    cfg.Snapshot.QueueSize,
		MaxRetries:   cfg.Snapshot.MaxRetries,
		RetryBackoff: cfg.Snapshot.RetryBackoff,
		WriteTimeout: cfg.Snapshot.WriteTimeout,
	})
	snapshotter.Start()
	defer snapshotter.Stop()

	// --- Initialize Services ---
	log.Info("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	programService := service.NewProgramService(programRepo, instructionRepo)
	instructionService := service.NewInstructionService(instructionRepo)
	sessionService := service.NewSessionService(sessionRepo, programRepo, instructionRepo, setRepo, snapshotter)
	setService := service.NewSetService(setRepo, sessionRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Info("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, programService, instructionService, sessionService, setService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.WithField("address", cfg.Server.Address).Info("Server starting")

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("ListenAndServe error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server exiting.")
}
