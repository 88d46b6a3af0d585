package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "betterish-backend/cmd/api"
	"betterish-backend/internal/assistant/library"
	assistantRepo "betterish-backend/internal/assistant/repository"
	"betterish-backend/internal/assistant/scheduler"
	assistantUsecase "betterish-backend/internal/assistant/usecase"
	authRepo "betterish-backend/internal/auth/repository"
	authUsecase "betterish-backend/internal/auth/usecase"
	chatRepo "betterish-backend/internal/chat/repository"
	chatUsecase "betterish-backend/internal/chat/usecase"
	profileRepo "betterish-backend/internal/profile/repository"
	profileUsecase "betterish-backend/internal/profile/usecase"
	statsRepo "betterish-backend/internal/stats/repository"
	statsUsecase "betterish-backend/internal/stats/usecase"
	taskRepo "betterish-backend/internal/task/repository"
	taskUsecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/config"
	"betterish-backend/pkg/database"
	"betterish-backend/pkg/fcm"
	"betterish-backend/pkg/requeststate"
	"betterish-backend/pkg/sse"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := migrate(db); err != nil {
		log.Fatal(err)
	}

	// Initialize repositories (dependency injection)
	userRepository := authRepo.NewUserRepository(db)
	fcmTokenRepo := authRepo.NewFCMTokenRepository(db)
	statsRepository := statsRepo.NewStatsRepository(db)
	taskRepository := taskRepo.NewGormTaskRepository(db)
	chatRepository := chatRepo.NewChatRepository(db)
	profileRepository := profileRepo.NewProfileRepository(db)
	tipRepository := assistantRepo.NewTipRepository(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()
	defer sseManager.Stop()

	// Initialize use cases (dependency injection)
	authUc := authUsecase.NewAuthUsecase(userRepository, fcmTokenRepo, cfg)
	statsUc := statsUsecase.NewStatsUsecase(statsRepository)
	taskUc := taskUsecase.NewTaskUsecase(taskRepository, statsRepository)
	profileUc := profileUsecase.NewProfileUsecase(profileRepository)

	// Chat and assistant share one tracker so /assistant/requests sees both
	tracker := requeststate.NewTracker()
	sessionUc := chatUsecase.NewSessionUsecase(chatRepository, taskUc, tracker, cfg.ChatHistoryLimit)
	pipeline := assistantUsecase.NewPipeline(taskUc, profileUc, tipRepository, tracker, library.MustLoad())

	// New accounts start with stats, a profile and the starter tasks
	authUc.SetRegisterCallback(func(userID string) {
		if err := statsRepository.Create(userID); err != nil {
			log.Printf("[Register] Failed to create stats for user %s: %v", userID, err)
		}
		if _, err := profileUc.GetProfile(userID); err != nil {
			log.Printf("[Register] Failed to create profile for user %s: %v", userID, err)
		}
		taskUc.SeedDefaults(userID)
	})

	// Initialize HTTP handler
	handler := api.NewHandler(api.Usecases{
		Auth:      authUc,
		Tasks:     taskUc,
		Stats:     statsUc,
		Chat:      sessionUc,
		Assistant: pipeline,
		Profile:   profileUc,
	}, sseManager, cfg)

	// Daily tip push (optional, needs Firebase credentials)
	var notifier scheduler.Notifier
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(context.Background(), cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		} else {
			log.Printf("FCM client initialized")
			notifier = fcmClient
		}
	} else {
		log.Printf("[WARN] No Firebase credentials configured, FCM disabled")
	}
	tipScheduler := scheduler.NewTipScheduler(pipeline, tipRepository, fcmTokenRepo, notifier, cfg.TipPushInterval)
	tipScheduler.Start()
	defer tipScheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- handler.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("Received %s, shutting down", sig)
		return nil
	}
}
