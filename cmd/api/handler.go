package api

import (
	"context"
	"log"
	"net/http"

	assistantDelivery "betterish-backend/internal/assistant/delivery"
	assistantUsecase "betterish-backend/internal/assistant/usecase"
	authDelivery "betterish-backend/internal/auth/delivery"
	authUsecase "betterish-backend/internal/auth/usecase"
	chatDelivery "betterish-backend/internal/chat/delivery"
	chatUsecase "betterish-backend/internal/chat/usecase"
	profileDelivery "betterish-backend/internal/profile/delivery"
	profileUsecase "betterish-backend/internal/profile/usecase"
	statsDelivery "betterish-backend/internal/stats/delivery"
	statsUsecase "betterish-backend/internal/stats/usecase"
	taskDelivery "betterish-backend/internal/task/delivery"
	taskUsecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/ai"
	"betterish-backend/pkg/config"
	"betterish-backend/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Usecases groups the business logic the HTTP layer is built on
type Usecases struct {
	Auth      authUsecase.AuthUsecase
	Tasks     taskUsecase.TaskUsecase
	Stats     statsUsecase.StatsUsecase
	Chat      chatUsecase.SessionUsecase
	Assistant assistantUsecase.Pipeline
	Profile   profileUsecase.ProfileUsecase
}

type Handler struct {
	authUsecase      authUsecase.AuthUsecase
	sseManager       *sse.Manager
	config           *config.Config
	authHandler      *authDelivery.AuthHandler
	taskHandler      *taskDelivery.TaskHandler
	statsHandler     *statsDelivery.StatsHandler
	chatHandler      *chatDelivery.ChatHandler
	assistantHandler *assistantDelivery.AssistantHandler
	profileHandler   *profileDelivery.ProfileHandler
	settingsHandler  *SettingsHandler
}

func NewHandler(uc Usecases, sseManager *sse.Manager, cfg *config.Config) *Handler {
	ollama := ai.NewOllamaService(cfg.OllamaBaseURL, cfg.OllamaModel)
	settingsHandler := NewSettingsHandler(RuntimeConfig{
		Provider:      cfg.AIProvider,
		GeminiEnabled: cfg.GeminiAPIKey != "",
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	}, ollama)

	// Ollama settings are read through getters so PUT /settings/ai applies to the next call
	aiService, err := ai.NewGenerationService(context.Background(), ai.Config{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiAPIKey,
		GeminiModel:      cfg.GeminiModel,
		GetOllamaBaseURL: settingsHandler.OllamaBaseURL,
		GetOllamaModel:   settingsHandler.OllamaModel,
	})
	if err != nil {
		log.Printf("Warning: Failed to initialize AI service: %v", err)
	} else {
		log.Printf("AI service initialized with provider: %s", cfg.AIProvider)
		uc.Chat.SetGenerationService(aiService)
		uc.Assistant.SetGenerationService(aiService)
	}

	uc.Chat.SetExtractor(uc.Assistant)
	uc.Tasks.SetEventPublisher(sseManager)

	return &Handler{
		authUsecase:      uc.Auth,
		sseManager:       sseManager,
		config:           cfg,
		authHandler:      authDelivery.NewAuthHandler(uc.Auth),
		taskHandler:      taskDelivery.NewTaskHandler(uc.Tasks),
		statsHandler:     statsDelivery.NewStatsHandler(uc.Stats),
		chatHandler:      chatDelivery.NewChatHandler(uc.Chat),
		assistantHandler: assistantDelivery.NewAssistantHandler(uc.Assistant, uc.Tasks),
		profileHandler:   profileDelivery.NewProfileHandler(uc.Profile),
		settingsHandler:  settingsHandler,
	}
}

// Router builds the gin engine wrapped in the CORS handler
func (h *Handler) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	SetupRoutes(r, h)

	c := cors.New(cors.Options{
		AllowedOrigins:   h.config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Cache-Control", "X-Requested-With"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (h *Handler) Start(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: h.Router(),
	}
	return srv.ListenAndServe()
}
