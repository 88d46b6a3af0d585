package usecase

import (
	"context"

	"betterish-backend/internal/assistant/domain"
	"betterish-backend/internal/assistant/library"
	taskusecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/ai"
	"betterish-backend/pkg/requeststate"
)

// Pipeline defines the AI-backed derivations over a user's tasks.
// Malformed or failed generations fall back to fixed values and are never
// returned as errors; only persistence errors and ErrRequestInFlight are.
type Pipeline interface {
	// BreakdownSteps asks for 3-5 tiny steps for a task title
	BreakdownSteps(ctx context.Context, title string) []string

	// Breakdown attaches generated steps to a top-level task that was not broken down yet
	Breakdown(ctx context.Context, userID, taskID string) (int, error)

	// ExtractFromConversation turns advice text into subtasks of the active task,
	// or into a new project when the active task is gone
	ExtractFromConversation(ctx context.Context, userID, text, activeTaskID string, afterWrite ...taskusecase.AfterWrite) (int, error)

	// AnalyzePriorities suggests survival and stale tasks among the active ones
	AnalyzePriorities(ctx context.Context, userID string) (*domain.PriorityAnalysis, error)

	// ApplyPriorities applies a confirmed analysis
	ApplyPriorities(userID string, priorityIDs, staleIDs []string) (*taskusecase.TaskListView, error)

	// Suggestions returns task ideas that are not already on the list
	Suggestions(ctx context.Context, userID string) ([]string, error)

	// DailyTip returns the user's tip for today, generating it on first request
	DailyTip(ctx context.Context, userID string) (*domain.DailyTip, error)

	// Library returns the curated task library
	Library() *library.Library

	// Requests returns the request state of every AI action of the user
	Requests(userID string) []requeststate.Entry

	// SetGenerationService sets the generation collaborator
	SetGenerationService(svc ai.GenerationService)
}
