package usecase

import (
	"context"

	"betterish-backend/internal/chat/domain"
	taskdomain "betterish-backend/internal/task/domain"
	taskusecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/ai"
)

// SessionUsecase defines the interface for the chat session
type SessionUsecase interface {
	// AppendMessage adds a message to the user's log
	AppendMessage(userID string, role domain.Role, text, taskID string) (*domain.ChatMessage, error)

	// History returns every message, oldest first, with its conversion flag
	History(userID string) ([]*MessageView, error)

	// SetActiveTaskContext scopes the conversation to a task and returns the draft
	// message; an empty or unknown id clears the context and returns ""
	SetActiveTaskContext(userID, taskID string) (string, error)

	// ActiveTaskContext returns the current task id, "" when unset
	ActiveTaskContext(userID string) string

	// Send appends the user's message and the assistant's reply; the active
	// task context is consumed by the send
	Send(ctx context.Context, userID, text string) (*SendResult, error)

	// Convert turns a model reply into tasks once; repeats and other messages return 0
	Convert(ctx context.Context, userID, messageID string) (int, error)

	// SetGenerationService sets the chat collaborator
	SetGenerationService(svc ai.GenerationService)

	// SetExtractor sets the chat-to-task extractor
	SetExtractor(e Extractor)
}

// TaskLookup resolves task ids for the active task context
type TaskLookup interface {
	GetTask(userID, taskID string) (*taskdomain.Task, error)
}

// Extractor turns free text into tasks, attaching to activeTaskID when it is live.
// afterWrite commits together with the created tasks.
type Extractor interface {
	ExtractFromConversation(ctx context.Context, userID, text, activeTaskID string, afterWrite ...taskusecase.AfterWrite) (int, error)
}

// MessageView is a message as shown to clients
type MessageView struct {
	*domain.ChatMessage
	Converted bool `json:"converted"`
}

// SendResult carries both messages appended by Send
type SendResult struct {
	UserMessage  *domain.ChatMessage `json:"user_message"`
	ReplyMessage *domain.ChatMessage `json:"reply_message"`
	// Failed is set when the reply is the fallback text rather than a model answer
	Failed bool `json:"failed"`
}
