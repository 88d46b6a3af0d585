package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"betterish-backend/internal/chat/domain"
	"betterish-backend/internal/chat/repository"
	taskdomain "betterish-backend/internal/task/domain"
	"betterish-backend/pkg/ai"
	"betterish-backend/pkg/requeststate"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemInstruction sets the assistant's voice for every chat
const SystemInstruction = `You are the "Betterish" AI, a tired dad friend who gets it.
Your goal is to help exhausted fathers with young kids (0-8 years) manage their lives.
PHILOSOPHY: Progress over perfection. "Betterish" is good enough. We celebrate small wins.
VOICE: Write like a dad texting his best friend at 11 PM. Honest, tired, funny, real. No corporate speak.
AUDIENCE: Dads who love their families but feel like they are constantly failing.
KEY RULES:
1. Never shame.
2. Keep suggestions under 5-10 minutes.
3. Use humor about universal dad experiences.
4. If asked to "break down" a project, provide 3-5 very small, actionable steps.
5. Always end with a bit of solidarity.
6. Keep responses concise (max 2-3 sentences) unless explicitly asked for a list.`

// ErrorReply replaces the model's answer when the chat call fails
const ErrorReply = "Error contacting Dad HQ. Try again in a minute."

const draftTemplate = `I'm stuck on this task: "%s". Any tips?`

type sessionUsecase struct {
	chatRepo     repository.ChatRepository
	tasks        TaskLookup
	generator    ai.GenerationService
	extractor    Extractor
	tracker      *requeststate.Tracker
	historyLimit int
	now          func() time.Time

	mu      sync.Mutex
	context map[string]string // userID -> active task id
}

// NewSessionUsecase creates a new instance of sessionUsecase.
// historyLimit caps the turns passed to the model, not what is stored.
func NewSessionUsecase(chatRepo repository.ChatRepository, tasks TaskLookup, tracker *requeststate.Tracker, historyLimit int) SessionUsecase {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &sessionUsecase{
		chatRepo:     chatRepo,
		tasks:        tasks,
		tracker:      tracker,
		historyLimit: historyLimit,
		now:          time.Now,
		context:      make(map[string]string),
	}
}

func (u *sessionUsecase) SetGenerationService(svc ai.GenerationService) {
	u.generator = svc
}

func (u *sessionUsecase) SetExtractor(e Extractor) {
	u.extractor = e
}

func (u *sessionUsecase) AppendMessage(userID string, role domain.Role, text, taskID string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if role != domain.RoleUser && role != domain.RoleModel {
		return nil, domain.ErrInvalidRole
	}
	msg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		Text:      text,
		TaskID:    taskID,
		Timestamp: u.now(),
	}
	if err := u.chatRepo.Append(msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return msg, nil
}

func (u *sessionUsecase) History(userID string) ([]*MessageView, error) {
	msgs, err := u.chatRepo.ListByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	converted, err := u.chatRepo.ConvertedIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversions: %w", err)
	}
	out := make([]*MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, &MessageView{ChatMessage: m, Converted: converted[m.ID]})
	}
	return out, nil
}

func (u *sessionUsecase) SetActiveTaskContext(userID, taskID string) (string, error) {
	if taskID == "" {
		u.setContext(userID, "")
		return "", nil
	}
	task, err := u.tasks.GetTask(userID, taskID)
	if err != nil {
		u.setContext(userID, "")
		if errors.Is(err, taskdomain.ErrTaskNotFound) {
			return "", nil
		}
		return "", err
	}
	u.setContext(userID, task.ID)
	return fmt.Sprintf(draftTemplate, task.Title), nil
}

func (u *sessionUsecase) ActiveTaskContext(userID string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.context[userID]
}

func (u *sessionUsecase) setContext(userID, taskID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if taskID == "" {
		delete(u.context, userID)
		return
	}
	u.context[userID] = taskID
}

// takeContext returns the active task id and clears it
func (u *sessionUsecase) takeContext(userID string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	id := u.context[userID]
	delete(u.context, userID)
	return id
}

func (u *sessionUsecase) Send(ctx context.Context, userID, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyMessage
	}
	done, err := u.tracker.Begin(requeststate.Key{UserID: userID, Action: requeststate.ActionSend})
	if err != nil {
		return nil, err
	}

	history, err := u.chatRepo.Recent(userID, u.historyLimit)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	taskID := u.takeContext(userID)
	userMsg, err := u.AppendMessage(userID, domain.RoleUser, text, taskID)
	if err != nil {
		done(err)
		return nil, err
	}

	reply, chatErr := u.chat(ctx, history, text)
	failed := chatErr != nil
	if failed {
		log.Printf("[ChatSession] Chat failed for user %s: %v", userID, chatErr)
		reply = ErrorReply
	}

	replyMsg := &domain.ChatMessage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      domain.RoleModel,
		Text:      reply,
		TaskID:    taskID,
		Timestamp: u.now(),
	}
	if !replyMsg.Timestamp.After(userMsg.Timestamp) {
		replyMsg.Timestamp = userMsg.Timestamp.Add(time.Microsecond)
	}
	if err := u.chatRepo.Append(replyMsg); err != nil {
		done(err)
		return nil, fmt.Errorf("failed to append reply: %w", err)
	}

	done(chatErr)
	return &SendResult{UserMessage: userMsg, ReplyMessage: replyMsg, Failed: failed}, nil
}

func (u *sessionUsecase) chat(ctx context.Context, history []*domain.ChatMessage, text string) (string, error) {
	if u.generator == nil {
		return "", errors.New("AI service not configured")
	}
	turns := make([]ai.ChatTurn, 0, len(history))
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == domain.RoleModel {
			role = ai.RoleModel
		}
		turns = append(turns, ai.ChatTurn{Role: role, Text: m.Text})
	}
	reply, err := u.generator.Chat(ctx, SystemInstruction, turns, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("empty reply")
	}
	return reply, nil
}

func (u *sessionUsecase) Convert(ctx context.Context, userID, messageID string) (int, error) {
	if u.extractor == nil {
		return 0, errors.New("extractor not configured")
	}

	msg, err := u.chatRepo.FindByID(userID, messageID)
	if err != nil {
		return 0, err
	}
	// Only real model replies carry advice worth converting.
	if msg == nil || msg.Role != domain.RoleModel || msg.Text == ErrorReply {
		return 0, nil
	}

	done, err := u.tracker.Begin(requeststate.Key{UserID: userID, Action: requeststate.ActionExtract, Target: messageID})
	if err != nil {
		return 0, err
	}

	converted, err := u.chatRepo.IsConverted(messageID)
	if err != nil {
		done(err)
		return 0, err
	}
	if converted {
		done(nil)
		return 0, nil
	}

	target := msg.TaskID
	if target == "" {
		target = u.ActiveTaskContext(userID)
	}

	// The conversion record commits with the tasks, so a retry cannot duplicate them.
	recordConversion := func(tx *gorm.DB, attached int) error {
		conv := &domain.MessageConversion{
			MessageID: messageID,
			UserID:    userID,
			Count:     attached,
			CreatedAt: u.now(),
		}
		if err := u.chatRepo.WithTx(tx).RecordConversion(conv); err != nil {
			return fmt.Errorf("failed to record conversion: %w", err)
		}
		return nil
	}
	count, err := u.extractor.ExtractFromConversation(ctx, userID, msg.Text, target, recordConversion)
	if err != nil {
		done(err)
		return 0, err
	}
	if count > 0 {
		log.Printf("[ChatSession] Converted message %s into %d tasks", messageID, count)
	}
	done(nil)
	return count, nil
}
