package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"betterish-backend/internal/assistant/domain"
	"betterish-backend/internal/assistant/repository"
	authrepo "betterish-backend/internal/auth/repository"
	"betterish-backend/pkg/fcm"
)

// tipRetention is how long generated tips are kept
const tipRetention = 7 * 24 * time.Hour

// TipSource produces the daily tip of a user
type TipSource interface {
	DailyTip(ctx context.Context, userID string) (*domain.DailyTip, error)
}

// Notifier sends a push notification to devices and returns the tokens that failed
type Notifier interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// TipScheduler pushes each user's daily tip to their devices once a day
type TipScheduler struct {
	tips     TipSource
	tipRepo  repository.TipRepository
	fcmRepo  authrepo.FCMTokenRepository
	notifier Notifier
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	pushed   map[string]string // userID -> date of last push
	pruned   string
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTipScheduler creates a new scheduler
func NewTipScheduler(
	tips TipSource,
	tipRepo repository.TipRepository,
	fcmRepo authrepo.FCMTokenRepository,
	notifier Notifier,
	interval time.Duration,
) *TipScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TipScheduler{
		tips:     tips,
		tipRepo:  tipRepo,
		fcmRepo:  fcmRepo,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
		pushed:   make(map[string]string),
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *TipScheduler) Start() {
	if s.notifier == nil {
		log.Println("[TipScheduler] FCM client not available, scheduler disabled")
		return
	}

	log.Printf("[TipScheduler] Starting daily tip scheduler (interval: %s)", s.interval)

	go func() {
		s.RunOnce(context.Background())

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stopChan:
				log.Println("[TipScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *TipScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// RunOnce pushes today's tip to every user with devices who has not received it yet
// and returns the number of users notified.
func (s *TipScheduler) RunOnce(ctx context.Context) int {
	now := s.now()
	today := now.Format("2006-01-02")
	s.prune(now, today)

	userIDs, err := s.fcmRepo.ListUserIDs()
	if err != nil {
		log.Printf("[TipScheduler] Error listing users with devices: %v", err)
		return 0
	}

	sent := 0
	for _, userID := range userIDs {
		if s.alreadyPushed(userID, today) {
			continue
		}
		delivered, settled := s.pushTip(ctx, userID)
		if delivered {
			sent++
		}
		// Transient failures are retried on the next tick.
		if settled {
			s.markPushed(userID, today)
		}
	}
	if sent > 0 {
		log.Printf("[TipScheduler] Sent daily tip to %d users", sent)
	}
	return sent
}

// pushTip reports whether any device got the tip, and whether the user is done for
// today: delivered, or nothing left to deliver to.
func (s *TipScheduler) pushTip(ctx context.Context, userID string) (delivered, settled bool) {
	tokens, err := s.fcmRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[TipScheduler] Error getting FCM tokens for user %s: %v", userID, err)
		return false, false
	}
	if len(tokens) == 0 {
		return false, true
	}

	tip, err := s.tips.DailyTip(ctx, userID)
	if err != nil {
		log.Printf("[TipScheduler] Error loading daily tip for user %s: %v", userID, err)
		return false, false
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}

	notification := fcm.NotificationData{
		Title: "Daily Intel",
		Body:  tip.Text,
		Data: map[string]string{
			"type":         "daily_tip",
			"date":         tip.Date,
			"click_action": "/",
		},
	}

	failedTokens, err := s.notifier.SendToDevices(ctx, tokenStrings, notification)
	if err != nil {
		log.Printf("[TipScheduler] Error sending daily tip to user %s: %v", userID, err)
		return false, false
	}

	for _, token := range failedTokens {
		if err := s.fcmRepo.DeleteToken(userID, token); err != nil {
			log.Printf("[TipScheduler] Error removing failed token for user %s: %v", userID, err)
		}
	}
	// Failed tokens are gone now, so a user whose every device failed is settled too.
	return len(failedTokens) < len(tokenStrings), true
}

// prune deletes expired tips at most once per day
func (s *TipScheduler) prune(now time.Time, today string) {
	s.mu.Lock()
	if s.pruned == today {
		s.mu.Unlock()
		return
	}
	s.pruned = today
	s.mu.Unlock()

	cutoff := now.Add(-tipRetention).Format("2006-01-02")
	n, err := s.tipRepo.DeleteBefore(cutoff)
	if err != nil {
		log.Printf("[TipScheduler] Error pruning tips before %s: %v", cutoff, err)
		return
	}
	if n > 0 {
		log.Printf("[TipScheduler] Pruned %d tips before %s", n, cutoff)
	}
}

func (s *TipScheduler) alreadyPushed(userID, today string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushed[userID] == today
}

func (s *TipScheduler) markPushed(userID, today string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushed[userID] = today
}
