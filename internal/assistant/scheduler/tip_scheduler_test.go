package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"betterish-backend/internal/assistant/domain"
	"betterish-backend/internal/assistant/repository"
	authdomain "betterish-backend/internal/auth/domain"
	authrepo "betterish-backend/internal/auth/repository"
	"betterish-backend/pkg/database"
	"betterish-backend/pkg/fcm"
)

type MockTipSource struct {
	Err   error
	calls int
}

func (m *MockTipSource) DailyTip(ctx context.Context, userID string) (*domain.DailyTip, error) {
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return &domain.DailyTip{UserID: userID, Date: "2026-05-05", Text: "Drink water, " + userID}, nil
}

type MockNotifier struct {
	mu     sync.Mutex
	sent   []fcm.NotificationData
	tokens [][]string
	Reject map[string]bool
	Err    error
}

func (m *MockNotifier) SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.sent = append(m.sent, n)
	m.tokens = append(m.tokens, tokens)
	var failed []string
	for _, t := range tokens {
		if m.Reject[t] {
			failed = append(failed, t)
		}
	}
	return failed, nil
}

func newTestScheduler(t *testing.T, tips TipSource, notifier *MockNotifier) (*TipScheduler, authrepo.FCMTokenRepository, repository.TipRepository) {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() = %v", err)
	}
	if err := db.AutoMigrate(&authdomain.FCMToken{}, &domain.DailyTip{}); err != nil {
		t.Fatalf("AutoMigrate() = %v", err)
	}
	fcmRepo := authrepo.NewFCMTokenRepository(db)
	tipRepo := repository.NewTipRepository(db)
	s := NewTipScheduler(tips, tipRepo, fcmRepo, notifier, time.Hour)
	s.now = func() time.Time { return time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC) }
	return s, fcmRepo, tipRepo
}

func TestRunOncePushesOncePerDay(t *testing.T) {
	notifier := &MockNotifier{}
	s, fcmRepo, _ := newTestScheduler(t, &MockTipSource{}, notifier)
	fcmRepo.SaveToken("u1", "tok-a", "chrome")
	fcmRepo.SaveToken("u1", "tok-b", "android")
	fcmRepo.SaveToken("u2", "tok-c", "chrome")

	if n := s.RunOnce(context.Background()); n != 2 {
		t.Fatalf("RunOnce() = %d, expected 2", n)
	}
	if n := s.RunOnce(context.Background()); n != 0 {
		t.Fatalf("second RunOnce() = %d, expected 0", n)
	}
	if len(notifier.sent) != 2 || notifier.sent[0].Body != "Drink water, u1" || notifier.sent[0].Data["type"] != "daily_tip" {
		t.Fatalf("sent = %+v", notifier.sent)
	}
	if len(notifier.tokens[0]) != 2 {
		t.Fatalf("u1 pushed to %d devices, expected 2", len(notifier.tokens[0]))
	}

	s.now = func() time.Time { return time.Date(2026, 5, 6, 9, 0, 0, 0, time.UTC) }
	if n := s.RunOnce(context.Background()); n != 2 {
		t.Fatalf("next day RunOnce() = %d", n)
	}
}

func TestRunOnceRemovesFailedTokens(t *testing.T) {
	notifier := &MockNotifier{Reject: map[string]bool{"dead": true}}
	s, fcmRepo, _ := newTestScheduler(t, &MockTipSource{}, notifier)
	fcmRepo.SaveToken("u1", "dead", "old phone")
	fcmRepo.SaveToken("u1", "alive", "new phone")

	s.RunOnce(context.Background())
	tokens, _ := fcmRepo.GetTokensByUserID("u1")
	if len(tokens) != 1 || tokens[0].Token != "alive" {
		t.Fatalf("tokens after push = %+v", tokens)
	}
}

func TestRunOnceSkipsTipErrors(t *testing.T) {
	notifier := &MockNotifier{}
	s, fcmRepo, _ := newTestScheduler(t, &MockTipSource{Err: errors.New("db down")}, notifier)
	fcmRepo.SaveToken("u1", "tok", "chrome")

	if n := s.RunOnce(context.Background()); n != 0 || len(notifier.sent) != 0 {
		t.Fatalf("RunOnce() = %d with %d pushes", n, len(notifier.sent))
	}
}

func TestRunOnceRetriesTransientFailures(t *testing.T) {
	tips := &MockTipSource{Err: errors.New("db down")}
	notifier := &MockNotifier{}
	s, fcmRepo, _ := newTestScheduler(t, tips, notifier)
	fcmRepo.SaveToken("u1", "tok", "chrome")

	s.RunOnce(context.Background())
	tips.Err = nil
	notifier.Err = errors.New("fcm unavailable")
	if n := s.RunOnce(context.Background()); n != 0 {
		t.Fatalf("RunOnce() with send failure = %d", n)
	}

	notifier.Err = nil
	if n := s.RunOnce(context.Background()); n != 1 {
		t.Fatalf("RunOnce() after recovery = %d, expected 1", n)
	}
	if n := s.RunOnce(context.Background()); n != 0 {
		t.Fatalf("RunOnce() after delivery = %d, expected 0", n)
	}
	if tips.calls != 3 {
		t.Fatalf("DailyTip called %d times, expected 3", tips.calls)
	}
}

func TestRunOncePrunesOldTips(t *testing.T) {
	s, _, tipRepo := newTestScheduler(t, &MockTipSource{}, &MockNotifier{})
	tipRepo.Save(&domain.DailyTip{UserID: "u1", Date: "2026-04-01", Text: "old"})
	tipRepo.Save(&domain.DailyTip{UserID: "u1", Date: "2026-05-04", Text: "recent"})

	s.RunOnce(context.Background())
	if tip, _ := tipRepo.FindByDate("u1", "2026-04-01"); tip != nil {
		t.Fatalf("old tip was not pruned")
	}
	if tip, _ := tipRepo.FindByDate("u1", "2026-05-04"); tip == nil {
		t.Fatalf("recent tip was pruned")
	}
}

func TestStartWithoutNotifierIsDisabled(t *testing.T) {
	s := NewTipScheduler(&MockTipSource{}, nil, nil, nil, 0)
	s.Start()
	s.Stop()
	s.Stop()
}
