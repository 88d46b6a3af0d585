package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"betterish-backend/internal/assistant/domain"
	"betterish-backend/internal/assistant/library"
	"betterish-backend/internal/assistant/repository"
	profiledomain "betterish-backend/internal/profile/domain"
	taskdomain "betterish-backend/internal/task/domain"
	taskusecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/ai"
	"betterish-backend/pkg/fuzzy"
	"betterish-backend/pkg/requeststate"
)

// Fallback values used when a generation fails or cannot be parsed
const (
	EmptyBreakdownStep  = "Just start somewhere."
	FailedBreakdownStep = "Could not break it down. Maybe just wing it?"
	FallbackSuggestion  = "Take a nap"
)

const (
	maxBreakdownSteps = 5
	suggestionCount   = 6
	tipDateLayout     = "2006-01-02"
)

const breakdownPrompt = `Break this task down into 3-5 extremely simple, tiny, actionable steps: "%s". Return ONLY a JSON array of strings.`

const extractPrompt = `Analyze advice and extract tasks. Text: "%s". Return JSON object with "mainTask" (string) and "subtasks" (string array).`

const analyzePrompt = `You are a "Dad Strategy Agent". Help prioritize this to-do list.

Tasks: %s

1. Identify up to 3 "High Priority" tasks. Look for:
   - Urgent words (Call, Schedule, Fix, Deadline, Bill)
   - Health/Kids/Safety items
   - Tasks that are getting old (> 3 days) but look important.

2. Identify up to 3 "Stale" tasks. Look for:
   - Tasks > 7 days old
   - Vague or non-essential items ("Research x", "Think about y")

Return JSON ONLY:
{
  "priorities": [{ "id": "...", "reason": "Brief reason why" }],
  "stale": [{ "id": "...", "reason": "Brief reason why" }]
}`

const suggestPrompt = `You are a "Dad Strategy Agent". The user has a child aged: %s. It is currently %s.

Generate 6 actionable tasks that make the dad look proactive and competent.

CRITICAL PRIORITY:
- 2 tasks MUST be specific "Unknown Unknowns" or safety milestones for this exact age (e.g., if 6mo, "Lower crib mattress"; if 3yo, "Check window locks").
- 1 task for "Partner Appreciation" (The mental load equalizer).
- 1 task for "Home Maintenance" (Seasonal/Safety).
- 2 tasks for "Dad Sanity" or bonding.

Context: %s.

Return ONLY a JSON array of 6 strings. Keep them short, punchy, and specific.`

const tipPrompt = `You are a wise, tired dad giving advice to another dad with a %s.

Generate ONE "Daily Intel" tip. Choose randomly from these styles:
- 70%% chance: Encouragement, wisdom, solidarity (e.g., "You're doing better than you think")
- 30%% chance: Practical reminder about tasks dads forget (e.g., "Check tire pressure", "Schedule that appointment")

Rules:
- Max 2 sentences
- Personal, direct tone (like texting a friend)
- No corporate speak or generic quotes
- Be specific to the exhaustion of parenting

Return ONLY the tip text.`

var errNotConfigured = errors.New("AI service not configured")

// ProfileLookup resolves the profile used to personalise generations
type ProfileLookup interface {
	GetProfile(userID string) (*profiledomain.UserProfile, error)
}

type pipeline struct {
	tasks     taskusecase.TaskUsecase
	profiles  ProfileLookup
	tipRepo   repository.TipRepository
	tracker   *requeststate.Tracker
	library   *library.Library
	generator ai.GenerationService
	now       func() time.Time
	pick      func(n int) int
}

// NewPipeline creates a new instance of pipeline
func NewPipeline(
	tasks taskusecase.TaskUsecase,
	profiles ProfileLookup,
	tipRepo repository.TipRepository,
	tracker *requeststate.Tracker,
	lib *library.Library,
) Pipeline {
	return &pipeline{
		tasks:    tasks,
		profiles: profiles,
		tipRepo:  tipRepo,
		tracker:  tracker,
		library:  lib,
		now:      time.Now,
		pick:     rand.IntN,
	}
}

func (p *pipeline) SetGenerationService(svc ai.GenerationService) {
	p.generator = svc
}

func (p *pipeline) generateJSON(ctx context.Context, prompt string) (string, error) {
	if p.generator == nil {
		return "", errNotConfigured
	}
	return p.generator.GenerateJSON(ctx, prompt)
}

func (p *pipeline) generateText(ctx context.Context, prompt string) (string, error) {
	if p.generator == nil {
		return "", errNotConfigured
	}
	return p.generator.GenerateText(ctx, prompt)
}

func (p *pipeline) BreakdownSteps(ctx context.Context, title string) []string {
	steps, err := p.breakdownSteps(ctx, title)
	if err != nil {
		log.Printf("[Pipeline] Breakdown of %q failed: %v", title, err)
	}
	return steps
}

// breakdownSteps always returns usable steps; err reports whether they are the fallback
func (p *pipeline) breakdownSteps(ctx context.Context, title string) ([]string, error) {
	text, err := p.generateJSON(ctx, fmt.Sprintf(breakdownPrompt, title))
	if err != nil {
		return []string{FailedBreakdownStep}, err
	}
	if strings.TrimSpace(text) == "" {
		return []string{EmptyBreakdownStep}, nil
	}
	steps, err := parseStringArray(text, maxBreakdownSteps)
	if err != nil {
		return []string{FailedBreakdownStep}, err
	}
	if len(steps) == 0 {
		return []string{FailedBreakdownStep}, errors.New("no usable steps in response")
	}
	return steps, nil
}

func (p *pipeline) Breakdown(ctx context.Context, userID, taskID string) (int, error) {
	// Claim the slot before reading so a finished breakdown is always visible below.
	done, err := p.tracker.Begin(requeststate.Key{UserID: userID, Action: requeststate.ActionBreakdown, Target: taskID})
	if err != nil {
		return 0, err
	}

	task, err := p.tasks.GetTask(userID, taskID)
	if err != nil {
		if errors.Is(err, taskdomain.ErrTaskNotFound) {
			done(requeststate.ErrSkipped)
			return 0, nil
		}
		done(err)
		return 0, err
	}
	if task.IsSubtask() || task.IsBrokenDown {
		done(requeststate.ErrSkipped)
		return 0, nil
	}

	steps, genErr := p.breakdownSteps(ctx, task.Title)
	if genErr != nil {
		log.Printf("[Pipeline] Breakdown of task %s fell back: %v", taskID, genErr)
	}
	n, err := p.tasks.AttachBreakdown(userID, taskID, steps)
	if err != nil {
		done(err)
		return 0, err
	}
	if n == 0 {
		// Broken down or deleted while the model was answering.
		done(requeststate.ErrSkipped)
		return 0, nil
	}
	done(genErr)
	return n, nil
}

func (p *pipeline) ExtractFromConversation(ctx context.Context, userID, advice, activeTaskID string, afterWrite ...taskusecase.AfterWrite) (int, error) {
	text, err := p.generateJSON(ctx, fmt.Sprintf(extractPrompt, advice))
	if err != nil {
		log.Printf("[Pipeline] Extraction failed for user %s: %v", userID, err)
		return 0, nil
	}
	title, subtasks, ok := parseExtraction(text)
	if !ok {
		log.Printf("[Pipeline] Extraction for user %s returned nothing usable", userID)
		return 0, nil
	}
	return p.tasks.AttachOrCreateProject(userID, activeTaskID, title, subtasks, afterWrite...)
}

func (p *pipeline) AnalyzePriorities(ctx context.Context, userID string) (*domain.PriorityAnalysis, error) {
	done, err := p.tracker.Begin(requeststate.Key{UserID: userID, Action: requeststate.ActionAnalyze})
	if err != nil {
		return nil, err
	}

	active, err := p.tasks.ActiveTasks(userID)
	if err != nil {
		done(err)
		return nil, err
	}
	result := &domain.PriorityAnalysis{Priorities: []domain.PriorityItem{}, Stale: []domain.PriorityItem{}}
	if len(active) == 0 {
		done(nil)
		return result, nil
	}

	now := p.now()
	byID := make(map[string]*taskdomain.Task, len(active))
	snapshots := make([]domain.TaskSnapshot, 0, len(active))
	for _, t := range active {
		byID[t.ID] = t
		snapshots = append(snapshots, domain.TaskSnapshot{ID: t.ID, Title: t.Title, AgeDays: t.AgeDays(now)})
	}
	payload, err := json.Marshal(snapshots)
	if err != nil {
		done(err)
		return nil, err
	}

	text, err := p.generateJSON(ctx, fmt.Sprintf(analyzePrompt, payload))
	if err != nil {
		log.Printf("[Pipeline] Priority analysis failed for user %s: %v", userID, err)
		done(err)
		return result, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(text)), &raw); err != nil {
		log.Printf("[Pipeline] Priority analysis for user %s is not a JSON object: %v", userID, err)
		done(err)
		return result, nil
	}

	seen := make(map[string]bool)
	result.Priorities = pickItems(raw["priorities"], byID, seen)
	result.Stale = pickItems(raw["stale"], byID, seen)
	done(nil)
	return result, nil
}

func (p *pipeline) ApplyPriorities(userID string, priorityIDs, staleIDs []string) (*taskusecase.TaskListView, error) {
	return p.tasks.ApplyPriorities(userID, priorityIDs, staleIDs)
}

func (p *pipeline) Suggestions(ctx context.Context, userID string) ([]string, error) {
	done, err := p.tracker.Begin(requeststate.Key{UserID: userID, Action: requeststate.ActionSuggest})
	if err != nil {
		return nil, err
	}

	active, err := p.tasks.ActiveTasks(userID)
	if err != nil {
		done(err)
		return nil, err
	}
	titles := make([]string, 0, len(active))
	for _, t := range active {
		titles = append(titles, t.Title)
	}
	listContext := "general"
	if len(titles) > 0 {
		listContext = "already on the list: " + strings.Join(titles, "; ")
	}

	prompt := fmt.Sprintf(suggestPrompt, p.kidStage(userID), Season(p.now()), listContext)
	ideas, genErr := p.suggestionIdeas(ctx, prompt)
	if genErr != nil {
		log.Printf("[Pipeline] Suggestions failed for user %s: %v", userID, genErr)
	}

	out := make([]string, 0, len(ideas))
	for _, idea := range ideas {
		if fuzzy.MatchAny(idea, titles) || fuzzy.MatchAny(idea, out) {
			continue
		}
		out = append(out, idea)
	}
	done(genErr)
	return out, nil
}

func (p *pipeline) suggestionIdeas(ctx context.Context, prompt string) ([]string, error) {
	text, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return []string{FallbackSuggestion}, err
	}
	ideas, err := parseStringArray(text, suggestionCount)
	if err != nil {
		return []string{FallbackSuggestion}, err
	}
	if len(ideas) == 0 {
		return []string{FallbackSuggestion}, nil
	}
	return ideas, nil
}

func (p *pipeline) DailyTip(ctx context.Context, userID string) (*domain.DailyTip, error) {
	now := p.now()
	date := now.Format(tipDateLayout)

	tip, err := p.tipRepo.FindByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily tip: %w", err)
	}
	if tip != nil {
		return tip, nil
	}

	stage := p.kidStage(userID)
	tip = &domain.DailyTip{UserID: userID, Date: date, KidStage: stage, CreatedAt: now}

	text, err := p.generateText(ctx, fmt.Sprintf(tipPrompt, stage))
	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"`))
	if err != nil || text == "" {
		if err != nil {
			log.Printf("[Pipeline] Daily tip generation failed for user %s: %v", userID, err)
		}
		tip.Text = p.backupTip()
	} else {
		tip.Text = text
		tip.Generated = true
	}

	if err := p.tipRepo.Save(tip); err != nil {
		return nil, fmt.Errorf("failed to save daily tip: %w", err)
	}
	// A concurrent request may have stored its tip first.
	stored, err := p.tipRepo.FindByDate(userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily tip: %w", err)
	}
	if stored == nil {
		return tip, nil
	}
	return stored, nil
}

func (p *pipeline) backupTip() string {
	tips := p.library.BackupTips
	return tips[p.pick(len(tips))]
}

func (p *pipeline) kidStage(userID string) string {
	if p.profiles == nil {
		return profiledomain.DefaultKidStage
	}
	profile, err := p.profiles.GetProfile(userID)
	if err != nil {
		log.Printf("[Pipeline] Failed to load profile for user %s: %v", userID, err)
		return profiledomain.DefaultKidStage
	}
	if profile == nil || profile.KidStage == "" {
		return profiledomain.DefaultKidStage
	}
	return profile.KidStage
}

func (p *pipeline) Library() *library.Library {
	return p.library
}

func (p *pipeline) Requests(userID string) []requeststate.Entry {
	return p.tracker.ForUser(userID)
}

// Season names the northern-hemisphere season of t
func Season(t time.Time) string {
	switch t.Month() {
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	case time.September, time.October, time.November:
		return "Fall"
	}
	return "Winter"
}

// parseStringArray parses a JSON array, coercing entries to trimmed strings.
// Empty entries are dropped and at most limit are kept.
func parseStringArray(text string, limit int) ([]string, error) {
	var raw []interface{}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return coerceStrings(raw, limit), nil
}

func coerceStrings(raw []interface{}, limit int) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s := strings.TrimSpace(stringify(v))
		if s == "" {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// parseExtraction reads {mainTask, subtasks}; ok is false without a usable subtask
func parseExtraction(text string) (title string, subtasks []string, ok bool) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(ai.ExtractJSON(text)), &raw); err != nil {
		return "", nil, false
	}
	list, isList := raw["subtasks"].([]interface{})
	if !isList {
		return "", nil, false
	}
	subtasks = coerceStrings(list, 0)
	if len(subtasks) == 0 {
		return "", nil, false
	}
	title = strings.TrimSpace(stringify(raw["mainTask"]))
	if title == "" {
		title = taskusecase.DefaultProjectTitle
	}
	return title, subtasks, true
}

// pickItems keeps entries naming a known, not yet seen task id
func pickItems(v interface{}, known map[string]*taskdomain.Task, seen map[string]bool) []domain.PriorityItem {
	out := []domain.PriorityItem{}
	list, _ := v.([]interface{})
	for _, entry := range list {
		var id, reason string
		switch e := entry.(type) {
		case map[string]interface{}:
			id = strings.TrimSpace(stringify(e["id"]))
			reason = strings.TrimSpace(stringify(e["reason"]))
		case string:
			id = strings.TrimSpace(e)
		}
		task, ok := known[id]
		if id == "" || !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.PriorityItem{ID: id, Title: task.Title, Reason: reason})
		if len(out) == domain.MaxPriorityItems {
			break
		}
	}
	return out
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
