package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"betterish-backend/internal/assistant/domain"
	"betterish-backend/internal/assistant/library"
	"betterish-backend/internal/assistant/repository"
	profiledomain "betterish-backend/internal/profile/domain"
	profilerepo "betterish-backend/internal/profile/repository"
	profileusecase "betterish-backend/internal/profile/usecase"
	statsdomain "betterish-backend/internal/stats/domain"
	statsrepo "betterish-backend/internal/stats/repository"
	taskdomain "betterish-backend/internal/task/domain"
	taskrepo "betterish-backend/internal/task/repository"
	taskusecase "betterish-backend/internal/task/usecase"
	"betterish-backend/pkg/ai"
	"betterish-backend/pkg/database"
	"betterish-backend/pkg/requeststate"
)

// MockGenerationService is a hand-written mock of ai.GenerationService.
type MockGenerationService struct {
	mu       sync.Mutex
	JSONFunc func(ctx context.Context, prompt string) (string, error)
	TextFunc func(ctx context.Context, prompt string) (string, error)
	prompts  []string
}

func (m *MockGenerationService) record(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
}

func (m *MockGenerationService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *MockGenerationService) Chat(ctx context.Context, system string, history []ai.ChatTurn, message string) (string, error) {
	return "", errors.New("not used")
}

func (m *MockGenerationService) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.record(prompt)
	return m.TextFunc(ctx, prompt)
}

func (m *MockGenerationService) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	m.record(prompt)
	return m.JSONFunc(ctx, prompt)
}

func respond(text string, err error) func(ctx context.Context, prompt string) (string, error) {
	return func(ctx context.Context, prompt string) (string, error) {
		return text, err
	}
}

type fixture struct {
	p        *pipeline
	tasks    taskusecase.TaskUsecase
	profiles profileusecase.ProfileUsecase
	gen      *MockGenerationService
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() = %v", err)
	}
	err = db.AutoMigrate(&taskdomain.Task{}, &statsdomain.UserStats{}, &profiledomain.UserProfile{}, &domain.DailyTip{})
	if err != nil {
		t.Fatalf("AutoMigrate() = %v", err)
	}

	tasks := taskusecase.NewTaskUsecase(taskrepo.NewGormTaskRepository(db), statsrepo.NewStatsRepository(db))
	profiles := profileusecase.NewProfileUsecase(profilerepo.NewProfileRepository(db))
	p := NewPipeline(tasks, profiles, repository.NewTipRepository(db), requeststate.NewTracker(), library.MustLoad()).(*pipeline)

	clock := time.Date(2026, 7, 14, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	p.pick = func(n int) int { return 2 }

	gen := &MockGenerationService{}
	p.SetGenerationService(gen)
	return &fixture{p: p, tasks: tasks, profiles: profiles, gen: gen, clock: &clock}
}

func (f *fixture) create(t *testing.T, title string) string {
	t.Helper()
	view, err := f.tasks.CreateTask("u1", title, taskdomain.CategoryQuick)
	if err != nil {
		t.Fatalf("CreateTask(%q) = %v", title, err)
	}
	return view.CreatedID
}

func TestBreakdownStepsParsing(t *testing.T) {
	cases := []struct {
		name string
		text string
		err  error
		want []string
	}{
		{"array", `["Find screwdriver", " Remove knob ", "", 3]`, nil, []string{"Find screwdriver", "Remove knob", "3"}},
		{"fenced", "```json\n[\"a\", \"b\"]\n```", nil, []string{"a", "b"}},
		{"capped", `["1","2","3","4","5","6","7"]`, nil, []string{"1", "2", "3", "4", "5"}},
		{"empty response", "  ", nil, []string{EmptyBreakdownStep}},
		{"object", `{"steps": ["a"]}`, nil, []string{FailedBreakdownStep}},
		{"prose", "Sure! Just do it.", nil, []string{FailedBreakdownStep}},
		{"only blanks", `["", "  "]`, nil, []string{FailedBreakdownStep}},
		{"error", "", errors.New("quota"), []string{FailedBreakdownStep}},
	}
	for _, tc := range cases {
		f := newFixture(t)
		f.gen.JSONFunc = respond(tc.text, tc.err)
		got := f.p.BreakdownSteps(context.Background(), "Fix doorknob")
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: BreakdownSteps() = %q, expected %q", tc.name, got, tc.want)
		}
	}
}

func TestBreakdownAttachesOnce(t *testing.T) {
	f := newFixture(t)
	f.gen.JSONFunc = respond(`["Find screwdriver", "Remove knob", "Buy new knob"]`, nil)
	id := f.create(t, "Fix doorknob")

	n, err := f.p.Breakdown(context.Background(), "u1", id)
	if err != nil || n != 3 {
		t.Fatalf("Breakdown() = %d, %v", n, err)
	}
	task, _ := f.tasks.GetTask("u1", id)
	if !task.IsBrokenDown || len(task.Subtasks) != 3 || task.Subtasks[0].Title != "Find screwdriver" {
		t.Fatalf("task after breakdown = %+v", task)
	}

	if n, _ := f.p.Breakdown(context.Background(), "u1", id); n != 0 {
		t.Fatalf("second Breakdown() = %d", n)
	}
	if n, _ := f.p.Breakdown(context.Background(), "u1", task.Subtasks[0].ID); n != 0 {
		t.Fatalf("Breakdown(subtask) = %d", n)
	}
	if n, err := f.p.Breakdown(context.Background(), "u1", "missing"); n != 0 || err != nil {
		t.Fatalf("Breakdown(missing) = %d, %v", n, err)
	}
	if f.gen.calls() != 1 {
		t.Fatalf("generator called %d times, expected 1", f.gen.calls())
	}

	key := requeststate.Key{UserID: "u1", Action: requeststate.ActionBreakdown, Target: id}
	if got := f.p.tracker.State(key); got != requeststate.Succeeded {
		t.Fatalf("breakdown state = %q", got)
	}
}

func TestBreakdownFallbackMarksFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.JSONFunc = respond("", errors.New("connection refused"))
	id := f.create(t, "Clean gutters")

	n, err := f.p.Breakdown(context.Background(), "u1", id)
	if err != nil || n != 1 {
		t.Fatalf("Breakdown() = %d, %v", n, err)
	}
	task, _ := f.tasks.GetTask("u1", id)
	if task.Subtasks[0].Title != FailedBreakdownStep {
		t.Fatalf("subtask = %q", task.Subtasks[0].Title)
	}
	key := requeststate.Key{UserID: "u1", Action: requeststate.ActionBreakdown, Target: id}
	if got := f.p.tracker.State(key); got != requeststate.Failed {
		t.Fatalf("breakdown state = %q, expected failed", got)
	}
}

func TestBreakdownRejectsConcurrentRequest(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.gen.JSONFunc = func(ctx context.Context, prompt string) (string, error) {
		close(started)
		<-release
		return `["one"]`, nil
	}
	id := f.create(t, "Assemble crib")

	result := make(chan int, 1)
	go func() {
		n, _ := f.p.Breakdown(context.Background(), "u1", id)
		result <- n
	}()
	<-started

	if _, err := f.p.Breakdown(context.Background(), "u1", id); !errors.Is(err, requeststate.ErrRequestInFlight) {
		t.Fatalf("concurrent Breakdown() = %v, expected ErrRequestInFlight", err)
	}
	close(release)
	if n := <-result; n != 1 {
		t.Fatalf("first Breakdown() = %d", n)
	}
}

// hookedTasks runs onGet once, just before the first GetTask.
type hookedTasks struct {
	taskusecase.TaskUsecase
	onGet func()
}

func (h *hookedTasks) GetTask(userID, taskID string) (*taskdomain.Task, error) {
	if h.onGet != nil {
		onGet := h.onGet
		h.onGet = nil
		onGet()
	}
	return h.TaskUsecase.GetTask(userID, taskID)
}

func TestBreakdownRacingRequestAttachesOneBatch(t *testing.T) {
	f := newFixture(t)
	f.gen.JSONFunc = respond(`["Measure wall", "Buy anchors"]`, nil)
	id := f.create(t, "Mount TV")

	hooked := &hookedTasks{TaskUsecase: f.tasks}
	f.p.tasks = hooked
	var racingErr error
	hooked.onGet = func() {
		_, racingErr = f.p.Breakdown(context.Background(), "u1", id)
	}

	n, err := f.p.Breakdown(context.Background(), "u1", id)
	if err != nil || n != 2 {
		t.Fatalf("Breakdown() = %d, %v", n, err)
	}
	if !errors.Is(racingErr, requeststate.ErrRequestInFlight) {
		t.Fatalf("racing Breakdown() = %v, expected ErrRequestInFlight", racingErr)
	}
	task, _ := f.tasks.GetTask("u1", id)
	if len(task.Subtasks) != 2 {
		t.Fatalf("task has %d subtasks, expected one batch of 2", len(task.Subtasks))
	}
}

func TestBreakdownSkipsTaskBrokenDownMeanwhile(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "Plan birthday")
	f.gen.JSONFunc = func(ctx context.Context, prompt string) (string, error) {
		// Chat conversion attaches steps while the model is answering.
		if _, err := f.tasks.AttachSubtasks("u1", id, []string{"Book venue"}); err != nil {
			t.Errorf("AttachSubtasks() = %v", err)
		}
		return `["Order cake", "Send invites"]`, nil
	}

	n, err := f.p.Breakdown(context.Background(), "u1", id)
	if err != nil || n != 0 {
		t.Fatalf("Breakdown() = %d, %v, expected a no-op", n, err)
	}
	task, _ := f.tasks.GetTask("u1", id)
	if len(task.Subtasks) != 1 || task.Subtasks[0].Title != "Book venue" {
		t.Fatalf("subtasks = %+v", task.Subtasks)
	}
	key := requeststate.Key{UserID: "u1", Action: requeststate.ActionBreakdown, Target: id}
	if got := f.p.tracker.State(key); got != requeststate.Idle {
		t.Fatalf("breakdown state = %q, expected idle", got)
	}
}

func TestExtractFromConversation(t *testing.T) {
	f := newFixture(t)
	target := f.create(t, "Plan birthday")

	f.gen.JSONFunc = respond(`{"mainTask": "Birthday", "subtasks": ["Book venue", " ", "Order cake"]}`, nil)
	n, err := f.p.ExtractFromConversation(context.Background(), "u1", "advice", target)
	if err != nil || n != 2 {
		t.Fatalf("ExtractFromConversation(active) = %d, %v", n, err)
	}
	task, _ := f.tasks.GetTask("u1", target)
	if len(task.Subtasks) != 2 || task.Title != "Plan birthday" {
		t.Fatalf("target after extraction = %+v", task)
	}

	f.gen.JSONFunc = respond("```json\n{\"subtasks\": [\"Call plumber\"]}\n```", nil)
	n, _ = f.p.ExtractFromConversation(context.Background(), "u1", "advice", "")
	if n != 1 {
		t.Fatalf("ExtractFromConversation(no context) = %d", n)
	}
	f.gen.JSONFunc = respond(`{"mainTask": "Garage", "subtasks": ["Sweep"]}`, nil)
	n, _ = f.p.ExtractFromConversation(context.Background(), "u1", "advice", "deleted-task")
	if n != 1 {
		t.Fatalf("ExtractFromConversation(stale context) = %d", n)
	}

	view, _ := f.tasks.ListTasks("u1")
	titles := map[string]bool{}
	for _, task := range view.Tasks {
		titles[task.Title] = true
	}
	if len(view.Tasks) != 3 || !titles[taskusecase.DefaultProjectTitle] || !titles["Garage"] {
		t.Fatalf("titles after extraction = %v", titles)
	}

	for name, text := range map[string]string{
		"array":       `["a", "b"]`,
		"no subtasks": `{"mainTask": "x", "subtasks": []}`,
		"wrong type":  `{"mainTask": "x", "subtasks": "a, b"}`,
		"prose":       "nothing here",
	} {
		f.gen.JSONFunc = respond(text, nil)
		if n, err := f.p.ExtractFromConversation(context.Background(), "u1", "advice", ""); n != 0 || err != nil {
			t.Fatalf("%s: ExtractFromConversation() = %d, %v", name, n, err)
		}
	}
	f.gen.JSONFunc = respond("", errors.New("timeout"))
	if n, err := f.p.ExtractFromConversation(context.Background(), "u1", "advice", ""); n != 0 || err != nil {
		t.Fatalf("failed generation: ExtractFromConversation() = %d, %v", n, err)
	}
}

func TestAnalyzePrioritiesWithoutTasksSkipsCall(t *testing.T) {
	f := newFixture(t)
	f.gen.JSONFunc = respond(`{}`, nil)

	result, err := f.p.AnalyzePriorities(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AnalyzePriorities() = %v", err)
	}
	if len(result.Priorities) != 0 || len(result.Stale) != 0 || result.Priorities == nil {
		t.Fatalf("AnalyzePriorities() = %+v", result)
	}
	if f.gen.calls() != 0 {
		t.Fatalf("generator called without active tasks")
	}
}

func TestAnalyzePrioritiesFiltersIDs(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "Call pediatrician")
	b := f.create(t, "Pay water bill")
	c := f.create(t, "Fix smoke detector")
	d := f.create(t, "Schedule dentist")
	e := f.create(t, "Research strollers")

	f.gen.JSONFunc = respond(`{
		"priorities": [
			{"id": "`+a+`", "reason": "Health"},
			{"id": "`+a+`", "reason": "dup"},
			{"id": "ghost", "reason": "unknown"},
			{"id": "", "reason": "empty"},
			{"id": "`+b+`"},
			{"id": "`+c+`", "reason": "Safety"},
			{"id": "`+d+`", "reason": "over the cap"}
		],
		"stale": [{"id": "`+b+`", "reason": "already prioritised"}, {"id": "`+e+`", "reason": "Vague"}]
	}`, nil)

	result, err := f.p.AnalyzePriorities(context.Background(), "u1")
	if err != nil {
		t.Fatalf("AnalyzePriorities() = %v", err)
	}
	var got []string
	for _, item := range result.Priorities {
		got = append(got, item.ID)
	}
	if !reflect.DeepEqual(got, []string{a, b, c}) {
		t.Fatalf("priorities = %v", got)
	}
	if result.Priorities[0].Reason != "Health" || result.Priorities[0].Title != "Call pediatrician" {
		t.Fatalf("first priority = %+v", result.Priorities[0])
	}
	if len(result.Stale) != 1 || result.Stale[0].ID != e {
		t.Fatalf("stale = %+v", result.Stale)
	}
	if !strings.Contains(f.gen.prompts[0], `"ageDays":`) {
		t.Fatalf("prompt did not carry task ages: %s", f.gen.prompts[0])
	}
}

func TestAnalyzePrioritiesFailure(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Mow lawn")

	for name, gen := range map[string]func(ctx context.Context, prompt string) (string, error){
		"error": respond("", errors.New("503")),
		"prose": respond("I think you should mow the lawn.", nil),
	} {
		f.gen.JSONFunc = gen
		result, err := f.p.AnalyzePriorities(context.Background(), "u1")
		if err != nil || len(result.Priorities) != 0 || len(result.Stale) != 0 {
			t.Fatalf("%s: AnalyzePriorities() = %+v, %v", name, result, err)
		}
	}
}

func TestSuggestionsFilterExistingTasks(t *testing.T) {
	f := newFixture(t)
	f.create(t, "Check smoke detectors")
	stage := "Toddler (1-3yr - The Chaos)"
	f.profiles.UpdateProfile("u1", profileusecase.UpdateProfileRequest{KidStage: &stage})

	f.gen.JSONFunc = respond(`["Check smoke detector", "Plan date night", "plan date night!", "Call mom", "", "Anchor bookshelf"]`, nil)
	got, err := f.p.Suggestions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Suggestions() = %v", err)
	}
	want := []string{"Plan date night", "Call mom", "Anchor bookshelf"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Suggestions() = %q, expected %q", got, want)
	}
	prompt := f.gen.prompts[0]
	if !strings.Contains(prompt, stage) || !strings.Contains(prompt, "Summer") || !strings.Contains(prompt, "Check smoke detectors") {
		t.Fatalf("prompt missing context: %s", prompt)
	}
}

func TestSuggestionsFallback(t *testing.T) {
	f := newFixture(t)
	f.gen.JSONFunc = respond("", errors.New("quota exceeded"))

	got, err := f.p.Suggestions(context.Background(), "u1")
	if err != nil || !reflect.DeepEqual(got, []string{FallbackSuggestion}) {
		t.Fatalf("Suggestions() = %q, %v", got, err)
	}
}

func TestDailyTipOncePerDay(t *testing.T) {
	f := newFixture(t)
	f.gen.TextFunc = respond(`"Hang in there. Bedtime is coming."`, nil)

	tip, err := f.p.DailyTip(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DailyTip() = %v", err)
	}
	if tip.Text != "Hang in there. Bedtime is coming." || !tip.Generated || tip.Date != "2026-07-14" {
		t.Fatalf("DailyTip() = %+v", tip)
	}
	if tip.KidStage != profiledomain.DefaultKidStage {
		t.Fatalf("kid stage = %q", tip.KidStage)
	}

	again, _ := f.p.DailyTip(context.Background(), "u1")
	if again.Text != tip.Text || f.gen.calls() != 1 {
		t.Fatalf("second DailyTip() = %+v after %d calls", again, f.gen.calls())
	}

	*f.clock = f.clock.Add(24 * time.Hour)
	f.p.DailyTip(context.Background(), "u1")
	if f.gen.calls() != 2 {
		t.Fatalf("next day did not generate a new tip")
	}
}

func TestDailyTipFallsBackToBackupTip(t *testing.T) {
	f := newFixture(t)
	f.gen.TextFunc = respond("", errors.New("offline"))

	tip, err := f.p.DailyTip(context.Background(), "u1")
	if err != nil {
		t.Fatalf("DailyTip() = %v", err)
	}
	if tip.Text != f.p.library.BackupTips[2] || tip.Generated {
		t.Fatalf("DailyTip() = %+v", tip)
	}
}

func TestSeason(t *testing.T) {
	cases := map[time.Month]string{
		time.January:   "Winter",
		time.March:     "Spring",
		time.June:      "Summer",
		time.September: "Fall",
		time.December:  "Winter",
	}
	for month, want := range cases {
		if got := Season(time.Date(2026, month, 10, 0, 0, 0, 0, time.UTC)); got != want {
			t.Fatalf("Season(%s) = %q, expected %q", month, got, want)
		}
	}
}
