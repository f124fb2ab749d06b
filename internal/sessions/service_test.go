package sessions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"triage-backend/internal/llm"
	"triage-backend/internal/notices"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
)

type staticClient struct {
	out llm.Output
	err error
}

func (c *staticClient) Classify(ctx context.Context, in llm.Input) (llm.Output, error) {
	return c.out, c.err
}

type gatedClient struct {
	started chan struct{}
	release chan struct{}
}

func (c *gatedClient) Classify(ctx context.Context, in llm.Input) (llm.Output, error) {
	c.started <- struct{}{}
	select {
	case <-c.release:
	case <-ctx.Done():
		return llm.Output{}, ctx.Err()
	}
	return llm.Output{RawText: "RENUNCIAR PRAZO", TokensInput: 10, TokensOutput: 5}, nil
}

func newTestService(t *testing.T, client llm.Client, noticeCount int) (*Service, *MemoryRepo, []string) {
	t.Helper()

	promptRepo := prompts.NewMemoryRepo()
	if err := promptRepo.Create(context.Background(), prompts.Prompt{
		ID:        "p1",
		Name:      "triagem v1",
		Content:   "Classifique: {CONTEXTO}",
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed prompt: %v", err)
	}

	noticeRepo := notices.NewMemoryRepo()
	ids := make([]string, 0, noticeCount)
	for i := 1; i <= noticeCount; i++ {
		label := "RENUNCIAR PRAZO"
		id := fmt.Sprintf("n%d", i)
		if err := noticeRepo.Create(context.Background(), notices.Notice{
			ID:          id,
			Context:     fmt.Sprintf("intimação %d", i),
			ManualLabel: &label,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed notice: %v", err)
		}
		ids = append(ids, id)
	}

	repo := NewMemoryRepo()
	svc := &Service{
		Registry: NewRegistry(),
		Repo:     repo,
		Prompts:  promptRepo,
		Notices:  noticeRepo,
		Client:   client,
		Prices:   pricing.Default(),
		Provider: "openai",
		Retry:    RetryPolicy{MaxRetries: 1, BaseDelay: time.Millisecond},
	}
	return svc, repo, ids
}

func waitForTerminal(t *testing.T, repo *MemoryRepo, id string) Session {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sess, err := repo.GetSession(context.Background(), id)
		if err == nil && sess.Status.Terminal() {
			return sess
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session did not reach a terminal status")
	return Session{}
}

func TestServiceStartUnknownPromptFails(t *testing.T) {
	svc, repo, ids := newTestService(t, &staticClient{}, 2)

	_, err := svc.Start(context.Background(), "nope", ids, Config{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if got, _ := repo.ListSessions(context.Background(), 10, 0); len(got) != 0 {
		t.Fatal("no session may be created on validation failure")
	}
}

func TestServiceStartMissingNoticesFails(t *testing.T) {
	svc, _, ids := newTestService(t, &staticClient{}, 2)

	_, err := svc.Start(context.Background(), "p1", append(ids, "ghost"), Config{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if svc.Registry.IsCancelled("ghost") {
		t.Fatal("registry must stay untouched")
	}
}

func TestServiceFullRunCompletes(t *testing.T) {
	client := &staticClient{out: llm.Output{RawText: "RENUNCIAR PRAZO", TokensInput: 100, TokensOutput: 10}}
	svc, repo, ids := newTestService(t, client, 10)

	sess, err := svc.Start(context.Background(), "p1", ids, Config{
		Parallelism:     3,
		PersistResults:  true,
		ComputeAccuracy: true,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	final := waitForTerminal(t, repo, sess.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if final.ProcessedCount != 10 || final.CorrectCount != 10 || final.ErrorCount != 0 {
		t.Fatalf("unexpected counters: %+v", final)
	}
	if final.AccuracyPct != 100 {
		t.Fatalf("expected 100%% accuracy, got %f", final.AccuracyPct)
	}
	if final.TotalTokens != 10*110 {
		t.Fatalf("unexpected total tokens: %d", final.TotalTokens)
	}
	if final.TotalCost <= 0 {
		t.Fatal("expected positive total cost")
	}
	if final.EndedAt == nil {
		t.Fatal("terminal session must carry ended_at")
	}

	results, err := repo.ListResults(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 persisted results, got %d", len(results))
	}

	if _, ok := svc.Registry.Progress(sess.ID); ok {
		t.Fatal("finished session must leave the registry")
	}
	if svc.Cancel(sess.ID) {
		t.Fatal("cancel after completion must report not found")
	}
}

func TestServiceCancelMidRun(t *testing.T) {
	client := &gatedClient{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
	svc, repo, ids := newTestService(t, client, 4)

	sess, err := svc.Start(context.Background(), "p1", ids, Config{
		Parallelism:     2,
		PersistResults:  true,
		ComputeAccuracy: true,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Wait until the first batch is in flight, then cancel and let it finish.
	for i := 0; i < 2; i++ {
		select {
		case <-client.started:
		case <-time.After(5 * time.Second):
			t.Fatal("first batch never started")
		}
	}
	if !svc.Cancel(sess.ID) {
		t.Fatal("cancel of running session must succeed")
	}

	// The flag is visible while the in-flight batch drains.
	p, err := svc.GetProgress(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Status != StatusRunning || !p.Cancelled {
		t.Fatalf("expected running with pending cancellation, got %+v", p)
	}

	close(client.release)

	final := waitForTerminal(t, repo, sess.ID)
	if final.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", final.Status)
	}

	p, err = svc.GetProgress(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Status != StatusCancelled || !p.Cancelled {
		t.Fatalf("terminal progress must report the cancellation, got %+v", p)
	}
	if final.ProcessedCount != 2 {
		t.Fatalf("the in-flight batch must finish and nothing more, got %d", final.ProcessedCount)
	}

	results, _ := repo.ListResults(context.Background(), sess.ID)
	if len(results) != 2 {
		t.Fatalf("expected the first batch persisted, got %d", len(results))
	}
}

func TestServiceAllItemsFailStillCompletes(t *testing.T) {
	client := &staticClient{err: llm.NewFatalError("openai", 400, "bad request", nil)}
	svc, repo, ids := newTestService(t, client, 5)

	sess, err := svc.Start(context.Background(), "p1", ids, Config{Parallelism: 2, PersistResults: true, ComputeAccuracy: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	final := waitForTerminal(t, repo, sess.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("item failures never fail the session, got %s", final.Status)
	}
	if final.ProcessedCount != 5 || final.ErrorCount != 5 || final.CorrectCount != 0 {
		t.Fatalf("unexpected counters: %+v", final)
	}
	if final.AccuracyPct != 0 {
		t.Fatalf("expected 0%% accuracy, got %f", final.AccuracyPct)
	}
}

func TestServicePersistDisabledSkipsResults(t *testing.T) {
	client := &staticClient{out: llm.Output{RawText: "OCULTAR"}}
	svc, repo, ids := newTestService(t, client, 3)

	sess, err := svc.Start(context.Background(), "p1", ids, Config{Parallelism: 3})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	final := waitForTerminal(t, repo, sess.ID)
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", final.Status)
	}
	if results, _ := repo.ListResults(context.Background(), sess.ID); len(results) != 0 {
		t.Fatalf("persistence disabled, got %d stored results", len(results))
	}
	if final.ProcessedCount != 3 {
		t.Fatalf("final stats must still be written, got %+v", final)
	}
}

func TestServiceProgressFallsBackToRepo(t *testing.T) {
	client := &staticClient{out: llm.Output{RawText: "OCULTAR"}}
	svc, repo, ids := newTestService(t, client, 2)

	sess, err := svc.Start(context.Background(), "p1", ids, Config{Parallelism: 2, PersistResults: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForTerminal(t, repo, sess.ID)

	p, err := svc.GetProgress(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Status != StatusCompleted || p.Processed != 2 || p.Total != 2 {
		t.Fatalf("unexpected progress: %+v", p)
	}

	if _, err := svc.GetProgress(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
