package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"triage-backend/internal/llm"
	"triage-backend/internal/notices"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/telemetry"
)

// Service creates and drives analysis sessions. Start validates inputs
// synchronously and returns immediately; orchestration runs on a
// background goroutine and is observed through the registry and the repo.
type Service struct {
	Registry *Registry
	Repo     Repo
	Prompts  prompts.PromptsRepo
	Notices  notices.NoticesRepo
	Client   llm.Client
	Prices   pricing.Table
	Provider string
	Retry    RetryPolicy
}

// Progress is the caller-facing view of a session's advancement.
// Cancelled turns true as soon as cancellation is requested, while Status
// stays running until the in-flight batch drains.
type Progress struct {
	SessionID string
	Processed int
	Total     int
	Status    Status
	Cancelled bool
}

// Start validates the prompt and notice set, persists the initial session
// record, registers the session and launches orchestration. Validation
// failures return before anything is registered.
func (s *Service) Start(ctx context.Context, promptID string, noticeIDs []string, cfg Config) (Session, error) {
	if s.Client == nil {
		return Session{}, errors.New("llm client is not configured")
	}
	if strings.TrimSpace(promptID) == "" {
		return Session{}, fmt.Errorf("%w: promptId is required", ErrInvalidInput)
	}

	p, err := s.Prompts.GetByID(ctx, promptID)
	if err != nil {
		if errors.Is(err, prompts.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: unknown prompt %s", ErrInvalidInput, promptID)
		}
		return Session{}, fmt.Errorf("prompt lookup: %w", err)
	}

	items, err := s.Notices.GetByIDs(ctx, noticeIDs)
	if err != nil {
		return Session{}, fmt.Errorf("notices lookup: %w", err)
	}
	if len(items) != len(noticeIDs) {
		return Session{}, fmt.Errorf("%w: %d of %d notices not found", ErrInvalidInput, len(noticeIDs)-len(items), len(noticeIDs))
	}

	cfg = cfg.withDefaults()
	if cfg.Provider == "" {
		cfg.Provider = s.Provider
	}

	sess := Session{
		ID:         uuid.NewString(),
		PromptID:   p.ID,
		PromptName: p.Name,
		Config:     cfg,
		TotalItems: len(items),
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	if err := s.Repo.CreateSession(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	s.Registry.Register(sess.ID, sess.TotalItems)
	metrics.IncSessionStarted()
	telemetry.Info("session.start", map[string]any{
		"session_id":  sess.ID,
		"prompt_id":   p.ID,
		"provider":    cfg.Provider,
		"model":       cfg.Model,
		"total_items": sess.TotalItems,
		"parallelism": cfg.Parallelism,
	})

	go s.completeAsync(sess, p, items)

	return sess, nil
}

// completeAsync runs the orchestration to a terminal status. It owns the
// registry entry: whatever happens, the session is finalized and removed.
func (s *Service) completeAsync(sess Session, p prompts.Prompt, items []notices.Notice) {
	ctx := context.Background()
	defer s.Registry.Unregister(sess.ID)
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("session.panic", map[string]any{
				"session_id": sess.ID,
				"panic":      fmt.Sprint(r),
			})
			metrics.IncSessionFailed()
			_ = s.Repo.FinalizeSession(ctx, sess.ID, FinalStats{
				Status:  StatusFailed,
				EndedAt: time.Now().UTC(),
			})
		}
	}()

	cfg := sess.Config
	exec := newRetryingClient(s.Client, s.Retry, cfg.Timeout)

	var running struct {
		processed int
		correct   int
		errors    int
	}
	sink := func(batch []Result) {
		for _, res := range batch {
			running.processed++
			if res.Correct != nil && *res.Correct {
				running.correct++
			}
			if res.ErrorMessage != nil {
				running.errors++
			}
		}
		if !cfg.PersistResults {
			return
		}
		if err := s.Repo.AppendResults(ctx, batch); err != nil {
			telemetry.Error("session.persist_batch", map[string]any{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
		if err := s.Repo.UpdateCounters(ctx, sess.ID, running.processed, running.correct, running.errors); err != nil {
			telemetry.Error("session.update_counters", map[string]any{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}

	results, cancelled := runBatches(ctx, s.Registry, sess.ID, items, p, cfg, exec, s.Prices, sink)

	final := summarize(results, sess.StartedAt)
	if cancelled {
		final.Status = StatusCancelled
		metrics.IncSessionCancelled()
	} else {
		final.Status = StatusCompleted
		metrics.IncSessionCompleted()
	}

	if err := s.Repo.FinalizeSession(ctx, sess.ID, final); err != nil {
		telemetry.Error("session.finalize", map[string]any{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
	}

	telemetry.Info("session.done", map[string]any{
		"session_id":   sess.ID,
		"status":       string(final.Status),
		"processed":    final.Processed,
		"correct":      final.Correct,
		"errors":       final.Errors,
		"accuracy_pct": final.AccuracyPct,
		"total_cost":   final.TotalCost,
		"total_tokens": final.TotalTokens,
	})
}

// summarize folds per-item results into the terminal statistics.
func summarize(results []Result, startedAt time.Time) FinalStats {
	final := FinalStats{
		Processed: len(results),
		EndedAt:   time.Now().UTC(),
	}
	for _, res := range results {
		if res.Correct != nil && *res.Correct {
			final.Correct++
		}
		if res.ErrorMessage != nil {
			final.Errors++
		}
		final.TotalCost += res.Cost
		final.TotalTokens += int64(res.TokensInput + res.TokensOutput)
	}
	if final.Processed > 0 {
		final.AccuracyPct = float64(final.Correct) / float64(final.Processed) * 100
	}
	final.TotalTimeSec = final.EndedAt.Sub(startedAt).Seconds()
	return final
}

// Cancel flags a running session for cancellation. Returns false when the
// session is not active, including sessions that already finished.
func (s *Service) Cancel(id string) bool {
	ok := s.Registry.Cancel(id)
	telemetry.Info("session.cancel", map[string]any{
		"session_id": id,
		"accepted":   ok,
	})
	return ok
}

// GetProgress reports processed/total/status. Active sessions answer from
// the registry; finished ones fall back to the persisted record.
func (s *Service) GetProgress(ctx context.Context, id string) (Progress, error) {
	if snap, ok := s.Registry.Progress(id); ok {
		return Progress{
			SessionID: id,
			Processed: snap.Processed,
			Total:     snap.Total,
			Status:    StatusRunning,
			Cancelled: snap.Cancelled,
		}, nil
	}

	sess, err := s.Repo.GetSession(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		SessionID: id,
		Processed: sess.ProcessedCount,
		Total:     sess.TotalItems,
		Status:    sess.Status,
		Cancelled: sess.Status == StatusCancelled,
	}, nil
}

// Get returns the persisted session record.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	if strings.TrimSpace(id) == "" {
		return Session{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.Repo.GetSession(ctx, id)
}

// List returns persisted sessions.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Session, error) {
	return s.Repo.ListSessions(ctx, limit, offset)
}

// Results returns the persisted per-item results of a session.
func (s *Service) Results(ctx context.Context, id string) ([]Result, error) {
	if _, err := s.Repo.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.ListResults(ctx, id)
}
