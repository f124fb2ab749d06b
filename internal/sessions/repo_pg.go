package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = `session_id, prompt_id, prompt_name, provider, model, temperature,
max_tokens, timeout_seconds, parallelism, batch_delay_ms, total_items,
processed_count, correct_count, error_count, accuracy_pct, total_time_sec,
total_cost, total_tokens, status, started_at, ended_at`

// CreateSession inserts the initial session record.
func (r *PGRepo) CreateSession(ctx context.Context, s Session) error {
	const query = `
INSERT INTO analysis_sessions (
    session_id,
    prompt_id,
    prompt_name,
    provider,
    model,
    temperature,
    max_tokens,
    timeout_seconds,
    parallelism,
    batch_delay_ms,
    total_items,
    status,
    started_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		s.ID,
		s.PromptID,
		s.PromptName,
		s.Config.Provider,
		s.Config.Model,
		s.Config.Temperature,
		s.Config.MaxTokens,
		int(s.Config.Timeout/time.Second),
		s.Config.Parallelism,
		s.Config.BatchDelay.Milliseconds(),
		s.TotalItems,
		string(s.Status),
		s.StartedAt,
	)
	return err
}

// AppendResults inserts each result as its own statement. The orchestrator
// calls this once per completed batch; individual inserts keep a partial
// write from losing the whole batch.
func (r *PGRepo) AppendResults(ctx context.Context, results []Result) error {
	const query = `
INSERT INTO analysis_results (
    id,
    session_id,
    notice_id,
    prompt_id,
    label,
    unrecognized,
    ground_truth,
    correct,
    processing_sec,
    tokens_input,
    tokens_output,
    cost,
    raw_prompt,
    raw_response,
    error_message,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	for _, res := range results {
		var label sql.NullString
		if res.ErrorMessage == nil {
			label = sql.NullString{String: res.Label, Valid: true}
		}
		var groundTruth sql.NullString
		if res.GroundTruth != nil {
			groundTruth = sql.NullString{String: *res.GroundTruth, Valid: true}
		}
		var correct sql.NullBool
		if res.Correct != nil {
			correct = sql.NullBool{Bool: *res.Correct, Valid: true}
		}
		var errMsg sql.NullString
		if res.ErrorMessage != nil {
			errMsg = sql.NullString{String: *res.ErrorMessage, Valid: true}
		}

		_, err := r.DB.ExecContext(
			ctx,
			query,
			res.ID,
			res.SessionID,
			res.NoticeID,
			res.PromptID,
			label,
			res.Unrecognized,
			groundTruth,
			correct,
			res.ProcessingSec,
			res.TokensInput,
			res.TokensOutput,
			res.Cost,
			res.RawPrompt,
			res.RawResponse,
			errMsg,
			res.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append result id=%s: %w", res.ID, err)
		}
	}
	return nil
}

// UpdateCounters writes running progress counters.
func (r *PGRepo) UpdateCounters(ctx context.Context, sessionID string, processed, correct, errorCount int) error {
	const query = `
UPDATE analysis_sessions
SET processed_count = $2, correct_count = $3, error_count = $4
WHERE session_id = $1`

	_, err := r.DB.ExecContext(ctx, query, sessionID, processed, correct, errorCount)
	return err
}

// FinalizeSession applies the terminal statistics. The status guard keeps
// a terminal row from being rewritten.
func (r *PGRepo) FinalizeSession(ctx context.Context, sessionID string, final FinalStats) error {
	const query = `
UPDATE analysis_sessions
SET processed_count = $2,
    correct_count = $3,
    error_count = $4,
    accuracy_pct = $5,
    total_time_sec = $6,
    total_cost = $7,
    total_tokens = $8,
    status = $9,
    ended_at = $10
WHERE session_id = $1 AND status = 'running'`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		sessionID,
		final.Processed,
		final.Correct,
		final.Errors,
		final.AccuracyPct,
		final.TotalTimeSec,
		final.TotalCost,
		final.TotalTokens,
		string(final.Status),
		final.EndedAt,
	)
	return err
}

// GetSession returns a session by ID.
func (r *PGRepo) GetSession(ctx context.Context, sessionID string) (Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM analysis_sessions WHERE session_id = $1`, sessionColumns)

	row := r.DB.QueryRowContext(ctx, query, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// ListSessions returns sessions ordered by start time, newest first.
func (r *PGRepo) ListSessions(ctx context.Context, limit, offset int) ([]Session, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM analysis_sessions
ORDER BY started_at DESC
LIMIT $1 OFFSET $2`, sessionColumns)

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListResults returns the results of a session in insertion order.
func (r *PGRepo) ListResults(ctx context.Context, sessionID string) ([]Result, error) {
	const query = `
SELECT id, session_id, notice_id, prompt_id, label, unrecognized, ground_truth,
       correct, processing_sec, tokens_input, tokens_output, cost, raw_prompt,
       raw_response, error_message, created_at
FROM analysis_results
WHERE session_id = $1
ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var res Result
		var label, groundTruth, errMsg sql.NullString
		var correct sql.NullBool
		err := rows.Scan(
			&res.ID,
			&res.SessionID,
			&res.NoticeID,
			&res.PromptID,
			&label,
			&res.Unrecognized,
			&groundTruth,
			&correct,
			&res.ProcessingSec,
			&res.TokensInput,
			&res.TokensOutput,
			&res.Cost,
			&res.RawPrompt,
			&res.RawResponse,
			&errMsg,
			&res.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		res.Label = label.String
		if groundTruth.Valid {
			s := groundTruth.String
			res.GroundTruth = &s
		}
		if correct.Valid {
			b := correct.Bool
			res.Correct = &b
		}
		if errMsg.Valid {
			s := errMsg.String
			res.ErrorMessage = &s
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var status string
	var timeoutSeconds int
	var batchDelayMs int64
	var endedAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.PromptID,
		&s.PromptName,
		&s.Config.Provider,
		&s.Config.Model,
		&s.Config.Temperature,
		&s.Config.MaxTokens,
		&timeoutSeconds,
		&s.Config.Parallelism,
		&batchDelayMs,
		&s.TotalItems,
		&s.ProcessedCount,
		&s.CorrectCount,
		&s.ErrorCount,
		&s.AccuracyPct,
		&s.TotalTimeSec,
		&s.TotalCost,
		&s.TotalTokens,
		&status,
		&s.StartedAt,
		&endedAt,
	)
	if err != nil {
		return Session{}, err
	}
	s.Config.Timeout = time.Duration(timeoutSeconds) * time.Second
	s.Config.BatchDelay = time.Duration(batchDelayMs) * time.Millisecond
	s.Status = Status(status)
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return s, nil
}
