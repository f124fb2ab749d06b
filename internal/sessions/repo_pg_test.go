package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	sess := Session{
		ID:         "s1",
		PromptID:   "p1",
		PromptName: "triagem v1",
		Config: Config{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   200,
			Timeout:     120 * time.Second,
			Parallelism: 3,
			BatchDelay:  500 * time.Millisecond,
		},
		TotalItems: 10,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analysis_sessions").
		WithArgs(
			sess.ID,
			sess.PromptID,
			sess.PromptName,
			"openai",
			"gpt-4o-mini",
			0.2,
			200,
			120,
			3,
			int64(500),
			10,
			"running",
			sess.StartedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAppendResultsOneStatementPerRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	correct := true
	truth := "OCULTAR"
	errMsg := "openai: rate limited (status 429)"
	now := time.Now().UTC()

	results := []Result{
		{ID: "r1", SessionID: "s1", NoticeID: "n1", PromptID: "p1", Label: "OCULTAR", GroundTruth: &truth, Correct: &correct, CreatedAt: now},
		{ID: "r2", SessionID: "s1", NoticeID: "n2", PromptID: "p1", ErrorMessage: &errMsg, CreatedAt: now},
	}

	mock.ExpectExec("INSERT INTO analysis_results").
		WithArgs("r1", "s1", "n1", "p1", sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(),
			0.0, 0, 0, 0.0, "", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO analysis_results").
		WithArgs("r2", "s1", "n2", "p1", sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(),
			0.0, 0, 0, 0.0, "", "", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.AppendResults(context.Background(), results); err != nil {
		t.Fatalf("AppendResults: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFinalizeGuardsTerminalRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	ended := time.Now().UTC()

	mock.ExpectExec("UPDATE analysis_sessions").
		WithArgs("s1", 10, 8, 1, 80.0, 12.5, 0.0123, int64(4200), "completed", ended).
		WillReturnResult(sqlmock.NewResult(0, 0)) // already terminal, no row matched

	err = repo.FinalizeSession(context.Background(), "s1", FinalStats{
		Status:       StatusCompleted,
		Processed:    10,
		Correct:      8,
		Errors:       1,
		AccuracyPct:  80.0,
		TotalTimeSec: 12.5,
		TotalCost:    0.0123,
		TotalTokens:  4200,
		EndedAt:      ended,
	})
	if err != nil {
		t.Fatalf("FinalizeSession: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetSessionNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM analysis_sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}))

	_, err = repo.GetSession(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
