package prompts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	p := Prompt{
		ID:        "prompt-1",
		Name:      "triagem v1",
		Content:   "Classifique: {CONTEXTO}",
		Category:  "baseline",
		Rules:     "responda em JSON",
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO prompts").
		WithArgs(p.ID, p.Name, p.Content, p.Category, p.Rules, p.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, name, content, category, rules, created_at, updated_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "content", "category", "rules", "created_at", "updated_at"}))

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "content", "category", "rules", "created_at", "updated_at"}).
		AddRow("p1", "v1", "c1", "", "", now, nil).
		AddRow("p2", "v2", "c2", "cat", "r", now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT id, name, content, category, rules, created_at, updated_at").
		WithArgs(20, 0).
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(got))
	}
	if got[1].UpdatedAt == nil {
		t.Fatal("expected updated_at to scan into pointer")
	}
}
