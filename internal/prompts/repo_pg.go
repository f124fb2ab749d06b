package prompts

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements PromptsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new prompt template.
func (r *PGRepo) Create(ctx context.Context, p Prompt) error {
	const query = `
INSERT INTO prompts (
    id,
    name,
    content,
    category,
    rules,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		p.ID,
		p.Name,
		p.Content,
		p.Category,
		p.Rules,
		p.CreatedAt,
	)
	return err
}

// GetByID returns a prompt by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	const query = `
SELECT id, name, content, category, rules, created_at, updated_at
FROM prompts
WHERE id = $1`

	row := r.DB.QueryRowContext(ctx, query, id)
	p, err := scanPrompt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Prompt{}, ErrNotFound
		}
		return Prompt{}, err
	}
	return p, nil
}

// List returns prompts ordered by creation time, newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Prompt, error) {
	const query = `
SELECT id, name, content, category, rules, created_at, updated_at
FROM prompts
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (Prompt, error) {
	var p Prompt
	var updatedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Content,
		&p.Category,
		&p.Rules,
		&p.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return Prompt{}, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	return p, nil
}
