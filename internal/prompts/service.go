package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service holds prompt business logic.
type Service struct {
	Repo PromptsRepo
}

// NewService constructs a Service.
func NewService(repo PromptsRepo) *Service {
	return &Service{Repo: repo}
}

// Create validates and stores a new prompt template.
func (s *Service) Create(ctx context.Context, name, content, category, rules string) (Prompt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Prompt{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return Prompt{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	p := Prompt{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   content,
		Category:  strings.TrimSpace(category),
		Rules:     rules,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Prompt{}, fmt.Errorf("create prompt: %w", err)
	}
	return p, nil
}

// Get returns a prompt by ID.
func (s *Service) Get(ctx context.Context, id string) (Prompt, error) {
	if strings.TrimSpace(id) == "" {
		return Prompt{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns stored prompts.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Prompt, error) {
	return s.Repo.List(ctx, limit, offset)
}
