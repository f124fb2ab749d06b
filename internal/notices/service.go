package notices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"triage-backend/internal/extract"
)

// Service holds notice business logic.
type Service struct {
	Repo NoticesRepo
}

// NewService constructs a Service.
func NewService(repo NoticesRepo) *Service {
	return &Service{Repo: repo}
}

// Create validates and stores a notice given its raw text.
func (s *Service) Create(ctx context.Context, contextText, manualLabel, extraInfo string) (Notice, error) {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		return Notice{}, fmt.Errorf("%w: context is required", ErrInvalidInput)
	}

	n := Notice{
		ID:        uuid.NewString(),
		Context:   contextText,
		ExtraInfo: strings.TrimSpace(extraInfo),
		CreatedAt: time.Now().UTC(),
	}
	if label := strings.TrimSpace(manualLabel); label != "" {
		n.ManualLabel = &label
	}

	if err := s.Repo.Create(ctx, n); err != nil {
		return Notice{}, fmt.Errorf("create notice: %w", err)
	}
	return n, nil
}

// CreateFromFile extracts the notice text from an uploaded file (PDF or
// plain text) and stores it.
func (s *Service) CreateFromFile(ctx context.Context, data []byte, mimeType, fileName, manualLabel, extraInfo string) (Notice, error) {
	text, err := extract.ExtractText(ctx, data, mimeType, fileName)
	if err != nil {
		return Notice{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.Create(ctx, text, manualLabel, extraInfo)
}

// Get returns a notice by ID.
func (s *Service) Get(ctx context.Context, id string) (Notice, error) {
	if strings.TrimSpace(id) == "" {
		return Notice{}, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns stored notices.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Notice, error) {
	return s.Repo.List(ctx, limit, offset)
}
