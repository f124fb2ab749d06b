package prompts

import "context"

// PromptsRepo defines persistence operations for prompt templates.
type PromptsRepo interface {
	Create(ctx context.Context, p Prompt) error
	GetByID(ctx context.Context, id string) (Prompt, error)
	List(ctx context.Context, limit, offset int) ([]Prompt, error)
}
