package prompts

import "time"

// Prompt is a classification prompt template. Content may carry the
// {CONTEXTO} and {REGRAS} placeholders filled in at analysis time.
type Prompt struct {
	ID        string
	Name      string
	Content   string
	Category  string
	Rules     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
