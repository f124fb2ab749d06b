package sessions

import "time"

// Status is the lifecycle state of an analysis session. A session only
// moves running -> {completed, cancelled, failed}; terminal states never
// transition again.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a final status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 200
	defaultTimeout   = 120 * time.Second
)

// Config carries the generation and orchestration parameters of one
// session, fixed at start time.
type Config struct {
	Provider        string
	Model           string
	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	Parallelism     int
	BatchDelay      time.Duration
	PersistResults  bool
	ComputeAccuracy bool
}

// withDefaults fills unset fields and clamps parallelism so a batch is
// always at least one item wide.
func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
	if c.BatchDelay < 0 {
		c.BatchDelay = 0
	}
	return c
}

// Session is one run of a prompt against a set of notices.
type Session struct {
	ID             string
	PromptID       string
	PromptName     string
	Config         Config
	TotalItems     int
	ProcessedCount int
	CorrectCount   int
	ErrorCount     int
	AccuracyPct    float64
	TotalTimeSec   float64
	TotalCost      float64
	TotalTokens    int64
	Status         Status
	StartedAt      time.Time
	EndedAt        *time.Time
}

// Result is the outcome of classifying a single notice. ErrorMessage is
// set only when the provider call failed after exhausting retries; in
// that case Label and Correct stay empty.
type Result struct {
	ID            string
	SessionID     string
	NoticeID      string
	PromptID      string
	Label         string
	Unrecognized  bool
	GroundTruth   *string
	Correct       *bool
	ProcessingSec float64
	TokensInput   int
	TokensOutput  int
	Cost          float64
	RawPrompt     string
	RawResponse   string
	ErrorMessage  *string
	CreatedAt     time.Time
}

// FinalStats is the terminal accounting written once when a session ends.
type FinalStats struct {
	Status       Status
	Processed    int
	Correct      int
	Errors       int
	AccuracyPct  float64
	TotalTimeSec float64
	TotalCost    float64
	TotalTokens  int64
	EndedAt      time.Time
}
