package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"

	"triage-backend/internal/classify"
	"triage-backend/internal/llm"
	"triage-backend/internal/notices"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
	"triage-backend/internal/shared/metrics"
)

// processItem classifies one notice and never returns an error: every
// failure path is captured in the result's ErrorMessage so a bad item
// cannot abort its batch.
func processItem(ctx context.Context, exec executor, sessionID string, p prompts.Prompt, n notices.Notice, cfg Config, prices pricing.Table) Result {
	rendered := prompts.Render(p.Content, n.Context, p.Rules)

	res := Result{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		NoticeID:    n.ID,
		PromptID:    p.ID,
		GroundTruth: n.ManualLabel,
		RawPrompt:   rendered,
		CreatedAt:   time.Now().UTC(),
	}

	// Wall clock covers the provider call only, not queuing time. The
	// executor applies the per-call timeout to each attempt it makes.
	start := time.Now()
	out, err := exec.classify(ctx, llm.Input{
		Prompt:      rendered,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	elapsed := time.Since(start)
	res.ProcessingSec = elapsed.Seconds()

	metrics.IncItemProcessed()
	metrics.ObserveItemDurationMs(float64(elapsed.Milliseconds()))

	if err != nil {
		msg := sanitizeError(err)
		res.ErrorMessage = &msg
		metrics.IncItemError()
		return res
	}

	res.RawResponse = out.RawText
	res.TokensInput = out.TokensInput
	res.TokensOutput = out.TokensOutput
	res.Cost = prices.Cost(cfg.Provider, cfg.Model, out.TokensInput, out.TokensOutput)

	extracted := classify.Extract(out.RawText, classify.Taxonomy())
	res.Label = extracted.Label
	res.Unrecognized = extracted.Unrecognized
	if extracted.Unrecognized {
		res.Label = extracted.RawPrefix
	}

	if cfg.ComputeAccuracy && n.ManualLabel != nil {
		correct := !extracted.Unrecognized && classify.Match(extracted.Label, *n.ManualLabel)
		res.Correct = &correct
	}

	return res
}

// maxErrorLen bounds persisted error messages; provider bodies can be large.
const maxErrorLen = 500

func sanitizeError(err error) string {
	msg := err.Error()
	if runes := []rune(msg); len(runes) > maxErrorLen {
		msg = string(runes[:maxErrorLen])
	}
	return msg
}
