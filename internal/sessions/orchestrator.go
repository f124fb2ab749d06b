package sessions

import (
	"context"
	"sync"
	"time"

	"triage-backend/internal/notices"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
)

// runBatches drives the whole analysis: items are split into consecutive
// batches of cfg.Parallelism, each batch runs one goroutine per item, and
// batches are strictly sequential. Cancellation is checked only at batch
// boundaries; an in-flight batch always finishes. Returns all accumulated
// results and whether the run was cancelled.
//
// sink, when non-nil, receives each completed batch before the next one
// starts; it runs on the orchestrator goroutine so implementations need no
// locking.
func runBatches(
	ctx context.Context,
	reg *Registry,
	sessionID string,
	items []notices.Notice,
	p prompts.Prompt,
	cfg Config,
	exec executor,
	prices pricing.Table,
	sink func(batch []Result),
) ([]Result, bool) {
	size := cfg.Parallelism
	if size <= 0 {
		size = 1
	}

	var results []Result
	for start := 0; start < len(items); start += size {
		if reg.IsCancelled(sessionID) || ctx.Err() != nil {
			return results, true
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		out := make([]Result, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = processItem(ctx, exec, sessionID, p, batch[i], cfg, prices)
			}(i)
		}
		wg.Wait()

		results = append(results, out...)
		if sink != nil {
			sink(out)
		}
		reg.UpdateProgress(sessionID, len(results))

		if end < len(items) && cfg.BatchDelay > 0 {
			timer := time.NewTimer(cfg.BatchDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return results, true
			}
		}
	}
	return results, false
}
