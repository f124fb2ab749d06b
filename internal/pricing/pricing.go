package pricing

import "strings"

// Price is USD per one million tokens, split by direction.
type Price struct {
	Input  float64
	Output float64
}

// Table maps provider -> model -> price row.
type Table map[string]map[string]Price

// fallback is applied when a provider/model has no configured row, so a
// missing price degrades to an approximate cost instead of aborting a batch.
var fallback = Price{Input: 2.5, Output: 10.0}

// defaultRows mirrors the published OpenAI/Azure OpenAI prices the tool ships with.
var defaultRows = map[string]Price{
	"gpt-4o":        {Input: 2.5, Output: 10.0},
	"gpt-4o-mini":   {Input: 0.15, Output: 0.6},
	"gpt-4":         {Input: 30.0, Output: 60.0},
	"gpt-4-turbo":   {Input: 10.0, Output: 30.0},
	"gpt-3.5-turbo": {Input: 0.5, Output: 1.5},
}

// Default returns the built-in price table for the known providers.
func Default() Table {
	table := make(Table, 2)
	for _, provider := range []string{"openai", "azure"} {
		rows := make(map[string]Price, len(defaultRows))
		for model, price := range defaultRows {
			rows[model] = price
		}
		table[provider] = rows
	}
	return table
}

// Cost computes the monetary cost of one call. Prices are per million tokens:
// cost = tokensIn/1e6*input + tokensOut/1e6*output. Unknown provider/model
// combinations resolve to the fallback row.
func (t Table) Cost(provider, model string, tokensIn, tokensOut int) float64 {
	if tokensIn < 0 {
		tokensIn = 0
	}
	if tokensOut < 0 {
		tokensOut = 0
	}
	price := t.lookup(provider, model)
	return float64(tokensIn)/1e6*price.Input + float64(tokensOut)/1e6*price.Output
}

func (t Table) lookup(provider, model string) Price {
	rows, ok := t[normalize(provider)]
	if !ok {
		return fallback
	}
	price, ok := rows[normalize(model)]
	if !ok {
		return fallback
	}
	return price
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
