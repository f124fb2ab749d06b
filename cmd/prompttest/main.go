package main

// Try a prompt against a single notice without the API server:
//   go run ./cmd/prompttest -notice intimacao.txt -prompt prompt.txt

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"triage-backend/internal/bootstrap"
	"triage-backend/internal/classify"
	"triage-backend/internal/extract"
	"triage-backend/internal/llm"
	"triage-backend/internal/pricing"
	"triage-backend/internal/prompts"
	"triage-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	noticePath := flag.String("notice", "", "Path to notice file (pdf or txt)")
	promptPath := flag.String("prompt", "", "Path to prompt template file")
	rulesPath := flag.String("rules", "", "Path to rules file (optional)")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider (openai or azure)")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	temperature := flag.Float64("temperature", 0, "Sampling temperature")
	maxTokens := flag.Int("max-tokens", 200, "Max output tokens")
	flag.Parse()

	if strings.TrimSpace(*noticePath) == "" {
		exitErr("notice path is required")
	}
	if strings.TrimSpace(*promptPath) == "" {
		exitErr("prompt path is required")
	}

	noticeBytes, err := os.ReadFile(*noticePath)
	if err != nil {
		exitErr(fmt.Sprintf("read notice: %v", err))
	}
	noticeText, err := extract.ExtractText(context.Background(), noticeBytes, mimeFromExt(*noticePath), filepath.Base(*noticePath))
	if err != nil {
		exitErr(fmt.Sprintf("extract notice text: %v", err))
	}

	template, err := os.ReadFile(*promptPath)
	if err != nil {
		exitErr(fmt.Sprintf("read prompt: %v", err))
	}

	rules := ""
	if strings.TrimSpace(*rulesPath) != "" {
		rulesBytes, err := os.ReadFile(*rulesPath)
		if err != nil {
			exitErr(fmt.Sprintf("read rules: %v", err))
		}
		rules = string(rulesBytes)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(*provider))
	client, err := bootstrap.BuildLLMClient(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	rendered := prompts.Render(string(template), noticeText, rules)
	out, err := client.Classify(context.Background(), llm.Input{
		Prompt:      rendered,
		Model:       *model,
		Temperature: *temperature,
		MaxTokens:   *maxTokens,
	})
	if err != nil {
		exitErr(fmt.Sprintf("llm classify: %v", err))
	}

	extracted := classify.Extract(out.RawText, classify.Taxonomy())
	cost := pricing.Default().Cost(cfg.LLMProvider, *model, out.TokensInput, out.TokensOutput)

	if extracted.Unrecognized {
		fmt.Printf("label:        (unrecognized) %q\n", extracted.RawPrefix)
	} else {
		fmt.Printf("label:        %s\n", extracted.Label)
	}
	fmt.Printf("tokens:       %d in / %d out\n", out.TokensInput, out.TokensOutput)
	fmt.Printf("cost:         $%.6f\n", cost)
	fmt.Printf("raw response: %s\n", out.RawText)
}

func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	default:
		return "text/plain"
	}
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
