package classify

import (
	"encoding/json"
	"regexp"
	"strings"
)

// rawPrefixLen bounds how much of an unrecognized response is carried on the result.
const rawPrefixLen = 100

// Result is the outcome of extracting a label from a raw model response.
// When no strategy recognizes a label, Unrecognized is true and RawPrefix
// carries a truncated prefix of the response for audit; extraction never fails.
type Result struct {
	Label        string
	Unrecognized bool
	RawPrefix    string
}

// fieldPatterns capture `field: value` style answers, tried in order. The
// captured value is re-run through the taxonomy/variant resolution.
var fieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"triagem"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)triagem\s*[:\s]\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)classificação\s*[:\s]\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)resposta\s*[:\s]\s*([^\n.]+)`),
	regexp.MustCompile(`(?i)ação\s*[:\s]\s*([^\n.]+)`),
	regexp.MustCompile(`\A\s*([^\n.]+)\s*\z`),
}

// Extract resolves a raw model response into a taxonomy label by an ordered
// chain of strategies: JSON field, exact substring, separator variants,
// bag-of-words, field regexes, and finally an explicit unrecognized marker.
func Extract(raw string, taxonomy []string) Result {
	if len(taxonomy) == 0 {
		taxonomy = Canonical
	}
	if strings.TrimSpace(raw) == "" {
		return unrecognized(raw)
	}

	if label, ok := fromJSON(raw, taxonomy); ok {
		return Result{Label: label}
	}
	if label, ok := fromSubstring(raw, taxonomy); ok {
		return Result{Label: label}
	}
	if label, ok := fromVariants(raw, taxonomy); ok {
		return Result{Label: label}
	}
	if label, ok := fromWords(raw, taxonomy); ok {
		return Result{Label: label}
	}
	if label, ok := fromPatterns(raw, taxonomy); ok {
		return Result{Label: label}
	}
	return unrecognized(raw)
}

// fromJSON parses the response as a JSON object and resolves its "triagem" field.
func fromJSON(raw string, taxonomy []string) (string, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", false
	}
	value, ok := parsed["triagem"].(string)
	if !ok {
		return "", false
	}
	return resolveLabel(value, taxonomy)
}

// fromSubstring matches any taxonomy label verbatim, case-insensitively.
func fromSubstring(raw string, taxonomy []string) (string, bool) {
	upper := strings.ToUpper(raw)
	for _, label := range taxonomy {
		if strings.Contains(upper, strings.ToUpper(label)) {
			return label, true
		}
	}
	return "", false
}

// fromVariants matches separator/accent variants against the normalized text.
func fromVariants(raw string, taxonomy []string) (string, bool) {
	normalized := Normalize(raw)
	for variant, canonical := range variants {
		if !strings.Contains(normalized, variant) {
			continue
		}
		for _, label := range taxonomy {
			if label == canonical {
				return label, true
			}
		}
	}
	return "", false
}

// fromWords accepts a label when every one of its words appears in the text.
func fromWords(raw string, taxonomy []string) (string, bool) {
	normalized := Normalize(raw)
	for _, label := range taxonomy {
		words := strings.Fields(Normalize(label))
		if len(words) == 0 {
			continue
		}
		all := true
		for _, word := range words {
			if !strings.Contains(normalized, word) {
				all = false
				break
			}
		}
		if all {
			return label, true
		}
	}
	return "", false
}

// fromPatterns tries the field regexes and resolves each captured value.
func fromPatterns(raw string, taxonomy []string) (string, bool) {
	for _, pattern := range fieldPatterns {
		match := pattern.FindStringSubmatch(raw)
		if len(match) < 2 {
			continue
		}
		if label, ok := resolveLabel(match[1], taxonomy); ok {
			return label, true
		}
	}
	return "", false
}

func unrecognized(raw string) Result {
	prefix := strings.TrimSpace(raw)
	if runes := []rune(prefix); len(runes) > rawPrefixLen {
		prefix = string(runes[:rawPrefixLen])
	}
	return Result{Unrecognized: true, RawPrefix: prefix}
}
