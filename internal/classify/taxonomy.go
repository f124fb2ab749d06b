package classify

import "strings"

// Canonical triage labels a model response may resolve to.
var Canonical = []string{
	"RENUNCIAR PRAZO",
	"OCULTAR",
	"ELABORAR PEÇA",
	"CONTATAR ASSISTIDO",
	"ANALISAR PROCESSO",
	"ENCAMINHAR INTIMAÇÃO PARA OUTRO DEFENSOR",
	"URGÊNCIA",
}

// variants maps common accent-less/separator spellings to canonical labels.
// Keys are in normalized form (see Normalize).
var variants = map[string]string{
	"ELABORAR PECA":                            "ELABORAR PEÇA",
	"URGENCIA":                                 "URGÊNCIA",
	"ENCAMINHAR INTIMACAO PARA OUTRO DEFENSOR": "ENCAMINHAR INTIMAÇÃO PARA OUTRO DEFENSOR",
}

// Taxonomy returns a copy of the canonical label set.
func Taxonomy() []string {
	return append([]string(nil), Canonical...)
}

// Normalize uppercases, trims, folds `_` and `-` to spaces, and collapses
// repeated whitespace. Applied symmetrically to both sides of any comparison.
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Match reports whether a model label and a ground-truth label are the same
// classification under Normalize.
func Match(got, want string) bool {
	if strings.TrimSpace(got) == "" || strings.TrimSpace(want) == "" {
		return false
	}
	return Normalize(got) == Normalize(want)
}

// resolveLabel maps a candidate string to a canonical taxonomy label, first by
// normalized equality and then through the variant table. Returns false when
// the candidate is not a recognizable label.
func resolveLabel(candidate string, taxonomy []string) (string, bool) {
	normalized := Normalize(candidate)
	if normalized == "" {
		return "", false
	}
	for _, label := range taxonomy {
		if Normalize(label) == normalized {
			return label, true
		}
	}
	if canonical, ok := variants[normalized]; ok {
		for _, label := range taxonomy {
			if label == canonical {
				return label, true
			}
		}
	}
	return "", false
}
