package prompts

import "strings"

const (
	placeholderContext = "{CONTEXTO}"
	placeholderRules   = "{REGRAS}"
)

// Render fills the template placeholders with the notice text and the
// optional rule block. A template without {CONTEXTO} gets the notice
// appended at the end so the model always sees the text under analysis.
func Render(template, contexto, regras string) string {
	out := template
	if strings.Contains(out, placeholderContext) {
		out = strings.ReplaceAll(out, placeholderContext, contexto)
	} else {
		out = out + "\n\n" + contexto
	}
	out = strings.ReplaceAll(out, placeholderRules, regras)
	return out
}
