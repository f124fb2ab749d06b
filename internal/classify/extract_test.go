package classify

import (
	"strings"
	"testing"
)

func TestExtractJSONField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "canonical", raw: `{"triagem": "RENUNCIAR PRAZO"}`, want: "RENUNCIAR PRAZO"},
		{name: "underscore variant", raw: `{"triagem": "elaborar_peca"}`, want: "ELABORAR PEÇA"},
		{name: "hyphen variant", raw: `{"triagem": "renunciar-prazo"}`, want: "RENUNCIAR PRAZO"},
		{name: "accentless", raw: `{"triagem": "URGENCIA"}`, want: "URGÊNCIA"},
		{name: "extra fields", raw: `{"justificativa": "x", "triagem": "OCULTAR"}`, want: "OCULTAR"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw, Canonical)
			if got.Unrecognized {
				t.Fatalf("Extract(%q) unrecognized, want %q", tt.raw, tt.want)
			}
			if got.Label != tt.want {
				t.Fatalf("Extract(%q) = %q, want %q", tt.raw, got.Label, tt.want)
			}
		})
	}
}

func TestExtractSubstring(t *testing.T) {
	raw := "A classificação adequada para esta intimação é CONTATAR ASSISTIDO, pois o prazo corre."
	got := Extract(raw, Canonical)
	if got.Label != "CONTATAR ASSISTIDO" {
		t.Fatalf("Extract = %+v, want CONTATAR ASSISTIDO", got)
	}
}

func TestExtractVariantInFreeText(t *testing.T) {
	raw := "Resultado final => ELABORAR_PECA conforme análise"
	got := Extract(raw, Canonical)
	if got.Label != "ELABORAR PEÇA" {
		t.Fatalf("Extract = %+v, want ELABORAR PEÇA", got)
	}
}

func TestExtractBagOfWords(t *testing.T) {
	raw := "Deve-se ANALISAR cuidadosamente o PROCESSO antes de qualquer providência"
	got := Extract(raw, Canonical)
	if got.Label != "ANALISAR PROCESSO" {
		t.Fatalf("Extract = %+v, want ANALISAR PROCESSO", got)
	}
}

func TestExtractFieldPattern(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "quoted json-ish line", raw: `resultado bruto: "triagem": "ocultar" fim`, want: "OCULTAR"},
		{name: "classificacao line", raw: "Classificação: urgencia\nMotivo: risco de perecimento", want: "URGÊNCIA"},
		{name: "single line", raw: "renunciar_prazo", want: "RENUNCIAR PRAZO"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw, Canonical)
			if got.Label != tt.want {
				t.Fatalf("Extract(%q) = %+v, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractUnrecognized(t *testing.T) {
	raw := "Não há elementos suficientes para uma conclusão definitiva sobre o caso em tela. " + strings.Repeat("x", 200)
	got := Extract(raw, Canonical)
	if !got.Unrecognized {
		t.Fatalf("Extract = %+v, want unrecognized", got)
	}
	if got.Label != "" {
		t.Fatalf("unrecognized result carries label %q", got.Label)
	}
	if len([]rune(got.RawPrefix)) > 100 {
		t.Fatalf("RawPrefix length %d exceeds 100", len([]rune(got.RawPrefix)))
	}
	if got.RawPrefix == "" {
		t.Fatalf("RawPrefix should carry a prefix of the response")
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	got := Extract("   ", Canonical)
	if !got.Unrecognized {
		t.Fatalf("Extract(blank) = %+v, want unrecognized", got)
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	ground := "RENUNCIAR PRAZO"
	for _, variant := range []string{"RENUNCIAR_PRAZO", "renunciar-prazo", "RENUNCIAR PRAZO", "  renunciar  prazo  "} {
		if !Match(variant, ground) {
			t.Fatalf("Match(%q, %q) = false, want true", variant, ground)
		}
	}
	if Match("OCULTAR", ground) {
		t.Fatalf("Match(OCULTAR, %q) = true, want false", ground)
	}
}

func TestMatchBlankNeverEqual(t *testing.T) {
	if Match("", "") {
		t.Fatalf("blank labels must not compare equal")
	}
	if Match("ERRO: Classificação não reconhecida", "RENUNCIAR PRAZO") {
		t.Fatalf("unrecognized text must not match a ground truth")
	}
}
