package textnorm

import "testing"

func TestStrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"question mark", "What is CRISPR?", "What is CRISPR"},
		{"hyphen becomes break", "state-of-the-art models", "state of the art models"},
		{"apostrophe dropped", "don't panic", "dont panic"},
		{"curly apostrophe dropped", "it’s fine", "its fine"},
		{"url removed", "see https://example.com/a?b=c for details", "see for details"},
		{"www url removed", "docs at www.example.org today", "docs at today"},
		{"whitespace collapsed", "  a \t b\n\nc  ", "a b c"},
		{"symbols removed", "price > $100 & rising", "price 100 rising"},
		{"only punctuation", "?!...", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Strip(tt.in); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii unchanged", "plain text", "plain text"},
		{"acute", "café", "cafe"},
		{"diaeresis", "naïve Müller", "naive Muller"},
		{"tilde", "mañana", "manana"},
		{"sharp s", "Straße", "Strasse"},
		{"o stroke", "Møller", "Moller"},
		{"ae ligature", "Encyclopædia", "Encyclopaedia"},
		{"l stroke", "Łódź", "Lodz"},
		{"mixed", "Ångström façade", "Angstrom facade"},
		{"punctuation kept", "café?", "cafe?"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
