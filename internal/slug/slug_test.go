package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Typical category names ---
		{name: "simple two words", input: "Home Garden", want: "home-garden"},
		{name: "single word", input: "Electronics", want: "electronics"},
		{name: "already a slug", input: "kitchen-appliances", want: "kitchen-appliances"},
		{name: "mixed case", input: "Men's SHOES", want: "mens-shoes"},

		// --- Separators ---
		{name: "ampersand dropped", input: "Home & Garden", want: "home-garden"},
		{name: "slash separates", input: "Tablets/E-Readers", want: "tablets-e-readers"},
		{name: "underscore separates", input: "power_tools", want: "power-tools"},
		{name: "tabs and newlines", input: "Bath\tand\nBody", want: "bath-and-body"},
		{name: "repeated hyphens", input: "Toys -- Games", want: "toys-games"},

		// --- Accents ---
		{name: "french accents folded", input: "Électronique", want: "electronique"},
		{name: "german umlaut folded", input: "Bücher und Hörspiele", want: "bucher-und-horspiele"},
		{name: "spanish tilde folded", input: "Niños", want: "ninos"},

		// --- Edge cases ---
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
		{name: "only symbols", input: "!@#$%", want: ""},
		{name: "leading and trailing hyphens", input: "-Sale-", want: "sale"},
		{name: "digits kept", input: "4K TVs 2026", want: "4k-tvs-2026"},
		{name: "dots removed", input: "Size 10.5", want: "size-105"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerate_Idempotent verifies that a slug maps to itself.
func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"home-garden", "4k-tvs", "a", "123"} {
		t.Run(s, func(t *testing.T) {
			if got := Generate(s); got != s {
				t.Errorf("Generate(%q) = %q, want %q", s, got, s)
			}
		})
	}
}

func TestCategoryURL(t *testing.T) {
	tests := []struct {
		lang, slug, want string
	}{
		{"", "shoes", "/categories/shoes"},
		{"fr", "chaussures", "/fr/categories/chaussures"},
		{"DE", "schuhe", "/de/categories/schuhe"},
	}
	for _, tt := range tests {
		if got := CategoryURL(tt.lang, tt.slug); got != tt.want {
			t.Errorf("CategoryURL(%q, %q) = %q, want %q", tt.lang, tt.slug, got, tt.want)
		}
	}
}
