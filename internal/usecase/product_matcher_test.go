package usecase

import (
	"reflect"
	"testing"

	"github.com/cartscout/backend/internal/domain"
)

func TestNewProductMatcher(t *testing.T) {
	t.Run("uses provided score", func(t *testing.T) {
		m := NewProductMatcher(MatchConfig{MinScore: 75})
		if m.minScore != 75 {
			t.Errorf("minScore = %v, want 75", m.minScore)
		}
	})

	t.Run("uses defaults when zero", func(t *testing.T) {
		m := NewProductMatcher(MatchConfig{})
		if m.minScore != defaultMinMatchScore {
			t.Errorf("minScore = %v, want %v (default)", m.minScore, defaultMinMatchScore)
		}
		if m.fuzzyEditDistance != 1 {
			t.Errorf("fuzzyEditDistance = %v, want 1 (default)", m.fuzzyEditDistance)
		}
	})
}

func TestBestMatch(t *testing.T) {
	m := NewProductMatcher(MatchConfig{})
	candidates := []domain.Product{
		{Name: domain.StringPtr("Leche Descremada Sancor 1 L")},
		{Name: nil},
		{Name: domain.StringPtr("Leche Entera La Serenísima 1 L")},
	}

	t.Run("matches despite accents and spacing", func(t *testing.T) {
		idx, score := m.BestMatch("Leche Entera La Serenisima 1L", candidates)
		if idx != 2 {
			t.Fatalf("idx = %d, want 2 (score %.1f)", idx, score)
		}
		if score < defaultMinMatchScore {
			t.Errorf("score = %.1f, want >= %v", score, defaultMinMatchScore)
		}
	})

	t.Run("tolerates a single typo", func(t *testing.T) {
		idx, _ := m.BestMatch("Leche Entera La Serenisma 1 L", candidates)
		if idx != 2 {
			t.Errorf("idx = %d, want 2", idx)
		}
	})

	t.Run("unrelated name has no match", func(t *testing.T) {
		idx, _ := m.BestMatch("Aceite de Girasol Natura 900 ml", candidates)
		if idx != -1 {
			t.Errorf("idx = %d, want -1", idx)
		}
	})

	t.Run("empty candidates", func(t *testing.T) {
		idx, _ := m.BestMatch("Leche", nil)
		if idx != -1 {
			t.Errorf("idx = %d, want -1", idx)
		}
	})
}

func TestScore(t *testing.T) {
	m := NewProductMatcher(MatchConfig{})

	tests := []struct {
		name     string
		selected string
		catalog  string
		minScore float64
		maxScore float64
	}{
		{"identical", "Arroz Gallo Oro 1 kg", "Arroz Gallo Oro 1 kg", 100, 100},
		{"case and accents", "ARROZ GALLO ORO", "Arroz Galló Oro", 100, 100},
		{"different size", "Aceite Natura 900 ml", "Aceite Natura 1500 ml", 50, 90},
		{"nothing in common", "Yerba Playadito 1 kg", "Fideos Matarazzo", 0, 10},
		{"empty", "", "Fideos", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Score(tt.selected, tt.catalog)
			if got < tt.minScore || got > tt.maxScore {
				t.Errorf("Score(%q, %q) = %.1f, want in [%v, %v]", tt.selected, tt.catalog, got, tt.minScore, tt.maxScore)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Leche Entera La Serenísima 1 L", []string{"leche", "entera", "serenisima", "1"}},
		{"Fideos Tirabuzón x 500 g", []string{"fideos", "tirabuzon", "500"}},
		{"Café, Café & Té!", []string{"cafe", "te"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	m := NewProductMatcher(MatchConfig{})

	tests := []struct {
		a, b string
		want bool
	}{
		{"serenisima", "serenisma", true},
		{"tomate", "tomates", true},
		{"500", "900", false},
		{"leche", "noche", false},
		{"arroz", "aceite", false},
	}

	for _, tt := range tests {
		if got := m.fuzzyTokenMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("fuzzyTokenMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFoldText(t *testing.T) {
	if got := foldText("  Leche   Serenísima  AÑEJO "); got != "leche serenisima anejo" {
		t.Errorf("foldText = %q", got)
	}
}
