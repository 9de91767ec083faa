package placement

import (
	"math"
	"testing"

	"github.com/gonewx/hearthvale/pkg/config"
)

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name     string
		weights  []float64
		expected []float64
		sum      float64
	}{
		{"均匀权重", []float64{1, 1, 1, 1}, []float64{0.25, 0.25, 0.25, 0.25}, 4},
		{"不均匀权重", []float64{1, 2, 3}, []float64{1.0 / 6, 2.0 / 6, 3.0 / 6}, 6},
		{"全零权重", []float64{0, 0}, []float64{0, 0}, 0},
		{"负权重视为零", []float64{-5, 5}, []float64{0, 1}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, sum := NormalizeWeights(toWeights(tt.weights...))
			if math.Abs(sum-tt.sum) > 1e-9 {
				t.Errorf("sum = %f, want %f", sum, tt.sum)
			}
			for i := range p {
				if math.Abs(p[i]-tt.expected[i]) > 1e-9 {
					t.Errorf("index %d: got %f, want %f", i, p[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSelectArchetype(t *testing.T) {
	weights := []config.ArchetypeWeight{
		{Archetype: "a", Weight: 1},
		{Archetype: "b", Weight: 0},
		{Archetype: "c", Weight: 3},
	}

	tests := []struct {
		name string
		roll float64
		want string
	}{
		{"落在第一段", 0.0, "a"},
		{"第一段末尾", 0.2499, "a"},
		{"零权重被跳过", 0.25, "c"},
		{"最后一段", 0.99, "c"},
		{"浮点误差后备", 1.0, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectArchetype(weights, tt.roll)
			if !ok {
				t.Fatal("selection should succeed")
			}
			if got != tt.want {
				t.Errorf("SelectArchetype(%f) = %s, want %s", tt.roll, got, tt.want)
			}
		})
	}
}

func TestSelectArchetypeFallbackSkipsTrailingZero(t *testing.T) {
	weights := []config.ArchetypeWeight{
		{Archetype: "a", Weight: 1},
		{Archetype: "z", Weight: 0},
	}
	got, ok := SelectArchetype(weights, 1.0)
	if !ok || got != "a" {
		t.Errorf("expected fallback to a, got %s (%v)", got, ok)
	}
}

func TestSelectArchetypeEmpty(t *testing.T) {
	if _, ok := SelectArchetype(nil, 0.5); ok {
		t.Error("empty list should not select")
	}
	if _, ok := SelectArchetype(toWeights(0, 0), 0.5); ok {
		t.Error("all-zero weights should not select")
	}
}

func toWeights(ws ...float64) []config.ArchetypeWeight {
	out := make([]config.ArchetypeWeight, len(ws))
	for i, w := range ws {
		out[i] = config.ArchetypeWeight{Archetype: string(rune('a' + i)), Weight: w}
	}
	return out
}
