package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeInputShapes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"bare string", "x", []string{"x"}},
		{"padded string", "  x  ", []string{"x"}},
		{"string slice", []string{"x", "y"}, []string{"x", "y"}},
		{"json array", []any{"x", "y", "x"}, []string{"x", "y"}},
		{"json array with junk", []any{"x", 42, " y "}, []string{"x", "y"}},
		{"duplicates preserved order", []string{"b", "a", "b", "a"}, []string{"b", "a"}},
		{"blank entries dropped", []string{" ", "", "z"}, []string{"z"}},
		{"unrecognized shape", map[string]string{"k": "v"}, nil},
		{"number", 7, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInput(tt.in))
		})
	}
}

func TestVocabularyRoundTrip(t *testing.T) {
	n := NewNormalizer()

	for _, display := range n.DisplayNames() {
		assert.Equal(t, display, n.ToDisplay(n.ToWarehouse(display)), "display %q", display)
	}

	for _, pair := range defaultPairs {
		warehouseToken := pair[1]
		assert.Equal(t, warehouseToken, n.ToWarehouse(n.ToDisplay(warehouseToken)), "token %q", warehouseToken)
	}
}

func TestUnknownTokensPassThrough(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "Totally_New_Source", n.ToDisplay("Totally_New_Source"))
	assert.Equal(t, "Totally New Source", n.ToWarehouse("Totally New Source"))
}

func TestKnownMapping(t *testing.T) {
	n := NewNormalizer()

	assert.Equal(t, "Apple Search Ads", n.ToDisplay("Apple_Search_Ads"))
	assert.Equal(t, "Apple_Search_Ads", n.ToWarehouse("Apple Search Ads"))
}
