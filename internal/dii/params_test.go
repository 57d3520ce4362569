package dii

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParameters(t *testing.T) {
	params := DefaultParameters()

	assert.Len(t, params, 45, "the published table has 45 parameters")

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		assert.Greater(t, p.SD, 0.0, "population sd must be strictly positive for %s", p.ID)
		assert.NotZero(t, p.Weight, "parameter %s carries no weight", p.ID)
		assert.False(t, seen[p.ID], "duplicate parameter id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestParameterTableLookup(t *testing.T) {
	table := NewParameterTable(DefaultParameters())

	tests := []struct {
		name     string
		id       string
		found    bool
		expected Parameter
	}{
		{
			name:     "finds fiber",
			id:       "FIBER_DII",
			found:    true,
			expected: Parameter{ID: "FIBER_DII", Weight: -0.663, Mean: 18.8, SD: 4.9},
		},
		{
			name:     "finds saturated fat",
			id:       "SATFAT_DII",
			found:    true,
			expected: Parameter{ID: "SATFAT_DII", Weight: 0.373, Mean: 28.6, SD: 8},
		},
		{
			name:  "unknown id is not an error",
			id:    "SODIUM_DII",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := table.Lookup(tt.id)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, p)
			}
		})
	}
}

func TestParameterTableOrder(t *testing.T) {
	table := NewParameterTable([]Parameter{
		{ID: "B", Weight: 1, Mean: 0, SD: 1},
		{ID: "A", Weight: 1, Mean: 0, SD: 1},
		{ID: "B", Weight: 2, Mean: 0, SD: 1}, // duplicate, first wins
	})

	assert.Equal(t, []string{"B", "A"}, table.IDs())
	assert.Equal(t, 2, table.Len())

	p, ok := table.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, 1.0, p.Weight)
}
