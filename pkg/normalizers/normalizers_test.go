package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		chain    []string
		expected string
	}{
		{
			name:     "lowercase",
			input:    "Vitamin D3",
			chain:    []string{"lowercase"},
			expected: "vitamin d3",
		},
		{
			name:     "trim and collapse",
			input:    "  Omega   3  Fish Oil ",
			chain:    []string{"trim", "collapse_whitespace"},
			expected: "Omega 3 Fish Oil",
		},
		{
			name:     "item name preserves case",
			input:    " Red  Light\tPanel ",
			chain:    []string{"item_name"},
			expected: "Red Light Panel",
		},
		{
			name:     "unit",
			input:    " mg/dL ",
			chain:    []string{"unit"},
			expected: "mg/dl",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := Apply(test.input, test.chain...)
			require.NoError(t, err)
			assert.Equal(t, test.expected, result)
		})
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("does_not_exist")
	assert.Error(t, err)
}
