package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/models"
)

func TestParseCandidates(t *testing.T) {
	t.Run("records envelope", func(t *testing.T) {
		raw := `{"records": [{"name": "Magnesium", "brand": "Thorne", "confidence": 0.95}]}`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Magnesium", candidates[0].Name)
		require.NotNil(t, candidates[0].Brand)
		assert.Equal(t, "Thorne", *candidates[0].Brand)
	})

	t.Run("markdown fenced response", func(t *testing.T) {
		raw := "Here are the extracted records:\n```json\n{\"records\": [{\"name\": \"Creatine\", \"confidence\": 0.8}]}\n```"

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Creatine", candidates[0].Name)
	})

	t.Run("bare array", func(t *testing.T) {
		raw := `[{"name": "Zinc", "confidence": 0.7}]`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
	})

	t.Run("type keyed envelope", func(t *testing.T) {
		raw := `{"supplements": [{"name": "Omega-3", "confidence": 0.9}]}`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Omega-3", candidates[0].Name)
	})

	t.Run("field confidence sentinels survive", func(t *testing.T) {
		raw := `{"records": [{"name": "Vitamin D", "confidence": 0.9,
			"field_confidence": {"name": 0.9, "date_tested": -1, "brand": -0.5, "unit": 1.7}}]}`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, models.FieldNotFound, candidates[0].FieldScore("date_tested"))
		assert.Equal(t, models.FieldNotFound, candidates[0].FieldScore("brand"))
		assert.Equal(t, models.FieldNotEvaluated, candidates[0].FieldScore("value"))
		assert.Equal(t, 1.0, candidates[0].FieldScore("unit"))
		assert.True(t, candidates[0].FieldFound("name"))
	})

	t.Run("names are cleaned and empty entries dropped", func(t *testing.T) {
		raw := `{"records": [{"name": "  Red  Light Panel ", "confidence": 0.8}, {"name": "   ", "confidence": 0.9}]}`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "Red Light Panel", candidates[0].Name)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		raw := `{"records": [{"name": "a", "confidence": 1.4}, {"name": "b", "confidence": -0.2}]}`

		candidates, err := ParseCandidates(raw)

		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, 1.0, candidates[0].Confidence)
		assert.Equal(t, 0.0, candidates[1].Confidence)
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ParseCandidates("I could not find any records in that text.")
		assert.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseCandidates(`{"records": [{"name": }`)
		assert.Error(t, err)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(models.RecordTypeSupplement, "I take zinc daily")

	assert.Contains(t, prompt, "supplements")
	assert.Contains(t, prompt, "I take zinc daily")
}
