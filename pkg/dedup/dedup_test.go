package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/models"
)

func strp(s string) *string {
	return &s
}

func floatp(f float64) *float64 {
	return &f
}

func record(name string, brand *string, createdAt time.Time) models.Record {
	return models.Record{
		Name:      name,
		Brand:     brand,
		CreatedAt: createdAt,
	}
}

func biomarker(name string, date string, value float64, createdAt time.Time) models.Record {
	return models.Record{
		Name:       name,
		Value:      floatp(value),
		DateTested: strp(date),
		CreatedAt:  createdAt,
	}
}

func TestDetectDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		recordType models.RecordType
		candidates []models.Candidate
		existing   []models.Record
		expected   []int
	}{
		{
			name:       "name match is case insensitive",
			recordType: models.RecordTypeSupplement,
			candidates: []models.Candidate{
				{Name: "omega-3"},
				{Name: "Zinc"},
			},
			existing: []models.Record{
				record("Omega-3", nil, time.Time{}),
			},
			expected: []int{0},
		},
		{
			name:       "both missing brand match",
			recordType: models.RecordTypeSupplement,
			candidates: []models.Candidate{
				{Name: "Magnesium"},
			},
			existing: []models.Record{
				record("magnesium", nil, time.Time{}),
			},
			expected: []int{0},
		},
		{
			name:       "missing brand does not match present brand",
			recordType: models.RecordTypeSupplement,
			candidates: []models.Candidate{
				{Name: "Magnesium"},
				{Name: "Magnesium", Brand: strp("Thorne")},
			},
			existing: []models.Record{
				record("Magnesium", strp("Thorne"), time.Time{}),
			},
			expected: []int{1},
		},
		{
			name:       "brand match is case insensitive",
			recordType: models.RecordTypeFacialProduct,
			candidates: []models.Candidate{
				{Name: "Retinol Serum", Brand: strp("the ordinary")},
			},
			existing: []models.Record{
				record("retinol serum", strp("The Ordinary"), time.Time{}),
			},
			expected: []int{0},
		},
		{
			name:       "biomarker matches on name date and value",
			recordType: models.RecordTypeBiomarker,
			candidates: []models.Candidate{
				{Name: "Vitamin D", DateTested: strp("2024-01-15"), Value: floatp(45)},
				{Name: "Vitamin D", DateTested: strp("2024-06-15"), Value: floatp(45)},
				{Name: "Vitamin D", DateTested: strp("2024-01-15"), Value: floatp(45.1)},
			},
			expected: []int{0},
			existing: []models.Record{
				biomarker("vitamin d", "2024-01-15", 45, time.Time{}),
			},
		},
		{
			name:       "candidates are not compared to each other",
			recordType: models.RecordTypeEquipment,
			candidates: []models.Candidate{
				{Name: "Red Light Panel"},
				{Name: "Red Light Panel"},
			},
			existing: []models.Record{
				record("Sauna Blanket", nil, time.Time{}),
			},
			expected: []int{},
		},
		{
			name:       "no existing records means no duplicates",
			recordType: models.RecordTypeSupplement,
			candidates: []models.Candidate{
				{Name: "Creatine"},
			},
			existing: []models.Record{},
			expected: []int{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := DetectDuplicates(test.recordType, test.candidates, test.existing)
			assert.Equal(t, test.expected, result.Slice())
		})
	}
}

func TestFindDuplicateGroups(t *testing.T) {
	t.Run("groups need at least two members", func(t *testing.T) {
		records := []models.Record{
			record("Omega-3", nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			record("Zinc", nil, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
			record("omega-3", nil, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
		}

		groups := FindDuplicateGroups(models.RecordTypeSupplement, records)

		require.Len(t, groups, 1)
		assert.Equal(t, "Omega-3", groups[0].Name)
		assert.Len(t, groups[0].Records, 2)
	})

	t.Run("keep record is the oldest", func(t *testing.T) {
		oldest := record("Creatine", nil, time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC))
		newest := record("creatine", nil, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

		groups := FindDuplicateGroups(models.RecordTypeSupplement, []models.Record{newest, oldest})

		require.Len(t, groups, 1)
		assert.Equal(t, oldest, groups[0].Keep())
		assert.Equal(t, []models.Record{newest}, groups[0].Discard())
	})

	t.Run("zero created_at sorts last", func(t *testing.T) {
		missing := record("Creatine", nil, time.Time{})
		dated := record("creatine", nil, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

		groups := FindDuplicateGroups(models.RecordTypeSupplement, []models.Record{missing, dated})

		require.Len(t, groups, 1)
		assert.Equal(t, dated, groups[0].Keep())
	})

	t.Run("created_at ties keep input order", func(t *testing.T) {
		when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		first := record("Creatine", nil, when)
		first.ID = "a"
		second := record("creatine", nil, when)
		second.ID = "b"

		groups := FindDuplicateGroups(models.RecordTypeSupplement, []models.Record{first, second})

		require.Len(t, groups, 1)
		assert.Equal(t, "a", groups[0].Keep().ID)
	})

	t.Run("groups are sorted by name", func(t *testing.T) {
		when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		records := []models.Record{
			record("Zinc", nil, when),
			record("zinc", nil, when.Add(time.Hour)),
			record("Ashwagandha", nil, when),
			record("ashwagandha", nil, when.Add(time.Hour)),
		}

		groups := FindDuplicateGroups(models.RecordTypeSupplement, records)

		require.Len(t, groups, 2)
		assert.Equal(t, "Ashwagandha", groups[0].Name)
		assert.Equal(t, "Zinc", groups[1].Name)
	})

	t.Run("biomarker groups split by date and value", func(t *testing.T) {
		when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		records := []models.Record{
			biomarker("Vitamin D", "2024-01-15", 45, when),
			biomarker("vitamin d", "2024-01-15", 45, when.Add(time.Hour)),
			biomarker("Vitamin D", "2024-06-15", 45, when),
			biomarker("Vitamin D", "2024-01-15", 45.1, when),
		}

		groups := FindDuplicateGroups(models.RecordTypeBiomarker, records)

		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Records, 2)
	})
}
