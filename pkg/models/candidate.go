package models

import "encoding/json"

// Field confidence sentinel values. A score > 0 means the extractor found the
// field with that confidence.
const (
	FieldNotFound     float64 = -1 // extractor looked and the field was absent
	FieldNotEvaluated float64 = 0  // extractor did not evaluate the field
)

// Candidate is an unpersisted record proposed by the extraction provider.
// It carries extraction metadata that is stripped before persistence.
type Candidate struct {
	Name            string             `json:"name"`
	Brand           *string            `json:"brand,omitempty"`
	Category        *string            `json:"category,omitempty"`
	Value           *float64           `json:"value,omitempty"`
	Unit            *string            `json:"unit,omitempty"`
	DateTested      *string            `json:"date_tested,omitempty"`
	Data            json.RawMessage    `json:"data,omitempty"`
	Confidence      float64            `json:"confidence"`
	FieldConfidence map[string]float64 `json:"field_confidence,omitempty"`
}

// FieldScore returns the confidence score for a field, honoring the sentinel
// contract: -1 checked-but-absent, 0 not evaluated, >0 found.
func (c Candidate) FieldScore(field string) float64 {
	if c.FieldConfidence == nil {
		return FieldNotEvaluated
	}
	score, ok := c.FieldConfidence[field]
	if !ok {
		return FieldNotEvaluated
	}
	return score
}

// FieldFound reports whether the extractor found the field
func (c Candidate) FieldFound(field string) bool {
	return c.FieldScore(field) > 0
}

// ToCreateRequest maps a candidate to the persistence payload, dropping all
// extraction-only metadata.
func (c Candidate) ToCreateRequest(recordType RecordType) CreateRecordRequest {
	return CreateRecordRequest{
		RecordType: recordType,
		Name:       c.Name,
		Brand:      c.Brand,
		Category:   c.Category,
		Value:      c.Value,
		Unit:       c.Unit,
		DateTested: c.DateTested,
		Data:       c.Data,
	}
}
