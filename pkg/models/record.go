package models

import (
	"encoding/json"
	"time"
)

// RecordType identifies which kind of health record an entry is. The type
// decides which equality key is used for duplicate detection.
type RecordType string

const (
	RecordTypeBiomarker     RecordType = "biomarker"
	RecordTypeSupplement    RecordType = "supplement"
	RecordTypeEquipment     RecordType = "equipment"
	RecordTypeFacialProduct RecordType = "facial_product"
	RecordTypeRoutine       RecordType = "routine"
)

// Valid reports whether t is a known record type
func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeBiomarker, RecordTypeSupplement, RecordTypeEquipment, RecordTypeFacialProduct, RecordTypeRoutine:
		return true
	}
	return false
}

// Record is a persisted health record. Shared columns cover every type;
// type-specific extras (dose, routine days, reference ranges) live in Data.
type Record struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	RecordType RecordType      `json:"record_type" db:"record_type"`
	Name       string          `json:"name" db:"name"`
	Brand      *string         `json:"brand,omitempty" db:"brand"`
	Category   *string         `json:"category,omitempty" db:"category"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	Value      *float64        `json:"value,omitempty" db:"value"`
	Unit       *string         `json:"unit,omitempty" db:"unit"`
	DateTested *string         `json:"date_tested,omitempty" db:"date_tested"` // YYYY-MM-DD
	Data       json.RawMessage `json:"data,omitempty" db:"data"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateRecordRequest is the persistence payload for a new record. Extraction
// metadata (confidence scores) never appears here.
type CreateRecordRequest struct {
	RecordType RecordType      `json:"record_type" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Brand      *string         `json:"brand,omitempty"`
	Category   *string         `json:"category,omitempty"`
	IsActive   *bool           `json:"is_active,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	Unit       *string         `json:"unit,omitempty"`
	DateTested *string         `json:"date_tested,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// UpdateRecordRequest is a partial update; nil fields are left unchanged
type UpdateRecordRequest struct {
	Name       *string         `json:"name,omitempty"`
	Brand      *string         `json:"brand,omitempty"`
	Category   *string         `json:"category,omitempty"`
	IsActive   *bool           `json:"is_active,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	Unit       *string         `json:"unit,omitempty"`
	DateTested *string         `json:"date_tested,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// RecordListResponse is the response for listing records
type RecordListResponse struct {
	Items      []Record `json:"items"`
	TotalCount int      `json:"total_count"`
}

// DuplicateScanResponse is the result of a duplicate scan over saved records
type DuplicateScanResponse struct {
	Groups []DuplicateGroup `json:"groups"`
	Total  int              `json:"total"` // records that would be removed by a full resolve
}

// ResolveDuplicatesRequest removes redundant records. With IDs set only those
// records are deleted; without, every group resolves down to its keep record.
type ResolveDuplicatesRequest struct {
	RecordType RecordType `json:"record_type" validate:"required"`
	IDs        []string   `json:"ids,omitempty"`
}

// ResolveDuplicatesResponse reports how many records a resolve removed
type ResolveDuplicatesResponse struct {
	Deleted int64 `json:"deleted"`
}

// DuplicateGroup is a set of persisted records sharing a full equality key.
// Records is ordered oldest-first; index 0 is the record to keep.
type DuplicateGroup struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Records []Record `json:"records"`
}

// Keep returns the canonical record of the group
func (g DuplicateGroup) Keep() Record {
	return g.Records[0]
}

// Discard returns the group members that are candidates for deletion
func (g DuplicateGroup) Discard() []Record {
	return g.Records[1:]
}
