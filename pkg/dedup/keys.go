package dedup

import (
	"strconv"
	"strings"

	"github.com/Ramsey-B/sage/pkg/models"
)

// keyFields is the subset of record fields that participates in equality keys
type keyFields struct {
	Name       string
	Brand      *string
	DateTested *string
	Value      *float64
}

// keyFunc derives a type-specific equality key. Two entries are duplicates of
// each other exactly when their keys are equal.
type keyFunc func(keyFields) string

var keyFuncs = map[models.RecordType]keyFunc{
	models.RecordTypeBiomarker:     measurementKey,
	models.RecordTypeSupplement:    productKey,
	models.RecordTypeEquipment:     productKey,
	models.RecordTypeFacialProduct: productKey,
	models.RecordTypeRoutine:       productKey,
}

// keyFor returns the key function for a record type, defaulting to the
// product key for unknown types.
func keyFor(recordType models.RecordType) keyFunc {
	if fn, ok := keyFuncs[recordType]; ok {
		return fn
	}
	return productKey
}

// productKey matches on name and brand, both case-insensitive. Two entries
// that both lack a brand still match; a missing brand never matches a present
// one.
func productKey(f keyFields) string {
	return strings.ToLower(f.Name) + "|" + strings.ToLower(strPtr(f.Brand))
}

// measurementKey matches on name (case-insensitive) plus the exact test date
// and exact numeric value. The same biomarker on a different date, or with a
// different result, is a legitimate separate entry.
func measurementKey(f keyFields) string {
	value := ""
	if f.Value != nil {
		value = strconv.FormatFloat(*f.Value, 'g', -1, 64)
	}
	return strings.ToLower(f.Name) + "|" + strPtr(f.DateTested) + "|" + value
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// KeyForRecord derives the equality key of a persisted record
func KeyForRecord(recordType models.RecordType, r models.Record) string {
	return keyFor(recordType)(keyFields{
		Name:       r.Name,
		Brand:      r.Brand,
		DateTested: r.DateTested,
		Value:      r.Value,
	})
}

// KeyForCandidate derives the equality key of an extraction candidate
func KeyForCandidate(recordType models.RecordType, c models.Candidate) string {
	return keyFor(recordType)(keyFields{
		Name:       c.Name,
		Brand:      c.Brand,
		DateTested: c.DateTested,
		Value:      c.Value,
	})
}
