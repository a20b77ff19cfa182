package dedup

import "github.com/Ramsey-B/sage/pkg/models"

// DetectDuplicates compares each candidate against every existing record of
// the same type and returns the indices of candidates that already exist.
// Candidates are never compared against each other, so two identical
// candidates in the same batch both stay selectable.
func DetectDuplicates(recordType models.RecordType, candidates []models.Candidate, existing []models.Record) IndexSet {
	duplicates := make(IndexSet)
	if len(candidates) == 0 || len(existing) == 0 {
		return duplicates
	}

	existingKeys := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		existingKeys[KeyForRecord(recordType, r)] = struct{}{}
	}

	for i, c := range candidates {
		if _, ok := existingKeys[KeyForCandidate(recordType, c)]; ok {
			duplicates.Add(i)
		}
	}

	return duplicates
}
