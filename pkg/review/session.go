package review

import (
	"errors"

	"github.com/Ramsey-B/sage/pkg/dedup"
	"github.com/Ramsey-B/sage/pkg/models"
)

var (
	// ErrIndexOutOfRange means the toggled index does not refer to a candidate
	ErrIndexOutOfRange = errors.New("candidate index out of range")
	// ErrDuplicateLocked means the candidate duplicates an existing record and
	// cannot be selected
	ErrDuplicateLocked = errors.New("candidate duplicates an existing record")
	// ErrNothingSelected means a save was attempted with an empty selection
	ErrNothingSelected = errors.New("no candidates selected")
)

// State is the in-memory selection state of a review session. Duplicates are
// locked out of the selection; everything else starts selected.
type State struct {
	Candidates []models.Candidate
	Duplicates dedup.IndexSet
	Selection  dedup.IndexSet
}

// NewState builds the initial state for a fresh batch of candidates: every
// non-duplicate candidate is selected.
func NewState(candidates []models.Candidate, duplicates dedup.IndexSet) State {
	selection := make(dedup.IndexSet, len(candidates))
	for i := range candidates {
		if !duplicates.Has(i) {
			selection.Add(i)
		}
	}
	return State{
		Candidates: candidates,
		Duplicates: duplicates.Clone(),
		Selection:  selection,
	}
}

// StateFromSession rehydrates the state of a persisted session
func StateFromSession(session *models.ReviewSession) State {
	return State{
		Candidates: session.Candidates,
		Duplicates: dedup.NewIndexSet(session.Duplicates...),
		Selection:  dedup.NewIndexSet(session.Selection...),
	}
}

// ApplyTo writes the state back onto a session in its persisted form
func (st *State) ApplyTo(session *models.ReviewSession) {
	session.Candidates = st.Candidates
	session.Duplicates = st.Duplicates.Slice()
	session.Selection = st.Selection.Slice()
}

// Toggle flips the selection of one candidate. Duplicates cannot be selected.
func (st *State) Toggle(index int) error {
	if index < 0 || index >= len(st.Candidates) {
		return ErrIndexOutOfRange
	}
	if st.Duplicates.Has(index) {
		return ErrDuplicateLocked
	}

	if st.Selection.Has(index) {
		st.Selection.Remove(index)
	} else {
		st.Selection.Add(index)
	}
	return nil
}

// SetDuplicates replaces the duplicate set after a re-scan against fresh
// records. An unchanged set is a no-op. Newly duplicate candidates are
// deselected; candidates that stopped being duplicates are NOT auto-selected,
// the user has to opt back in. Selections of unrelated candidates are kept.
func (st *State) SetDuplicates(duplicates dedup.IndexSet) {
	if st.Duplicates.Equal(duplicates) {
		return
	}

	st.Duplicates = duplicates.Clone()
	for i := range duplicates {
		st.Selection.Remove(i)
	}
}

// SelectedCandidates returns the selected candidates in index order
func (st *State) SelectedCandidates() []models.Candidate {
	indices := st.Selection.Slice()
	out := make([]models.Candidate, 0, len(indices))
	for _, i := range indices {
		out = append(out, st.Candidates[i])
	}
	return out
}

// selectedPayloads maps the selection to persistence payloads. The save is
// rejected outright when nothing is selected.
func (st *State) selectedPayloads(recordType models.RecordType) ([]models.CreateRecordRequest, []int, error) {
	indices := st.Selection.Slice()
	if len(indices) == 0 {
		return nil, nil, ErrNothingSelected
	}

	payloads := make([]models.CreateRecordRequest, 0, len(indices))
	for _, i := range indices {
		payloads = append(payloads, st.Candidates[i].ToCreateRequest(recordType))
	}
	return payloads, indices, nil
}

// BuildPayloads maps the current selection to persistence payloads, stripping
// extraction metadata.
func (st *State) BuildPayloads(recordType models.RecordType) ([]models.CreateRecordRequest, error) {
	payloads, _, err := st.selectedPayloads(recordType)
	return payloads, err
}
