package models

import "time"

// Review session statuses
const (
	ReviewStatusActive     = "active"
	ReviewStatusSaved      = "saved"
	ReviewStatusSuperseded = "superseded"
)

// ReviewSession is the persisted state of one extraction review flow. A user
// has at most one active session per record type; starting a new extraction
// supersedes the previous one.
type ReviewSession struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	RecordType RecordType  `json:"record_type"`
	Status     string      `json:"status"`
	Candidates []Candidate `json:"candidates"`
	Duplicates []int       `json:"duplicates"` // indices into Candidates, sorted
	Selection  []int       `json:"selection"`  // indices into Candidates, sorted
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// StartReviewRequest is the request for a synchronous extraction
type StartReviewRequest struct {
	RecordType RecordType `json:"record_type" validate:"required"`
	Text       string     `json:"text" validate:"required"`
}

// ToggleRequest toggles the selection state of one candidate index
type ToggleRequest struct {
	Index *int `json:"index" validate:"required"`
}

// SaveFailure reports a single rejected record under the per-item save policy
type SaveFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// SaveResult is the outcome of saving a review session
type SaveResult struct {
	SessionID string        `json:"session_id"`
	Created   []Record      `json:"created"`
	Failed    []SaveFailure `json:"failed,omitempty"`
	Policy    string        `json:"policy"`
}

// ExtractionJobRequest enqueues an asynchronous extraction
type ExtractionJobRequest struct {
	RecordType RecordType `json:"record_type" validate:"required"`
	Text       string     `json:"text" validate:"required"`
}

// ExtractionJobResponse acknowledges an enqueued extraction job
type ExtractionJobResponse struct {
	JobID      string     `json:"job_id"`
	RecordType RecordType `json:"record_type"`
	Status     string     `json:"status"`
}
