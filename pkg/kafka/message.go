package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ramsey-B/sage/pkg/models"
)

// Message is a consumed kafka message decoupled from the client library
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
}

// ExtractionJob is the payload of an asynchronous extraction request
type ExtractionJob struct {
	JobID       string            `json:"job_id"`
	UserID      string            `json:"user_id"`
	RecordType  models.RecordType `json:"record_type"`
	Text        string            `json:"text"`
	RequestedAt time.Time         `json:"requested_at"`
}

// ParseExtractionJob decodes and validates an extraction job payload
func ParseExtractionJob(value []byte) (*ExtractionJob, error) {
	var job ExtractionJob
	if err := json.Unmarshal(value, &job); err != nil {
		return nil, fmt.Errorf("malformed extraction job: %w", err)
	}
	if job.UserID == "" {
		return nil, fmt.Errorf("extraction job is missing user_id")
	}
	if !job.RecordType.Valid() {
		return nil, fmt.Errorf("extraction job has invalid record type: %s", job.RecordType)
	}
	if job.Text == "" {
		return nil, fmt.Errorf("extraction job has no text")
	}
	return &job, nil
}
