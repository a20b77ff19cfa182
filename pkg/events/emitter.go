package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/models"
)

// Event types published to the record events topic
const (
	TypeRecordCreated = "record.created"
	TypeRecordUpdated = "record.updated"
	TypeRecordDeleted = "record.deleted"
	TypeReviewSaved   = "review.saved"
)

// RecordEvent is the envelope published for every record mutation
type RecordEvent struct {
	EventType  string            `json:"event_type"`
	UserID     string            `json:"user_id"`
	RecordID   string            `json:"record_id,omitempty"`
	RecordType models.RecordType `json:"record_type,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Meta       map[string]any    `json:"meta,omitempty"`
}

type publisher interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Emitter publishes record lifecycle events. Emission is best-effort: a
// publish failure is logged but never fails the request that caused it.
type Emitter struct {
	publisher publisher
	topic     string
	logger    ectologger.Logger
}

func NewEmitter(publisher publisher, topic string, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

func (e *Emitter) emit(ctx context.Context, event RecordEvent) {
	event.OccurredAt = time.Now().UTC()
	if err := e.publisher.Publish(ctx, e.topic, event.UserID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", event.EventType).Error("failed to emit event")
	}
}

func (e *Emitter) EmitRecordCreated(ctx context.Context, record models.Record) {
	e.emit(ctx, RecordEvent{
		EventType:  TypeRecordCreated,
		UserID:     record.UserID,
		RecordID:   record.ID,
		RecordType: record.RecordType,
	})
}

func (e *Emitter) EmitRecordUpdated(ctx context.Context, record models.Record) {
	e.emit(ctx, RecordEvent{
		EventType:  TypeRecordUpdated,
		UserID:     record.UserID,
		RecordID:   record.ID,
		RecordType: record.RecordType,
	})
}

func (e *Emitter) EmitRecordDeleted(ctx context.Context, userID, recordID string, recordType models.RecordType) {
	e.emit(ctx, RecordEvent{
		EventType:  TypeRecordDeleted,
		UserID:     userID,
		RecordID:   recordID,
		RecordType: recordType,
	})
}

// EmitRecordsBulkCreated publishes one created event per record so consumers
// never need to understand batches.
func (e *Emitter) EmitRecordsBulkCreated(ctx context.Context, userID string, records []models.Record) {
	for _, record := range records {
		e.EmitRecordCreated(ctx, record)
	}
}

func (e *Emitter) EmitReviewSaved(ctx context.Context, session *models.ReviewSession, created int) {
	e.emit(ctx, RecordEvent{
		EventType:  TypeReviewSaved,
		UserID:     session.UserID,
		RecordType: session.RecordType,
		Meta: map[string]any{
			"session_id": session.ID,
			"created":    created,
		},
	})
}
