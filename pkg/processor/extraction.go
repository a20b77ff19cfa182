package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

type reviewStarter interface {
	StartReview(ctx context.Context, userID string, req models.StartReviewRequest) (*models.ReviewSession, error)
}

// ExtractionProcessor runs queued extraction jobs from kafka through the
// review flow.
type ExtractionProcessor struct {
	reviews reviewStarter
	logger  ectologger.Logger
}

func NewExtractionProcessor(reviews reviewStarter, logger ectologger.Logger) *ExtractionProcessor {
	return &ExtractionProcessor{
		reviews: reviews,
		logger:  logger,
	}
}

// HandleMessage processes one extraction job. Malformed payloads are dropped
// rather than retried; provider or storage failures return an error so the
// offset stays uncommitted and the job is redelivered.
func (p *ExtractionProcessor) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	ctx, span := tracing.StartSpan(ctx, "processor.ExtractionProcessor.HandleMessage")
	defer span.End()

	job, err := kafka.ParseExtractionJob(msg.Value)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("dropping malformed extraction job")
		return nil
	}

	session, err := p.reviews.StartReview(ctx, job.UserID, models.StartReviewRequest{
		RecordType: job.RecordType,
		Text:       job.Text,
	})
	if err != nil {
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"job_id":     job.JobID,
		"session_id": session.ID,
		"candidates": len(session.Candidates),
	}).Info("extraction job processed")

	return nil
}
