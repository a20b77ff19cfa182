package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/models"
)

type fakeReviews struct {
	lastUserID string
	lastReq    models.StartReviewRequest
	err        error
}

func (f *fakeReviews) StartReview(_ context.Context, userID string, req models.StartReviewRequest) (*models.ReviewSession, error) {
	f.lastUserID = userID
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReviewSession{ID: "session-1", UserID: userID, RecordType: req.RecordType}, nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func jobMessage(t *testing.T, job kafka.ExtractionJob) *kafka.Message {
	t.Helper()
	payload, err := json.Marshal(job)
	require.NoError(t, err)
	return &kafka.Message{Topic: "extraction-jobs", Value: payload}
}

func TestHandleMessage(t *testing.T) {
	t.Run("valid job starts a review", func(t *testing.T) {
		reviews := &fakeReviews{}
		p := NewExtractionProcessor(reviews, testLogger())

		err := p.HandleMessage(context.Background(), jobMessage(t, kafka.ExtractionJob{
			JobID:       "job-1",
			UserID:      "user-1",
			RecordType:  models.RecordTypeSupplement,
			Text:        "I take zinc",
			RequestedAt: time.Now(),
		}))

		require.NoError(t, err)
		assert.Equal(t, "user-1", reviews.lastUserID)
		assert.Equal(t, models.RecordTypeSupplement, reviews.lastReq.RecordType)
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		reviews := &fakeReviews{}
		p := NewExtractionProcessor(reviews, testLogger())

		err := p.HandleMessage(context.Background(), &kafka.Message{Value: []byte("not json")})

		require.NoError(t, err)
		assert.Empty(t, reviews.lastUserID)
	})

	t.Run("job missing fields is dropped", func(t *testing.T) {
		reviews := &fakeReviews{}
		p := NewExtractionProcessor(reviews, testLogger())

		err := p.HandleMessage(context.Background(), jobMessage(t, kafka.ExtractionJob{
			JobID: "job-2",
			Text:  "no user",
		}))

		require.NoError(t, err)
		assert.Empty(t, reviews.lastUserID)
	})

	t.Run("review failure is returned for redelivery", func(t *testing.T) {
		reviews := &fakeReviews{err: errors.New("provider down")}
		p := NewExtractionProcessor(reviews, testLogger())

		err := p.HandleMessage(context.Background(), jobMessage(t, kafka.ExtractionJob{
			JobID:      "job-3",
			UserID:     "user-1",
			RecordType: models.RecordTypeSupplement,
			Text:       "zinc",
		}))

		assert.Error(t, err)
	})
}
