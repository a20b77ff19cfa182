package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recordrepo "github.com/Ramsey-B/sage/internal/repositories/record"
	sessionrepo "github.com/Ramsey-B/sage/internal/repositories/reviewsession"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/dedup"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/review"
)

// scriptedExtractor returns a fixed candidate batch, so the flow under test
// is deterministic and needs no provider credentials.
type scriptedExtractor struct {
	candidates []models.Candidate
}

func (s *scriptedExtractor) Extract(_ context.Context, _ models.RecordType, _ string) ([]models.Candidate, error) {
	return s.candidates, nil
}

func testDB(t *testing.T) database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("Database not configured")
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host,
		envOr("DB_PORT", "5432"),
		envOr("DB_USER_NAME", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_NAME", "sage"),
	)
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return database.NewDatabaseInstance(db, testLogger())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func strp(s string) *string {
	return &s
}

func TestReviewFlow(t *testing.T) {
	db := testDB(t)
	logger := testLogger()
	ctx := context.Background()
	userID := uuid.NewString()

	records := recordrepo.NewRepository(db, logger)
	sessions := sessionrepo.NewRepository(db, logger)

	// the user already tracks thorne magnesium
	_, err := records.Create(ctx, userID, models.CreateRecordRequest{
		RecordType: models.RecordTypeSupplement,
		Name:       "magnesium",
		Brand:      strp("Thorne"),
	})
	require.NoError(t, err)

	extractor := &scriptedExtractor{candidates: []models.Candidate{
		{Name: "Magnesium", Brand: strp("thorne"), Confidence: 0.95},
		{Name: "Creatine", Confidence: 0.9},
		{Name: "Zinc", Confidence: 0.85},
	}}
	svc := review.NewService(records, sessions, extractor, nil, nil, logger, review.SavePolicyAllOrNothing, 1000)

	session, err := svc.StartReview(ctx, userID, models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "I take thorne magnesium, creatine and zinc",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, session.Duplicates, "existing magnesium should be flagged")
	assert.Equal(t, []int{1, 2}, session.Selection)

	// user deselects zinc
	session, err = svc.Toggle(ctx, userID, session.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, session.Selection)

	result, err := svc.Save(ctx, userID, session.ID)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "Creatine", result.Created[0].Name)

	saved, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSaved, saved.Status)

	// a second save must be rejected
	_, err = svc.Save(ctx, userID, session.ID)
	assert.Error(t, err)

	stored, err := records.ListByType(ctx, userID, models.RecordTypeSupplement, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestReviewRescanAfterConcurrentSave(t *testing.T) {
	db := testDB(t)
	logger := testLogger()
	ctx := context.Background()
	userID := uuid.NewString()

	records := recordrepo.NewRepository(db, logger)
	sessions := sessionrepo.NewRepository(db, logger)

	extractor := &scriptedExtractor{candidates: []models.Candidate{
		{Name: "Creatine", Confidence: 0.9},
		{Name: "Zinc", Confidence: 0.85},
	}}
	svc := review.NewService(records, sessions, extractor, nil, nil, logger, review.SavePolicyAllOrNothing, 1000)

	session, err := svc.StartReview(ctx, userID, models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "creatine and zinc",
	})
	require.NoError(t, err)
	require.Empty(t, session.Duplicates)

	// a zinc record lands through the direct API mid-review
	_, err = records.Create(ctx, userID, models.CreateRecordRequest{
		RecordType: models.RecordTypeSupplement,
		Name:       "ZINC",
	})
	require.NoError(t, err)

	refreshed, err := svc.GetSession(ctx, userID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, refreshed.Duplicates)
	assert.Equal(t, []int{0}, refreshed.Selection)
}

func TestDuplicateScanAndResolve(t *testing.T) {
	db := testDB(t)
	logger := testLogger()
	ctx := context.Background()
	userID := uuid.NewString()

	records := recordrepo.NewRepository(db, logger)

	first, err := records.Create(ctx, userID, models.CreateRecordRequest{
		RecordType: models.RecordTypeSupplement,
		Name:       "Omega-3",
	})
	require.NoError(t, err)

	second, err := records.Create(ctx, userID, models.CreateRecordRequest{
		RecordType: models.RecordTypeSupplement,
		Name:       "omega-3",
	})
	require.NoError(t, err)

	stored, err := records.ListByType(ctx, userID, models.RecordTypeSupplement, 0)
	require.NoError(t, err)

	groups := dedup.FindDuplicateGroups(models.RecordTypeSupplement, stored)
	require.Len(t, groups, 1)
	assert.Equal(t, first.ID, groups[0].Keep().ID)

	deleted, err := records.DeleteBatch(ctx, userID, []string{second.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := records.ListByType(ctx, userID, models.RecordTypeSupplement, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, first.ID, remaining[0].ID)
}

func TestActiveSessionSupersede(t *testing.T) {
	db := testDB(t)
	logger := testLogger()
	ctx := context.Background()
	userID := uuid.NewString()

	records := recordrepo.NewRepository(db, logger)
	sessions := sessionrepo.NewRepository(db, logger)

	extractor := &scriptedExtractor{candidates: []models.Candidate{{Name: "Zinc", Confidence: 0.8}}}
	svc := review.NewService(records, sessions, extractor, nil, nil, logger, review.SavePolicyAllOrNothing, 1000)

	first, err := svc.StartReview(ctx, userID, models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc",
	})
	require.NoError(t, err)

	second, err := svc.StartReview(ctx, userID, models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc again",
	})
	require.NoError(t, err)

	active, err := sessions.GetActive(ctx, userID, models.RecordTypeSupplement)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	superseded, err := sessions.Get(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusSuperseded, superseded.Status)
}
