package review

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/sage/pkg/models"
)

type fakeRecords struct {
	existing  []models.Record
	created   []models.Record
	failNames map[string]bool
}

func (f *fakeRecords) ListByType(_ context.Context, _ string, _ models.RecordType, _ int) ([]models.Record, error) {
	return f.existing, nil
}

func (f *fakeRecords) Create(_ context.Context, userID string, req models.CreateRecordRequest) (*models.Record, error) {
	if f.failNames[req.Name] {
		return nil, errors.New("constraint violation")
	}
	r := models.Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		RecordType: req.RecordType,
		Name:       req.Name,
		Brand:      req.Brand,
		CreatedAt:  time.Now(),
	}
	f.created = append(f.created, r)
	return &r, nil
}

func (f *fakeRecords) CreateBulk(ctx context.Context, userID string, reqs []models.CreateRecordRequest) ([]models.Record, error) {
	for _, req := range reqs {
		if f.failNames[req.Name] {
			return nil, errors.New("constraint violation")
		}
	}
	out := make([]models.Record, 0, len(reqs))
	for _, req := range reqs {
		r, err := f.Create(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

type fakeSessions struct {
	byID map[string]*models.ReviewSession
}

func (f *fakeSessions) Create(_ context.Context, session *models.ReviewSession) error {
	if f.byID == nil {
		f.byID = map[string]*models.ReviewSession{}
	}
	for _, existing := range f.byID {
		if existing.UserID == session.UserID && existing.RecordType == session.RecordType && existing.Status == models.ReviewStatusActive {
			existing.Status = models.ReviewStatusSuperseded
		}
	}
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	f.byID[session.ID] = session
	return nil
}

func (f *fakeSessions) Get(_ context.Context, userID, id string) (*models.ReviewSession, error) {
	session, ok := f.byID[id]
	if !ok || session.UserID != userID {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "session not found")
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessions) UpdateState(_ context.Context, _, id string, selection, duplicates []int) error {
	f.byID[id].Selection = selection
	f.byID[id].Duplicates = duplicates
	return nil
}

func (f *fakeSessions) MarkSaved(_ context.Context, _, id string) error {
	f.byID[id].Status = models.ReviewStatusSaved
	return nil
}

type fakeExtractor struct {
	candidates []models.Candidate
}

func (f *fakeExtractor) Extract(_ context.Context, _ models.RecordType, _ string) ([]models.Candidate, error) {
	return f.candidates, nil
}

func newTestService(records *fakeRecords, sessions *fakeSessions, extractor *fakeExtractor, policy SavePolicy) *Service {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewService(records, sessions, extractor, nil, nil, logger, policy, 1000)
}

func TestStartReviewFlagsDuplicates(t *testing.T) {
	brand := "Thorne"
	records := &fakeRecords{
		existing: []models.Record{
			{Name: "magnesium", Brand: &brand},
		},
	}
	extractor := &fakeExtractor{
		candidates: []models.Candidate{
			{Name: "Magnesium", Brand: &brand},
			{Name: "Creatine"},
		},
	}
	svc := newTestService(records, &fakeSessions{}, extractor, SavePolicyAllOrNothing)

	session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "I take Thorne magnesium and creatine",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusActive, session.Status)
	assert.Equal(t, []int{0}, session.Duplicates)
	assert.Equal(t, []int{1}, session.Selection)
}

func TestStartReviewSupersedesActiveSession(t *testing.T) {
	sessions := &fakeSessions{}
	extractor := &fakeExtractor{candidates: []models.Candidate{{Name: "Zinc"}}}
	svc := newTestService(&fakeRecords{}, sessions, extractor, SavePolicyAllOrNothing)

	first, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc",
	})
	require.NoError(t, err)

	_, err = svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc again",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReviewStatusSuperseded, sessions.byID[first.ID].Status)
}

func TestStartReviewRejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeRecords{}, &fakeSessions{}, &fakeExtractor{}, SavePolicyAllOrNothing)

	_, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: "mood",
		Text:       "feeling great",
	})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
}

func TestToggleDuplicateConflicts(t *testing.T) {
	records := &fakeRecords{existing: []models.Record{{Name: "Zinc"}}}
	extractor := &fakeExtractor{candidates: []models.Candidate{{Name: "zinc"}, {Name: "Creatine"}}}
	sessions := &fakeSessions{}
	svc := newTestService(records, sessions, extractor, SavePolicyAllOrNothing)

	session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc and creatine",
	})
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), "user-1", session.ID, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))

	updated, err := svc.Toggle(context.Background(), "user-1", session.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, updated.Selection)
}

func TestSaveAllOrNothing(t *testing.T) {
	t.Run("persists the selection and closes the session", func(t *testing.T) {
		records := &fakeRecords{}
		sessions := &fakeSessions{}
		extractor := &fakeExtractor{candidates: []models.Candidate{
			{Name: "Zinc", Confidence: 0.9},
			{Name: "Creatine", Confidence: 0.8},
		}}
		svc := newTestService(records, sessions, extractor, SavePolicyAllOrNothing)

		session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
			RecordType: models.RecordTypeSupplement,
			Text:       "zinc and creatine",
		})
		require.NoError(t, err)

		result, err := svc.Save(context.Background(), "user-1", session.ID)

		require.NoError(t, err)
		assert.Len(t, result.Created, 2)
		assert.Empty(t, result.Failed)
		assert.Equal(t, models.ReviewStatusSaved, sessions.byID[session.ID].Status)
	})

	t.Run("one bad record rejects the batch", func(t *testing.T) {
		records := &fakeRecords{failNames: map[string]bool{"Creatine": true}}
		sessions := &fakeSessions{}
		extractor := &fakeExtractor{candidates: []models.Candidate{
			{Name: "Zinc"},
			{Name: "Creatine"},
		}}
		svc := newTestService(records, sessions, extractor, SavePolicyAllOrNothing)

		session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
			RecordType: models.RecordTypeSupplement,
			Text:       "zinc and creatine",
		})
		require.NoError(t, err)

		_, err = svc.Save(context.Background(), "user-1", session.ID)

		require.Error(t, err)
		assert.Empty(t, records.created)
		assert.Equal(t, models.ReviewStatusActive, sessions.byID[session.ID].Status)
	})
}

func TestSavePerItem(t *testing.T) {
	records := &fakeRecords{failNames: map[string]bool{"Creatine": true}}
	sessions := &fakeSessions{}
	extractor := &fakeExtractor{candidates: []models.Candidate{
		{Name: "Zinc"},
		{Name: "Creatine"},
		{Name: "Ashwagandha"},
	}}
	svc := newTestService(records, sessions, extractor, SavePolicyPerItem)

	session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc, creatine, ashwagandha",
	})
	require.NoError(t, err)

	result, err := svc.Save(context.Background(), "user-1", session.ID)

	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, "Creatine", result.Failed[0].Name)
	assert.Equal(t, models.ReviewStatusSaved, sessions.byID[session.ID].Status)
}

func TestSaveEmptySelection(t *testing.T) {
	sessions := &fakeSessions{}
	extractor := &fakeExtractor{candidates: []models.Candidate{{Name: "Zinc"}}}
	svc := newTestService(&fakeRecords{}, sessions, extractor, SavePolicyAllOrNothing)

	session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc",
	})
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), "user-1", session.ID, 0)
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), "user-1", session.ID)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	assert.Equal(t, models.ReviewStatusActive, sessions.byID[session.ID].Status)
}

func TestGetSessionRescansDuplicates(t *testing.T) {
	records := &fakeRecords{}
	sessions := &fakeSessions{}
	extractor := &fakeExtractor{candidates: []models.Candidate{
		{Name: "Zinc"},
		{Name: "Creatine"},
	}}
	svc := newTestService(records, sessions, extractor, SavePolicyAllOrNothing)

	session, err := svc.StartReview(context.Background(), "user-1", models.StartReviewRequest{
		RecordType: models.RecordTypeSupplement,
		Text:       "zinc and creatine",
	})
	require.NoError(t, err)
	require.Empty(t, session.Duplicates)

	// the user saves a Zinc record in another tab mid-review
	records.existing = append(records.existing, models.Record{Name: "zinc"})

	refreshed, err := svc.GetSession(context.Background(), "user-1", session.ID)

	require.NoError(t, err)
	assert.Equal(t, []int{0}, refreshed.Duplicates)
	assert.Equal(t, []int{1}, refreshed.Selection)
}

func TestParseSavePolicy(t *testing.T) {
	for _, valid := range []string{"all_or_nothing", "per_item"} {
		t.Run(valid, func(t *testing.T) {
			policy, err := ParseSavePolicy(valid)
			require.NoError(t, err)
			assert.Equal(t, SavePolicy(valid), policy)
		})
	}

	_, err := ParseSavePolicy("best_effort")
	assert.Error(t, err)
	assert.Equal(t, fmt.Sprintf("unknown save policy: %s", "best_effort"), err.Error())
}
