package review

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sage/pkg/dedup"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// SavePolicy controls how a bulk save reacts to individual record failures
type SavePolicy string

const (
	// SavePolicyAllOrNothing writes the whole selection in one statement; any
	// failure rejects the entire save
	SavePolicyAllOrNothing SavePolicy = "all_or_nothing"
	// SavePolicyPerItem writes records one at a time and reports per-record
	// failures alongside the successes
	SavePolicyPerItem SavePolicy = "per_item"
)

// ParseSavePolicy validates a configured policy name
func ParseSavePolicy(s string) (SavePolicy, error) {
	switch SavePolicy(s) {
	case SavePolicyAllOrNothing, SavePolicyPerItem:
		return SavePolicy(s), nil
	}
	return "", fmt.Errorf("unknown save policy: %s", s)
}

type recordStore interface {
	ListByType(ctx context.Context, userID string, recordType models.RecordType, limit int) ([]models.Record, error)
	Create(ctx context.Context, userID string, req models.CreateRecordRequest) (*models.Record, error)
	CreateBulk(ctx context.Context, userID string, reqs []models.CreateRecordRequest) ([]models.Record, error)
}

type sessionStore interface {
	Create(ctx context.Context, session *models.ReviewSession) error
	Get(ctx context.Context, userID, id string) (*models.ReviewSession, error)
	UpdateState(ctx context.Context, userID, id string, selection, duplicates []int) error
	MarkSaved(ctx context.Context, userID, id string) error
}

type candidateExtractor interface {
	Extract(ctx context.Context, recordType models.RecordType, text string) ([]models.Candidate, error)
}

type recordCache interface {
	GetRecords(ctx context.Context, userID string, recordType models.RecordType) ([]models.Record, bool, error)
	SetRecords(ctx context.Context, userID string, recordType models.RecordType, records []models.Record) error
	Invalidate(ctx context.Context, userID string, recordType models.RecordType) error
}

type eventEmitter interface {
	EmitRecordsBulkCreated(ctx context.Context, userID string, records []models.Record)
	EmitReviewSaved(ctx context.Context, session *models.ReviewSession, created int)
}

// Service runs the extraction review flow: extract, detect duplicates, track
// the user's selection, and bulk-save the result.
type Service struct {
	records   recordStore
	sessions  sessionStore
	extractor candidateExtractor
	cache     recordCache
	emitter   eventEmitter
	logger    ectologger.Logger
	policy    SavePolicy
	listLimit int
}

// NewService wires a review service. cache and emitter may be nil.
func NewService(records recordStore, sessions sessionStore, extractor candidateExtractor, cache recordCache, emitter eventEmitter, logger ectologger.Logger, policy SavePolicy, listLimit int) *Service {
	return &Service{
		records:   records,
		sessions:  sessions,
		extractor: extractor,
		cache:     cache,
		emitter:   emitter,
		logger:    logger,
		policy:    policy,
		listLimit: listLimit,
	}
}

// StartReview extracts candidates from free text, flags the ones that already
// exist, and opens a new active session. Any previous active session for the
// same user and record type is superseded.
func (s *Service) StartReview(ctx context.Context, userID string, req models.StartReviewRequest) (*models.ReviewSession, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.StartReview")
	defer span.End()

	if !req.RecordType.Valid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid record type: %s", req.RecordType))
	}

	candidates, err := s.extractor.Extract(ctx, req.RecordType, req.Text)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("extraction failed")
		return nil, httperror.WrapError(http.StatusBadGateway, err)
	}

	existing, err := s.listRecords(ctx, userID, req.RecordType)
	if err != nil {
		return nil, err
	}

	duplicates := dedup.DetectDuplicates(req.RecordType, candidates, existing)
	state := NewState(candidates, duplicates)

	session := &models.ReviewSession{
		UserID:     userID,
		RecordType: req.RecordType,
		Status:     models.ReviewStatusActive,
	}
	state.ApplyTo(session)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"session_id": session.ID,
		"candidates": len(candidates),
		"duplicates": len(session.Duplicates),
	}).Info("review session started")

	return session, nil
}

// GetSession returns a session. Active sessions get their duplicate flags
// re-scanned against the user's current records first, since records may have
// been added or deleted mid-review.
func (s *Service) GetSession(ctx context.Context, userID, id string) (*models.ReviewSession, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.GetSession")
	defer span.End()

	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if session.Status != models.ReviewStatusActive {
		return session, nil
	}

	existing, err := s.listRecords(ctx, userID, session.RecordType)
	if err != nil {
		return nil, err
	}

	state := StateFromSession(session)
	duplicates := dedup.DetectDuplicates(session.RecordType, session.Candidates, existing)
	if state.Duplicates.Equal(duplicates) {
		return session, nil
	}

	state.SetDuplicates(duplicates)
	state.ApplyTo(session)
	if err := s.sessions.UpdateState(ctx, userID, id, session.Selection, session.Duplicates); err != nil {
		return nil, err
	}

	return session, nil
}

// Toggle flips the selection of one candidate on an active session
func (s *Service) Toggle(ctx context.Context, userID, id string, index int) (*models.ReviewSession, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Toggle")
	defer span.End()

	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.ReviewStatusActive {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("session is %s", session.Status))
	}

	state := StateFromSession(session)
	if err := state.Toggle(index); err != nil {
		switch err {
		case ErrIndexOutOfRange:
			return nil, httperror.WrapError(http.StatusBadRequest, err)
		case ErrDuplicateLocked:
			return nil, httperror.WrapError(http.StatusConflict, err)
		}
		return nil, err
	}

	state.ApplyTo(session)
	if err := s.sessions.UpdateState(ctx, userID, id, session.Selection, session.Duplicates); err != nil {
		return nil, err
	}

	return session, nil
}

// Save persists the selected candidates and closes the session. The
// configured policy decides whether one bad record rejects the whole batch or
// only itself.
func (s *Service) Save(ctx context.Context, userID, id string) (*models.SaveResult, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Save")
	defer span.End()

	session, err := s.sessions.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if session.Status != models.ReviewStatusActive {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("session is %s", session.Status))
	}

	state := StateFromSession(session)
	payloads, indices, err := state.selectedPayloads(session.RecordType)
	if err != nil {
		return nil, httperror.WrapError(http.StatusBadRequest, err)
	}

	result := &models.SaveResult{
		SessionID: session.ID,
		Policy:    string(s.policy),
	}

	switch s.policy {
	case SavePolicyPerItem:
		for n, payload := range payloads {
			created, err := s.records.Create(ctx, userID, payload)
			if err != nil {
				result.Failed = append(result.Failed, models.SaveFailure{
					Index: indices[n],
					Name:  payload.Name,
					Error: err.Error(),
				})
				continue
			}
			result.Created = append(result.Created, *created)
		}
		if len(result.Created) == 0 {
			return nil, httperror.NewHTTPError(http.StatusBadGateway, "all records failed to save")
		}
	default:
		created, err := s.records.CreateBulk(ctx, userID, payloads)
		if err != nil {
			return nil, err
		}
		result.Created = created
	}

	if err := s.sessions.MarkSaved(ctx, userID, id); err != nil {
		return nil, err
	}
	session.Status = models.ReviewStatusSaved

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userID, session.RecordType); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("failed to invalidate record cache")
		}
	}
	if s.emitter != nil {
		s.emitter.EmitRecordsBulkCreated(ctx, userID, result.Created)
		s.emitter.EmitReviewSaved(ctx, session, len(result.Created))
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"session_id": session.ID,
		"created":    len(result.Created),
		"failed":     len(result.Failed),
	}).Info("review session saved")

	return result, nil
}

// listRecords reads the user's records of one type, serving from cache when
// it is fresh.
func (s *Service) listRecords(ctx context.Context, userID string, recordType models.RecordType) ([]models.Record, error) {
	if s.cache != nil {
		records, ok, err := s.cache.GetRecords(ctx, userID, recordType)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("record cache read failed")
		} else if ok {
			return records, nil
		}
	}

	records, err := s.records.ListByType(ctx, userID, recordType, s.listLimit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRecords(ctx, userID, recordType, records); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warn("record cache write failed")
		}
	}

	return records, nil
}
