package reviewsession

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const table = "review_sessions"

var columns = []string{
	"id", "user_id", "record_type", "status", "candidates", "duplicates",
	"selection", "created_at", "updated_at",
}

// row is the persisted shape of a session; candidate and index lists live in
// jsonb columns.
type row struct {
	ID         string                             `db:"id"`
	UserID     string                             `db:"user_id"`
	RecordType string                             `db:"record_type"`
	Status     string                             `db:"status"`
	Candidates database.JSONB[[]models.Candidate] `db:"candidates"`
	Duplicates database.JSONB[[]int]              `db:"duplicates"`
	Selection  database.JSONB[[]int]              `db:"selection"`
	CreatedAt  time.Time                          `db:"created_at"`
	UpdatedAt  time.Time                          `db:"updated_at"`
}

func (r row) toModel() *models.ReviewSession {
	return &models.ReviewSession{
		ID:         r.ID,
		UserID:     r.UserID,
		RecordType: models.RecordType(r.RecordType),
		Status:     r.Status,
		Candidates: r.Candidates.GetValue(),
		Duplicates: emptyIfNil(r.Duplicates.GetValue()),
		Selection:  emptyIfNil(r.Selection.GetValue()),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func emptyIfNil(indices []int) []int {
	if indices == nil {
		return []int{}
	}
	return indices
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new active session and supersedes any active session the
// user already has for the same record type, in one transaction.
func (r *Repository) Create(ctx context.Context, session *models.ReviewSession) error {
	ctx, span := tracing.StartSpan(ctx, "reviewsession.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	session.ID = uuid.NewString()
	session.Status = models.ReviewStatusActive
	session.CreatedAt = now
	session.UpdatedAt = now

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}
	defer tx.Rollback(ctx)

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", models.ReviewStatusSuperseded),
		ub.Assign("updated_at", now),
	)
	ub.Where(
		ub.Equal("user_id", session.UserID),
		ub.Equal("record_type", string(session.RecordType)),
		ub.Equal("status", models.ReviewStatusActive),
	)

	query, args := ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to supersede active session")
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(table).Cols(columns...)
	ib.Values(
		session.ID,
		session.UserID,
		string(session.RecordType),
		session.Status,
		database.JSONB[[]models.Candidate]{Data: session.Candidates},
		database.JSONB[[]int]{Data: session.Duplicates},
		database.JSONB[[]int]{Data: session.Selection},
		session.CreatedAt,
		session.UpdatedAt,
	)

	query, args = ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create review session")
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	return tx.Commit(ctx)
}

// Get returns one session by id
func (r *Repository) Get(ctx context.Context, userID, id string) (*models.ReviewSession, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewsession.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(table)
	sb.Where(sb.Equal("id", id), sb.Equal("user_id", userID))

	query, args := sb.Build()

	var result row
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "review session not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get review session")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return result.toModel(), nil
}

// GetActive returns the user's active session for a record type, if any
func (r *Repository) GetActive(ctx context.Context, userID string, recordType models.RecordType) (*models.ReviewSession, error) {
	ctx, span := tracing.StartSpan(ctx, "reviewsession.Repository.GetActive")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(table)
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("record_type", string(recordType)),
		sb.Equal("status", models.ReviewStatusActive),
	)

	query, args := sb.Build()

	var result row
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no active review session")
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get active review session")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return result.toModel(), nil
}

// UpdateState replaces the selection and duplicate sets of a session
func (r *Repository) UpdateState(ctx context.Context, userID, id string, selection, duplicates []int) error {
	ctx, span := tracing.StartSpan(ctx, "reviewsession.Repository.UpdateState")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("selection", database.JSONB[[]int]{Data: emptyIfNil(selection)}),
		ub.Assign("duplicates", database.JSONB[[]int]{Data: emptyIfNil(duplicates)}),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("user_id", userID))

	return r.exec(ctx, ub, "failed to update review session state")
}

// MarkSaved closes an active session after a successful save
func (r *Repository) MarkSaved(ctx context.Context, userID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "reviewsession.Repository.MarkSaved")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", models.ReviewStatusSaved),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("user_id", userID), ub.Equal("status", models.ReviewStatusActive))

	return r.exec(ctx, ub, "failed to mark review session saved")
}

func (r *Repository) exec(ctx context.Context, ub *database.UpdateBuilder, errMsg string) error {
	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(errMsg)
		return httperror.WrapError(http.StatusInternalServerError, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return httperror.WrapError(http.StatusInternalServerError, err)
	}
	if count == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "review session not found")
	}
	return nil
}
