package record

import (
	"context"
	"database/sql"
	"encoding/json"
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

const table = "records"

var columns = []string{
	"id", "user_id", "record_type", "name", "brand", "category", "is_active",
	"value", "unit", "date_tested", "data", "created_at", "updated_at", "deleted_at",
}

// ListFilter narrows a record list query. Nil fields are not applied.
type ListFilter struct {
	RecordType *models.RecordType
	Category   *string
	IsActive   *bool
	Limit      int
	Offset     int
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

// List returns a user's records, soft-deleted ones excluded, oldest first
func (r *Repository) List(ctx context.Context, userID string, filter ListFilter) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.List")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(table)
	sb.Where(sb.Equal("user_id", userID), sb.IsNull("deleted_at"))

	if filter.RecordType != nil {
		sb.Where(sb.Equal("record_type", string(*filter.RecordType)))
	}
	if filter.Category != nil {
		sb.Where(sb.Equal("category", *filter.Category))
	}
	if filter.IsActive != nil {
		sb.Where(sb.Equal("is_active", *filter.IsActive))
	}

	sb.OrderBy("created_at").Asc()
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		sb.Offset(filter.Offset)
	}

	query, args := sb.Build()

	records := []models.Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list records")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return records, nil
}

// ListByType is the shape the review flow needs: every record of one type
func (r *Repository) ListByType(ctx context.Context, userID string, recordType models.RecordType, limit int) ([]models.Record, error) {
	return r.List(ctx, userID, ListFilter{RecordType: &recordType, Limit: limit})
}

// Get returns one record by id
func (r *Repository) Get(ctx context.Context, userID, id string) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Get")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...).From(table)
	sb.Where(sb.Equal("id", id), sb.Equal("user_id", userID), sb.IsNull("deleted_at"))

	query, args := sb.Build()

	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "record not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get record")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return &record, nil
}

// Create persists one new record
func (r *Repository) Create(ctx context.Context, userID string, req models.CreateRecordRequest) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Create")
	defer span.End()

	record := newRecord(userID, req)

	ib := database.NewInsertBuilder()
	ib.InsertInto(table).Cols(insertCols()...)
	ib.Values(insertValues(record)...)

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name", req.Name).Error("failed to create record")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return &record, nil
}

// CreateBulk persists a batch in one statement, so the batch is atomic
func (r *Repository) CreateBulk(ctx context.Context, userID string, reqs []models.CreateRecordRequest) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.CreateBulk")
	defer span.End()

	if len(reqs) == 0 {
		return []models.Record{}, nil
	}

	records := make([]models.Record, 0, len(reqs))
	ib := database.NewInsertBuilder()
	ib.InsertInto(table).Cols(insertCols()...)
	for _, req := range reqs {
		record := newRecord(userID, req)
		records = append(records, record)
		ib.Values(insertValues(record)...)
	}

	query, args := ib.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("count", len(reqs)).Error("failed to bulk create records")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return records, nil
}

// Update applies the non-nil fields of the request to an existing record
func (r *Repository) Update(ctx context.Context, userID, id string, req models.UpdateRecordRequest) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.Update")
	defer span.End()

	record, err := r.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		record.Name = *req.Name
	}
	if req.Brand != nil {
		record.Brand = req.Brand
	}
	if req.Category != nil {
		record.Category = req.Category
	}
	if req.IsActive != nil {
		record.IsActive = *req.IsActive
	}
	if req.Value != nil {
		record.Value = req.Value
	}
	if req.Unit != nil {
		record.Unit = req.Unit
	}
	if req.DateTested != nil {
		record.DateTested = req.DateTested
	}
	if req.Data != nil {
		record.Data = req.Data
	}
	record.UpdatedAt = time.Now().UTC()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("name", record.Name),
		ub.Assign("brand", record.Brand),
		ub.Assign("category", record.Category),
		ub.Assign("is_active", record.IsActive),
		ub.Assign("value", record.Value),
		ub.Assign("unit", record.Unit),
		ub.Assign("date_tested", record.DateTested),
		ub.Assign("data", []byte(record.Data)),
		ub.Assign("updated_at", record.UpdatedAt),
	)
	ub.Where(ub.Equal("id", id), ub.Equal("user_id", userID), ub.IsNull("deleted_at"))

	query, args := ub.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("id", id).Error("failed to update record")
		return nil, httperror.WrapError(http.StatusInternalServerError, err)
	}

	return record, nil
}

// Delete soft-deletes one record
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	count, err := r.deleteWhere(ctx, userID, []string{id})
	if err != nil {
		return err
	}
	if count == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "record not found")
	}
	return nil
}

// DeleteBatch soft-deletes a set of records and reports how many it touched
func (r *Repository) DeleteBatch(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.deleteWhere(ctx, userID, ids)
}

func (r *Repository) deleteWhere(ctx context.Context, userID string, ids []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "record.Repository.deleteWhere")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("deleted_at", time.Now().UTC()),
		ub.Assign("updated_at", time.Now().UTC()),
	)

	idArgs := make([]any, 0, len(ids))
	for _, id := range ids {
		idArgs = append(idArgs, id)
	}
	ub.Where(ub.In("id", idArgs...), ub.Equal("user_id", userID), ub.IsNull("deleted_at"))

	query, args := ub.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to delete records")
		return 0, httperror.WrapError(http.StatusInternalServerError, err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, httperror.WrapError(http.StatusInternalServerError, err)
	}
	return count, nil
}

func newRecord(userID string, req models.CreateRecordRequest) models.Record {
	now := time.Now().UTC()

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	data := req.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	return models.Record{
		ID:         uuid.NewString(),
		UserID:     userID,
		RecordType: req.RecordType,
		Name:       req.Name,
		Brand:      req.Brand,
		Category:   req.Category,
		IsActive:   isActive,
		Value:      req.Value,
		Unit:       req.Unit,
		DateTested: req.DateTested,
		Data:       data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func insertCols() []string {
	return []string{
		"id", "user_id", "record_type", "name", "brand", "category", "is_active",
		"value", "unit", "date_tested", "data", "created_at", "updated_at",
	}
}

func insertValues(r models.Record) []any {
	return []any{
		r.ID, r.UserID, string(r.RecordType), r.Name, r.Brand, r.Category, r.IsActive,
		r.Value, r.Unit, r.DateTested, []byte(r.Data), r.CreatedAt, r.UpdatedAt,
	}
}
