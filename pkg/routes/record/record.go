package record

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/record"
	"github.com/Ramsey-B/sage/pkg/cache"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/dedup"
	"github.com/Ramsey-B/sage/pkg/events"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/utils"
)

const maxListLimit = 1000

// Register registers record routes
func Register(g *echo.Group) {
	g.GET("", ListRecords)
	g.POST("", CreateRecord)
	g.GET("/duplicates", ScanDuplicates)
	g.POST("/duplicates/resolve", ResolveDuplicates)
	g.GET("/:id", GetRecord)
	g.PUT("/:id", UpdateRecord)
	g.DELETE("/:id", DeleteRecord)
}

// ListRecords lists the user's records with optional filters
func ListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	filter := record.ListFilter{Limit: maxListLimit}
	if raw := c.QueryParam("record_type"); raw != "" {
		recordType := models.RecordType(raw)
		if !recordType.Valid() {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid record_type")
		}
		filter.RecordType = &recordType
	}
	if raw := c.QueryParam("category"); raw != "" {
		filter.Category = &raw
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		isActive, err := strconv.ParseBool(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid is_active")
		}
		filter.IsActive = &isActive
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 1000")
		}
		filter.Limit = limit
	}
	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		filter.Offset = offset
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.List(ctx, userID, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RecordListResponse{
		Items:      records,
		TotalCount: len(records),
	})
}

// GetRecord gets one record by id
func GetRecord(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := repo.Get(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// CreateRecord creates one record directly, outside the review flow
func CreateRecord(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.CreateRecordRequest](c)
	if err != nil {
		return err
	}
	if !req.RecordType.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid record_type")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := repo.Create(ctx, userID, req)
	if err != nil {
		return err
	}

	invalidateCache(c, userID, created.RecordType)
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitRecordCreated(ctx, *created)
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateRecord applies a partial update to one record
func UpdateRecord(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.UpdateRecordRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.Update(ctx, userID, c.Param("id"), req)
	if err != nil {
		return err
	}

	invalidateCache(c, userID, updated.RecordType)
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitRecordUpdated(ctx, *updated)
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteRecord soft-deletes one record
func DeleteRecord(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	id := c.Param("id")
	existing, err := repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	invalidateCache(c, userID, existing.RecordType)
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitRecordDeleted(ctx, userID, id, existing.RecordType)
	}

	return c.NoContent(http.StatusNoContent)
}

// ScanDuplicates groups saved records that share a full equality key
func ScanDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	recordType := models.RecordType(c.QueryParam("record_type"))
	if !recordType.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "record_type query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListByType(ctx, userID, recordType, 0)
	if err != nil {
		return err
	}

	groups := dedup.FindDuplicateGroups(recordType, records)
	total := 0
	for _, group := range groups {
		total += len(group.Discard())
	}

	return c.JSON(http.StatusOK, models.DuplicateScanResponse{
		Groups: groups,
		Total:  total,
	})
}

// ResolveDuplicates deletes redundant records. With explicit ids only those
// are removed; otherwise every group is collapsed down to its oldest record.
func ResolveDuplicates(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.ResolveDuplicatesRequest](c)
	if err != nil {
		return err
	}
	if !req.RecordType.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid record_type")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ids := req.IDs
	if len(ids) == 0 {
		records, err := repo.ListByType(ctx, userID, req.RecordType, 0)
		if err != nil {
			return err
		}
		for _, group := range dedup.FindDuplicateGroups(req.RecordType, records) {
			for _, discard := range group.Discard() {
				ids = append(ids, discard.ID)
			}
		}
	}

	deleted, err := repo.DeleteBatch(ctx, userID, ids)
	if err != nil {
		return err
	}

	if deleted > 0 {
		invalidateCache(c, userID, req.RecordType)
		if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
			for _, id := range ids {
				emitter.EmitRecordDeleted(ctx, userID, id, req.RecordType)
			}
		}
	}

	return c.JSON(http.StatusOK, models.ResolveDuplicatesResponse{Deleted: deleted})
}

// invalidateCache is best-effort; a stale list only survives until its TTL
func invalidateCache(c echo.Context, userID string, recordType models.RecordType) {
	ctx := c.Request().Context()
	if ctx, recordCache, err := ectoinject.GetContext[*cache.RecordCache](ctx); err == nil {
		_ = recordCache.Invalidate(ctx, userID, recordType)
	}
}
