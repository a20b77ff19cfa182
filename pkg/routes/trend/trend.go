package trend

import (
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/record"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/trend"
)

// Register registers trend routes
func Register(g *echo.Group) {
	g.GET("/biomarkers", BiomarkerTrend)
}

// BiomarkerTrend fits a trend line through one biomarker's test history
func BiomarkerTrend(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "name query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, err := repo.ListByType(ctx, userID, models.RecordTypeBiomarker, 0)
	if err != nil {
		return err
	}

	points := []trend.Point{}
	for _, r := range records {
		if !strings.EqualFold(r.Name, name) || r.Value == nil || r.DateTested == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", *r.DateTested)
		if err != nil {
			continue
		}
		points = append(points, trend.Point{Date: date, Value: *r.Value})
	}

	result, err := trend.Compute(points)
	if err != nil {
		return httperror.WrapError(http.StatusUnprocessableEntity, err)
	}

	return c.JSON(http.StatusOK, result)
}
