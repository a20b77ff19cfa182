package schedule

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/record"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/schedule"
)

// Register registers schedule routes
func Register(g *echo.Group) {
	g.GET("", GetSchedule)
}

// GetSchedule builds the weekly grid from the user's routine records
func GetSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*record.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	active := true
	records, err := repo.List(ctx, userID, record.ListFilter{
		RecordType: recordTypePtr(models.RecordTypeRoutine),
		IsActive:   &active,
	})
	if err != nil {
		return err
	}

	grid := schedule.Build(records)
	return c.JSON(http.StatusOK, grid.ByDayName())
}

func recordTypePtr(t models.RecordType) *models.RecordType {
	return &t
}
