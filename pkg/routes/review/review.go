package review

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/internal/repositories/reviewsession"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/review"
	"github.com/Ramsey-B/sage/pkg/utils"
)

// Register registers review session routes
func Register(g *echo.Group) {
	g.POST("", StartReview)
	g.GET("/active", GetActiveReview)
	g.GET("/:id", GetReview)
	g.POST("/:id/toggle", ToggleCandidate)
	g.POST("/:id/save", SaveReview)
}

// StartReview extracts candidates from text and opens a review session
func StartReview(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.StartReviewRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	session, err := svc.StartReview(ctx, userID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, session)
}

// GetReview returns a session, re-scanning duplicates if it is still active
func GetReview(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	session, err := svc.GetSession(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session)
}

// GetActiveReview returns the user's active session for a record type
func GetActiveReview(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	recordType := models.RecordType(c.QueryParam("record_type"))
	if !recordType.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "record_type query parameter is required")
	}

	ctx, repo, err := ectoinject.GetContext[*reviewsession.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	active, err := repo.GetActive(ctx, userID, recordType)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	// run through the service so the duplicate flags are fresh
	session, err := svc.GetSession(ctx, userID, active.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session)
}

// ToggleCandidate flips the selection of one candidate
func ToggleCandidate(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.ToggleRequest](c)
	if err != nil {
		return err
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	session, err := svc.Toggle(ctx, userID, c.Param("id"), *req.Index)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, session)
}

// SaveReview persists the selected candidates and closes the session
func SaveReview(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := svc.Save(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
