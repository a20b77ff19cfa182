package extraction

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sage/config"
	sagecontext "github.com/Ramsey-B/sage/pkg/context"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/review"
	"github.com/Ramsey-B/sage/pkg/utils"
)

// Register registers extraction routes
func Register(g *echo.Group) {
	g.POST("", Extract)
	g.POST("/jobs", EnqueueJob)
}

// Extract runs a synchronous extraction and opens a review session
func Extract(c echo.Context) error {
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

// EnqueueJob queues an extraction to run asynchronously on the consumer
func EnqueueJob(c echo.Context) error {
	ctx := c.Request().Context()
	userID := sagecontext.GetUserID(ctx)
	if userID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "user id is required")
	}

	req, err := utils.BindRequest[models.ExtractionJobRequest](c)
	if err != nil {
		return err
	}
	if !req.RecordType.Valid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid record_type")
	}

	ctx, producer, err := ectoinject.GetContext[*kafka.Producer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}
	ctx, cfg, err := ectoinject.GetContext[*config.Config](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	job := kafka.ExtractionJob{
		JobID:       uuid.NewString(),
		UserID:      userID,
		RecordType:  req.RecordType,
		Text:        req.Text,
		RequestedAt: time.Now().UTC(),
	}

	if err := producer.Publish(ctx, cfg.KafkaExtractionTopic, userID, job); err != nil {
		return httperror.WrapError(http.StatusBadGateway, err)
	}

	return c.JSON(http.StatusAccepted, models.ExtractionJobResponse{
		JobID:      job.JobID,
		RecordType: job.RecordType,
		Status:     "queued",
	})
}
