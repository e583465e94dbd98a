package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caqueta-electoral/divipola/internal/capture"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
)

func (c *Controller) initCaptureRoutes() {
	c.Group.GET("/tables/:id/capture", c.GetCapture)
	c.Group.POST("/tables/:id/capture", c.SubmitCapture)
}

// CaptureRequest is the body of a capture submission.
type CaptureRequest struct {
	ValidVotes   int64  `json:"valid_votes"`
	BlankVotes   int64  `json:"blank_votes"`
	NullVotes    int64  `json:"null_votes"`
	Observations string `json:"observations"`
}

// CaptureResponse echoes a stored capture.
type CaptureResponse struct {
	ID           uint   `json:"id"`
	TableID      uint   `json:"table_id"`
	ValidVotes   int64  `json:"valid_votes"`
	BlankVotes   int64  `json:"blank_votes"`
	NullVotes    int64  `json:"null_votes"`
	TotalVotes   int64  `json:"total_votes"`
	Observations string `json:"observations,omitempty"`
	ConfirmedAt  string `json:"confirmed_at"`
}

// SubmitCapture handles POST /api/v2/tables/:id/capture
func (c *Controller) SubmitCapture(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid table ID")
	}

	var req CaptureRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid capture body", http.StatusBadRequest)
	}

	captured, err := c.captures.Submit(ctx.Request().Context(), capture.Submission{
		TableID:      id,
		ValidVotes:   req.ValidVotes,
		BlankVotes:   req.BlankVotes,
		NullVotes:    req.NullVotes,
		Observations: req.Observations,
	})
	if err != nil {
		return c.fail(ctx, err, "Capture rejected")
	}

	c.forgetTable(id)
	return ctx.JSON(http.StatusCreated, newCaptureResponse(captured))
}

// GetCapture handles GET /api/v2/tables/:id/capture
func (c *Controller) GetCapture(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid table ID")
	}

	return c.cached(ctx, func() (any, error) {
		captured, err := c.captures.Get(ctx.Request().Context(), id)
		if err != nil {
			return nil, err
		}
		return newCaptureResponse(captured), nil
	}, "Failed to get capture")
}

func newCaptureResponse(captured *entities.Capture) CaptureResponse {
	return CaptureResponse{
		ID:           captured.ID,
		TableID:      captured.TableID,
		ValidVotes:   captured.ValidVotes,
		BlankVotes:   captured.BlankVotes,
		NullVotes:    captured.NullVotes,
		TotalVotes:   captured.TotalVotes(),
		Observations: captured.Observations,
		ConfirmedAt:  captured.ConfirmedAt.UTC().Format(time.RFC3339),
	}
}

// forgetTable drops the cached reads a capture submission changes.
func (c *Controller) forgetTable(id uint) {
	for _, path := range []string{"/api/v2/tables/%d", "/api/v2/tables/%d/capture"} {
		c.queryCache.Delete(http.MethodGet + cacheKeySeparator + fmt.Sprintf(path, id))
	}
}
