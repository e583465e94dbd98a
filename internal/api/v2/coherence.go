package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/caqueta-electoral/divipola/internal/coherence"
)

func (c *Controller) initCoherenceRoutes() {
	c.Group.GET("/coherence", c.GetCoherence)
}

// GetCoherence handles GET /api/v2/coherence[?municipality=ID]. The report is
// computed on every request.
func (c *Controller) GetCoherence(ctx echo.Context) error {
	scope := coherence.Whole()
	if raw := ctx.QueryParam(queryMunicipality); raw != "" {
		id, err := parseID(raw, queryMunicipality)
		if err != nil {
			return c.fail(ctx, err, "Invalid municipality ID")
		}
		scope = coherence.Municipality(id)
	}

	report, err := c.validator.Validate(ctx.Request().Context(), scope)
	if err != nil {
		return c.fail(ctx, err, "Coherence validation failed")
	}
	return ctx.JSON(http.StatusOK, report)
}
