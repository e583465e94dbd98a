package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/repository"
	"github.com/caqueta-electoral/divipola/internal/errors"
)

func (c *Controller) initHierarchyRoutes() {
	c.Group.GET("/municipalities/:id", c.GetMunicipality)
	c.Group.GET("/municipalities/:id/zones", c.GetMunicipalityZones)
	c.Group.GET("/zones/:id", c.GetZone)
	c.Group.GET("/zones/:id/polling-places", c.GetZonePollingPlaces)
	c.Group.GET("/polling-places/:id", c.GetPollingPlace)
	c.Group.GET("/polling-places/:id/tables", c.GetPollingPlaceTables)
	c.Group.GET("/tables/:id", c.GetTable)
}

// MunicipalityResponse is a municipality with the size of its hierarchy.
type MunicipalityResponse struct {
	*entities.Municipality
	Zones         int `json:"zones"`
	PollingPlaces int `json:"polling_places"`
}

// ZoneResponse is a zone with its capacity policy.
type ZoneResponse struct {
	*entities.Zone
	Special bool `json:"special"`
}

// PollingPlaceResponse is a polling place with its allocation state.
type PollingPlaceResponse struct {
	*entities.PollingPlace
	ActiveTables    int   `json:"active_tables"`
	AllocatedVoters int64 `json:"allocated_voters"`
}

// TableResponse is a voting table with its printed number.
type TableResponse struct {
	*entities.Table
	DisplayNumber string `json:"display_number"`
	Captured      *bool  `json:"captured,omitempty"`
}

func newZoneResponse(z *entities.Zone) ZoneResponse {
	return ZoneResponse{Zone: z, Special: z.Kind.IsSpecial()}
}

func newTableResponse(t *entities.Table) TableResponse {
	return TableResponse{Table: t, DisplayNumber: t.DisplayNumber()}
}

// GetMunicipality handles GET /api/v2/municipalities/:id
func (c *Controller) GetMunicipality(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid municipality ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		mun, err := c.Store.Municipalities().GetByID(rctx, id)
		if err != nil {
			return nil, err
		}
		zones, err := c.Store.Zones().GetByMunicipality(rctx, id)
		if err != nil {
			return nil, queryError(err, "municipality-zones")
		}
		places, err := c.Store.PollingPlaces().GetByMunicipality(rctx, id)
		if err != nil {
			return nil, queryError(err, "municipality-polling-places")
		}
		return MunicipalityResponse{Municipality: mun, Zones: len(zones), PollingPlaces: len(places)}, nil
	}, "Failed to get municipality")
}

// GetMunicipalityZones handles GET /api/v2/municipalities/:id/zones
func (c *Controller) GetMunicipalityZones(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid municipality ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		if _, err := c.Store.Municipalities().GetByID(rctx, id); err != nil {
			return nil, err
		}
		zones, err := c.Store.Zones().GetByMunicipality(rctx, id)
		if err != nil {
			return nil, queryError(err, "municipality-zones")
		}
		out := make([]ZoneResponse, 0, len(zones))
		for _, z := range zones {
			out = append(out, newZoneResponse(z))
		}
		return out, nil
	}, "Failed to list zones")
}

// GetZone handles GET /api/v2/zones/:id
func (c *Controller) GetZone(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid zone ID")
	}

	return c.cached(ctx, func() (any, error) {
		z, err := c.Store.Zones().GetByID(ctx.Request().Context(), id)
		if err != nil {
			return nil, err
		}
		return newZoneResponse(z), nil
	}, "Failed to get zone")
}

// GetZonePollingPlaces handles GET /api/v2/zones/:id/polling-places
func (c *Controller) GetZonePollingPlaces(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid zone ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		if _, err := c.Store.Zones().GetByID(rctx, id); err != nil {
			return nil, err
		}
		places, err := c.Store.PollingPlaces().GetByZone(rctx, id)
		if err != nil {
			return nil, queryError(err, "zone-polling-places")
		}
		out := make([]PollingPlaceResponse, 0, len(places))
		for _, p := range places {
			resp, err := c.pollingPlaceResponse(rctx, p)
			if err != nil {
				return nil, err
			}
			out = append(out, resp)
		}
		return out, nil
	}, "Failed to list polling places")
}

// GetPollingPlace handles GET /api/v2/polling-places/:id
func (c *Controller) GetPollingPlace(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid polling place ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		p, err := c.Store.PollingPlaces().GetByID(rctx, id)
		if err != nil {
			return nil, err
		}
		return c.pollingPlaceResponse(rctx, p)
	}, "Failed to get polling place")
}

// GetPollingPlaceTables handles GET /api/v2/polling-places/:id/tables
func (c *Controller) GetPollingPlaceTables(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid polling place ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		if _, err := c.Store.PollingPlaces().GetByID(rctx, id); err != nil {
			return nil, err
		}
		tables, err := c.Store.Tables().GetByPollingPlace(rctx, id)
		if err != nil {
			return nil, queryError(err, "polling-place-tables")
		}
		out := make([]TableResponse, 0, len(tables))
		for _, t := range tables {
			out = append(out, newTableResponse(t))
		}
		return out, nil
	}, "Failed to list tables")
}

// GetTable handles GET /api/v2/tables/:id
func (c *Controller) GetTable(ctx echo.Context) error {
	id, err := c.pathID(ctx)
	if err != nil {
		return c.fail(ctx, err, "Invalid table ID")
	}

	return c.cached(ctx, func() (any, error) {
		rctx := ctx.Request().Context()
		t, err := c.Store.Tables().GetByID(rctx, id)
		if err != nil {
			return nil, err
		}
		captured := true
		if _, err := c.Store.Captures().GetByTable(rctx, id); err != nil {
			if !errors.Is(err, repository.ErrCaptureNotFound) {
				return nil, queryError(err, "table-capture")
			}
			captured = false
		}
		resp := newTableResponse(t)
		resp.Captured = &captured
		return resp, nil
	}, "Failed to get table")
}

func (c *Controller) pollingPlaceResponse(ctx context.Context, p *entities.PollingPlace) (PollingPlaceResponse, error) {
	tables, err := c.Store.Tables().GetActiveByPollingPlace(ctx, p.ID)
	if err != nil {
		return PollingPlaceResponse{}, queryError(err, "polling-place-tables")
	}
	resp := PollingPlaceResponse{PollingPlace: p, ActiveTables: len(tables)}
	for _, t := range tables {
		resp.AllocatedVoters += t.Voters
	}
	return resp, nil
}

func queryError(err error, operation string) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}
