package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/observability/metrics"
)

func TestSubmitCapture(t *testing.T) {
	env := setupTestEnvironment(t)
	table := env.tables[0]
	target := fmt.Sprintf("/api/v2/tables/%d/capture", table.ID)

	// warm the cache so the submission has something to invalidate
	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v2/tables/%d", table.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, target, `{"valid_votes":200,"blank_votes":5,"null_votes":3,"observations":"ok"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[CaptureResponse](t, rec)
	assert.Equal(t, table.ID, created.TableID)
	assert.Equal(t, int64(208), created.TotalVotes)
	assert.NotEmpty(t, created.ConfirmedAt)

	rec = env.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[CaptureResponse](t, rec).ID)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v2/tables/%d", table.ID), "")
	assert.Equal(t, true, decode[map[string]any](t, rec)["captured"])
}

func TestSubmitCaptureTwiceConflicts(t *testing.T) {
	env := setupTestEnvironment(t)
	target := fmt.Sprintf("/api/v2/tables/%d/capture", env.tables[1].ID)

	rec := env.do(t, http.MethodPost, target, `{"valid_votes":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, target, `{"valid_votes":999}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(100), decode[CaptureResponse](t, rec).ValidVotes)
}

func TestSubmitCaptureRejected(t *testing.T) {
	env := setupTestEnvironment(t)
	target := fmt.Sprintf("/api/v2/tables/%d/capture", env.tables[0].ID)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"negative counts", target, `{"valid_votes":-1}`, http.StatusBadRequest},
		{"malformed body", target, `{"valid_votes":`, http.StatusBadRequest},
		{"unknown table", "/api/v2/tables/9999/capture", `{"valid_votes":1}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodGet, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitCaptureInactiveTable(t *testing.T) {
	env := setupTestEnvironment(t)
	env.tc.Seed(t).Deactivate(env.tables[2])

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/api/v2/tables/%d/capture", env.tables[2].ID), `{"valid_votes":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitCaptureRecordsMetrics(t *testing.T) {
	env := setupTestEnvironment(t)
	target := fmt.Sprintf("/api/v2/tables/%d/capture", env.tables[0].ID)

	env.do(t, http.MethodPost, target, `{"valid_votes":1}`)
	env.do(t, http.MethodPost, target, `{"valid_votes":1}`)

	body := env.scrape(t)
	assert.Contains(t, body, fmt.Sprintf(`divipola_operations_total{operation="%s",status="%s"} 1`,
		metrics.OpCaptureSubmit, metrics.StatusSuccess))
	assert.Contains(t, body, fmt.Sprintf(`divipola_operations_total{operation="%s",status="%s"} 1`,
		metrics.OpCaptureSubmit, metrics.StatusRejected))
}
