package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/coherence"
)

func (env *testEnv) scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	env.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestGetCoherenceClean(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodGet, "/api/v2/coherence", "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[coherence.ViolationReport](t, rec)
	assert.True(t, report.Clean())
	assert.Equal(t, "all", report.Scope)
	assert.Equal(t, 1, report.PollingPlaces)
	assert.Equal(t, 3, report.Tables)
}

func TestGetCoherenceCapacityMismatch(t *testing.T) {
	env := setupTestEnvironment(t)
	seed := env.tc.Seed(t)
	place := seed.PollingPlace(env.florencia, env.seat, "Colegio", 400)
	seed.Tables(place, 200, 195)

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/api/v2/coherence?municipality=%d", env.florencia.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[coherence.ViolationReport](t, rec)
	require.Len(t, report.CapacityMismatches, 1)
	assert.Equal(t, place.ID, report.CapacityMismatches[0].EntityID)
	assert.Equal(t, int64(400), *report.CapacityMismatches[0].Expected)
	assert.Equal(t, int64(395), *report.CapacityMismatches[0].Actual)
	assert.Equal(t, 1, report.Total())
}

func TestGetCoherenceUnknownMunicipality(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodGet, "/api/v2/coherence?municipality=9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCoherenceUpdatesViolationGauge(t *testing.T) {
	env := setupTestEnvironment(t)
	env.tc.Seed(t).PollingPlace(env.florencia, nil, "Sin Zona", 0)

	rec := env.do(t, http.MethodGet, "/api/v2/coherence", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, env.scrape(t), `divipola_coherence_violations{kind="orphanedPollingPlace"} 1`)
}
