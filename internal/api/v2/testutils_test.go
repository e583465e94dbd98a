package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/caqueta-electoral/divipola/internal/conf"
	"github.com/caqueta-electoral/divipola/internal/datastore/entities"
	"github.com/caqueta-electoral/divipola/internal/datastore/testutil"
	"github.com/caqueta-electoral/divipola/internal/observability"
)

// testEnv is a controller over a seeded temporary store.
type testEnv struct {
	e          *echo.Echo
	controller *Controller
	tc         *testutil.TestContext
	metrics    *observability.Metrics

	florencia *entities.Municipality
	seat      *entities.Zone
	rural     *entities.Zone
	escuela   *entities.PollingPlace
	tables    []*entities.Table
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	tc := testutil.Setup(t)
	seed := tc.Seed(t)
	florencia := seed.Municipality(seed.Department("18", "CAQUETA"), "001", "Florencia")
	seat := seed.Zone(florencia, "00")
	rural := seed.Zone(florencia, "99")
	escuela := seed.PollingPlace(florencia, seat, "Escuela X", 1020)
	tables := seed.Tables(escuela, 340, 340, 340)

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	e := echo.New()
	settings := &conf.Settings{Allocation: conf.AllocationSettings{MaxVotersPerTable: 400}}
	controller, err := New(e, tc.Store, settings, WithLogger(tc.Logger), WithMetrics(m))
	require.NoError(t, err)
	t.Cleanup(controller.Shutdown)

	return &testEnv{
		e:          e,
		controller: controller,
		tc:         tc,
		metrics:    m,
		florencia:  florencia,
		seat:       seat,
		rural:      rural,
		escuela:    escuela,
		tables:     tables,
	}
}

func (env *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
