package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ema_pricer/internal/models"
	"ema_pricer/internal/modules/config"
	"ema_pricer/internal/modules/health/service"
	pricer "ema_pricer/internal/modules/pricer/service"
	wsgw "ema_pricer/internal/modules/ws_gateway/service"
)

func newTestMux(t *testing.T) (*http.ServeMux, *pricer.Registry, *service.State) {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	reg, err := pricer.NewRegistry(cfg)
	require.NoError(t, err)
	state := service.NewState()

	return NewMux(state, reg, wsgw.NewGateway(cfg, reg, state)), reg, state
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestReadyz(t *testing.T) {
	mux, _, state := newTestMux(t)

	assert.Equal(t, http.StatusServiceUnavailable, do(mux, http.MethodGet, "/readyz", "").Code)
	state.SetReady(true)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodGet, "/livez", "").Code)
}

func TestPrices(t *testing.T) {
	mux, reg, _ := newTestMux(t)

	rec := do(mux, http.MethodGet, "/prices/KELP", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := reg.Observe(models.PriceUpdate{Product: "KELP", Price: 2026})
	require.NoError(t, err)

	rec = do(mux, http.MethodGet, "/prices/kelp", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var q models.Quote
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &q))
	assert.Equal(t, "KELP", q.Product)
	assert.Equal(t, 2026.0, q.AcceptablePrice)

	rec = do(mux, http.MethodGet, "/prices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Quote
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestSnapshotEndpoints(t *testing.T) {
	mux, reg, _ := newTestMux(t)

	rec := do(mux, http.MethodPost, "/snapshot", `{"ema_prices":{"KELP":2030.5}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	q, err := reg.Quote("KELP")
	require.NoError(t, err)
	assert.Equal(t, 2030.5, q.AcceptablePrice)

	rec = do(mux, http.MethodGet, "/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"KELP":2030.5`)

	rec = do(mux, http.MethodPost, "/snapshot", `{"ema_prices":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	mux, reg, _ := newTestMux(t)
	_, err := reg.Observe(models.PriceUpdate{Product: "KELP", Price: 1})
	require.NoError(t, err)

	rec := do(mux, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["products"])
	assert.Equal(t, false, body["ready"])
}
