package service

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ema_pricer/internal/modules/config"
	health "ema_pricer/internal/modules/health/service"
	pricer "ema_pricer/internal/modules/pricer/service"
)

func newTestGateway(t *testing.T) (*Gateway, *health.State) {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	reg, err := pricer.NewRegistry(cfg)
	require.NoError(t, err)

	state := health.NewState()
	return NewGateway(cfg, reg, state), state
}

func price(v float64) *float64 { return &v }

func TestHandleSeededScenario(t *testing.T) {
	gw, state := newTestGateway(t)

	r := gw.Handle(Request{Op: "price", Product: "kelp", Price: price(100)})
	require.Empty(t, r.Error)
	assert.Equal(t, "KELP", r.Product)
	assert.Equal(t, 100.0, *r.AcceptablePrice)

	r = gw.Handle(Request{Op: "price", Product: "KELP", Price: price(110)})
	require.Empty(t, r.Error)
	assert.InDelta(t, 103.0, *r.AcceptablePrice, 1e-9)

	r = gw.Handle(Request{ID: "q1", Op: "GET", Product: "KELP"})
	require.Empty(t, r.Error)
	assert.Equal(t, "q1", r.ID)
	assert.Equal(t, 2, r.Samples)
	assert.False(t, state.LastUpdate().IsZero())
}

func TestHandleBook(t *testing.T) {
	gw, state := newTestGateway(t)

	r := gw.Handle(Request{Op: "book", Product: "SQUID_INK", Bid: 1999, Ask: 2001})
	require.Empty(t, r.Error)
	assert.Equal(t, 2000.0, *r.AcceptablePrice)

	r = gw.Handle(Request{Op: "book", Product: "SQUID_INK", Bid: 2002, Ask: 2001})
	assert.NotEmpty(t, r.Error)
	assert.Nil(t, r.AcceptablePrice)
	assert.Equal(t, int64(1), state.Rejected())
}

func TestHandleErrors(t *testing.T) {
	gw, state := newTestGateway(t)

	r := gw.Handle(Request{Op: "price", Product: "KELP"})
	assert.Contains(t, r.Error, "price required")
	assert.Equal(t, int64(1), state.Rejected())

	r = gw.Handle(Request{Op: "get", Product: "KELP"})
	assert.Contains(t, r.Error, "not initialized")

	r = gw.Handle(Request{Op: "buy", Product: "KELP"})
	assert.Contains(t, r.Error, "unknown op")

	r = gw.Handle(Request{Op: "ping"})
	assert.Equal(t, OpPong, r.Op)
	assert.Empty(t, r.Error)
}

func TestServeHTTPRoundTrip(t *testing.T) {
	gw, state := newTestGateway(t)
	srv := httptest.NewServer(gw)
	defer srv.Close()
	defer gw.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(raw string) Reply {
		t.Helper()
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var r Reply
		require.NoError(t, sonic.Unmarshal(msg, &r))
		return r
	}

	r := send(`{"op":"price","product":"KELP","price":100}`)
	require.Empty(t, r.Error)
	assert.Equal(t, 100.0, *r.AcceptablePrice)

	r = send(`{"op":"price","product":"KELP","price":110}`)
	assert.InDelta(t, 103.0, *r.AcceptablePrice, 1e-9)

	r = send(`{"op":"price","product":"KELP","price":90}`)
	assert.InDelta(t, 98.1, *r.AcceptablePrice, 1e-9)

	r = send(`not json`)
	assert.Equal(t, "bad request", r.Error)

	// соединение живо после ошибки
	r = send(`{"op":"get","product":"KELP"}`)
	require.Empty(t, r.Error)
	assert.Equal(t, 3, r.Samples)

	assert.Equal(t, int64(1), state.Clients())
}
