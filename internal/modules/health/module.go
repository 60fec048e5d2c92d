package health

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/fx"

	"ema_pricer/internal/modules/config"
	"ema_pricer/internal/modules/health/service"
	pricer "ema_pricer/internal/modules/pricer/service"
	wsgw "ema_pricer/internal/modules/ws_gateway/service"
	"ema_pricer/pkg/ema"
	"ema_pricer/pkg/logger"
)

const maxSnapshotBody = 1 << 20

func NewMux(state *service.State, reg *pricer.Registry, gw *wsgw.Gateway) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ready":     state.Ready(),
			"clients":   state.Clients(),
			"products":  reg.Len(),
			"rejected":  state.Rejected(),
			"uptimeSec": int64(state.Uptime().Seconds()),
			"lastUpdateUnix": func() int64 {
				t := state.LastUpdate()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		})
	})

	mux.HandleFunc("GET /prices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Quotes())
	})

	mux.HandleFunc("GET /prices/{product}", func(w http.ResponseWriter, r *http.Request) {
		q, err := reg.Quote(r.PathValue("product"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	})

	mux.HandleFunc("GET /snapshot", func(w http.ResponseWriter, r *http.Request) {
		data, err := reg.Snapshot()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})

	mux.HandleFunc("POST /snapshot", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBody))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := reg.Restore(body); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reg.Quotes())
	})

	mux.Handle("GET /ws", gw)

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ema.ErrNotInitialized):
		code = http.StatusNotFound
	case errors.Is(err, ema.ErrInvalidInput):
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux, state *service.State) {
	srv := &http.Server{
		Addr:              cfg.Service.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Service.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[HTTP] serve: %v", err)
				}
			}()
			state.SetReady(true)
			logger.Info("[HTTP] listening on %s", ln.Addr())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
