package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"ema_pricer/internal/models"
	"ema_pricer/internal/modules/config"
	health "ema_pricer/internal/modules/health/service"
	pricer "ema_pricer/internal/modules/pricer/service"
	"ema_pricer/pkg/ema"
	"ema_pricer/pkg/logger"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 4096
)

// Gateway принимает цены по WebSocket и отвечает текущей приемлемой ценой.
type Gateway struct {
	cfg   *config.Config
	reg   *pricer.Registry
	state *health.State

	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func NewGateway(cfg *config.Config, reg *pricer.Registry, state *health.State) *Gateway {
	return &Gateway{
		cfg:   cfg,
		reg:   reg,
		state: state,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// контроллер не браузер, origin не проверяем
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("[WS] upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	if !g.track(conn) {
		_ = conn.Close()
		return
	}
	defer g.untrack(conn)

	g.state.ClientConnected()
	defer g.state.ClientGone()

	logger.Info("[WS] client connected %s", r.RemoteAddr)

	ping := g.cfg.Service.PingInterval
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * ping))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * ping))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go g.pingLoop(conn, ping, stopPing)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("[WS] read error %s: %v", r.RemoteAddr, err)
			}
			break
		}

		var req Request
		var reply Reply
		if err := sonic.Unmarshal(msg, &req); err != nil {
			reply = Reply{Op: "error", Error: "bad request"}
		} else {
			reply = g.Handle(req)
		}

		data, err := sonic.Marshal(reply)
		if err != nil {
			logger.Error("[WS] marshal reply: %v", err)
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Warn("[WS] write error %s: %v", r.RemoteAddr, err)
			break
		}
	}

	logger.Info("[WS] client gone %s", r.RemoteAddr)
}

// Handle обрабатывает один запрос. Ошибка уходит в Reply.Error, соединение живёт дальше.
func (g *Gateway) Handle(req Request) Reply {
	op := strings.ToLower(strings.TrimSpace(req.Op))
	reply := Reply{ID: req.ID, Op: op, Product: req.Product}

	var (
		q   models.Quote
		err error
	)
	switch op {
	case OpPing:
		reply.Op = OpPong
		return reply
	case OpPrice:
		if req.Price == nil {
			err = fmt.Errorf("price required: %w", ema.ErrInvalidInput)
			break
		}
		q, err = g.reg.Observe(models.PriceUpdate{Product: req.Product, Price: *req.Price})
	case OpBook:
		q, err = g.reg.ObserveBook(models.BookTop{Product: req.Product, BestBid: req.Bid, BestAsk: req.Ask})
	case OpGet:
		q, err = g.reg.Quote(req.Product)
	default:
		reply.Error = fmt.Sprintf("unknown op %q", req.Op)
		return reply
	}

	if err != nil {
		if errors.Is(err, ema.ErrInvalidInput) {
			g.state.Reject()
			logger.Warn("[WS] rejected %s %s: %v", op, req.Product, err)
		}
		reply.Error = err.Error()
		return reply
	}

	if op != OpGet {
		g.state.TouchUpdate(q.UpdatedAt)
	}
	v := q.AcceptablePrice
	reply.Product = q.Product
	reply.AcceptablePrice = &v
	reply.Samples = q.Samples
	return reply
}

// Close рвёт все живые соединения: Shutdown сервера hijacked-коннекты не трогает.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closed = true
	for conn := range g.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
}

func (g *Gateway) pingLoop(conn *websocket.Conn, every time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) track(conn *websocket.Conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.conns[conn] = struct{}{}
	return true
}

func (g *Gateway) untrack(conn *websocket.Conn) {
	g.mu.Lock()
	delete(g.conns, conn)
	g.mu.Unlock()
	_ = conn.Close()
}
