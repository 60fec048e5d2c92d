package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	clients        atomic.Int64
	lastUpdateUnix atomic.Int64 // unix seconds
	rejected       atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// ClientConnected / ClientGone: учёт ws-клиентов.
func (s *State) ClientConnected() { s.clients.Add(1) }
func (s *State) ClientGone()      { s.clients.Add(-1) }
func (s *State) Clients() int64   { return s.clients.Load() }

func (s *State) TouchUpdate(t time.Time) { s.lastUpdateUnix.Store(t.Unix()) }
func (s *State) LastUpdate() time.Time {
	u := s.lastUpdateUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// Reject: цена отброшена (NaN, пересечённый стакан и т.п.).
func (s *State) Reject()         { s.rejected.Add(1) }
func (s *State) Rejected() int64 { return s.rejected.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
