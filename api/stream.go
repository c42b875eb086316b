package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skycarbon/skycarbon/store"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

// TotalsWatcher streams writes to airspace totals. *store.KV implements it.
type TotalsWatcher interface {
	WatchTotals(ctx context.Context) (<-chan store.TotalUpdate, error)
}

type totalEvent struct {
	Type     string  `json:"type"`
	Airspace string  `json:"airspace"`
	CO2      float64 `json:"co2"`
	Revision uint64  `json:"revision"`
	Time     int64   `json:"time"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	u := &websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		u.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.cfg.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}

			return false
		}
	}

	return u
}

// handleTotalsStream pushes one JSON event per total write until the client
// disconnects, the watch ends or the server stops.
func (s *Server) handleTotalsStream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, err := s.watcher.WatchTotals(ctx)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	// Upgrade writes its own HTTP error response on failure.
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	defer conn.Close()

	// Client frames are ignored; a read error means the peer went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	closing := s.closingCh()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closing:
			closeWS(conn, websocket.CloseGoingAway, "server stopping")
			return
		case u, ok := <-updates:
			if !ok {
				closeWS(conn, websocket.CloseTryAgainLater, "store watch ended")
				return
			}

			event := totalEvent{
				Type:     "total",
				Airspace: u.Airspace,
				CO2:      u.Total,
				Revision: u.Revision,
				Time:     u.Time.Unix(),
			}
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

func closeWS(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(wsWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
