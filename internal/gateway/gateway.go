package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orbitsync/orbitsync/internal/core/connect"
	"github.com/orbitsync/orbitsync/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Gateway accepts websocket clients on /ws and hands each one to the
// collection as a session. The capability comes from the role query
// parameter; authentication policy lives in front of this server.
type Gateway struct {
	col    *connect.Collection
	logger log.Log
	srv    *http.Server
	limit  int64
	active atomic.Int64
}

func New(addr string, maxConns int, col *connect.Collection, logger log.Log) *Gateway {
	g := &Gateway{col: col, logger: logger, limit: int64(maxConns)}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWS)
	g.srv = &http.Server{Addr: addr, Handler: mux}
	return g
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.srv.ListenAndServe()
	}()
	g.logger.Info("gateway listening", log.String("addr", g.srv.Addr))
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return g.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	role, err := connect.ParseCapability(r.URL.Query().Get("role"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if g.limit > 0 && g.active.Load() >= g.limit {
		http.Error(w, "connection limit reached", http.StatusServiceUnavailable)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("upgrade failed", log.Error(err))
		return
	}
	g.active.Add(1)
	session := newSession(ws, g.col, g.logger)
	g.col.Enqueue(connect.ConnectionOpened{
		Conn:    session.ID(),
		Vis:     connect.Visibility{Cap: role},
		Session: session,
	})
	go session.writePump()
	go func() {
		session.readPump()
		g.active.Add(-1)
	}()
}
