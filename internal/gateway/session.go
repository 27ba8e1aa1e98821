package gateway

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/orbitsync/orbitsync/internal/core/connect"
	"github.com/orbitsync/orbitsync/internal/core/engine"
	"github.com/orbitsync/orbitsync/internal/core/observability/log"
)

const sessionSendBuffer = 64

// Session pairs one websocket with one connection ID. The read pump turns
// frames into intents; the write pump drains batches queued by Send. Send is
// called from the tick goroutine and never blocks on the socket.
type Session struct {
	id     engine.ConnectionID
	ws     *websocket.Conn
	col    *connect.Collection
	logger log.Log

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

var _ connect.Session = (*Session)(nil)

func newSession(ws *websocket.Conn, col *connect.Collection, logger log.Log) *Session {
	id := engine.NewConnectionID()
	return &Session{
		id:     id,
		ws:     ws,
		col:    col,
		logger: logger.With(log.Stringer("connection", id)),
		out:    make(chan []byte, sessionSendBuffer),
		done:   make(chan struct{}),
	}
}

func (s *Session) ID() engine.ConnectionID {
	return s.id
}

// Send queues one tick's batch for the write pump. A full buffer means the
// client cannot keep up; failing here lets the collection tear the
// connection down instead of stalling the tick.
func (s *Session) Send(batch []connect.Outbound) error {
	data, err := encodeBatch(batch)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.out <- data:
		return nil
	default:
		return errors.New("outbound buffer full")
	}
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.ws.Close()
	})
}

// readPump turns inbound frames into intents until the socket dies, then
// schedules teardown. Runs on its own goroutine.
func (s *Session) readPump() {
	defer s.col.Enqueue(connect.ConnectionClosed{Conn: s.id})
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", log.Error(err))
			}
			return
		}
		intent, err := decodeRequest(s.id, data)
		if err != nil {
			s.logger.Debug("rejected request", log.Error(err))
			continue
		}
		s.col.Enqueue(intent)
	}
}

// writePump drains queued batches onto the socket. Runs on its own
// goroutine.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("write failed", log.Error(err))
				s.col.Enqueue(connect.ConnectionClosed{Conn: s.id})
				return
			}
		}
	}
}
