// internal/server/ws.go
package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/tamzrod/watchguard/internal/sysinfo"
	"github.com/tamzrod/watchguard/internal/watchdog"
)

// ---------------------------------------------------------------
// TELEMETRY STREAM
// ---------------------------------------------------------------
//
// Dashboards connect to /ws and receive a telemetry frame on every
// broadcast tick. Text messages sent by the client are treated as
// console command lines; the result comes back as a command frame
// on the same connection.

const (
	wsWriteTimeout  = 5 * time.Second
	wsSendQueueSize = 8
)

type telemetryFrame struct {
	Type     string            `json:"type"` // always "telemetry"
	Watchdog watchdog.Snapshot `json:"watchdog"`
	Sysinfo  sysinfo.Snapshot  `json:"sysinfo"`
}

type commandFrame struct {
	Type   string `json:"type"` // always "command"
	Line   string `json:"line"`
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan any

	once sync.Once
	done chan struct{}
}

// close is idempotent and unblocks both pumps.
func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

type hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*wsConn
}

func newHub(log *slog.Logger) *hub {
	return &hub{
		log:   log,
		conns: make(map[string]*wsConn),
	}
}

func (h *hub) add(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// broadcast queues frame on every connection. Slow consumers are
// dropped rather than allowed to stall the tick.
func (h *hub) broadcast(frame any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.conns {
		select {
		case c.send <- frame:
		default:
			h.log.Warn("telemetry consumer too slow, dropping", "conn", id)
			c.close()
			delete(h.conns, id)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.conns {
		c.close()
		delete(h.conns, id)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon serves dashboards on trusted plant networks.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and starts the read/write pumps.
func (s *Server) handleWS(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	conn := &wsConn{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan any, wsSendQueueSize),
		done: make(chan struct{}),
	}
	s.hub.add(conn)
	s.log.Info("dashboard connected", "conn", conn.id)

	go s.writePump(conn)
	s.readPump(conn)
	return nil
}

// writePump is the only writer on the connection.
func (s *Server) writePump(c *wsConn) {
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.ws.WriteJSON(frame); err != nil {
				s.log.Warn("telemetry write failed", "conn", c.id, "err", err)
				return
			}
		}
	}
}

// readPump executes incoming command lines until the peer goes away.
func (s *Server) readPump(c *wsConn) {
	defer func() {
		s.hub.remove(c.id)
		c.close()
		s.log.Info("dashboard disconnected", "conn", c.id)
	}()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		line := string(bytes.TrimSpace(data))
		if line == "" {
			continue
		}

		var out bytes.Buffer
		frame := commandFrame{Type: "command", Line: line}
		if err := s.deps.Commands.Execute(line, &out); err != nil {
			frame.Error = err.Error()
		}
		frame.Output = out.String()

		select {
		case c.send <- frame:
		case <-c.done:
			return
		default:
			// Queue full; the slow-consumer rule applies here too.
			return
		}
	}
}

// broadcastLoop pushes a telemetry frame to every dashboard on each
// tick until ctx is done.
func (s *Server) broadcastLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.hub.broadcast(telemetryFrame{
				Type:     "telemetry",
				Watchdog: s.deps.Watchdog.Snapshot(),
				Sysinfo:  s.deps.Sysinfo.Snapshot(),
			})
		}
	}
}
