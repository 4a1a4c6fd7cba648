package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/behave/internal/core/bt"
	"github.com/zeusync/behave/internal/core/events/bus"
	"github.com/zeusync/behave/internal/core/observability/log"
	"github.com/zeusync/behave/internal/runner"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
)

// TraceMessage is one node event as sent to websocket clients.
type TraceMessage struct {
	Tree  string    `json:"tree"`
	RunID string    `json:"run_id"`
	Time  time.Time `json:"time"`
	Event bt.Event  `json:"event"`
}

type traceClient struct {
	id   string
	tree string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *traceClient) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// TraceServer streams node events from the bus to websocket clients on /ws
// and reports liveness on /healthz. Clients may pass ?tree=name to receive a
// single tree only. Slow clients lose messages rather than stall runners.
type TraceServer struct {
	bus      bus.EventBus
	logger   log.Log
	upgrader websocket.Upgrader
	sub      bus.Subscription

	mu      sync.Mutex
	clients map[string]*traceClient

	httpServer *http.Server
	listener   net.Listener
	running    int32
	started    time.Time

	sent    uint64 // atomic
	dropped uint64 // atomic
}

func NewTraceServer(b bus.EventBus, logger log.Log) (*TraceServer, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &TraceServer{
		bus:    b,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*traceClient),
		started: time.Now(),
	}
	sub, err := b.SubscribeTopic(bus.AllTopics, bus.AnyType, s.broadcast)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe trace server: %w", err)
	}
	s.sub = sub
	return s, nil
}

// Handler returns the routes of the server, for embedding or tests.
func (s *TraceServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start listens on addr and serves in the background.
func (s *TraceServer) Start(addr string) error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("trace server stopped", log.Error(err))
		}
	}()
	s.logger.Info("trace server started", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listening address once started.
func (s *TraceServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the listener down, disconnects clients and leaves the bus.
func (s *TraceServer) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	err := s.httpServer.Shutdown(ctx)
	s.Close()
	s.logger.Info("trace server stopped",
		log.Uint64("sent", atomic.LoadUint64(&s.sent)),
		log.Uint64("dropped", atomic.LoadUint64(&s.dropped)),
	)
	return err
}

// Close disconnects every client and cancels the bus subscription. It is
// enough on its own when the server was only used through Handler.
func (s *TraceServer) Close() {
	_ = s.bus.Unsubscribe(s.sub)
	s.mu.Lock()
	for id, c := range s.clients {
		c.close()
		_ = c.conn.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
}

// Clients returns the number of connected websocket clients.
func (s *TraceServer) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *TraceServer) broadcast(e bus.Event) error {
	ev, ok := e.Data().(bt.Event)
	if !ok {
		return nil
	}
	msg := TraceMessage{Tree: e.Source(), Time: e.Timestamp(), Event: ev}
	if runID, ok := e.Metadata()[runner.MetaRunID].(string); ok {
		msg.RunID = runID
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode trace message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.tree != "" && c.tree != msg.Tree {
			continue
		}
		select {
		case c.send <- payload:
			atomic.AddUint64(&s.sent, 1)
		default:
			atomic.AddUint64(&s.dropped, 1)
		}
	}
	return nil
}

func (s *TraceServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	c := &traceClient{
		id:   uuid.NewString(),
		tree: r.URL.Query().Get("tree"),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Debug("trace client connected",
		log.String("client", c.id),
		log.String("remote", conn.RemoteAddr().String()),
		log.String("filter", c.tree),
	)

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop only watches for the client going away; clients never send data.
func (s *TraceServer) readLoop(c *traceClient) {
	defer s.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *TraceServer) writeLoop(c *traceClient) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Debug("trace client write failed", log.String("client", c.id), log.Error(err))
			_ = c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

func (s *TraceServer) remove(c *traceClient) {
	s.mu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		c.close()
	}
	s.mu.Unlock()
	_ = c.conn.Close()
	s.logger.Debug("trace client disconnected", log.String("client", c.id))
}

type health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Uptime  string `json:"uptime"`
}

func (s *TraceServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{
		Status:  "ok",
		Clients: s.Clients(),
		Sent:    atomic.LoadUint64(&s.sent),
		Dropped: atomic.LoadUint64(&s.dropped),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}
