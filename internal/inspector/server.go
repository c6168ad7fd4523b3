// Package inspector streams simulation snapshots to debugging clients over
// websockets.
package inspector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/drag"
	"github.com/zeusync/spatial/pkg/generic"
)

// Message types sent to clients.
const (
	TypeSnapshot = "snapshot"
	TypeDrop     = "drop"
)

var digestBuffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

const (
	defaultSendBuffer = 16
	defaultMaxClients = 32
)

// Message is the envelope of every payload written to a client.
type Message struct {
	Type  string `json:"type"`
	Frame uint64 `json:"frame"`
	Data  any    `json:"data"`
}

type Options struct {
	// SendBuffer is the number of messages queued per client before new
	// messages are dropped for it.
	SendBuffer int
	MaxClients int
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Server fans snapshots out to every connected client. Consecutive snapshots
// that differ only in their frame number are sent once.
type Server struct {
	log      log.Log
	bus      bus.EventBus
	opts     Options
	upgrader websocket.Upgrader

	mu         sync.Mutex
	clients    map[string]*client
	latest     []byte
	lastDigest uint64
	hasDigest  bool

	httpServer *http.Server
	listener   net.Listener
	dropSub    bus.Subscription
}

// New creates an inspector. b may be nil; when set, /topics lists its topics
// and WatchDrops can forward drop notifications.
func New(b bus.EventBus, logger log.Log, opts Options) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	if opts.MaxClients <= 0 {
		opts.MaxClients = defaultMaxClients
	}
	return &Server{
		log:  logger.Named("inspector"),
		bus:  b,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The inspector is a local debugging aid.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler serves /ws (stream), /snapshot (latest payload) and /topics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/topics", s.handleTopics)
	return mux
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpServer != nil {
		return ErrServerAlreadyRunning
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Handler()}
	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("inspector stopped", log.Error(err))
		}
	}()
	s.log.Info("inspector listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address, or empty when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down and disconnects every client.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	clients := make([]*client, 0, len(s.clients))
	for id, c := range s.clients {
		clients = append(clients, c)
		delete(s.clients, id)
	}
	sub := s.dropSub
	s.dropSub = nil
	s.mu.Unlock()

	if sub != nil {
		_ = sub.Cancel()
	}
	for _, c := range clients {
		c.close()
	}
	if srv == nil {
		return ErrServerNotRunning
	}
	return srv.Shutdown(ctx)
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// PublishSnapshot sends snap to every client unless it matches the previous
// snapshot apart from the frame number.
func (s *Server) PublishSnapshot(snap simulation.Snapshot) error {
	frame := snap.Frame
	snap.Frame = 0
	buf := digestBuffers.Get()
	defer digestBuffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(snap); err != nil {
		return err
	}
	digest := xxhash.Sum64(buf.Bytes())

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasDigest && digest == s.lastDigest {
		return nil
	}
	snap.Frame = frame
	msg, err := json.Marshal(Message{Type: TypeSnapshot, Frame: frame, Data: snap})
	if err != nil {
		return err
	}
	s.lastDigest, s.hasDigest = digest, true
	s.latest = msg
	s.broadcastLocked(msg)
	return nil
}

// PublishDrop forwards a finished drop to every client.
func (s *Server) PublishDrop(d drag.Drop) error {
	msg, err := json.Marshal(Message{Type: TypeDrop, Frame: d.Frame, Data: d})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(msg)
	return nil
}

// WatchDrops subscribes to the bus mirror of the drop channel.
func (s *Server) WatchDrops() error {
	if s.bus == nil {
		return errors.New("inspector: no event bus")
	}
	sub, err := s.bus.SubscribeTopic(simulation.TopicDrag, simulation.EventDrop, func(e bus.Event) error {
		d, ok := e.Data().(drag.Drop)
		if !ok {
			return nil
		}
		return s.PublishDrop(d)
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dropSub = sub
	s.mu.Unlock()
	return nil
}

func (s *Server) broadcastLocked(msg []byte) {
	for _, c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.log.Warn("inspector client lagging, message dropped", log.String("client", c.id))
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("inspector upgrade failed", log.Error(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, s.opts.SendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	if len(s.clients) >= s.opts.MaxClients {
		s.mu.Unlock()
		s.log.Warn("inspector client rejected", log.Error(ErrMaxClientsReached))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, ErrMaxClientsReached.Error()))
		_ = conn.Close()
		return
	}
	s.clients[c.id] = c
	if s.latest != nil {
		c.send <- s.latest
	}
	s.mu.Unlock()

	s.log.Info("inspector client connected",
		log.String("client", c.id), log.String("remote", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client input and notices disconnects.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	defer s.drop(c)
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Warn("inspector write failed", log.String("client", c.id), log.Error(err))
				return
			}
		}
	}
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, present := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()
	c.close()
	if present {
		s.log.Info("inspector client disconnected", log.String("client", c.id))
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()
	if latest == nil {
		http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(latest)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.bus.GetTopics())
}
