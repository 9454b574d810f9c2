// Package server exposes a running session over a websocket: frames out, tuning and input in
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/lixenwraith/vi-drive/input"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/telemetry"
	"github.com/lixenwraith/vi-drive/tuning"
)

const (
	clientQueue  = 32
	writeTimeout = 5 * time.Second
	// Inbound messages per second per client, with burst
	clientRate  = 60
	clientBurst = 30
)

// Options wires the server to a session
type Options struct {
	Tuning   *tuning.Store
	Controls *input.Controls
	// Respawn is called for respawn messages; nil ignores them
	Respawn func()
	// Interval throttles frame broadcasts; respawn frames always go out
	Interval time.Duration
	Log      zerolog.Logger
}

type client struct {
	id        uint64
	send      chan Message
	limiter   *rate.Limiter
	closeSlow func()
}

// Server is a telemetry.Sink that fans frames out to websocket clients
type Server struct {
	opts Options
	log  zerolog.Logger

	mutex   deadlock.RWMutex
	clients map[*client]struct{}
	nextID  uint64
	last    time.Time
	closed  bool

	httpServer *http.Server
}

var _ telemetry.Sink = (*Server)(nil)

// New builds a server; Tuning and Controls are required
func New(opts Options) *Server {
	if opts.Interval <= 0 {
		opts.Interval = parameter.BroadcastInterval
	}
	return &Server{
		opts:    opts,
		log:     opts.Log.With().Str("component", "server").Logger(),
		clients: make(map[*client]struct{}),
	}
}

// Handler routes /ws and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/health", s.serveHealth)
	return mux
}

// ListenAndServe blocks until ctx is done or the listener fails
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.log.Info().Str("addr", listen.Addr().String()).Msg("control surface listening")

	s.httpServer = &http.Server{Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.Serve(listen) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		return nil
	}
}

// Clients reports connected client count
func (s *Server) Clients() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.clients)
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","clients":%d,"tuningVersion":%d}`, s.Clients(), s.opts.Tuning.Version())
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Error().Err(err).Msg("error accepting client connection")
		return
	}
	defer c.Close(websocket.StatusInternalError, "operational fault")

	err = s.handleClient(r.Context(), c, r.RemoteAddr)
	if errors.Is(err, context.Canceled) ||
		websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		c.Close(websocket.StatusNormalClosure, "")
		return
	}
	if err != nil {
		s.log.Debug().Err(err).Msg("client dropped")
	}
}

func (s *Server) addClient(c *websocket.Conn) *client {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.nextID++
	cl := &client{
		id:      s.nextID,
		send:    make(chan Message, clientQueue),
		limiter: rate.NewLimiter(rate.Limit(clientRate), clientBurst),
		closeSlow: func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with frames")
		},
	}
	s.clients[cl] = struct{}{}
	return cl
}

func (s *Server) removeClient(cl *client) {
	s.mutex.Lock()
	delete(s.clients, cl)
	s.mutex.Unlock()
}

func (s *Server) handleClient(ctx context.Context, c *websocket.Conn, host string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cl := s.addClient(c)
	defer s.removeClient(cl)

	logger := s.log.With().Uint64("clientId", cl.id).Str("host", host).Logger()
	logger.Info().Msg("client joined")

	cfg := s.opts.Tuning.Load()
	cl.send <- Message{Type: TypeHello, Config: &cfg, Version: s.opts.Tuning.Version()}

	receive := make(chan Message)
	readErr := make(chan error, 1)
	go func() {
		for {
			var msg Message
			if err := wsjson.Read(ctx, c, &msg); err != nil {
				readErr <- err
				return
			}
			select {
			case receive <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case msg := <-receive:
			if !cl.limiter.Allow() {
				s.queue(cl, Message{Type: TypeError, Error: "rate limited"})
				continue
			}
			if reply, ok := s.dispatch(logger, msg); ok {
				s.queue(cl, reply)
			}
		case msg := <-cl.send:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c, msg)
			wcancel()
			if err != nil {
				logger.Warn().Err(err).Msg("client missed write timeout; disconnecting")
				return err
			}
		case err := <-readErr:
			logger.Info().Msg("client left")
			return err
		case <-ctx.Done():
			logger.Info().Msg("client left")
			return ctx.Err()
		}
	}
}

// dispatch handles one inbound message and returns the reply, if any
func (s *Server) dispatch(logger zerolog.Logger, msg Message) (Message, bool) {
	switch msg.Type {
	case TypePing:
		return Message{Type: TypePong, Version: s.opts.Tuning.Version()}, true

	case TypeTuning:
		if msg.Patch == nil {
			return Message{Type: TypeError, Error: "tuning message without patch"}, true
		}
		cfg, changed, err := s.opts.Tuning.Patch(*msg.Patch)
		if err != nil {
			return Message{Type: TypeError, Error: err.Error()}, true
		}
		if changed {
			logger.Info().
				Float64("engineForce", cfg.EngineForce).
				Float64("maxSpeed", cfg.MaxSpeed).
				Str("model", cfg.DriveModel.String()).
				Msg("tuning patched")
		}
		return Message{Type: TypeTuning, Config: &cfg, Version: s.opts.Tuning.Version()}, true

	case TypeInput:
		if msg.Input == nil {
			return Message{Type: TypeError, Error: "input message without input"}, true
		}
		s.opts.Controls.Store(*msg.Input)
		return Message{}, false

	case TypeRespawn:
		if s.opts.Respawn != nil {
			s.opts.Respawn()
		}
		return Message{}, false
	}
	return Message{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}, true
}

// queue never blocks the caller; a full queue closes the client
func (s *Server) queue(cl *client, msg Message) {
	select {
	case cl.send <- msg:
	default:
		go cl.closeSlow()
	}
}

// Write broadcasts f, throttled by Interval against frame wall time
func (s *Server) Write(f telemetry.Frame) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return telemetry.ErrClosed
	}
	if f.Respawn == "" && !s.last.IsZero() && f.Wall.Sub(s.last) < s.opts.Interval {
		return nil
	}
	s.last = f.Wall

	msg := Message{Type: TypeFrame, Frame: &f}
	for cl := range s.clients {
		s.queue(cl, msg)
	}
	return nil
}

// Close stops accepting frames; connected clients stay until their context ends
func (s *Server) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.closed = true
	return nil
}
