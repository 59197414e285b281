// Package rcon serves a remote console over WebSocket. Each text frame
// is split into command lines and queued; the run loop drains the queue
// on the main thread, so remote clients never touch the registry
// directly.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

// Options configures the listener.
type Options struct {
	Addr      string
	Path      string
	QueueSize int
}

// Server accepts console lines from WebSocket clients.
type Server struct {
	opts  Options
	lines chan string
	log   *zap.Logger

	mu    sync.Mutex
	srv   *http.Server
	ln    net.Listener
	conns map[net.Conn]struct{}
	done  chan struct{}
	wg    sync.WaitGroup
}

// New creates a stopped server.
func New(opts Options, log *zap.Logger) *Server {
	if opts.Path == "" {
		opts.Path = "/console"
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		opts:  opts,
		lines: make(chan string, opts.QueueSize),
		log:   log,
		conns: make(map[net.Conn]struct{}),
	}
}

// Handler returns the HTTP handler serving the console endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.opts.Path, http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(req, rw)
		if err != nil {
			s.log.Warn("rcon upgrade failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
			return
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}))
	return mux
}

// Start listens on Options.Addr and serves until ctx is cancelled or
// Close is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("rcon listen %s: %w", s.opts.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	s.mu.Lock()
	s.srv = srv
	s.ln = ln
	s.done = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("rcon server stopped", zap.Error(err))
		}
	}()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-done:
		}
	}()

	s.log.Info("rcon listening", zap.String("addr", ln.Addr().String()), zap.String("path", s.opts.Path))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close stops the listener, disconnects clients and waits for their
// goroutines. Lines already queued stay drainable.
func (s *Server) Close() error {
	err := s.shutdown()
	s.wg.Wait()
	return err
}

func (s *Server) shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.srv != nil {
		err = s.srv.Close()
		s.srv = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.log.Info("rcon client connected", zap.String("remote", remote))

	for {
		msg, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) {
				s.log.Debug("rcon read ended", zap.String("remote", remote), zap.Error(err))
			}
			break
		}
		if op != ws.OpText {
			continue
		}

		queued, dropped := s.enqueue(string(msg))
		reply := fmt.Sprintf("queued %d", queued)
		if dropped > 0 {
			reply += fmt.Sprintf(", dropped %d", dropped)
		}
		if err := wsutil.WriteServerText(conn, []byte(reply)); err != nil {
			s.log.Debug("rcon write failed", zap.String("remote", remote), zap.Error(err))
			break
		}
	}
	s.log.Info("rcon client disconnected", zap.String("remote", remote))
}

// enqueue splits text into lines and queues them without blocking.
func (s *Server) enqueue(text string) (queued, dropped int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		select {
		case s.lines <- line:
			queued++
		default:
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn("rcon queue full, lines dropped", zap.Int("dropped", dropped))
	}
	return queued, dropped
}

// Drain passes every queued line to sink and returns how many there
// were. Call it from the main thread.
func (s *Server) Drain(sink func(line string)) int {
	n := 0
	for {
		select {
		case line := <-s.lines:
			sink(line)
			n++
		default:
			return n
		}
	}
}
