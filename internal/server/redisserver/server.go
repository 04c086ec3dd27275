package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/rediminute/internal/core/service"
	"github.com/yndnr/rediminute/internal/pubsub"
)

// Protocol is the label this server reports to its ConnObserver.
const Protocol = "resp"

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// ReadTimeout bounds reading one command after its first byte.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one reply or push.
	WriteTimeout time.Duration
	// IdleTimeout closes connections that send nothing for this long.
	// Connections with active subscriptions are exempt. Zero disables it.
	IdleTimeout time.Duration
	// RateLimit is the commands per second allowed per connection.
	// Zero disables rate limiting.
	RateLimit float64
	// RateBurst is the limiter bucket size. Zero derives it from RateLimit.
	RateBurst int
	// MailboxSize is the push queue length per connection.
	MailboxSize int
	// MaxConnections caps concurrent connections. Zero means no cap.
	MaxConnections int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6380",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  5 * time.Minute,
		MailboxSize:  pubsub.DefaultMailboxSize,
	}
}

// ConnObserver is told when connections open and close.
type ConnObserver interface {
	ConnOpened(protocol string)
	ConnClosed(protocol string)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithConnObserver reports connection lifecycle, e.g. to metrics.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// Server represents the Redis protocol server.
type Server struct {
	cfg      *Config
	exec     Executor
	handler  *CommandHandler
	logger   *slog.Logger
	observer ConnObserver

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[*Conn]struct{}
	active  atomic.Int64
}

// Conn represents a single Redis client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer

	// writeMu serializes replies with pushes from the mailbox pump.
	writeMu      sync.Mutex
	writeTimeout time.Duration

	caller        *service.Caller
	limiter       *rate.Limiter
	subscriptions atomic.Int64

	closed atomic.Bool
}

func newConn(c net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		netConn:      c,
		br:           bufio.NewReader(c),
		bw:           bufio.NewWriter(c),
		writeTimeout: writeTimeout,
	}
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// reply writes and flushes under the write lock.
func (c *Conn) reply(write func(*bufio.Writer) error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	if err := write(c.bw); err != nil {
		return err
	}
	return c.bw.Flush()
}

// New creates a new Redis protocol server.
func New(cfg *Config, exec Executor, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:    cfg,
		exec:   exec,
		logger: slog.Default(),
		conns:  make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = NewCommandHandler(exec, s.logger)
	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln in the background.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("redis accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ActiveConnections returns the number of open client connections.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

// Shutdown stops accepting, closes open connections and waits for their
// handlers to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	s.connsMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("redis server stopped")
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if limit := s.cfg.MaxConnections; limit > 0 && s.active.Load() >= int64(limit) {
			s.logger.Warn("connection limit reached", "remote", nc.RemoteAddr().String(), "limit", limit)
			c := newConn(nc, s.cfg.WriteTimeout)
			_ = c.reply(func(w *bufio.Writer) error { return WriteError(w, "ERR max number of clients reached") })
			_ = c.Close()
			continue
		}

		c := newConn(nc, s.cfg.WriteTimeout)
		s.track(c, true)
		if !s.running.Load() {
			// Shutdown may already have swept conns.
			_ = c.Close()
			s.track(c, false)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(c, false)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c *Conn, open bool) {
	s.connsMu.Lock()
	if open {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
	s.connsMu.Unlock()

	if open {
		s.active.Add(1)
		if s.observer != nil {
			s.observer.ConnOpened(Protocol)
		}
		return
	}
	s.active.Add(-1)
	if s.observer != nil {
		s.observer.ConnClosed(Protocol)
	}
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(math.Ceil(perSecond))
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	remote := c.RemoteAddr().String()
	mailbox := pubsub.NewMailbox(s.cfg.MailboxSize)
	c.caller = &service.Caller{Subscriber: mailbox, RemoteAddr: remote}
	c.limiter = newLimiter(s.cfg.RateLimit, s.cfg.RateBurst)

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		s.pushLoop(c, mailbox)
	}()

	s.logger.Debug("client connected", "remote", remote, "subscriber", mailbox.ID())
	defer func() {
		s.exec.Disconnect(c.caller)
		_ = c.Close()
		mailbox.Close()
		<-pumpDone
		s.logger.Debug("client disconnected", "remote", remote, "dropped", mailbox.Dropped())
	}()

	readTimeout := s.cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}

	for {
		// Subscribers may legitimately stay silent.
		var idleDeadline time.Time
		if s.cfg.IdleTimeout > 0 && c.subscriptions.Load() == 0 {
			idleDeadline = time.Now().Add(s.cfg.IdleTimeout)
		}
		if err := c.netConn.SetReadDeadline(idleDeadline); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(remote, err)
			return
		}

		if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return
		}

		args, err := ReadCommand(c.br)
		if err != nil {
			if errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("protocol limit exceeded", "remote", remote, "error", err)
				_ = c.reply(func(w *bufio.Writer) error { return WriteError(w, "ERR protocol limit exceeded") })
				return
			}
			if errors.Is(err, ErrProtocol) {
				_ = c.reply(func(w *bufio.Writer) error { return WriteError(w, "ERR protocol error: "+err.Error()) })
				return
			}
			s.logReadError(remote, err)
			return
		}
		if len(args) == 0 {
			continue
		}

		if quit := s.handler.Handle(ctx, c, args); quit {
			return
		}
	}
}

func (s *Server) logReadError(remote string, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("connection idle timeout", "remote", remote)
		return
	}
	s.logger.Debug("connection read error", "remote", remote, "error", err)
}

// pushLoop writes queued messages until the mailbox is closed.
func (s *Server) pushLoop(c *Conn, mailbox *pubsub.Mailbox) {
	for msg := range mailbox.C() {
		err := c.reply(func(w *bufio.Writer) error {
			return WriteMessage(w, msg.Channel, msg.Payload)
		})
		if err != nil {
			s.logger.Debug("push failed, closing connection", "remote", c.RemoteAddr().String(), "error", err)
			_ = c.Close()
			return
		}
	}
}
