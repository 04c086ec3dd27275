package lineserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/core/service"
	"github.com/yndnr/rediminute/internal/pubsub"
)

// Protocol is the label this server reports to its ConnObserver.
const Protocol = "line"

// MaxLineLen limits one request line (8MB).
const MaxLineLen = 8 * 1024 * 1024

var errLineTooLong = errors.New("line exceeds limit")

// Executor runs decoded commands. *service.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command, caller *service.Caller) domain.Response
	Disconnect(caller *service.Caller)
}

// ConnObserver is told when connections open and close.
type ConnObserver interface {
	ConnOpened(protocol string)
	ConnClosed(protocol string)
}

// Config holds the line server configuration.
type Config struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RateLimit      float64
	RateBurst      int
	MailboxSize    int
	MaxConnections int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  300 * time.Second,
		MailboxSize:  pubsub.DefaultMailboxSize,
	}
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

// WithConnObserver reports connection lifecycle.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// Server serves the JSON line protocol.
type Server struct {
	cfg      *Config
	exec     Executor
	logger   *slog.Logger
	observer ConnObserver

	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	connsMu sync.Mutex
	conns   map[*conn]struct{}
	active  atomic.Int64
}

type conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer

	writeMu      sync.Mutex
	writeTimeout time.Duration

	caller        *service.Caller
	limiter       *rate.Limiter
	subscriptions atomic.Int64
	closed        atomic.Bool
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// writeLine writes one reply line under the write lock.
func (c *conn) writeLine(line []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	if _, err := c.bw.Write(line); err != nil {
		return err
	}
	if err := c.bw.WriteByte('\n'); err != nil {
		return err
	}
	return c.bw.Flush()
}

// New creates a line protocol server.
func New(cfg *Config, exec Executor, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:    cfg,
		exec:   exec,
		logger: slog.Default(),
		conns:  make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
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
	s.logger.Info("line server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("line accept loop stopped", "error", err)
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

	s.logger.Info("line server stopped")
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

		c := &conn{
			netConn:      nc,
			br:           bufio.NewReader(nc),
			bw:           bufio.NewWriter(nc),
			writeTimeout: s.cfg.WriteTimeout,
		}

		if limit := s.cfg.MaxConnections; limit > 0 && s.active.Load() >= int64(limit) {
			s.logger.Warn("connection limit reached", "remote", nc.RemoteAddr().String(), "limit", limit)
			s.writeError(c, domain.ErrInternal.WithDetails("max number of clients reached"))
			_ = c.Close()
			continue
		}

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

func (s *Server) track(c *conn, open bool) {
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

func (s *Server) serveConn(ctx context.Context, c *conn) {
	remote := c.netConn.RemoteAddr().String()
	mailbox := pubsub.NewMailbox(s.cfg.MailboxSize)
	c.caller = &service.Caller{Subscriber: mailbox, RemoteAddr: remote}
	if s.cfg.RateLimit > 0 {
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = int(math.Ceil(s.cfg.RateLimit))
		}
		c.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), burst)
	}

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

		line, err := readLine(c.br)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				s.logger.Warn("request line too long", "remote", remote)
				s.writeError(c, domain.ErrMalformed.WithDetails(err.Error()))
				return
			}
			s.logReadError(remote, err)
			return
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if err := s.handleLine(ctx, c, line); err != nil {
			s.logger.Debug("write failed", "remote", remote, "error", err)
			return
		}
	}
}

func (s *Server) handleLine(ctx context.Context, c *conn, line []byte) error {
	if c.limiter != nil && !c.limiter.Allow() {
		return s.writeError(c, domain.ErrRateLimited)
	}

	cmd, err := DecodeRequest(line)
	if err != nil {
		s.logger.Debug("malformed request", "remote", c.caller.RemoteAddr, "error", err)
		return s.writeError(c, domain.AsDomainError(err))
	}

	resp := s.exec.Execute(ctx, cmd, c.caller)
	switch resp.Kind {
	case domain.RespSubscribed, domain.RespUnsubscribed:
		c.subscriptions.Store(int64(resp.Count))
	}

	out, err := EncodeResponse(resp)
	if err != nil {
		return s.writeError(c, domain.ErrInternal.WithCause(err))
	}
	return c.writeLine(out)
}

func (s *Server) writeError(c *conn, de *domain.DomainError) error {
	out, err := EncodeError(de)
	if err != nil {
		return fmt.Errorf("encode error reply: %w", err)
	}
	return c.writeLine(out)
}

// readLine reads up to '\n', trimming a trailing "\r\n" or "\n".
func readLine(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > MaxLineLen {
			return nil, errLineTooLong
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(buf) > 0 {
			// A final unterminated line is still a request.
			return bytes.TrimRight(buf, "\r"), nil
		}
		return nil, err
	}
	return bytes.TrimRight(buf[:len(buf)-1], "\r"), nil
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

func (s *Server) pushLoop(c *conn, mailbox *pubsub.Mailbox) {
	for msg := range mailbox.C() {
		out, err := EncodePush(msg.Channel, msg.Payload)
		if err == nil {
			err = c.writeLine(out)
		}
		if err != nil {
			s.logger.Debug("push failed, closing connection", "remote", c.caller.RemoteAddr, "error", err)
			_ = c.Close()
			return
		}
	}
}
