package redisserver

import (
	"bufio"
	"context"
	"log/slog"
	"strings"

	"github.com/yndnr/rediminute/internal/core/domain"
	"github.com/yndnr/rediminute/internal/core/service"
)

// Executor runs decoded commands. *service.Dispatcher implements it.
type Executor interface {
	Execute(ctx context.Context, cmd domain.Command, caller *service.Caller) domain.Response
	Disconnect(caller *service.Caller)
}

// arityError is a codec-level error; the dispatcher never sees the command.
type arityError struct {
	name string
}

func (e *arityError) Error() string {
	return "ERR wrong number of arguments for '" + strings.ToLower(e.name) + "' command"
}

// formatRedisError renders a DomainError as "ERR <code> <message>[: details]".
func formatRedisError(de *domain.DomainError) string {
	s := "ERR " + de.Code + " " + de.Message
	if de.Details != "" {
		s += ": " + de.Details
	}
	return s
}

// splitKey applies the "namespace^key" convention. The split happens at
// the first separator; validation of the parts is left to the dispatcher.
func splitKey(arg []byte) (ns *string, key *string) {
	namespace, name, found := domain.SplitKey(string(arg))
	if !found {
		return nil, &name
	}
	return &namespace, &name
}

// decodeCommand maps RESP arguments onto a Command. Unknown names are
// passed through so that the dispatcher reports them.
func decodeCommand(name string, args [][]byte) (domain.Command, error) {
	switch name {
	case "PING":
		if len(args) > 2 {
			return domain.Command{}, &arityError{name}
		}
		cmd := domain.Command{Action: domain.ActionPing}
		if len(args) == 2 {
			cmd.Value = args[1]
			cmd.HasValue = true
		}
		return cmd, nil

	case "SET":
		if len(args) != 3 {
			return domain.Command{}, &arityError{name}
		}
		ns, key := splitKey(args[1])
		return domain.Command{
			Action:    domain.ActionSet,
			Namespace: ns,
			Key:       key,
			Value:     args[2],
			HasValue:  true,
		}, nil

	case "GET", "DEL", "EXISTS":
		if len(args) != 2 {
			return domain.Command{}, &arityError{name}
		}
		ns, key := splitKey(args[1])
		return domain.Command{Action: domain.ParseAction(name), Namespace: ns, Key: key}, nil

	case "PUBLISH":
		if len(args) != 3 {
			return domain.Command{}, &arityError{name}
		}
		return domain.Command{
			Action:     domain.ActionPublish,
			Channel:    domain.String(string(args[1])),
			Message:    args[2],
			HasMessage: true,
		}, nil

	default:
		return domain.Command{Action: domain.ParseAction(name)}, nil
	}
}

// writeResponse encodes resp in RESP2.
func writeResponse(w *bufio.Writer, resp domain.Response) error {
	switch resp.Kind {
	case domain.RespPong:
		if resp.Value != nil {
			return WriteBulk(w, resp.Value)
		}
		return WriteSimpleString(w, "PONG")
	case domain.RespOK:
		return WriteSimpleString(w, "OK")
	case domain.RespResult:
		if resp.Value == nil {
			return WriteBulk(w, []byte{})
		}
		return WriteBulk(w, resp.Value)
	case domain.RespAbsent:
		return WriteNullBulk(w)
	case domain.RespDeleted, domain.RespExists:
		return WriteInteger(w, boolToInt(resp.Flag))
	case domain.RespSubscribed:
		return WriteSubscription(w, "subscribe", resp.Channel, resp.Count)
	case domain.RespUnsubscribed:
		return WriteSubscription(w, "unsubscribe", resp.Channel, resp.Count)
	case domain.RespPublished:
		return WriteInteger(w, int64(resp.Count))
	case domain.RespError:
		de := resp.Err
		if de == nil {
			de = domain.ErrInternal
		}
		return WriteError(w, formatRedisError(de))
	default:
		return WriteError(w, formatRedisError(domain.ErrInternal.WithDetails("unencodable response "+string(resp.Kind))))
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// CommandHandler decodes RESP commands, runs them and writes the replies.
type CommandHandler struct {
	exec   Executor
	logger *slog.Logger
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(exec Executor, logger *slog.Logger) *CommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandHandler{exec: exec, logger: logger}
}

// Handle runs one command on conn. It reports whether the client asked to
// close the connection.
func (h *CommandHandler) Handle(ctx context.Context, conn *Conn, args [][]byte) (quit bool) {
	if len(args) == 0 {
		_ = conn.reply(func(w *bufio.Writer) error { return WriteError(w, "ERR no command") })
		return false
	}

	name := normalizeCommandName(args[0])

	if name == "QUIT" {
		_ = conn.reply(func(w *bufio.Writer) error { return WriteSimpleString(w, "OK") })
		return true
	}

	if conn.limiter != nil && !conn.limiter.Allow() {
		h.logger.Debug("command rate limited", "remote", conn.RemoteAddr(), "command", name)
		_ = conn.reply(func(w *bufio.Writer) error {
			return WriteError(w, formatRedisError(domain.ErrRateLimited))
		})
		return false
	}

	switch name {
	case "SUBSCRIBE", "UNSUBSCRIBE":
		h.handleSubscription(ctx, conn, name, args)
		return false
	}

	cmd, err := decodeCommand(name, args)
	if err != nil {
		_ = conn.reply(func(w *bufio.Writer) error { return WriteError(w, err.Error()) })
		return false
	}

	resp := h.exec.Execute(ctx, cmd, conn.caller)
	_ = conn.reply(func(w *bufio.Writer) error { return writeResponse(w, resp) })
	return false
}

// handleSubscription runs one SUBSCRIBE or UNSUBSCRIBE per channel and
// writes one confirmation each, like Redis does.
func (h *CommandHandler) handleSubscription(ctx context.Context, conn *Conn, name string, args [][]byte) {
	if len(args) < 2 {
		_ = conn.reply(func(w *bufio.Writer) error { return WriteError(w, (&arityError{name}).Error()) })
		return
	}

	action := domain.ParseAction(name)
	for _, ch := range args[1:] {
		resp := h.exec.Execute(ctx, domain.Command{Action: action, Channel: domain.String(string(ch))}, conn.caller)
		if !resp.IsError() {
			conn.subscriptions.Store(int64(resp.Count))
		}
		if err := conn.reply(func(w *bufio.Writer) error { return writeResponse(w, resp) }); err != nil {
			return
		}
	}
}
