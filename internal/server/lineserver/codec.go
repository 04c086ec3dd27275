package lineserver

import (
	"bytes"
	"errors"

	"github.com/bytedance/sonic"

	"github.com/yndnr/rediminute/internal/core/domain"
)

// Request is one decoded line. Absent and null fields are nil.
type Request struct {
	Action    string  `json:"action"`
	Namespace *string `json:"namespace,omitempty"`
	Key       *string `json:"key,omitempty"`
	Value     *string `json:"value,omitempty"`
	Channel   *string `json:"channel,omitempty"`
	Message   *string `json:"message,omitempty"`
}

type okReply struct {
	Status string `json:"status"`
	Result any    `json:"result"`
}

type errorReply struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	Code      int    `json:"code"`
	Kind      string `json:"kind,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

type pushReply struct {
	Status  string `json:"status"`
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Message string `json:"message"`
}

// SubscriptionResult is the result of SUBSCRIBE and UNSUBSCRIBE.
type SubscriptionResult struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

var errNotObject = errors.New("line is not a JSON object")

const (
	statusOK    = "ok"
	statusError = "error"
)

// DecodeRequest parses one line into a Command. A line that is not a
// JSON object is reported as ErrMalformed.
func DecodeRequest(line []byte) (domain.Command, error) {
	if trimmed := bytes.TrimSpace(line); len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.Command{}, domain.ErrMalformed.WithCause(errNotObject)
	}
	var req Request
	if err := sonic.Unmarshal(line, &req); err != nil {
		return domain.Command{}, domain.ErrMalformed.WithCause(err)
	}
	return req.Command(), nil
}

// Command converts the request to the transport-independent form.
func (r Request) Command() domain.Command {
	cmd := domain.Command{
		Action:    domain.ParseAction(r.Action),
		Namespace: r.Namespace,
		Key:       r.Key,
		Channel:   r.Channel,
	}
	if r.Value != nil {
		cmd.Value = []byte(*r.Value)
		cmd.HasValue = true
	}
	if r.Message != nil {
		cmd.Message = []byte(*r.Message)
		cmd.HasMessage = true
	}
	return cmd
}

// EncodeResponse renders resp as one JSON line without the newline.
func EncodeResponse(resp domain.Response) ([]byte, error) {
	if resp.IsError() {
		return EncodeError(resp.Err)
	}

	var result any
	switch resp.Kind {
	case domain.RespPong:
		result = "PONG"
		if resp.Value != nil {
			result = string(resp.Value)
		}
	case domain.RespOK:
		result = "OK"
	case domain.RespResult:
		result = string(resp.Value)
	case domain.RespAbsent:
		result = nil
	case domain.RespDeleted, domain.RespExists:
		result = resp.Flag
	case domain.RespSubscribed, domain.RespUnsubscribed:
		result = SubscriptionResult{Channel: resp.Channel, Count: resp.Count}
	case domain.RespPublished:
		result = resp.Count
	default:
		return EncodeError(domain.ErrInternal.WithDetails("unencodable response " + string(resp.Kind)))
	}
	return sonic.Marshal(okReply{Status: statusOK, Result: result})
}

// EncodeError renders an error reply.
func EncodeError(de *domain.DomainError) ([]byte, error) {
	if de == nil {
		de = domain.ErrInternal
	}
	msg := de.Message
	if de.Details != "" {
		msg += ": " + de.Details
	}
	return sonic.Marshal(errorReply{
		Status:    statusError,
		Error:     msg,
		Code:      de.HTTPStatus(),
		Kind:      string(de.Kind),
		ErrorCode: de.Code,
	})
}

// EncodePush renders a published message.
func EncodePush(channel string, payload []byte) ([]byte, error) {
	return sonic.Marshal(pushReply{
		Status:  statusOK,
		Type:    "message",
		Channel: channel,
		Message: string(payload),
	})
}
