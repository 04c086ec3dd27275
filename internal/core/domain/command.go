package domain

import "strings"

// Action discriminates a Command.
type Action string

const (
	ActionPing        Action = "PING"
	ActionSet         Action = "SET"
	ActionGet         Action = "GET"
	ActionDel         Action = "DEL"
	ActionExists      Action = "EXISTS"
	ActionSubscribe   Action = "SUBSCRIBE"
	ActionUnsubscribe Action = "UNSUBSCRIBE"
	ActionPublish     Action = "PUBLISH"
)

// ParseAction normalizes a wire action name. Unknown names are kept as-is
// so the dispatcher can report them.
func ParseAction(s string) Action {
	return Action(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether the dispatcher handles a.
func (a Action) Known() bool {
	switch a {
	case ActionPing, ActionSet, ActionGet, ActionDel, ActionExists,
		ActionSubscribe, ActionUnsubscribe, ActionPublish:
		return true
	}
	return false
}

// Command is one structurally valid request. Optional fields are nil when
// the client did not send them; an empty string is a present value.
type Command struct {
	Action    Action
	Namespace *string
	Key       *string
	Value     []byte
	Channel   *string
	Message   []byte

	// HasValue and HasMessage distinguish an empty payload from an absent one.
	HasValue   bool
	HasMessage bool
}

// String returns a pointer to s, for building Commands.
func String(s string) *string {
	return &s
}

// ResponseKind tags a Response.
type ResponseKind string

const (
	RespPong         ResponseKind = "pong"
	RespOK           ResponseKind = "ok"
	RespResult       ResponseKind = "result"
	RespAbsent       ResponseKind = "absent"
	RespDeleted      ResponseKind = "deleted"
	RespExists       ResponseKind = "exists"
	RespSubscribed   ResponseKind = "subscribed"
	RespUnsubscribed ResponseKind = "unsubscribed"
	RespPublished    ResponseKind = "published"
	RespError        ResponseKind = "error"
)

// Response is the tagged outcome of one Command.
type Response struct {
	Kind ResponseKind

	// Value holds the payload of Result and the echo payload of Pong.
	Value []byte
	// Flag holds existed for Deleted and the answer for Exists.
	Flag bool
	// Channel and Count describe Subscribed/Unsubscribed; Count also holds
	// the delivered count of Published.
	Channel string
	Count   int

	Err *DomainError
}

// IsError reports whether the response is an error.
func (r Response) IsError() bool {
	return r.Kind == RespError
}

// ErrorResponse wraps err in an error Response.
func ErrorResponse(err error) Response {
	return Response{Kind: RespError, Err: AsDomainError(err)}
}
