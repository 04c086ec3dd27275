package handler

import "time"

// Response is the envelope of every JSON body served by the handler.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response. Empty details are omitted.
func NewErrorResponse(requestID, code, message, details string) *Response {
	resp := &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
	if details != "" {
		resp.Details = details
	}
	return resp
}

// HealthResponse is the data of /health and /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatsResponse is the data of /stats.
type StatsResponse struct {
	Version          string           `json:"version"`
	Keys             int              `json:"keys"`
	Namespaces       int              `json:"namespaces"`
	Channels         int              `json:"channels"`
	Subscriptions    int              `json:"subscriptions"`
	Connections      map[string]int64 `json:"connections"`
	TotalConnections int64            `json:"total_connections"`
}
