package relay

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

// Operations carried in Request.Operation.
const (
	OpExecute    = "execute"
	OpEndSession = "end_session"
)

// DefaultRequestChannel is where brokers publish command requests.
const DefaultRequestChannel = "webterm:cli:requests"

// ReplyChannelPrefix prefixes each broker's private response channel.
const ReplyChannelPrefix = "webterm:cli:responses:"

// Request is published by a broker for the interpreter.
type Request struct {
	RequestID string   `json:"requestId" validate:"required"`
	SessionID string   `json:"sessionId" validate:"required"`
	UserID    string   `json:"userId" validate:"required_if=Operation execute"`
	Username  string   `json:"username,omitempty"`
	Operation string   `json:"operation" validate:"required,oneof=execute end_session"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	ReplyTo   string   `json:"replyTo,omitempty" validate:"required_if=Operation execute"`
}

// Response answers an execute Request on its ReplyTo channel.
type Response struct {
	RequestID string `json:"requestId" validate:"required"`
	SessionID string `json:"sessionId"`
	Success   bool   `json:"success"`
	Output    string `json:"output"`
	Error     string `json:"error,omitempty"`
	Clear     bool   `json:"clear,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Encode serializes a relay message.
func Encode(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// DecodeRequest parses and validates a request payload.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := sonic.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("relay: decode request: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("relay: invalid request: %w", err)
	}
	return req, nil
}

// DecodeResponse parses and validates a response payload.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return Response{}, fmt.Errorf("relay: decode response: %w", err)
	}
	if err := validate.Struct(resp); err != nil {
		return resp, fmt.Errorf("relay: invalid response: %w", err)
	}
	return resp, nil
}
