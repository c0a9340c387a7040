// Package protocol implements the framed JSON wire protocol.
//
// The wire is a TCP byte stream; logical messages are single JSON objects.
// The per-connection loop accumulates bytes, extracts one complete object at
// a time, hands it to the dispatcher, and writes exactly one response per
// request. Responses within a connection are written in request order; the
// loop is strictly sequential.
package protocol

import "encoding/json"

// Statuses carried in the response envelope.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusConnected = "connected"
)

// GreetingMessage is the message field of the greeting sent on accept.
const GreetingMessage = "AbletonMCP Ready"

// Request is one inbound command frame.
type Request struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Response is one outbound frame. Exactly one of Result / Message is set
// for success / error; the greeting carries Message only.
type Response struct {
	Status  string `json:"status"`
	Result  any    `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Success wraps a handler result.
func Success(result any) Response {
	return Response{Status: StatusSuccess, Result: result}
}

// Error wraps a failure message.
func Error(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// Greeting is the one-line JSON object sent immediately on accept.
func Greeting() Response {
	return Response{Status: StatusConnected, Message: GreetingMessage}
}

// Encode serializes a response to one JSON object. Marshal failures are
// impossible for the envelope itself, so they collapse into a generic error
// frame rather than propagating.
func Encode(r Response) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Error("internal error encoding response"))
	}
	return b
}
