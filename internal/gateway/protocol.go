package gateway

import (
	"encoding/json"

	"github.com/soyeahso/revops/internal/conversation"
)

// Protocol version supported by this server.
const ProtocolVersion = 1

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Events pushed by the server.
const (
	EventConnectChallenge = "connect.challenge"
	EventAnswerRecorded   = "answer.recorded"
	EventDatasetReloaded  = "dataset.reloaded"
)

// Error codes carried in ErrorShape.Code.
const (
	CodeProtocol         = "protocol_error"
	CodeInvalidParams    = "invalid_params"
	CodeUnauthorized     = "unauthorized"
	CodeMethodNotFound   = "method_not_found"
	CodeCompletionFailed = "completion_failed"
	CodeSessionClosed    = "session_closed"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal_error"
)

// Frame is the envelope of every WebSocket message; Type discriminates
// requests, responses and events.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ConnectParams are sent by the client in the initial "connect" request.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform,omitempty"`
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// HelloOK is the server's response payload after successful authentication.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the gateway server and the caller's session.
type ServerInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	ConnID    string `json:"connId"`
	SessionID string `json:"sessionId"`
}

// Features advertises available RPC methods and events.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload int `json:"maxPayload"`
}

// AskParams are the params of the "ask" method.
type AskParams struct {
	Question string `json:"question"`
}

// HistoryParams are the params of the "history.list" method. Recent
// selects most-recent-first order.
type HistoryParams struct {
	Recent bool `json:"recent,omitempty"`
}

// HistoryResult is the payload of "history.list".
type HistoryResult struct {
	SessionID    string                     `json:"sessionId"`
	Interactions []conversation.Interaction `json:"interactions"`
}

// GroupParams are the params of the "group.get" method.
type GroupParams struct {
	Question string `json:"question"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{
		Type:    FrameTypeResponse,
		ID:      id,
		OK:      &ok,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &errShape,
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:    FrameTypeEvent,
		Event:   event,
		Payload: raw,
		Seq:     seq,
	}, nil
}
