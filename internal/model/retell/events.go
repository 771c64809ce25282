package retell

import (
	"encoding/json"
	"fmt"
)

// Interaction types the provider sends over the custom-LLM socket.
const (
	InteractionCallDetails      = "call_details"
	InteractionResponseRequired = "response_required"
	InteractionUpdateOnly       = "update_only"
	InteractionCallEnded        = "call_ended"
)

// Event is the decoded-once sum type for inbound protocol messages. Dispatch
// switches on the concrete variant instead of re-comparing type strings.
type Event interface {
	isEvent()
}

// CallDetailsEvent is the handshake-style event sent once per call.
type CallDetailsEvent struct{}

// ResponseRequiredEvent asks for exactly one outbound action correlated with
// ResponseID.
type ResponseRequiredEvent struct {
	ResponseID int
	Transcript []Utterance
}

// UpdateEvent carries opportunistic call metadata mid-session.
type UpdateEvent struct {
	RecordingURL string
}

// CallEndedEvent signals the provider finished the call.
type CallEndedEvent struct {
	RecordingURL string
}

// UnknownEvent preserves unrecognized interaction types so callers can ignore
// them without failing, keeping the protocol forward compatible.
type UnknownEvent struct {
	Type string
}

func (CallDetailsEvent) isEvent()      {}
func (ResponseRequiredEvent) isEvent() {}
func (UpdateEvent) isEvent()           {}
func (CallEndedEvent) isEvent()        {}
func (UnknownEvent) isEvent()          {}

// Utterance is one transcript entry inside an inbound event.
type Utterance struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type rawInbound struct {
	InteractionType string      `json:"interaction_type"`
	ResponseID      int         `json:"response_id"`
	Transcript      []Utterance `json:"transcript"`
	Call            *struct {
		RecordingURL string `json:"recording_url"`
	} `json:"call"`
}

// DecodeEvent parses one inbound frame into its tagged variant.
func DecodeEvent(data []byte) (Event, error) {
	var raw rawInbound
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode inbound event: %w", err)
	}

	switch raw.InteractionType {
	case InteractionCallDetails:
		return CallDetailsEvent{}, nil
	case InteractionResponseRequired:
		return ResponseRequiredEvent{
			ResponseID: raw.ResponseID,
			Transcript: raw.Transcript,
		}, nil
	case InteractionUpdateOnly:
		return UpdateEvent{RecordingURL: raw.recordingURL()}, nil
	case InteractionCallEnded:
		return CallEndedEvent{RecordingURL: raw.recordingURL()}, nil
	default:
		return UnknownEvent{Type: raw.InteractionType}, nil
	}
}

func (r rawInbound) recordingURL() string {
	if r.Call == nil {
		return ""
	}
	return r.Call.RecordingURL
}

// LastUserUtterance returns the most recent caller utterance in the
// transcript, empty when the caller has not said anything.
func (e ResponseRequiredEvent) LastUserUtterance() string {
	for i := len(e.Transcript) - 1; i >= 0; i-- {
		if e.Transcript[i].Role == "user" {
			return e.Transcript[i].Content
		}
	}
	return ""
}
