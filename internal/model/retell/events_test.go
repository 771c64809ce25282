package retell

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeEventCallDetails(t *testing.T) {
	event, err := DecodeEvent([]byte(`{"interaction_type":"call_details","call":{"call_id":"abc"}}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := event.(CallDetailsEvent); !ok {
		t.Fatalf("expected CallDetailsEvent, got %T", event)
	}
}

func TestDecodeEventResponseRequired(t *testing.T) {
	payload := `{
		"interaction_type": "response_required",
		"response_id": 7,
		"transcript": [
			{"role": "agent", "content": "how can I help?"},
			{"role": "user", "content": "my sink is clogged"}
		]
	}`

	event, err := DecodeEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	required, ok := event.(ResponseRequiredEvent)
	if !ok {
		t.Fatalf("expected ResponseRequiredEvent, got %T", event)
	}
	if required.ResponseID != 7 {
		t.Fatalf("expected response id 7, got %d", required.ResponseID)
	}
	if required.LastUserUtterance() != "my sink is clogged" {
		t.Fatalf("unexpected last utterance: %s", required.LastUserUtterance())
	}
}

func TestLastUserUtteranceSkipsAgentTurns(t *testing.T) {
	event := ResponseRequiredEvent{Transcript: []Utterance{
		{Role: "user", Content: "hello"},
		{Role: "agent", Content: "hi there"},
	}}
	if event.LastUserUtterance() != "hello" {
		t.Fatalf("expected earlier user turn, got %s", event.LastUserUtterance())
	}

	empty := ResponseRequiredEvent{Transcript: []Utterance{{Role: "agent", Content: "hi"}}}
	if empty.LastUserUtterance() != "" {
		t.Fatalf("expected empty utterance")
	}
}

func TestDecodeEventCallEndedCarriesRecording(t *testing.T) {
	payload := `{"interaction_type":"call_ended","call":{"recording_url":"https://example.com/rec.wav"}}`

	event, err := DecodeEvent([]byte(payload))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	ended, ok := event.(CallEndedEvent)
	if !ok {
		t.Fatalf("expected CallEndedEvent, got %T", event)
	}
	if ended.RecordingURL != "https://example.com/rec.wav" {
		t.Fatalf("unexpected recording url: %s", ended.RecordingURL)
	}
}

func TestDecodeEventUnknownType(t *testing.T) {
	event, err := DecodeEvent([]byte(`{"interaction_type":"ping_pong"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	unknown, ok := event.(UnknownEvent)
	if !ok {
		t.Fatalf("expected UnknownEvent, got %T", event)
	}
	if unknown.Type != "ping_pong" {
		t.Fatalf("unexpected type: %s", unknown.Type)
	}
}

func TestDecodeEventMalformed(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{not json`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestReplyJSONOmitsTransferNumber(t *testing.T) {
	data, err := json.Marshal(NewReply(3, "hello", false))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)
	if strings.Contains(body, "transfer_number") {
		t.Fatalf("expected transfer_number to be omitted: %s", body)
	}
	if !strings.Contains(body, `"response_type":"response"`) {
		t.Fatalf("expected response type: %s", body)
	}
	if !strings.Contains(body, `"content_complete":true`) {
		t.Fatalf("expected content_complete: %s", body)
	}
}

func TestTransferJSONIncludesNumber(t *testing.T) {
	data, err := json.Marshal(NewTransfer(4, "connecting you now", "911"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"transfer_number":"911"`) {
		t.Fatalf("expected transfer number: %s", body)
	}
}

func TestErrorReplyUsesStandardContent(t *testing.T) {
	reply := NewErrorReply(9)
	if reply.ResponseID != 9 {
		t.Fatalf("expected response id 9, got %d", reply.ResponseID)
	}
	if reply.Content != ErrorContent {
		t.Fatalf("unexpected content: %s", reply.Content)
	}
	if reply.EndCall {
		t.Fatalf("error reply must not end the call")
	}
}

func TestConfigAckShape(t *testing.T) {
	data, err := json.Marshal(NewConfigAck())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, `"response_type":"config"`) {
		t.Fatalf("expected config response type: %s", body)
	}
	if !strings.Contains(body, `"auto_reconnect":true`) {
		t.Fatalf("expected auto_reconnect: %s", body)
	}
	if !strings.Contains(body, `"call_details":true`) {
		t.Fatalf("expected call_details: %s", body)
	}
}
