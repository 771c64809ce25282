package transfer

import (
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded := Encode("911", "gas_leak")
	signal, ok := Decode([]*schema.Message{schema.AssistantMessage(encoded, nil)})
	if !ok {
		t.Fatalf("expected signal to decode")
	}
	if signal.Destination != "911" {
		t.Fatalf("expected destination 911, got %s", signal.Destination)
	}
	if signal.ReasonTag != "gas_leak" {
		t.Fatalf("expected reason gas_leak, got %s", signal.ReasonTag)
	}
	if signal.Class != Emergency {
		t.Fatalf("expected emergency class, got %s", signal.Class)
	}
}

func TestDecodeFindsSignalInIntermediateToolMessage(t *testing.T) {
	messages := []*schema.Message{
		schema.AssistantMessage("let me get help", nil),
		schema.ToolMessage(Encode("911", "fire"), "call-1"),
		schema.AssistantMessage("I'm connecting you now.", nil),
	}

	signal, ok := Decode(messages)
	if !ok {
		t.Fatalf("expected signal from tool message")
	}
	if signal.Destination != "911" {
		t.Fatalf("expected destination 911, got %s", signal.Destination)
	}
}

func TestDecodeReturnsFirstSignalInOrder(t *testing.T) {
	messages := []*schema.Message{
		schema.ToolMessage(Encode("911", "flooding"), "call-1"),
		schema.ToolMessage(Encode("+15550100", "human_agent_requested"), "call-2"),
	}

	signal, ok := Decode(messages)
	if !ok {
		t.Fatalf("expected signal")
	}
	if signal.Destination != "911" {
		t.Fatalf("expected first signal to win, got destination %s", signal.Destination)
	}
}

func TestDecodeNoSignal(t *testing.T) {
	messages := []*schema.Message{
		schema.AssistantMessage("try resetting the breaker", nil),
	}
	if _, ok := Decode(messages); ok {
		t.Fatalf("expected no signal")
	}
}

func TestDecodeMissingReasonDefaults(t *testing.T) {
	signal, ok := Decode([]*schema.Message{
		schema.AssistantMessage("EMERGENCY_TRANSFER:911", nil),
	})
	if !ok {
		t.Fatalf("expected signal")
	}
	if signal.ReasonTag != "emergency_situation" {
		t.Fatalf("expected default reason, got %s", signal.ReasonTag)
	}
	if signal.Class != Emergency {
		t.Fatalf("expected emergency class, got %s", signal.Class)
	}
}

func TestClassification(t *testing.T) {
	cases := []struct {
		reason string
		class  Class
	}{
		{"urgent_maintenance_burst_pipe", UrgentMaintenance},
		{"human_agent_requested", HumanAgent},
		{"gas_leak", Emergency},
		{"emergency_situation", Emergency},
	}

	for _, tc := range cases {
		signal, ok := Decode([]*schema.Message{
			schema.AssistantMessage(Encode("+15550100", tc.reason), nil),
		})
		if !ok {
			t.Fatalf("reason %s: expected signal", tc.reason)
		}
		if signal.Class != tc.class {
			t.Fatalf("reason %s: expected class %s, got %s", tc.reason, tc.class, signal.Class)
		}
	}
}

func TestDisplayReasonStripsMaintenancePrefix(t *testing.T) {
	signal, _ := Decode([]*schema.Message{
		schema.AssistantMessage(Encode("+15550100", "urgent_maintenance_burst_pipe"), nil),
	})
	if signal.DisplayReason() != "burst_pipe" {
		t.Fatalf("expected burst_pipe, got %s", signal.DisplayReason())
	}
}

func TestCountsAsEmergency(t *testing.T) {
	emergency, _ := Decode([]*schema.Message{schema.AssistantMessage(Encode("911", "fire"), nil)})
	if !emergency.CountsAsEmergency() {
		t.Fatalf("expected emergency to count")
	}

	maintenance, _ := Decode([]*schema.Message{schema.AssistantMessage(Encode("+15550100", "urgent_maintenance_no_heat"), nil)})
	if !maintenance.CountsAsEmergency() {
		t.Fatalf("expected urgent maintenance to count")
	}

	human, _ := Decode([]*schema.Message{schema.AssistantMessage(Encode("+15550100", "human_agent_requested"), nil)})
	if human.CountsAsEmergency() {
		t.Fatalf("expected human agent transfer not to count")
	}
}

func TestDecodeIgnoresMidSentenceMention(t *testing.T) {
	messages := []*schema.Message{
		schema.AssistantMessage("If things get worse I could use EMERGENCY_TRANSFER:911:fire but let's try the breaker first.", nil),
		schema.AssistantMessage("Transferring now. EMERGENCY_TRANSFER:911:carbon_monoxide", nil),
	}
	if _, ok := Decode(messages); ok {
		t.Fatalf("expected mid-sentence mention not to decode as transfer")
	}
}

func TestDecodeTrimsTrailingProseAfterSignal(t *testing.T) {
	content := "EMERGENCY_TRANSFER:911:carbon_monoxide connecting you now"
	signal, ok := Decode([]*schema.Message{schema.AssistantMessage(content, nil)})
	if !ok {
		t.Fatalf("expected signal to decode")
	}
	if signal.ReasonTag != "carbon_monoxide" {
		t.Fatalf("expected carbon_monoxide, got %s", signal.ReasonTag)
	}
}
