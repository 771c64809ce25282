package transfer

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Prefix marks an agent-produced message that requests a call transfer. The
// tool channel of the reasoning engine can only return plain text, so the
// transfer instruction rides on this delimiter convention.
const Prefix = "EMERGENCY_TRANSFER:"

const (
	urgentMaintenancePrefix = "urgent_maintenance_"
	humanAgentTag           = "human_agent_requested"
	defaultReasonTag        = "emergency_situation"
)

// Class buckets a transfer reason for caller-facing copy and reporting.
type Class string

const (
	// Emergency covers life-threatening situations.
	Emergency Class = "emergency"
	// UrgentMaintenance covers property damage needing immediate dispatch.
	UrgentMaintenance Class = "urgent_maintenance"
	// HumanAgent covers callers who simply asked for a person.
	HumanAgent Class = "human_agent"
)

// Signal is a decoded transfer request.
type Signal struct {
	Destination string
	ReasonTag   string
	Class       Class
}

// Encode renders a transfer signal for the tool return channel.
func Encode(destination, reasonTag string) string {
	return Prefix + destination + ":" + reasonTag
}

// Decode scans the messages produced by one agent invocation, in order, and
// returns the first transfer signal found. The signal usually lives in an
// intermediate tool-result message rather than the final reply, so every
// message is inspected. Only content starting with the prefix counts; a reply
// that merely mentions the marker mid-sentence must not trigger a transfer.
func Decode(messages []*schema.Message) (Signal, bool) {
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := messageText(msg)
		if strings.HasPrefix(content, Prefix) {
			return parse(signalToken(content)), true
		}
	}
	return Signal{}, false
}

// signalToken cuts the signal at the first whitespace so trailing prose after
// the marker does not leak into the reason tag.
func signalToken(content string) string {
	if i := strings.IndexAny(content, " \t\r\n"); i >= 0 {
		return content[:i]
	}
	return content
}

func parse(content string) Signal {
	parts := strings.Split(content, ":")

	destination := ""
	if len(parts) > 1 {
		destination = strings.TrimSpace(parts[1])
	}

	reason := defaultReasonTag
	if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
		reason = strings.TrimSpace(parts[2])
	}

	return Signal{
		Destination: destination,
		ReasonTag:   reason,
		Class:       classify(reason),
	}
}

func classify(reasonTag string) Class {
	switch {
	case strings.HasPrefix(reasonTag, urgentMaintenancePrefix):
		return UrgentMaintenance
	case reasonTag == humanAgentTag:
		return HumanAgent
	default:
		return Emergency
	}
}

// DisplayReason returns the reason tag suitable for logs and reports, with
// the urgent-maintenance prefix stripped.
func (s Signal) DisplayReason() string {
	if s.Class == UrgentMaintenance {
		return strings.TrimPrefix(s.ReasonTag, urgentMaintenancePrefix)
	}
	return s.ReasonTag
}

// CountsAsEmergency reports whether the transfer should be flagged as an
// emergency at session end. A caller asking for a person is not one.
func (s Signal) CountsAsEmergency() bool {
	return s.Class != HumanAgent
}

// messageText flattens a message to plain text. Structured multi-part content
// is serialized so the prefix scan still sees it.
func messageText(msg *schema.Message) string {
	if len(msg.MultiContent) == 0 {
		return msg.Content
	}

	var builder strings.Builder
	for _, part := range msg.MultiContent {
		if part.Type == schema.ChatMessagePartTypeText {
			builder.WriteString(part.Text)
			continue
		}
		if encoded, err := json.Marshal(part); err == nil {
			builder.Write(encoded)
		}
	}
	return builder.String()
}
