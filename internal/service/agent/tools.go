package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/hausly/voicedesk/internal/analysis/transfer"
	"github.com/hausly/voicedesk/internal/config"
	"github.com/hausly/voicedesk/internal/service/knowledge"
)

// Tool names exposed to the chat model.
const (
	toolSearchKnowledgeBase = "search_knowledge_base"
	toolEmergencyTransfer   = "emergency_transfer"
	toolUrgentMaintenance   = "urgent_maintenance_transfer"
	toolRequestHumanAgent   = "request_human_agent"
)

// toolDeps carries the session-scoped state the tools close over. Each call
// session gets its own tool values, so no per-call data ever rides on a
// shared tool object.
type toolDeps struct {
	kb      knowledge.Store
	numbers config.TelephonyConfig
}

func sessionTools(deps toolDeps) []tool.InvokableTool {
	return []tool.InvokableTool{
		&searchTool{kb: deps.kb},
		&emergencyTransferTool{destination: deps.numbers.EmergencyNumber},
		&urgentMaintenanceTool{destination: deps.numbers.MaintenanceNumber},
		&humanAgentTool{destination: deps.numbers.HumanAgentNumber},
	}
}

type searchTool struct {
	kb knowledge.Store
}

func (t *searchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: toolSearchKnowledgeBase,
		Desc: "Search the home-maintenance knowledge base for troubleshooting steps and repair guidance.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "What to look up, e.g. 'water heater pilot light keeps going out'",
				Required: true,
			},
		}),
	}, nil
}

func (t *searchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("parse search arguments: %w", err)
	}

	snippets, err := t.kb.Search(ctx, args.Query)
	if err != nil {
		return "", fmt.Errorf("knowledge search: %w", err)
	}
	if len(snippets) == 0 {
		return "No matching knowledge-base articles found.", nil
	}

	var builder strings.Builder
	for _, snippet := range snippets {
		if snippet.Title != "" {
			builder.WriteString(snippet.Title)
			builder.WriteString(": ")
		}
		builder.WriteString(snippet.Content)
		builder.WriteString("\n")
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

type emergencyTransferTool struct {
	destination string
}

func (t *emergencyTransferTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: toolEmergencyTransfer,
		Desc: "Transfer the call to emergency services. Use only for life-threatening situations such as fire, gas leaks, or electrical hazards.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"reason": {
				Type:     schema.String,
				Desc:     "Short description of the emergency, e.g. 'gas_leak'",
				Required: true,
			},
		}),
	}, nil
}

func (t *emergencyTransferTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("parse emergency arguments: %w", err)
	}
	return transfer.Encode(t.destination, sanitizeReasonTag(args.Reason)), nil
}

type urgentMaintenanceTool struct {
	destination string
}

func (t *urgentMaintenanceTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: toolUrgentMaintenance,
		Desc: "Transfer the call to the on-call maintenance line. Use for active property damage such as burst pipes or flooding.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"issue": {
				Type:     schema.String,
				Desc:     "Short label for the issue, e.g. 'flooding'",
				Required: true,
			},
		}),
	}, nil
}

func (t *urgentMaintenanceTool) InvokableRun(_ context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args struct {
		Issue string `json:"issue"`
	}
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("parse maintenance arguments: %w", err)
	}
	return transfer.Encode(t.destination, "urgent_maintenance_"+sanitizeReasonTag(args.Issue)), nil
}

type humanAgentTool struct {
	destination string
}

func (t *humanAgentTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name:        toolRequestHumanAgent,
		Desc:        "Transfer the call to a human support agent when the caller asks for a person.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}, nil
}

func (t *humanAgentTool) InvokableRun(_ context.Context, _ string, _ ...tool.Option) (string, error) {
	return transfer.Encode(t.destination, "human_agent_requested"), nil
}

// sanitizeReasonTag keeps reason tags colon-free so they survive the
// delimiter-based signal encoding.
func sanitizeReasonTag(reason string) string {
	reason = strings.TrimSpace(reason)
	reason = strings.ReplaceAll(reason, ":", "_")
	reason = strings.ReplaceAll(reason, " ", "_")
	if reason == "" {
		return "emergency_situation"
	}
	return reason
}
