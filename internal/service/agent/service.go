package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/hausly/voicedesk/internal/config"
	"github.com/hausly/voicedesk/internal/model/call"
	"github.com/hausly/voicedesk/internal/service/knowledge"
)

// maxToolRounds bounds the generate/tool loop of one invocation.
const maxToolRounds = 6

// Service builds per-session agents backed by the configured chat model.
type Service struct {
	cfg       config.AIConfig
	telephony config.TelephonyConfig
	kb        knowledge.Store
}

// NewService creates the agent factory.
func NewService(cfg config.AIConfig, telephony config.TelephonyConfig, kb knowledge.Store) *Service {
	return &Service{cfg: cfg, telephony: telephony, kb: kb}
}

// BuildParams carries everything resolved during session initialization.
type BuildParams struct {
	Variant      Variant
	CallerPhone  string
	PriorContext []knowledge.ContextRecord
	Video        *call.VideoContext
}

// Agent is one session's reasoning engine: a chat model with session-scoped
// tools bound and a rendered system prompt. It is never shared across calls.
type Agent struct {
	chatModel model.ChatModel
	tools     map[string]tool.InvokableTool
	system    *schema.Message
}

// Build constructs a session agent. A fresh chat model is created per session
// so tool binding never mutates state another call can observe.
func (s *Service) Build(ctx context.Context, params BuildParams) (*Agent, error) {
	chatModel, err := s.cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	tools := sessionTools(toolDeps{kb: s.kb, numbers: s.telephony})

	infos := make([]*schema.ToolInfo, 0, len(tools))
	byName := make(map[string]tool.InvokableTool, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe tool: %w", err)
		}
		infos = append(infos, info)
		byName[info.Name] = t
	}

	if err := chatModel.BindTools(infos); err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}

	return &Agent{
		chatModel: chatModel,
		tools:     byName,
		system:    schema.SystemMessage(SystemPrompt(params.Variant, params.PriorContext, params.Video)),
	}, nil
}

// Invoke runs one conversational turn over the full message history and
// returns every message the invocation produced, in order: assistant messages
// and the tool results they triggered. Intermediate tool output stays visible
// so callers can inspect it for embedded transfer signals.
func (a *Agent) Invoke(ctx context.Context, history []*schema.Message) ([]*schema.Message, error) {
	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, a.system)
	messages = append(messages, history...)

	var produced []*schema.Message
	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.chatModel.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("chat model generate: %w", err)
		}

		messages = append(messages, resp)
		produced = append(produced, resp)

		if len(resp.ToolCalls) == 0 {
			return produced, nil
		}

		for _, toolCall := range resp.ToolCalls {
			result := a.runTool(ctx, toolCall)
			toolMsg := schema.ToolMessage(result, toolCall.ID)
			messages = append(messages, toolMsg)
			produced = append(produced, toolMsg)
		}
	}

	return produced, nil
}

func (a *Agent) runTool(ctx context.Context, toolCall schema.ToolCall) string {
	name := toolCall.Function.Name
	impl, ok := a.tools[name]
	if !ok {
		log.Printf("[agent] model requested unknown tool %q", name)
		return fmt.Sprintf("unknown tool %q", name)
	}

	result, err := impl.InvokableRun(ctx, toolCall.Function.Arguments)
	if err != nil {
		// Tool failures go back to the model as text; the turn must not die
		// on a failed lookup.
		log.Printf("[agent] tool %s failed: %v", name, err)
		return fmt.Sprintf("tool %s failed: %v", name, err)
	}
	return result
}

// FinalReply extracts the last non-empty assistant utterance from an
// invocation's produced messages.
func FinalReply(produced []*schema.Message) string {
	for i := len(produced) - 1; i >= 0; i-- {
		msg := produced[i]
		if msg != nil && msg.Role == schema.Assistant && msg.Content != "" {
			return msg.Content
		}
	}
	return ""
}
