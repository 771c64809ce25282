package call

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/hausly/voicedesk/internal/service/agent"
	"github.com/hausly/voicedesk/internal/service/report"
)

// Sender writes one outbound protocol frame to the telephony provider.
// Implementations must serialize concurrent writes.
type Sender interface {
	Send(v interface{}) error
}

// AgentRunner is one session's reasoning engine.
type AgentRunner interface {
	Invoke(ctx context.Context, history []*schema.Message) ([]*schema.Message, error)
}

// AgentBuilder constructs a session agent from the context resolved during
// initialization.
type AgentBuilder func(ctx context.Context, params agent.BuildParams) (AgentRunner, error)

// Reporter receives best-effort session reports and transfer alerts.
type Reporter interface {
	ReportSessionEnd(ctx context.Context, summary report.SessionSummary)
	NotifyTransfer(ctx context.Context, alert report.TransferAlert)
}
