package call

import (
	"context"
	"log"
	"sync"

	"github.com/hausly/voicedesk/internal/config"
	callmodel "github.com/hausly/voicedesk/internal/model/call"
	"github.com/hausly/voicedesk/internal/model/retell"
	"github.com/hausly/voicedesk/internal/service/agent"
	"github.com/hausly/voicedesk/internal/service/identity"
	"github.com/hausly/voicedesk/internal/service/knowledge"
	"github.com/hausly/voicedesk/internal/service/report"
)

// Dependencies bundles everything a session controller needs beyond the
// connection itself.
type Dependencies struct {
	Identity   identity.Resolver
	Knowledge  knowledge.Store
	BuildAgent AgentBuilder
	Reporter   Reporter
	Config     config.SessionConfig
}

// Controller orchestrates one live call: it owns the session state, decodes
// inbound provider events, and produces outbound responses. One controller
// per WebSocket connection.
type Controller struct {
	session *callmodel.Session
	sender  Sender
	deps    Dependencies

	mu      sync.Mutex
	runner  AgentRunner
	variant agent.Variant

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
}

func NewController(session *callmodel.Session, sender Sender, deps Dependencies) *Controller {
	return &Controller{
		session: session,
		sender:  sender,
		deps:    deps,
		variant: agent.VariantReceptionist,
		ready:   make(chan struct{}),
	}
}

// Start launches session initialization in the background so the read loop
// can begin consuming events immediately.
func (c *Controller) Start(ctx context.Context) {
	go c.initialize(ctx)
}

// HandleRaw processes one inbound frame. Malformed frames never terminate the
// session: the caller hears the standard recovery line and the call goes on.
func (c *Controller) HandleRaw(ctx context.Context, data []byte) {
	event, err := retell.DecodeEvent(data)
	if err != nil {
		log.Printf("[call] decode inbound failed call=%s: %v", c.session.CallID(), err)
		c.send(retell.NewErrorReply(0))
		return
	}

	switch ev := event.(type) {
	case retell.CallDetailsEvent:
		c.send(retell.NewConfigAck())
	case retell.ResponseRequiredEvent:
		c.handleTurn(ctx, ev)
	case retell.UpdateEvent:
		c.session.SetRecordingURL(ev.RecordingURL)
	case retell.CallEndedEvent:
		c.session.SetRecordingURL(ev.RecordingURL)
	case retell.UnknownEvent:
		log.Printf("[call] ignoring interaction type %q call=%s", ev.Type, c.session.CallID())
	}
}

// HandleTransportError records a read-side transport failure. The connection
// teardown path handles everything else.
func (c *Controller) HandleTransportError(err error) {
	log.Printf("[call] transport error call=%s: %v", c.session.CallID(), err)
}

// Close finalizes the session exactly once and hands the completed call to
// the reporter. Safe to call from multiple teardown paths.
func (c *Controller) Close(ctx context.Context) {
	c.closeOnce.Do(func() {
		emergency, reason := c.session.Emergency()
		summary := report.SessionSummary{
			CallID:            c.session.CallID(),
			CallerPhone:       c.session.CallerPhone(),
			DurationSeconds:   int(c.session.Duration().Seconds()),
			EmergencyDetected: emergency,
			EmergencyReason:   reason,
			RecordingURL:      c.session.RecordingURL(),
			Transcript:        c.session.Turns(),
		}
		log.Printf("[call] session ended call=%s duration=%ds turns=%d emergency=%t",
			summary.CallID, summary.DurationSeconds, len(summary.Transcript), emergency)
		c.deps.Reporter.ReportSessionEnd(ctx, summary)
	})
}

func (c *Controller) send(v interface{}) error {
	if err := c.sender.Send(v); err != nil {
		log.Printf("[call] send failed call=%s: %v", c.session.CallID(), err)
		return err
	}
	return nil
}

func (c *Controller) currentVariant() agent.Variant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variant
}

// ensureGreeting speaks the opening line exactly once, whichever path gets
// there first: initialization finishing or the first caller turn arriving.
func (c *Controller) ensureGreeting() {
	if !c.session.MarkGreetingSent() {
		return
	}
	greeting := agent.Greeting(c.currentVariant())
	c.session.AppendTurn(callmodel.RoleAI, greeting)
	// Greetings are agent-initiated, so they answer no inbound event and
	// carry the reserved response id 0.
	if err := c.sender.Send(retell.NewReply(0, greeting, false)); err != nil {
		log.Printf("[call] greeting send failed, caller gets no opening line call=%s: %v",
			c.session.CallID(), err)
	}
}
