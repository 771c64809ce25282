package call

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/hausly/voicedesk/internal/analysis/transfer"
	callmodel "github.com/hausly/voicedesk/internal/model/call"
	"github.com/hausly/voicedesk/internal/model/retell"
	"github.com/hausly/voicedesk/internal/service/agent"
	"github.com/hausly/voicedesk/internal/service/report"
)

const transferHoldingContent = "Your call is being transferred now. Please stay on the line."

var errAgentUnavailable = errors.New("session agent unavailable")

// handleTurn answers one response_required event. It never lets an internal
// failure go silent: the caller either hears a real reply, a transfer line,
// or the standard recovery line with the event's response id.
func (c *Controller) handleTurn(ctx context.Context, ev retell.ResponseRequiredEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[call] turn panic call=%s response_id=%d: %v", c.session.CallID(), ev.ResponseID, r)
			c.send(retell.NewErrorReply(ev.ResponseID))
		}
	}()

	runner, err := c.waitForAgent(ctx)
	if err != nil {
		log.Printf("[call] turn aborted call=%s response_id=%d: %v", c.session.CallID(), ev.ResponseID, err)
		c.send(retell.NewErrorReply(ev.ResponseID))
		return
	}

	c.ensureGreeting()

	utterance := strings.TrimSpace(ev.LastUserUtterance())
	if utterance == "" {
		log.Printf("[call] empty utterance call=%s response_id=%d", c.session.CallID(), ev.ResponseID)
		return
	}
	c.session.AppendTurn(callmodel.RoleHuman, utterance)

	tctx, cancel := context.WithTimeout(ctx, c.deps.Config.TurnTimeout)
	defer cancel()
	produced, err := runner.Invoke(tctx, historyMessages(c.session.Turns()))
	if err != nil {
		log.Printf("[call] agent invoke failed call=%s response_id=%d: %v", c.session.CallID(), ev.ResponseID, err)
		c.send(retell.NewErrorReply(ev.ResponseID))
		return
	}

	if signal, ok := transfer.Decode(produced); ok {
		c.handleTransfer(ctx, ev.ResponseID, signal)
		return
	}

	reply := agent.FinalReply(produced)
	if reply == "" {
		log.Printf("[call] agent produced no reply call=%s response_id=%d", c.session.CallID(), ev.ResponseID)
		c.send(retell.NewErrorReply(ev.ResponseID))
		return
	}
	c.session.AppendTurn(callmodel.RoleAI, reply)
	c.send(retell.NewReply(ev.ResponseID, reply, false))
}

// waitForAgent blocks until initialization latches readiness, bounded by the
// configured wait window. Late-arriving turns on a slow init get the
// recovery line instead of hanging the provider.
func (c *Controller) waitForAgent(ctx context.Context) (AgentRunner, error) {
	timer := time.NewTimer(c.deps.Config.InitWaitTimeout)
	defer timer.Stop()
	select {
	case <-c.ready:
	case <-timer.C:
		return nil, fmt.Errorf("agent not ready after %s", c.deps.Config.InitWaitTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runner == nil {
		return nil, errAgentUnavailable
	}
	return c.runner, nil
}

// handleTransfer executes a transfer signal. The transfer latch guarantees
// exactly one transfer response per session; a racing second signal only
// reassures the caller.
func (c *Controller) handleTransfer(ctx context.Context, responseID int, signal transfer.Signal) {
	if !c.session.BeginTransfer() {
		c.session.AppendTurn(callmodel.RoleAI, transferHoldingContent)
		c.send(retell.NewReply(responseID, transferHoldingContent, false))
		return
	}

	if signal.CountsAsEmergency() {
		c.session.RecordEmergency(signal.DisplayReason())
	}
	log.Printf("[call] transferring call=%s class=%s destination=%s reason=%s",
		c.session.CallID(), signal.Class, signal.Destination, signal.DisplayReason())

	content := transferContent(signal)
	sendErr := c.send(retell.NewTransfer(responseID, content, signal.Destination))
	c.session.AppendTurn(callmodel.RoleAI, content)

	go c.deps.Reporter.NotifyTransfer(context.Background(), report.TransferAlert{
		CallID:      c.session.CallID(),
		CallerPhone: c.session.CallerPhone(),
		Destination: signal.Destination,
		Reason:      signal.DisplayReason(),
		Class:       string(signal.Class),
	})

	if sendErr != nil {
		fallback := transferFallback(signal)
		c.session.AppendTurn(callmodel.RoleAI, fallback)
		c.send(retell.NewReply(responseID, fallback, false))
	}
}

// transferContent is the line spoken while the provider bridges the call.
func transferContent(signal transfer.Signal) string {
	switch signal.Class {
	case transfer.Emergency:
		return "This sounds like an emergency. I'm connecting you to emergency services right now. Please stay on the line."
	case transfer.UrgentMaintenance:
		return "I'm connecting you to our urgent maintenance team right now. Please stay on the line."
	default:
		return "Of course. I'm connecting you with one of our team members now. One moment please."
	}
}

// transferFallback is spoken when the transfer response could not be
// delivered: the caller gets the number to dial themselves.
func transferFallback(signal transfer.Signal) string {
	if signal.Class == transfer.Emergency {
		return fmt.Sprintf("I'm having trouble transferring your call. Please hang up and dial %s immediately.", signal.Destination)
	}
	return fmt.Sprintf("I'm having trouble transferring your call. Please hang up and dial %s directly.", signal.Destination)
}

func historyMessages(turns []callmodel.Turn) []*schema.Message {
	messages := make([]*schema.Message, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case callmodel.RoleHuman:
			messages = append(messages, schema.UserMessage(turn.Content))
		case callmodel.RoleAI:
			messages = append(messages, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return messages
}
