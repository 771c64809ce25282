package call

import (
	"context"
	"errors"
	"log"

	callmodel "github.com/hausly/voicedesk/internal/model/call"
	"github.com/hausly/voicedesk/internal/service/agent"
	"github.com/hausly/voicedesk/internal/service/identity"
)

// initialize resolves the caller's identity and prior context, builds the
// session agent, and latches readiness. It runs at most once per session and
// always reaches the ready state, degrading to the receptionist variant when
// any lookup or build step fails.
func (c *Controller) initialize(ctx context.Context) {
	if !c.session.BeginInitialization() {
		return
	}
	defer c.session.EndInitialization()

	params := c.resolveContext(ctx)

	runner, err := c.deps.BuildAgent(ctx, params)
	if err != nil && params.Variant != agent.VariantReceptionist {
		log.Printf("[call] %s agent build failed call=%s, falling back to receptionist: %v",
			params.Variant, c.session.CallID(), err)
		params = agent.BuildParams{Variant: agent.VariantReceptionist, CallerPhone: params.CallerPhone}
		runner, err = c.deps.BuildAgent(ctx, params)
	}
	if err != nil {
		log.Printf("[call] agent build failed call=%s: %v", c.session.CallID(), err)
	}

	c.mu.Lock()
	c.runner = runner
	c.variant = params.Variant
	c.mu.Unlock()

	if runner != nil {
		c.session.MarkAgentReady()
		log.Printf("[call] agent ready call=%s variant=%s", c.session.CallID(), params.Variant)
		// Greet before opening the ready gate so no turn reply can beat the
		// greeting onto the wire.
		c.ensureGreeting()
	}
	c.readyOnce.Do(func() { close(c.ready) })
}

// resolveContext looks up the caller and their earlier video-support
// sessions. Every failure downgrades to an anonymous receptionist call
// rather than aborting initialization.
func (c *Controller) resolveContext(ctx context.Context) agent.BuildParams {
	params := agent.BuildParams{Variant: agent.VariantReceptionist}

	ictx, cancel := context.WithTimeout(ctx, c.deps.Config.IdentityTimeout)
	phone, err := c.deps.Identity.LookupCaller(ictx, c.session.CallID())
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrNoCallerNumber) {
			log.Printf("[call] anonymous caller call=%s", c.session.CallID())
		} else {
			log.Printf("[call] caller lookup failed call=%s: %v", c.session.CallID(), err)
		}
		return params
	}
	if phone == "" {
		return params
	}

	c.session.SetCallerPhone(phone)
	params.CallerPhone = phone

	records, err := c.deps.Knowledge.PriorContext(ctx, phone)
	if err != nil {
		log.Printf("[call] prior context lookup failed call=%s: %v", c.session.CallID(), err)
		return params
	}
	if len(records) == 0 {
		return params
	}

	video := &callmodel.VideoContext{}
	for _, record := range records {
		if record.ContentID != "" {
			video.ContentIDs = append(video.ContentIDs, record.ContentID)
		}
	}
	if len(video.ContentIDs) > 0 {
		hasFrames, err := c.deps.Knowledge.HasVisualEvidence(ctx, video.ContentIDs[0])
		if err != nil {
			log.Printf("[call] visual evidence check failed call=%s: %v", c.session.CallID(), err)
		} else {
			video.HasFrames = hasFrames
		}
	}
	c.session.SetVideoContext(video)

	params.Variant = agent.VariantContextAware
	params.PriorContext = records
	params.Video = video
	return params
}
