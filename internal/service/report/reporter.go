package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/hausly/voicedesk/internal/config"
	"github.com/hausly/voicedesk/internal/model/call"
)

const summaryFallbackLimit = 100

// SessionSummary is the end-of-call payload handed to the reporter.
type SessionSummary struct {
	CallID            string      `json:"call_id"`
	CallerPhone       string      `json:"caller_phone,omitempty"`
	DurationSeconds   int         `json:"duration_seconds"`
	EmergencyDetected bool        `json:"emergency_detected"`
	EmergencyReason   string      `json:"emergency_reason,omitempty"`
	RecordingURL      string      `json:"recording_url,omitempty"`
	Transcript        []call.Turn `json:"transcript"`
	Summary           string      `json:"summary"`
}

// TransferAlert notifies operations that a call was transferred.
type TransferAlert struct {
	CallID      string `json:"call_id"`
	CallerPhone string `json:"caller_phone,omitempty"`
	Destination string `json:"destination"`
	Reason      string `json:"reason"`
	Class       string `json:"class"`
}

// Service emits best-effort session reports and transfer alerts. Nothing it
// does may surface to the caller: every failure is logged and swallowed.
type Service struct {
	chatModel  model.ChatModel
	weaviate   *weaviate.Client
	cfg        config.ReportConfig
	classes    config.KnowledgeConfig
	httpClient *http.Client
}

// NewService creates the reporter. chatModel and weaviate may be nil; the
// reporter degrades to fallback summaries and webhook-only delivery.
func NewService(chatModel model.ChatModel, weaviateClient *weaviate.Client, cfg config.ReportConfig, classes config.KnowledgeConfig) *Service {
	return &Service{
		chatModel:  chatModel,
		weaviate:   weaviateClient,
		cfg:        cfg,
		classes:    classes,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ReportSessionEnd summarizes the finished call, persists a durable call
// record, and posts the summary to the alert webhook.
func (s *Service) ReportSessionEnd(ctx context.Context, summary SessionSummary) {
	summary.Summary = s.summarize(ctx, summary.Transcript)

	s.saveCallRecord(ctx, summary)

	if err := s.postJSON(ctx, map[string]interface{}{
		"event":  "session_ended",
		"report": summary,
	}); err != nil {
		log.Printf("[report] session-end webhook failed call=%s: %v", summary.CallID, err)
	}
}

// NotifyTransfer posts a transfer alert. Callers fire it in a goroutine; it
// never blocks or fails the transferring turn.
func (s *Service) NotifyTransfer(ctx context.Context, alert TransferAlert) {
	if err := s.postJSON(ctx, map[string]interface{}{
		"event": "call_transferred",
		"alert": alert,
	}); err != nil {
		log.Printf("[report] transfer webhook failed call=%s: %v", alert.CallID, err)
	}
}

// summarize produces a one-line call summary, falling back to the first
// caller utterance when no model is configured or generation fails.
func (s *Service) summarize(ctx context.Context, transcript []call.Turn) string {
	fallback := fallbackSummary(transcript)
	if s.chatModel == nil || len(transcript) == 0 {
		return fallback
	}

	var convo strings.Builder
	for _, turn := range transcript {
		fmt.Fprintf(&convo, "%s: %s\n", turn.Role, turn.Content)
	}

	prompt := fmt.Sprintf("Generate a very short summary (12 words max) of this support call:\n%sSummary:", convo.String())
	resp, err := s.chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		log.Printf("[report] summary generation failed: %v", err)
		return fallback
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return fallback
	}
	return summary
}

func fallbackSummary(transcript []call.Turn) string {
	for _, turn := range transcript {
		if turn.Role == call.RoleHuman && turn.Content != "" {
			summary := "Call: " + turn.Content
			if runes := []rune(summary); len(runes) > summaryFallbackLimit {
				summary = string(runes[:summaryFallbackLimit]) + "..."
			}
			return summary
		}
	}
	return "Call with no caller utterances"
}

func (s *Service) saveCallRecord(ctx context.Context, summary SessionSummary) {
	if s.weaviate == nil {
		return
	}

	transcript, err := json.Marshal(summary.Transcript)
	if err != nil {
		log.Printf("[report] marshal transcript failed call=%s: %v", summary.CallID, err)
		return
	}

	properties := map[string]interface{}{
		"record_id":          uuid.NewString(),
		"call_id":            summary.CallID,
		"caller_phone":       summary.CallerPhone,
		"duration_seconds":   summary.DurationSeconds,
		"emergency_detected": summary.EmergencyDetected,
		"emergency_reason":   summary.EmergencyReason,
		"recording_url":      summary.RecordingURL,
		"transcript":         string(transcript),
		"summary":            summary.Summary,
		"timestamp":          time.Now().UnixMilli(),
	}

	_, err = s.weaviate.Data().Creator().
		WithClassName(s.classes.RecordClass).
		WithProperties(properties).
		Do(ctx)
	if err != nil {
		log.Printf("[report] save call record failed call=%s: %v", summary.CallID, err)
		return
	}
	log.Printf("[report] saved call record call=%s duration=%ds", summary.CallID, summary.DurationSeconds)
}

func (s *Service) postJSON(ctx context.Context, payload interface{}) error {
	if s.cfg.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
