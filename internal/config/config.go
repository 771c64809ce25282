package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting for the service.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Telephony TelephonyConfig
	Knowledge KnowledgeConfig
	Report    ReportConfig
	Session   SessionConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Telephony: loadTelephonyConfig(),
		Knowledge: loadKnowledgeConfig(),
		Report:    loadReportConfig(),
		Session:   session,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model backing the reasoning engine.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a fresh chat model instance. Each call session binds
// its own tools, so sessions never share a model value.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: provide ARK_API_KEY + Model or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// TelephonyConfig describes the voice provider API and the numbers calls can
// be transferred to.
type TelephonyConfig struct {
	APIKey            string
	BaseURL           string
	OutboundNumber    string
	EmergencyNumber   string
	MaintenanceNumber string
	HumanAgentNumber  string
}

// Enabled reports whether the provider API can be reached.
func (c TelephonyConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTelephonyConfig() TelephonyConfig {
	return TelephonyConfig{
		APIKey:            strings.TrimSpace(os.Getenv("RETELL_API_KEY")),
		BaseURL:           getEnvOrDefault("RETELL_BASE_URL", "https://api.retellai.com"),
		OutboundNumber:    strings.TrimSpace(os.Getenv("RETELL_FROM_NUMBER")),
		EmergencyNumber:   getEnvOrDefault("TRANSFER_EMERGENCY_NUMBER", "911"),
		MaintenanceNumber: strings.TrimSpace(os.Getenv("TRANSFER_MAINTENANCE_NUMBER")),
		HumanAgentNumber:  strings.TrimSpace(os.Getenv("TRANSFER_HUMAN_AGENT_NUMBER")),
	}
}

// KnowledgeConfig describes the Weaviate knowledge base.
type KnowledgeConfig struct {
	Host         string
	Scheme       string
	DocsClass    string
	SessionClass string
	FrameClass   string
	RecordClass  string
}

// Enabled reports whether a knowledge-base host is configured.
func (c KnowledgeConfig) Enabled() bool {
	return c.Host != ""
}

func loadKnowledgeConfig() KnowledgeConfig {
	return KnowledgeConfig{
		Host:         strings.TrimSpace(os.Getenv("WEAVIATE_HOST")),
		Scheme:       getEnvOrDefault("WEAVIATE_SCHEME", "http"),
		DocsClass:    getEnvOrDefault("WEAVIATE_DOCS_CLASS", "MaintenanceDoc"),
		SessionClass: getEnvOrDefault("WEAVIATE_SESSION_CLASS", "VideoSession"),
		FrameClass:   getEnvOrDefault("WEAVIATE_FRAME_CLASS", "VideoFrame"),
		RecordClass:  getEnvOrDefault("WEAVIATE_RECORD_CLASS", "CallRecord"),
	}
}

// ReportConfig describes the end-of-session alerting boundary.
type ReportConfig struct {
	WebhookURL string
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		WebhookURL: strings.TrimSpace(os.Getenv("ALERT_WEBHOOK_URL")),
	}
}

// SessionConfig bounds the per-call waiting points.
type SessionConfig struct {
	InitWaitTimeout time.Duration
	IdentityTimeout time.Duration
	TurnTimeout     time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	initWait, err := parseDurationSecondsEnv("SESSION_INIT_WAIT_SECONDS", 10*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	identity, err := parseDurationSecondsEnv("SESSION_IDENTITY_TIMEOUT_SECONDS", 5*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	turn, err := parseDurationSecondsEnv("SESSION_TURN_TIMEOUT_SECONDS", 30*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		InitWaitTimeout: initWait,
		IdentityTimeout: identity,
		TurnTimeout:     turn,
	}, nil
}

func parseDurationSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	seconds, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return defaultValue, nil
	}
	if *seconds < 1 {
		return 0, fmt.Errorf("invalid %s value %d: must be at least 1", key, *seconds)
	}
	return time.Duration(*seconds) * time.Second, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
