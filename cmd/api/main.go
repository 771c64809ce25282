package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/hausly/voicedesk/internal/config"
	"github.com/hausly/voicedesk/internal/handler"
	"github.com/hausly/voicedesk/internal/service/agent"
	callsvc "github.com/hausly/voicedesk/internal/service/call"
	"github.com/hausly/voicedesk/internal/service/identity"
	"github.com/hausly/voicedesk/internal/service/knowledge"
	"github.com/hausly/voicedesk/internal/service/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.AI.Enabled() {
		log.Println("warning: Ark credentials not configured, calls will get error replies only")
	}
	if !cfg.Telephony.Enabled() {
		log.Println("warning: telephony API key not configured, caller lookups will fail")
	}

	// Initialize knowledge base
	var weaviateClient *weaviate.Client
	if cfg.Knowledge.Enabled() {
		weaviateClient, err = knowledge.NewWeaviateClient(cfg.Knowledge)
		if err != nil {
			log.Printf("warning: failed to initialize knowledge base client: %v", err)
			weaviateClient = nil
		}
	}
	var kb knowledge.Store
	if weaviateClient != nil {
		kb = knowledge.NewWeaviateStore(weaviateClient, cfg.Knowledge)
		log.Println("Knowledge base initialized successfully")
	} else {
		kb = knowledge.NewDisabledStore()
		log.Println("Knowledge base not configured, continuing without search or prior context")
	}

	// Shared chat model for end-of-call summaries. Session agents build their
	// own models so tool binding stays per call.
	var summaryModel model.ChatModel
	if cfg.AI.Enabled() {
		summaryModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize summary model: %v", err)
			summaryModel = nil
		}
	}

	identityClient := identity.NewClient(cfg.Telephony)
	reporter := report.NewService(summaryModel, weaviateClient, cfg.Report, cfg.Knowledge)
	agentService := agent.NewService(cfg.AI, cfg.Telephony, kb)

	deps := callsvc.Dependencies{
		Identity:  identityClient,
		Knowledge: kb,
		BuildAgent: func(ctx context.Context, params agent.BuildParams) (callsvc.AgentRunner, error) {
			return agentService.Build(ctx, params)
		},
		Reporter: reporter,
		Config:   cfg.Session,
	}

	router := handler.NewRouter(deps, handler.NewCallbackHandler(identityClient, cfg.Telephony))

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("VoiceDesk backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
