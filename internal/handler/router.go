package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	callhandler "github.com/hausly/voicedesk/internal/handler/call"
	middlewarePkg "github.com/hausly/voicedesk/internal/middleware"
	callsvc "github.com/hausly/voicedesk/internal/service/call"
	"github.com/hausly/voicedesk/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(deps callsvc.Dependencies, callbacks *CallbackHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	wsHandler := callhandler.NewWebSocketHandler(deps)
	wsHandler.RegisterWebSocketRoutes(r)

	r.Route("/api", func(api chi.Router) {
		callbacks.RegisterRoutes(api)
	})

	return r
}
