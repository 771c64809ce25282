package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hausly/voicedesk/internal/config"
	"github.com/hausly/voicedesk/internal/service/identity"
	"github.com/hausly/voicedesk/pkg/utils"
)

// CallbackHandler places outbound callback calls for customers who asked to
// be called back.
type CallbackHandler struct {
	client    *identity.Client
	telephony config.TelephonyConfig
}

func NewCallbackHandler(client *identity.Client, telephony config.TelephonyConfig) *CallbackHandler {
	return &CallbackHandler{client: client, telephony: telephony}
}

func (h *CallbackHandler) RegisterRoutes(r chi.Router) {
	r.Post("/callbacks", h.createCallback)
}

type callbackRequest struct {
	ToNumber string `json:"to_number"`
}

func (h *CallbackHandler) createCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	toNumber := strings.TrimSpace(req.ToNumber)
	if toNumber == "" {
		utils.RespondError(w, http.StatusBadRequest, "to_number is required")
		return
	}
	if h.telephony.OutboundNumber == "" {
		utils.RespondError(w, http.StatusServiceUnavailable, "outbound calling is not configured")
		return
	}

	callID, err := h.client.CreatePhoneCall(r.Context(), h.telephony.OutboundNumber, toNumber)
	if err != nil {
		log.Printf("[callback] create call failed to=%s: %v", toNumber, err)
		utils.RespondError(w, http.StatusBadGateway, "failed to place callback")
		return
	}

	log.Printf("[callback] placed call id=%s to=%s", callID, toNumber)
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"call_id": callID})
}
