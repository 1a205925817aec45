package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taxmonster/backend/internal/model/chat"
	"github.com/taxmonster/backend/internal/service/relay"
	"github.com/taxmonster/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler serves the chat relay endpoint.
type Handler struct {
	relay *relay.Service
}

// New creates a chat handler.
func New(relaySvc *relay.Service) *Handler {
	return &Handler{relay: relaySvc}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chat.Request

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Messages are required")
		return
	}

	reply, err := h.relay.Reply(r.Context(), payload.Messages)
	if err != nil {
		reqID := middleware.GetReqID(r.Context())
		log.Printf("[chat] relay failed request=%s: %v", reqID, err)

		switch {
		case errors.Is(err, relay.ErrInvalidRequest):
			utils.RespondError(w, http.StatusBadRequest, "Messages are required")
		case errors.Is(err, relay.ErrUpstreamTimeout):
			utils.RespondError(w, http.StatusGatewayTimeout, "AI response timed out")
		default:
			utils.RespondErrorDetails(w, http.StatusInternalServerError, "Failed to get response from AI", err.Error())
		}
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}
