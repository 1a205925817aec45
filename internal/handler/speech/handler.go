package speech

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/internal/model/speech"
	"github.com/taxmonster/backend/pkg/utils"
)

const maxTextBytes = 16 << 10

// Synthesizer abstracts the speech service for testing.
type Synthesizer interface {
	SynthesizeToBuffer(ctx context.Context, sessionID, text, voice, language string) (*speech.TTSResponse, error)
}

// Handler replays reply text as audio, e.g. for a "listen again" control.
type Handler struct {
	speechSvc Synthesizer
	personas  persona.Store
}

// New creates a speech handler.
func New(speechSvc Synthesizer, personas persona.Store) *Handler {
	return &Handler{speechSvc: speechSvc, personas: personas}
}

// RegisterRoutes mounts the speech routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Get("/health", h.handleHealth)
	})
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req speech.TTSRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBytes)).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	voice := strings.TrimSpace(req.Voice)
	if voice == "" {
		if p, ok := h.personas.FindByID(persona.DefaultID); ok {
			voice = p.VoiceID
		}
	}

	resp, err := h.speechSvc.SynthesizeToBuffer(r.Context(), req.SessionID, req.Text, voice, req.Language)
	if err != nil {
		log.Printf("[speech] TTS error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	format := resp.Format
	if format == "" || format == "mp3" {
		format = "mpeg"
	}
	w.Header().Set("Content-Type", "audio/"+format)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.AudioData)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.AudioData); err != nil {
		log.Printf("[speech] failed to write audio response: %v", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}
