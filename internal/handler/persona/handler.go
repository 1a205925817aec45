package persona

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/pkg/utils"
)

// WidgetConfig bootstraps the chat widget.
type WidgetConfig struct {
	persona.Persona
	GreetingDelayMs int64 `json:"greetingDelayMs"`
	SpeechEnabled   bool  `json:"speechEnabled"`
}

// Handler serves persona data to the widget.
type Handler struct {
	personas      persona.Store
	greetingDelay time.Duration
	speechEnabled bool
}

// New creates a persona handler.
func New(personas persona.Store, greetingDelay time.Duration, speechEnabled bool) *Handler {
	return &Handler{
		personas:      personas,
		greetingDelay: greetingDelay,
		speechEnabled: speechEnabled,
	}
}

// RegisterRoutes mounts the persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persona", h.handleWidgetConfig)
}

func (h *Handler) handleWidgetConfig(w http.ResponseWriter, r *http.Request) {
	p, ok := h.personas.FindByID(persona.DefaultID)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "persona not found")
		return
	}

	utils.RespondJSON(w, http.StatusOK, WidgetConfig{
		Persona:         p,
		GreetingDelayMs: h.greetingDelay.Milliseconds(),
		SpeechEnabled:   h.speechEnabled,
	})
}
