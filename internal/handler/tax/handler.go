package tax

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taxmonster/backend/internal/model/tax"
	taxService "github.com/taxmonster/backend/internal/service/tax"
	"github.com/taxmonster/backend/pkg/utils"
)

const maxBodyBytes = 64 << 10

// Handler serves the calculator, calendar, documents and dashboard data.
type Handler struct {
	calc *taxService.Calculator
}

// New creates a tax data handler.
func New(calc *taxService.Calculator) *Handler {
	return &Handler{calc: calc}
}

// RegisterRoutes mounts the site data routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tax/estimate", h.handleEstimate)
	r.Get("/calendar", h.handleCalendar)
	r.Get("/documents", h.handleDocuments)
	r.Get("/dashboard", h.handleDashboard)
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req tax.EstimateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.calc.Estimate(req))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	events := tax.Events()

	if query.Get("year") == "" && query.Get("month") == "" {
		utils.RespondJSON(w, http.StatusOK, taxService.MonthView{Events: events})
		return
	}

	year, err := strconv.Atoi(query.Get("year"))
	if err != nil || year < 1 {
		utils.RespondError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(query.Get("month"))
	if err != nil || month < 1 || month > 12 {
		utils.RespondError(w, http.StatusBadRequest, "invalid month")
		return
	}

	utils.RespondJSON(w, http.StatusOK, taxService.Month(events, year, time.Month(month)))
}

type documentsResponse struct {
	Categories []tax.Category `json:"categories"`
	Documents  []tax.Document `json:"documents"`
}

func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, documentsResponse{
		Categories: tax.Categories(),
		Documents:  taxService.FilterDocuments(tax.Documents(), r.URL.Query().Get("category")),
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, tax.Overview())
}
