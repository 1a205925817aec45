package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taxmonster/backend/internal/handler/chat"
	"github.com/taxmonster/backend/internal/handler/persona"
	"github.com/taxmonster/backend/internal/handler/speech"
	"github.com/taxmonster/backend/internal/handler/tax"
	middlewarePkg "github.com/taxmonster/backend/internal/middleware"
	personaModel "github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/internal/service/relay"
	taxService "github.com/taxmonster/backend/internal/service/tax"
	"github.com/taxmonster/backend/pkg/utils"
)

// StaticPrefix is where the exported site is mounted.
const StaticPrefix = "/taxmonster/"

// Options configures optional router features.
type Options struct {
	GreetingDelay time.Duration
	// Speech enables the audio replay routes when set.
	Speech speech.Synthesizer
	// StaticDir serves the exported site under StaticPrefix when set.
	StaticDir string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, relaySvc *relay.Service, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	personaHandler := persona.New(personas, opts.GreetingDelay, relaySvc.SpeechEnabled())
	chatHandler := chat.New(relaySvc)
	taxHandler := tax.New(taxService.NewCalculator(nil))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		taxHandler.RegisterRoutes(api)

		if opts.Speech != nil {
			speech.New(opts.Speech, personas).RegisterRoutes(api)
		}
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix(StaticPrefix, http.FileServer(http.Dir(opts.StaticDir)))
		r.Get(StaticPrefix+"*", fs.ServeHTTP)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, StaticPrefix, http.StatusFound)
		})
	}

	return r
}
