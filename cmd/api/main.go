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

	"github.com/joho/godotenv"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/handler"
	speechHandler "github.com/taxmonster/backend/internal/handler/speech"
	"github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/internal/service/ai"
	"github.com/taxmonster/backend/internal/service/relay"
	"github.com/taxmonster/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.AI.Validate(); err != nil {
		log.Fatalf("invalid AI configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	taxMonster, ok := personaStore.FindByID(persona.DefaultID)
	if !ok {
		log.Fatalf("persona %q not found", persona.DefaultID)
	}
	system := ai.NewPromptBuilder().BuildSystemPrompt(taxMonster)

	completer, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize %s completer: %v", cfg.AI.Provider, err)
	}
	log.Printf("AI provider %s initialized", cfg.AI.Provider)

	// A nil *speech.Service must not reach relay as a non-nil interface.
	var (
		synthesizer relay.Synthesizer
		replay      speechHandler.Synthesizer
	)
	speechSvc, err := speech.NewService(cfg.Speech)
	switch {
	case err != nil:
		log.Printf("warning: failed to initialize speech service: %v", err)
		log.Println("continuing with text-only replies")
	case speechSvc != nil:
		synthesizer = speechSvc
		replay = speechSvc
		log.Printf("speech provider %s initialized", cfg.Speech.Provider)
	default:
		log.Println("speech provider not configured, replies are text-only")
	}

	relaySvc := relay.NewService(completer, synthesizer, system, relay.Options{
		CompletionTimeout: cfg.AI.Timeout,
		SpeechTimeout:     cfg.Speech.Timeout,
	})

	router := handler.NewRouter(personaStore, relaySvc, handler.Options{
		GreetingDelay: cfg.Server.GreetingDelay,
		Speech:        replay,
		StaticDir:     cfg.Server.StaticDir,
	})

	startServer(ctx, cfg.Server, router)
}

func newCompleter(ctx context.Context, cfg config.AIConfig) (relay.Completer, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return ai.NewArkCompleter(ctx, cfg)
	default:
		return ai.NewOpenAICompleter(cfg)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Tax Monster backend listening on %s", addr)
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
