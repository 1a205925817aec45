package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/internal/telegram"
	"github.com/taxmonster/backend/internal/widget"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	taxMonster, ok := persona.NewMemoryStore(persona.Seed()).FindByID(persona.DefaultID)
	if !ok {
		log.Fatalf("persona %q not found", persona.DefaultID)
	}

	b, err := bot.New(cfg.Telegram.BotToken, bot.WithDefaultHandler(func(context.Context, *bot.Bot, *models.Update) {}))
	if err != nil {
		log.Fatal(err)
	}

	transport := widget.NewHTTPTransport(cfg.Telegram.RelayURL, &http.Client{Timeout: 60 * time.Second})
	frontend := telegram.NewFrontend(b, transport, taxMonster)
	frontend.Register(b)

	log.Printf("Tax Monster bot relaying to %s", cfg.Telegram.RelayURL)
	b.Start(ctx)
}
