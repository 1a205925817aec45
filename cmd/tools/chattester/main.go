package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/taxmonster/backend/internal/config"
	"github.com/taxmonster/backend/internal/model/chat"
	"github.com/taxmonster/backend/internal/model/persona"
	"github.com/taxmonster/backend/internal/service/speech"
	"github.com/taxmonster/backend/internal/widget"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "chat", "chat: talk to a running relay; tts: synthesize one clip")
	relayURL := flag.String("relay", cfg.Telegram.RelayURL, "relay endpoint URL")
	audioDir := flag.String("audio-dir", "replies", "directory for reply audio in chat mode")
	text := flag.String("text", "", "text to synthesize in tts mode")
	voice := flag.String("voice", "", "TTS voice, defaults to SPEECH_VOICE")
	outputPath := flag.String("out", "", "tts output path (default tts-output-<unix>.mp3)")
	timeout := flag.Duration("timeout", 45*time.Second, "per-request timeout")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch *mode {
	case "chat":
		runChat(ctx, cfg, *relayURL, *audioDir, *timeout)
	case "tts":
		runTTS(ctx, cfg, *text, *voice, *outputPath, *timeout)
	default:
		flag.Usage()
		log.Fatal("use -mode=chat or -mode=tts")
	}
}

func runChat(ctx context.Context, cfg *config.Config, relayURL, audioDir string, timeout time.Duration) {
	taxMonster, ok := persona.NewMemoryStore(persona.Seed()).FindByID(persona.DefaultID)
	if !ok {
		log.Fatalf("persona %q not found", persona.DefaultID)
	}

	var (
		mu      sync.Mutex
		printed int
	)
	printNew := func(snap widget.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		for _, m := range snap.Transcript[printed:] {
			if m.Role == chat.RoleAssistant {
				fmt.Printf("%s> %s\n", taxMonster.Name, m.Content)
			}
		}
		printed = len(snap.Transcript)
	}

	session := widget.NewSession(widget.NewHTTPTransport(relayURL, nil), widget.Options{
		Greeting:      taxMonster.Greeting,
		GreetingDelay: cfg.Server.GreetingDelay,
		Player: &widget.FilePlayer{
			Dir:     audioDir,
			Written: func(path string) { log.Printf("[chattester] reply audio saved to %s", path) },
		},
		OnChange: printNew,
	})
	session.Start()

	fmt.Printf("Talking to %s. Type a question, /quick N for a quick question, /quit to exit.\n", relayURL)
	for i, q := range taxMonster.QuickQuestions {
		fmt.Printf("  %d. %s\n", i+1, q)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			session.WaitPlayback()
			return
		case l, ok := <-lines:
			if !ok {
				session.WaitPlayback()
				return
			}
			line = strings.TrimSpace(l)
		}

		if line == "/quit" {
			session.WaitPlayback()
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		if n, ok := strings.CutPrefix(line, "/quick "); ok {
			idx, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil || idx < 1 || idx > len(taxMonster.QuickQuestions) {
				log.Printf("[chattester] no quick question %q", n)
				cancel()
				continue
			}
			fmt.Printf("you> %s\n", taxMonster.QuickQuestions[idx-1])
			_, err = session.QuickQuestion(reqCtx, taxMonster.QuickQuestions[idx-1])
			logSubmitError(err)
		} else {
			session.SetInput(line)
			_, err := session.Submit(reqCtx)
			logSubmitError(err)
		}
		cancel()
	}
}

func logSubmitError(err error) {
	if err != nil {
		log.Printf("[chattester] not sent: %v", err)
	}
}

func runTTS(ctx context.Context, cfg *config.Config, text, voice, outputPath string, timeout time.Duration) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode needs -text")
	}

	svc, err := speech.NewService(cfg.Speech)
	if err != nil {
		log.Fatalf("failed to initialize speech service: %v", err)
	}
	if svc == nil {
		log.Fatal("speech is disabled, set SPEECH_PROVIDER to openai or volcengine")
	}

	if voice == "" {
		voice = cfg.Speech.Voice
	}
	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.mp3", time.Now().Unix())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sessionID := fmt.Sprintf("manual-%d", time.Now().UnixNano())
	log.Printf("[chattester] synthesizing session=%s provider=%s voice=%s", sessionID, cfg.Speech.Provider, voice)

	resp, err := svc.SynthesizeToBuffer(ctx, sessionID, text, voice, cfg.Speech.TTSLanguage)
	if err != nil {
		log.Fatalf("TTS failed: %v", err)
	}

	if err := os.WriteFile(outputPath, resp.AudioData, 0o644); err != nil {
		log.Fatalf("failed to write audio: %v", err)
	}

	log.Printf("[chattester] wrote %s (%d bytes, voice=%s, duration=%dms)", outputPath, len(resp.AudioData), resp.Voice, resp.Duration)
}
