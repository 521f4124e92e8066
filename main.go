package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getlantern/systray"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("autoreply ")

	// A .env next to the binary is the supported way to carry the API key
	// outside the shell environment. Missing file is fine.
	_ = godotenv.Load()

	cfgSvc := NewConfigService()
	cfg := cfgSvc.Load()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatalf("fatal: GEMINI_API_KEY is not set — export it or put it in a .env file")
	}

	ai, err := NewAIService(context.Background(), apiKey, cfg.Model,
		time.Duration(cfg.AITimeoutSecs)*time.Second)
	if err != nil {
		log.Fatalf("fatal: ai client: %v", err)
	}

	acc := NewAccessibilityService()
	shots := NewScreenshotService(cfg.ScreenshotMethod)
	traineddata := NewTraineddataService(cfgSvc.DataDir())
	ocr := NewOCRService(cfg.OCRLanguage, traineddata.Dir())

	// OCR is the fallback path; fetch its language data and warm it up off
	// the main thread so startup stays instant. Until this finishes, a
	// capture that needs OCR fails over to "nothing to reply to".
	go func() {
		if err := traineddata.EnsureLanguage(cfg.OCRLanguage); err != nil {
			log.Printf("warning: OCR fallback unavailable: %v", err)
			return
		}
		if err := ocr.Load(); err != nil {
			log.Printf("warning: OCR engine failed to load: %v", err)
		}
	}()

	extractor := NewContextExtractor(acc, shots, ocr)
	output := NewOutputService(acc.FocusedTarget,
		time.Duration(cfg.TypingDelayMs)*time.Millisecond, cfg.MaxTypedRunes)
	notifier := NewNotifier()
	coord := NewCoordinator(extractor, ai, output, notifier)

	hotkeys, err := NewHotkeyService(cfg.QuickHotkey, cfg.DeepHotkey, acc.FocusedTarget)
	if err != nil {
		log.Fatalf("fatal: hotkey config: %v", err)
	}

	app := NewApp(cfg, coord, hotkeys, acc, notifier)

	// Ctrl-C and SIGTERM unwind through the same path as the Quit menu.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		app.Shutdown()
		systray.Quit()
	}()

	// RunSystray blocks on the main thread until Quit.
	RunSystray(app, func() {
		if err := app.Startup(); err != nil {
			if errors.Is(err, ErrHotkeyConflict) {
				notifier.Notify("AutoReply can't start",
					"Its hotkeys are registered by another application. Change them in config.json.")
			}
			log.Printf("fatal: startup: %v", err)
			systray.Quit()
		}
	})

	app.Shutdown()
	log.Printf("app: exited")
}
