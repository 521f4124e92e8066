package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigServiceDefaults(t *testing.T) {
	dir := t.TempDir()
	svc := newConfigServiceAt(filepath.Join(dir, "config.json"))

	cfg := svc.Load()
	if cfg.Model != "gemini-2.0-flash" {
		t.Errorf("default model = %q; want %q", cfg.Model, "gemini-2.0-flash")
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("default OCR language = %q; want %q", cfg.OCRLanguage, "eng")
	}
	if cfg.QuickHotkey != defaultQuickCombo {
		t.Errorf("default quick hotkey = %q; want %q", cfg.QuickHotkey, defaultQuickCombo)
	}
	if cfg.ScreenshotMethod != "window" {
		t.Errorf("default screenshot method = %q; want %q", cfg.ScreenshotMethod, "window")
	}
	if cfg.MaxTypedRunes != 2000 {
		t.Errorf("default max typed runes = %d; want 2000", cfg.MaxTypedRunes)
	}
}

func TestConfigServiceSaveLoad(t *testing.T) {
	dir := t.TempDir()
	svc := newConfigServiceAt(filepath.Join(dir, "config.json"))

	want := defaultConfig()
	want.Model = "gemini-1.5-pro"
	want.OCRLanguage = "deu"
	want.TypingDelayMs = 50
	if err := svc.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := svc.Load()
	if got != want {
		t.Errorf("Load() = %+v; want %+v", got, want)
	}
}

func TestConfigServiceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	// Write corrupt JSON
	if err := os.WriteFile(path, []byte("{bad json"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newConfigServiceAt(path)
	cfg := svc.Load()

	// Should get defaults without panicking
	if cfg.Model != "gemini-2.0-flash" {
		t.Errorf("corrupt fallback model = %q; want %q", cfg.Model, "gemini-2.0-flash")
	}

	// And the corrupt file should have been overwritten with valid JSON
	reread := svc.Load()
	if reread != defaultConfig() {
		t.Errorf("rewritten config = %+v; want defaults", reread)
	}
}

func TestConfigServicePartialFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	// Write config missing everything except the model
	if err := os.WriteFile(path, []byte(`{"model":"gemini-1.5-flash"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newConfigServiceAt(path)
	cfg := svc.Load()
	if cfg.Model != "gemini-1.5-flash" {
		t.Errorf("model = %q; want %q", cfg.Model, "gemini-1.5-flash")
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("OCR language should default to %q, got %q", "eng", cfg.OCRLanguage)
	}
	if cfg.AITimeoutSecs != 15 {
		t.Errorf("AI timeout should default to 15, got %d", cfg.AITimeoutSecs)
	}
}

func TestConfigServiceRejectsBadScreenshotMethod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{"screenshot_method":"hologram"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := newConfigServiceAt(path).Load()
	if cfg.ScreenshotMethod != "window" {
		t.Errorf("unknown method should reset to %q, got %q", "window", cfg.ScreenshotMethod)
	}
}

func TestConfigServiceEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	svc := newConfigServiceAt(filepath.Join(dir, "config.json"))

	t.Setenv("AUTOREPLY_MODEL", "gemini-2.0-pro")
	t.Setenv("AUTOREPLY_OCR_LANGUAGE", "jpn")

	cfg := svc.Load()
	if cfg.Model != "gemini-2.0-pro" {
		t.Errorf("env override model = %q; want %q", cfg.Model, "gemini-2.0-pro")
	}
	if cfg.OCRLanguage != "jpn" {
		t.Errorf("env override OCR language = %q; want %q", cfg.OCRLanguage, "jpn")
	}
}
