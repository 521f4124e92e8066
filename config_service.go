package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// Config holds persistent user preferences.
// Stored as JSON at ~/.autoreply/config.json. The Gemini API key is never
// written to this file; it comes from the environment (GEMINI_API_KEY,
// optionally via a .env next to the binary).
type Config struct {
	QuickHotkey      string `json:"quick_hotkey"`      // e.g. "cmd+option+r"
	DeepHotkey       string `json:"deep_hotkey"`       // e.g. "cmd+option+e"
	Model            string `json:"model"`             // Gemini model name
	OCRLanguage      string `json:"ocr_language"`      // tesseract language code, e.g. "eng"
	ScreenshotMethod string `json:"screenshot_method"` // "window" or "screen"
	TypingDelayMs    int    `json:"typing_delay_ms"`   // inter-chunk delay for simulated typing
	MaxTypedRunes    int    `json:"max_typed_runes"`   // replies longer than this are pasted, not typed
	AITimeoutSecs    int    `json:"ai_timeout_secs"`   // reply-generation deadline
}

// defaultConfig returns factory defaults. Hotkey defaults are
// platform-specific (hotkey_darwin.go / hotkey_windows.go).
func defaultConfig() Config {
	return Config{
		QuickHotkey:      defaultQuickCombo,
		DeepHotkey:       defaultDeepCombo,
		Model:            "gemini-2.0-flash",
		OCRLanguage:      "eng",
		ScreenshotMethod: "window",
		TypingDelayMs:    30,
		MaxTypedRunes:    2000,
		AITimeoutSecs:    15,
	}
}

// ConfigService loads and saves user configuration.
type ConfigService struct {
	path string
}

// NewConfigService creates a ConfigService pointing to the standard config path.
func NewConfigService() *ConfigService {
	home, _ := os.UserHomeDir()
	return &ConfigService{
		path: filepath.Join(home, ".autoreply", "config.json"),
	}
}

// newConfigServiceAt creates a ConfigService with a custom path (tests only).
func newConfigServiceAt(path string) *ConfigService {
	return &ConfigService{path: path}
}

// Load reads config from disk. Returns defaults if the file doesn't exist.
// If the file is corrupt it logs the error and writes fresh defaults.
// Recognized environment variables override the file.
func (c *ConfigService) Load() Config {
	cfg := c.loadFile()

	if m := os.Getenv("AUTOREPLY_MODEL"); m != "" {
		cfg.Model = m
	}
	if l := os.Getenv("AUTOREPLY_OCR_LANGUAGE"); l != "" {
		cfg.OCRLanguage = l
	}
	return cfg
}

func (c *ConfigService) loadFile() Config {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return defaultConfig()
	}
	if err != nil {
		log.Printf("config: read error: %v — using defaults", err)
		return defaultConfig()
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("config: parse error: %v — resetting to defaults", err)
		defaults := defaultConfig()
		_ = c.Save(defaults) // overwrite corrupt file
		return defaults
	}
	// Fill any zero-value fields with defaults.
	d := defaultConfig()
	if cfg.QuickHotkey == "" {
		cfg.QuickHotkey = d.QuickHotkey
	}
	if cfg.DeepHotkey == "" {
		cfg.DeepHotkey = d.DeepHotkey
	}
	if cfg.Model == "" {
		cfg.Model = d.Model
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = d.OCRLanguage
	}
	if cfg.ScreenshotMethod != "window" && cfg.ScreenshotMethod != "screen" {
		cfg.ScreenshotMethod = d.ScreenshotMethod
	}
	if cfg.TypingDelayMs <= 0 {
		cfg.TypingDelayMs = d.TypingDelayMs
	}
	if cfg.MaxTypedRunes <= 0 {
		cfg.MaxTypedRunes = d.MaxTypedRunes
	}
	if cfg.AITimeoutSecs <= 0 {
		cfg.AITimeoutSecs = d.AITimeoutSecs
	}
	return cfg
}

// Save writes the config to disk atomically (write to temp, then rename).
func (c *ConfigService) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// DataDir is where the app keeps downloaded assets (tessdata).
func (c *ConfigService) DataDir() string {
	return filepath.Dir(c.path)
}
