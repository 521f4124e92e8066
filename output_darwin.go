//go:build darwin

package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// darwinInjectionBackend synthesizes input through System Events, the same
// surface chat apps receive real keystrokes from. Requires the
// Accessibility permission already needed for extraction.
type darwinInjectionBackend struct{}

func newRealInjectionBackend() injectionBackend {
	return &darwinInjectionBackend{}
}

// TypeChunk uses osascript to keystroke the chunk into the frontmost
// application. Special characters are escaped to keep the AppleScript
// literal intact.
func (d *darwinInjectionBackend) TypeChunk(text string) error {
	cmd := exec.Command("osascript", "-e", keystrokeScript(text))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript keystroke: %w — %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// PasteViaClipboard sets the clipboard and synthesizes Cmd+V.
func (d *darwinInjectionBackend) PasteViaClipboard(text string) error {
	if err := d.CopyToClipboard(text); err != nil {
		return err
	}
	cmd := exec.Command("osascript", "-e",
		`tell application "System Events" to keystroke "v" using command down`)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript paste: %w — %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *darwinInjectionBackend) CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// keystrokeScript builds the one-line AppleScript that types text into the
// frontmost application. Line breaks cannot appear inside a double-quoted
// AppleScript literal (osascript rejects the script before typing anything),
// so each one is spliced in via the linefeed constant instead.
func keystrokeScript(text string) string {
	return fmt.Sprintf(
		`tell application "System Events" to keystroke (%s)`,
		appleScriptLiteral(text),
	)
}

// appleScriptLiteral renders s as an AppleScript string expression.
func appleScriptLiteral(s string) string {
	// Backslash must be first to avoid double-escaping.
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", `" & linefeed & "`)
	return `"` + s + `"`
}
