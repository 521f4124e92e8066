package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// minTextLength is the smallest transcript considered usable. Anything
// shorter means the control exposed no real conversation text (a lone
// button label, a window title) and the screenshot+OCR fallback should run.
const minTextLength = 30

// maxTreeDepth caps UI-tree recursion on both platforms.
const maxTreeDepth = 40

// deepScrollPasses is how many scroll-up/re-read rounds a deep scan runs
// to pull older history into view before widening the capture.
const deepScrollPasses = 5

// accessibilityReader abstracts the OS UI-introspection API. Two variants
// exist, selected at startup by build tag: AXUIElement on macOS and
// win32/UIA on Windows. Tests inject a mock.
type accessibilityReader interface {
	// FocusedTarget resolves the window/control currently receiving
	// keyboard input. Must be cheap; it is also called from the hotkey
	// listener for the press-time snapshot and re-called before injection.
	FocusedTarget() (FocusedTarget, error)
	// ReadLines returns the raw text lines of the target's UI tree,
	// unfiltered. Returns ErrPermissionDenied when the OS has not granted
	// the automation permission, ErrUnsupported when the tree exposes no
	// readable text role.
	ReadLines(target FocusedTarget) ([]string, error)
	// ScrollUp nudges the focused window's content up to reveal older
	// history (deep scans only). amount and direction match the platform
	// wheel convention.
	ScrollUp(amount int) error
	// Trusted reports whether the automation permission is granted.
	Trusted() bool
}

// uiNoise is button/menu chrome that leaks out of UI trees alongside the
// conversation. Matched case-insensitively against whole fragments.
var uiNoise = map[string]struct{}{
	"close": {}, "minimize": {}, "maximize": {}, "restore": {}, "zoom": {},
	"back": {}, "forward": {}, "send": {}, "attach": {}, "emoji": {},
	"search": {}, "menu": {}, "file": {}, "edit": {}, "view": {},
	"window": {}, "help": {}, "new": {}, "open": {}, "save": {},
	"cut": {}, "copy": {}, "paste": {}, "undo": {}, "redo": {},
	"select all": {}, "find": {}, "×": {}, "...": {}, "⋮": {},
}

// AccessibilityService is the structured-text extraction stage: it walks
// the focused application's UI tree and assembles a conversation
// transcript, filtering UI chrome and duplicates.
type AccessibilityService struct {
	backend          accessibilityReader
	permissionLogged bool
}

// NewAccessibilityService returns a service backed by the platform's
// native automation API.
func NewAccessibilityService() *AccessibilityService {
	return &AccessibilityService{backend: newPlatformReader()}
}

// newAccessibilityServiceWithBackend wires a custom backend (tests only).
func newAccessibilityServiceWithBackend(b accessibilityReader) *AccessibilityService {
	return &AccessibilityService{backend: b}
}

// FocusedTarget resolves the current focus via the backend.
func (s *AccessibilityService) FocusedTarget() (FocusedTarget, error) {
	return s.backend.FocusedTarget()
}

// Trusted reports whether the automation permission is granted. Used for
// the startup preflight so the user learns about a missing permission
// before the first hotkey press.
func (s *AccessibilityService) Trusted() bool {
	return s.backend.Trusted()
}

// Extract reads the target's UI tree and returns a filtered transcript.
// Deep scans interleave scroll-up passes with re-reads, merging newly
// revealed lines, then restore the scroll position. Cancellation is
// honored between passes.
func (s *AccessibilityService) Extract(ctx context.Context, target FocusedTarget, deep bool) ([]TextFragment, error) {
	if !s.backend.Trusted() {
		if !s.permissionLogged {
			log.Printf("accessibility: automation permission not granted")
			s.permissionLogged = true
		}
		return nil, ErrPermissionDenied
	}

	passes := 1
	if deep {
		passes = deepScrollPasses
	}

	var lines []string
	seen := map[string]struct{}{}
	scrolled := 0 // successful scroll-ups, each undone afterwards
	for i := 0; i < passes; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := s.backend.ReadLines(target)
		if err != nil {
			if i > 0 {
				break // keep what earlier passes collected
			}
			return nil, fmt.Errorf("accessibility: %w", err)
		}
		lines = appendFiltered(lines, seen, raw)
		if i < passes-1 {
			if err := s.backend.ScrollUp(5); err != nil {
				log.Printf("accessibility: scroll-up failed: %v — stopping deep passes", err)
				break
			}
			scrolled++
			time.Sleep(400 * time.Millisecond)
		}
	}
	// Restore the user's view by exactly the distance actually scrolled.
	for i := 0; i < scrolled; i++ {
		s.backend.ScrollUp(-5) //nolint:errcheck
		time.Sleep(100 * time.Millisecond)
	}

	if totalLen(lines) < minTextLength {
		return nil, fmt.Errorf("accessibility: %w (got %d usable chars)", ErrUnsupported, totalLen(lines))
	}

	frags := make([]TextFragment, len(lines))
	for i, l := range lines {
		frags[i] = TextFragment{Text: l, Source: MethodAccessibility}
	}
	log.Printf("accessibility: extracted %d lines (%d chars, deep=%v) from %s",
		len(frags), totalLen(lines), deep, target.App)
	return frags, nil
}

// appendFiltered merges raw lines into lines, dropping chrome, near-empty
// fragments, and duplicates.
func appendFiltered(lines []string, seen map[string]struct{}, raw []string) []string {
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if len(l) < 2 {
			continue // likely a button glyph
		}
		if _, noisy := uiNoise[strings.ToLower(l)]; noisy {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		lines = append(lines, l)
	}
	return lines
}

func totalLen(lines []string) int {
	n := 0
	for _, l := range lines {
		n += len(l)
	}
	return n
}
