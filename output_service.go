package main

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"
)

const (
	// typeChunkRunes is how many runes one synthetic typing call carries.
	// Chunks split on rune boundaries only, so multi-byte code points are
	// never torn across events.
	typeChunkRunes = 24

	// defaultTypeDelay paces the chunks to stay under OS input-storm
	// protections.
	defaultTypeDelay = 30 * time.Millisecond

	// defaultMaxTypedRunes is the reply length above which the injector
	// skips simulated typing and pastes atomically instead. No portable
	// probe exists for a control's capacity, so long replies take the
	// mechanism that inserts in one step.
	defaultMaxTypedRunes = 2000
)

// injectionBackend abstracts the platform input-synthesis primitives so
// tests can swap in a recording sink.
type injectionBackend interface {
	// TypeChunk synthesizes key events reproducing the chunk verbatim.
	TypeChunk(text string) error
	// PasteViaClipboard puts text on the clipboard and synthesizes the
	// platform paste accelerator.
	PasteViaClipboard(text string) error
	// CopyToClipboard puts text on the clipboard without pasting — the
	// manual rescue path when injection fails mid-flight.
	CopyToClipboard(text string) error
}

// OutputService delivers the generated reply into the focused control.
// Simulated typing is the primary mechanism; clipboard-paste is the
// fallback when the target rejects synthetic keystrokes or the reply is
// too long to type safely. Nothing is retried: retried keystrokes risk
// duplicate or garbled text.
type OutputService struct {
	backend       injectionBackend
	focusNow      func() (FocusedTarget, error) // re-queried, never cached
	typeDelay     time.Duration
	maxTypedRunes int
}

// NewOutputService returns a production OutputService. focusNow must query
// the OS focus fresh on every call.
func NewOutputService(focusNow func() (FocusedTarget, error), typeDelay time.Duration, maxTypedRunes int) *OutputService {
	if typeDelay <= 0 {
		typeDelay = defaultTypeDelay
	}
	if maxTypedRunes <= 0 {
		maxTypedRunes = defaultMaxTypedRunes
	}
	return &OutputService{
		backend:       newRealInjectionBackend(),
		focusNow:      focusNow,
		typeDelay:     typeDelay,
		maxTypedRunes: maxTypedRunes,
	}
}

// newOutputServiceWithBackend wires a custom backend (tests only).
func newOutputServiceWithBackend(b injectionBackend, focusNow func() (FocusedTarget, error)) *OutputService {
	return &OutputService{
		backend:       b,
		focusNow:      focusNow,
		typeDelay:     0, // no pacing in tests
		maxTypedRunes: defaultMaxTypedRunes,
	}
}

// Inject delivers text into target. The focus is re-validated immediately
// before any event is synthesized: if it moved since capture, the reply is
// discarded (ErrFocusChanged) rather than typed into the wrong application.
func (s *OutputService) Inject(ctx context.Context, target FocusedTarget, text string) (InjectionOutcome, error) {
	if text == "" {
		return InjectionOutcome{}, fmt.Errorf("%w: empty reply", ErrInjectionFailed)
	}

	current, err := s.focusNow()
	if err != nil {
		return InjectionOutcome{TargetValid: false}, fmt.Errorf("%w: focus query failed: %v", ErrFocusChanged, err)
	}
	if !current.SameAs(target) {
		log.Printf("output: focus moved %s → %s — discarding reply", target.App, current.App)
		return InjectionOutcome{TargetValid: false}, ErrFocusChanged
	}

	if utf8.RuneCountInString(text) > s.maxTypedRunes {
		log.Printf("output: reply exceeds %d runes — pasting instead of typing", s.maxTypedRunes)
		return s.paste(text)
	}

	chunks := splitRuneChunks(text, typeChunkRunes)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return InjectionOutcome{Mechanism: MechanismTyping, TargetValid: true}, err
		}
		if err := s.backend.TypeChunk(chunk); err != nil {
			if i == 0 {
				// Probe failure: nothing typed yet, the whole reply can
				// still be delivered atomically.
				log.Printf("output: typing rejected (%v) — falling back to clipboard paste", err)
				return s.paste(text)
			}
			// Partially typed: no retry. Park the full reply on the
			// clipboard so the user can fix it up by hand.
			if cbErr := s.backend.CopyToClipboard(text); cbErr != nil {
				log.Printf("output: clipboard rescue also failed: %v", cbErr)
			}
			return InjectionOutcome{Mechanism: MechanismTyping, TargetValid: true},
				fmt.Errorf("%w: after %d/%d chunks: %v", ErrInjectionFailed, i, len(chunks), err)
		}
		if s.typeDelay > 0 && i < len(chunks)-1 {
			time.Sleep(s.typeDelay)
		}
	}
	log.Printf("output: typed %d chars into %s", len(text), target.App)
	return InjectionOutcome{Mechanism: MechanismTyping, TargetValid: true}, nil
}

func (s *OutputService) paste(text string) (InjectionOutcome, error) {
	if err := s.backend.PasteViaClipboard(text); err != nil {
		if cbErr := s.backend.CopyToClipboard(text); cbErr != nil {
			log.Printf("output: clipboard rescue also failed: %v", cbErr)
		} else {
			log.Printf("output: paste failed — reply left on clipboard for manual paste")
		}
		return InjectionOutcome{Mechanism: MechanismClipboard, TargetValid: true},
			fmt.Errorf("%w: paste: %v", ErrInjectionFailed, err)
	}
	log.Printf("output: pasted %d chars via clipboard", len(text))
	return InjectionOutcome{Mechanism: MechanismClipboard, TargetValid: true}, nil
}

// splitRuneChunks splits s into chunks of at most n runes, never breaking
// inside a code point.
func splitRuneChunks(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var chunks []string
	runes := []rune(s)
	for len(runes) > 0 {
		k := n
		if k > len(runes) {
			k = len(runes)
		}
		chunks = append(chunks, string(runes[:k]))
		runes = runes[k:]
	}
	return chunks
}
