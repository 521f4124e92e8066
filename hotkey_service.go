package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.design/x/hotkey"
)

// ErrHotkeyConflict is returned when a hotkey is already registered by another app.
var ErrHotkeyConflict = errors.New("hotkey: key combination already registered by another application")

// ErrHotkeyInvalid is returned when a hotkey string cannot be parsed.
var ErrHotkeyInvalid = errors.New("hotkey: invalid key combination")

// debounceWindow is the refractory period after a firing during which
// repeat firings (key-repeat, double taps) produce no additional event.
const debounceWindow = 500 * time.Millisecond

// hotkeyBackend abstracts the real hotkey implementation so tests can use a mock.
type hotkeyBackend interface {
	Register() error
	Unregister() error
	Keydown() <-chan struct{}
}

// realHotkeyBackend wraps golang.design/x/hotkey for production use.
// The hotkey.Hotkey is created lazily in Register() to avoid spawning CGo
// goroutines at construction time — which would leak into unit tests.
type realHotkeyBackend struct {
	hk        *hotkey.Hotkey
	mods      []hotkey.Modifier
	key       hotkey.Key
	keyCh     chan struct{} // buffered relay; filled once in Register()
	closeOnce sync.Once     // guards close(keyCh) to prevent double-close panic
}

func newRealBackendFromCombo(combo string) (*realHotkeyBackend, error) {
	mods, key, err := parseHotkey(combo)
	if err != nil {
		return nil, err
	}
	return &realHotkeyBackend{mods: mods, key: key}, nil
}

func (r *realHotkeyBackend) Register() error {
	r.hk = hotkey.New(r.mods, r.key)
	if err := r.hk.Register(); err != nil {
		// Clean up any CGo/OS-level state created by hotkey.New() to prevent
		// goroutine leaks and panics when the abandoned object is GC'd.
		_ = r.hk.Unregister()
		r.hk = nil
		return ErrHotkeyConflict
	}
	// Create a buffered relay channel and pump events into it.
	// This goroutine owns the hk.Keydown() read loop; it exits when hk channel closes.
	r.keyCh = make(chan struct{}, 4)
	src := r.hk.Keydown()
	go func() {
		for range src {
			select {
			case r.keyCh <- struct{}{}:
			default: // drop if buffer full (rapid presses)
			}
		}
		r.closeOnce.Do(func() { close(r.keyCh) })
	}()
	return nil
}

func (r *realHotkeyBackend) Unregister() error {
	if r.hk == nil {
		return nil
	}
	return r.hk.Unregister()
}

// Keydown returns the relay channel. No goroutine spawned here.
func (r *realHotkeyBackend) Keydown() <-chan struct{} {
	return r.keyCh
}

// HotkeyService registers the two global combos (quick reply, deep scan)
// and converts each firing into a HotkeyEvent handed to onEvent. The OS
// hook itself never runs pipeline logic: the x/hotkey callback only feeds
// a relay channel, and the listen goroutines do nothing beyond resolving
// the focus snapshot and forwarding the typed event.
type HotkeyService struct {
	mu           sync.Mutex
	quick        hotkeyBackend
	deep         hotkeyBackend
	quickCombo   string
	deepCombo    string
	registered   atomic.Bool
	shuttingDown atomic.Bool // set during app quit; defers skip CGo Unregister

	lastFire   time.Time // shared debounce clock across both combos
	resolveNow func() (FocusedTarget, error)

	cancel  context.CancelFunc
	doneChs []chan struct{}
}

// NewHotkeyService creates a HotkeyService for the given combo strings,
// backed by the real OS hotkey API. resolveFocus snapshots the focused
// window at press time; it must be cheap (no UI-tree walking).
func NewHotkeyService(quickCombo, deepCombo string, resolveFocus func() (FocusedTarget, error)) (*HotkeyService, error) {
	quick, err := newRealBackendFromCombo(quickCombo)
	if err != nil {
		return nil, err
	}
	deep, err := newRealBackendFromCombo(deepCombo)
	if err != nil {
		return nil, err
	}
	return &HotkeyService{
		quick:      quick,
		deep:       deep,
		quickCombo: quickCombo,
		deepCombo:  deepCombo,
		resolveNow: resolveFocus,
	}, nil
}

// newHotkeyServiceWithBackends wires custom backends (tests only).
func newHotkeyServiceWithBackends(quick, deep hotkeyBackend, resolveFocus func() (FocusedTarget, error)) *HotkeyService {
	if resolveFocus == nil {
		resolveFocus = func() (FocusedTarget, error) { return FocusedTarget{}, nil }
	}
	return &HotkeyService{
		quick:      quick,
		deep:       deep,
		quickCombo: "quick",
		deepCombo:  "deep",
		resolveNow: resolveFocus,
	}
}

// Start registers both combos and launches one listener goroutine per
// combo. Registration failure of either combo is a fatal configuration
// error: the first combo is rolled back and the error returned.
// The goroutines exit when ctx is cancelled.
func (s *HotkeyService) Start(ctx context.Context, onEvent func(HotkeyEvent)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.quick.Register(); err != nil {
		return fmt.Errorf("%w (%s)", err, s.quickCombo)
	}
	if err := s.deep.Register(); err != nil {
		s.quick.Unregister() //nolint:errcheck
		return fmt.Errorf("%w (%s)", err, s.deepCombo)
	}
	s.registered.Store(true)
	log.Printf("hotkey: registered %s (quick) and %s (deep scan)", s.quickCombo, s.deepCombo)

	listenCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.doneChs = []chan struct{}{
		s.listen(listenCtx, s.quick, s.quickCombo, KindQuick, onEvent),
		s.listen(listenCtx, s.deep, s.deepCombo, KindDeepScan, onEvent),
	}
	return nil
}

// listen pumps keydown firings for one combo into typed events.
func (s *HotkeyService) listen(ctx context.Context, backend hotkeyBackend, combo string, kind HotkeyKind, onEvent func(HotkeyEvent)) chan struct{} {
	done := make(chan struct{})
	keydown := backend.Keydown()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("hotkey: recovered panic during cleanup (CGo/shutdown race): %v", r)
			}
			// Skip CGo call during app shutdown — the OS cleans up the event monitor.
			if !s.shuttingDown.Load() {
				backend.Unregister() //nolint:errcheck
			}
			close(done)
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-keydown:
				if !ok {
					return
				}
				now := time.Now()
				if !s.admit(now) {
					log.Printf("hotkey: %s suppressed (within %s debounce window)", combo, debounceWindow)
					continue
				}
				target, err := s.resolveNow()
				if err != nil {
					log.Printf("hotkey: focus snapshot failed: %v — extractor will re-resolve", err)
				}
				log.Printf("hotkey: %s triggered (%s)", combo, kind)
				onEvent(HotkeyEvent{Kind: kind, Time: now, Target: target})
			}
		}
	}()
	return done
}

// admit applies the shared refractory window across both combos.
func (s *HotkeyService) admit(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastFire) < debounceWindow {
		return false
	}
	s.lastFire = now
	return true
}

// Stop unregisters both combos and waits briefly for the listener
// goroutines to exit, so no CGo callbacks are in flight at process exit.
func (s *HotkeyService) Stop() {
	s.shuttingDown.Store(true)

	s.mu.Lock()
	quick, deep := s.quick, s.deep
	doneChs := s.doneChs
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// Unregister now, while the platform event loop is still running. The
	// goroutine defers skip their own Unregister since shuttingDown is set.
	for _, b := range []hotkeyBackend{quick, deep} {
		if b == nil {
			continue
		}
		if err := b.Unregister(); err != nil {
			log.Printf("hotkey: Unregister in Stop() returned: %v", err)
		}
	}

	for _, done := range doneChs {
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
			log.Printf("hotkey: Stop() timed out waiting for listener to exit")
		}
	}
	s.registered.Store(false)
	log.Printf("hotkey: unregistered")
}

// IsRegistered reports whether the combos are currently registered.
func (s *HotkeyService) IsRegistered() bool {
	return s.registered.Load()
}

// ── parseHotkey ──────────────────────────────────────────────────────────────
// Parses a combo string like "ctrl+alt+r" or "cmd+option+e" into
// golang.design/x/hotkey modifiers + key. The modifier table is
// platform-specific (hotkey_darwin.go / hotkey_windows.go).

var keyMap = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"tab":    hotkey.KeyTab,
	"return": hotkey.KeyReturn,
	"enter":  hotkey.KeyReturn,
	"a":      hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

// parseHotkey parses a combo string into hotkey modifiers and key.
func parseHotkey(combo string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	if len(parts) < 2 {
		return nil, 0, fmt.Errorf("%w: %q (need at least one modifier)", ErrHotkeyInvalid, combo)
	}
	keyPart := parts[len(parts)-1]
	modParts := parts[:len(parts)-1]

	key, ok := keyMap[keyPart]
	if !ok {
		return nil, 0, fmt.Errorf("%w: unknown key %q", ErrHotkeyInvalid, keyPart)
	}

	var mods []hotkey.Modifier
	seen := map[string]bool{}
	for _, m := range modParts {
		if seen[m] {
			continue
		}
		seen[m] = true
		mod, ok := modMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("%w: unknown modifier %q", ErrHotkeyInvalid, m)
		}
		mods = append(mods, mod)
	}
	if len(mods) == 0 {
		return nil, 0, fmt.Errorf("%w: no valid modifier in %q", ErrHotkeyInvalid, combo)
	}
	return mods, key, nil
}
