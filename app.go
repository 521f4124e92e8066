package main

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"
)

// hotkeyStarter is the minimal interface the App needs from HotkeyService.
// Using an interface keeps real CGo goroutines out of unit tests.
type hotkeyStarter interface {
	Start(ctx context.Context, onEvent func(HotkeyEvent)) error
	Stop()
	IsRegistered() bool
}

// focusResolver is what TriggerReply needs to build a synthetic hotkey
// event from a tray-menu click.
type focusResolver interface {
	FocusedTarget() (FocusedTarget, error)
	Trusted() bool
}

// App owns the long-lived services and their lifecycle. The tray menu and
// the hotkey listeners both funnel into the coordinator through it.
type App struct {
	cfg         Config
	coordinator *Coordinator
	hotkeys     hotkeyStarter
	focus       focusResolver
	notifier    userNotifier
	loginItems  loginItems

	cancel   context.CancelFunc
	shutdown sync.Once
}

// NewApp wires the app from already-constructed services.
func NewApp(cfg Config, coord *Coordinator, hotkeys hotkeyStarter, focus focusResolver, notifier userNotifier) *App {
	items, err := newLoginItems()
	if err != nil {
		log.Printf("app: login item registration unavailable: %v", err)
	}
	return &App{
		cfg:         cfg,
		coordinator: coord,
		hotkeys:     hotkeys,
		focus:       focus,
		notifier:    notifier,
		loginItems:  items,
	}
}

// Startup launches the coordinator worker and registers the global hotkeys.
// Called from the systray onReady callback, once the platform run loop is
// up. A hotkey conflict is fatal: without hotkeys the app is inert.
func (a *App) Startup() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.coordinator.Start(ctx)

	if err := a.hotkeys.Start(ctx, a.coordinator.Submit); err != nil {
		cancel()
		return err
	}

	// Permission preflight: surface a missing automation permission now
	// instead of on the first (silently failing) hotkey press.
	if !a.focus.Trusted() {
		a.notifier.Notify("AutoReply needs permissions",
			"Grant Accessibility and Screen Recording access in system privacy settings.")
	}

	log.Printf("app: ready — quick=%s deep=%s", a.cfg.QuickHotkey, a.cfg.DeepHotkey)
	return nil
}

// TriggerReply starts a reply cycle from the tray menu, mirroring what a
// hotkey press would produce.
func (a *App) TriggerReply(kind HotkeyKind) {
	target, err := a.focus.FocusedTarget()
	if err != nil {
		log.Printf("app: %s trigger: focus query failed: %v", kind, err)
		if errors.Is(err, ErrPermissionDenied) {
			a.notifier.Notify("AutoReply needs permissions",
				"Grant Accessibility access in system privacy settings.")
		}
		return
	}
	a.coordinator.Submit(HotkeyEvent{Kind: kind, Time: time.Now(), Target: target})
}

// LoginItemEnabled reports whether launch-at-login is currently on.
func (a *App) LoginItemEnabled() bool {
	if a.loginItems == nil {
		return false
	}
	return a.loginItems.IsEnabled()
}

// ToggleLoginItem flips the launch-at-login registration and returns the
// new state.
func (a *App) ToggleLoginItem() bool {
	if a.loginItems == nil {
		return false
	}
	if a.loginItems.IsEnabled() {
		if err := a.loginItems.Disable(); err != nil {
			log.Printf("app: disable login item: %v", err)
		}
		return a.loginItems.IsEnabled()
	}
	execPath, err := os.Executable()
	if err != nil {
		log.Printf("app: resolve executable: %v", err)
		return false
	}
	if err := a.loginItems.Enable(execPath); err != nil {
		log.Printf("app: enable login item: %v", err)
	}
	return a.loginItems.IsEnabled()
}

// Shutdown stops the hotkey listeners and the coordinator worker. Safe to
// call more than once; systray's onExit and signal handling both reach it.
func (a *App) Shutdown() {
	a.shutdown.Do(func() {
		log.Printf("app: shutting down")
		a.hotkeys.Stop()
		if a.cancel != nil {
			a.cancel()
		}
		select {
		case <-a.coordinator.Done():
		case <-time.After(2 * time.Second):
			log.Printf("app: coordinator did not stop in time")
		}
	})
}
