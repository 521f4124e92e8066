package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
)

// Coordinator states. The machine is Idle → Capturing → AwaitingReply →
// Injecting → Idle; failures in any stage surface the error and return to
// Idle so the next hotkey press finds a usable system.
type coordinatorState int32

const (
	stateIdle coordinatorState = iota
	stateCapturing
	stateAwaitingReply
	stateInjecting
)

func (s coordinatorState) String() string {
	switch s {
	case stateCapturing:
		return "capturing"
	case stateAwaitingReply:
		return "awaiting-reply"
	case stateInjecting:
		return "injecting"
	default:
		return "idle"
	}
}

// Narrow collaborator interfaces keep the coordinator testable with mocks.
type contextExtractorIface interface {
	Extract(ctx context.Context, target FocusedTarget, deep bool) (ConversationContext, error)
}

type replyGenerator interface {
	GenerateReply(ctx context.Context, req ReplyRequest) (ReplyResult, error)
}

type replyInjector interface {
	Inject(ctx context.Context, target FocusedTarget, text string) (InjectionOutcome, error)
}

type userNotifier interface {
	Notify(title, message string)
}

// Coordinator is the single orchestrator: one worker goroutine drains the
// hotkey queue and drives each event through extraction, reply generation,
// and injection. At most one request is ever in flight; a newer hotkey
// press cancels the current one, so the most recent press always wins.
type Coordinator struct {
	extractor contextExtractorIface
	ai        replyGenerator
	injector  replyInjector
	notifier  userNotifier

	events chan HotkeyEvent // capacity 1; Submit replaces a stale entry
	state  atomic.Int32
	done   chan struct{}

	mu       sync.Mutex
	inflight context.CancelFunc

	permissionNotified atomic.Bool // permission errors are reported once per session
}

// NewCoordinator wires the pipeline stages together.
func NewCoordinator(extractor contextExtractorIface, ai replyGenerator, injector replyInjector, notifier userNotifier) *Coordinator {
	return &Coordinator{
		extractor: extractor,
		ai:        ai,
		injector:  injector,
		notifier:  notifier,
		events:    make(chan HotkeyEvent, 1),
		done:      make(chan struct{}),
	}
}

// Submit enqueues a hotkey event, superseding any in-flight or queued
// request. Safe to call from the hotkey listener goroutines.
func (c *Coordinator) Submit(ev HotkeyEvent) {
	c.cancelInflight()
	for {
		select {
		case c.events <- ev:
			return
		default:
			// Queue holds a stale event the worker hasn't picked up yet;
			// drop it in favor of the newer press.
			select {
			case <-c.events:
			default:
			}
		}
	}
}

// Start launches the worker. It exits when ctx is cancelled; Done() is
// closed once the worker has fully stopped.
func (c *Coordinator) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-c.events:
				c.process(ctx, ev)
			}
		}
	}()
}

// Done is closed when the worker goroutine has exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// State reports the current machine state (for the tray UI and tests).
func (c *Coordinator) State() coordinatorState {
	return coordinatorState(c.state.Load())
}

func (c *Coordinator) cancelInflight() {
	c.mu.Lock()
	cancel := c.inflight
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Coordinator) setInflight(cancel context.CancelFunc) {
	c.mu.Lock()
	c.inflight = cancel
	c.mu.Unlock()
}

// process drives one event through the state machine. Every exit path
// lands back in Idle.
func (c *Coordinator) process(parent context.Context, ev HotkeyEvent) {
	rctx, cancel := context.WithCancel(parent)
	c.setInflight(cancel)
	defer func() {
		cancel()
		c.setInflight(nil)
		c.state.Store(int32(stateIdle))
	}()

	deep := ev.Kind == KindDeepScan

	c.state.Store(int32(stateCapturing))
	cc, err := c.extractor.Extract(rctx, ev.Target, deep)
	if err != nil {
		c.surface("capture", err, rctx)
		return
	}

	c.state.Store(int32(stateAwaitingReply))
	result, err := c.ai.GenerateReply(rctx, ReplyRequest{Context: cc, Kind: ev.Kind})
	if err != nil {
		c.surface("reply", err, rctx)
		return
	}
	if result.Status != ReplyOK {
		// Defensive: the AI service reports non-OK via err, but a mock or
		// future backend may not.
		c.surface("reply", ErrAiFailure, rctx)
		return
	}
	// A cancellation that raced the response discards it here — the reply
	// of a superseded request is never injected.
	if rctx.Err() != nil {
		log.Printf("coordinator: reply arrived after cancellation — discarded")
		return
	}

	c.state.Store(int32(stateInjecting))
	outcome, err := c.injector.Inject(rctx, cc.Target, result.Text)
	if err != nil {
		c.surface("inject", err, rctx)
		return
	}
	log.Printf("coordinator: delivered %s reply to %s via %s (capture=%s, %dms)",
		ev.Kind, cc.Target.App, outcome.Mechanism, cc.Method, cc.Elapsed.Milliseconds())
}

// surface is the single terminal-vs-recoverable decision point. Superseded
// requests vanish silently; everything else becomes one concise
// notification, with permission errors reported only once per session.
func (c *Coordinator) surface(stage string, err error, rctx context.Context) {
	if rctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, rctx.Err())) {
		log.Printf("coordinator: %s superseded by newer hotkey press", stage)
		return
	}
	log.Printf("coordinator: %s failed: %v", stage, err)

	switch {
	case errors.Is(err, ErrPermissionDenied):
		if c.permissionNotified.CompareAndSwap(false, true) {
			c.notifier.Notify("AutoReply needs permissions",
				"Grant Accessibility and Screen Recording access in system privacy settings, then try again.")
		}
	case errors.Is(err, ErrFocusChanged):
		c.notifier.Notify("Reply discarded", "Focus moved to another window before the reply was ready.")
	case errors.Is(err, ErrInjectionFailed):
		c.notifier.Notify("Couldn't type the reply", "The reply is on your clipboard — paste it manually.")
	case errors.Is(err, ErrAiFailure):
		c.notifier.Notify("Reply generation failed", "The AI service did not answer in time. Press the hotkey to retry.")
	case errors.Is(err, ErrNoTextFound), errors.Is(err, ErrCaptureFailed), errors.Is(err, ErrUnsupported):
		c.notifier.Notify("Nothing to reply to", "No conversation text could be read from the focused window.")
	default:
		c.notifier.Notify("AutoReply error", err.Error())
	}
}
