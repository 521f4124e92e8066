package main

import (
	"strings"
	"time"
)

// HotkeyKind distinguishes the two global hotkeys.
type HotkeyKind int

const (
	// KindQuick captures the focused control only.
	KindQuick HotkeyKind = iota
	// KindDeepScan widens capture to the whole application window and
	// scrolls for older history, trading latency for completeness.
	KindDeepScan
)

func (k HotkeyKind) String() string {
	if k == KindDeepScan {
		return "deep"
	}
	return "quick"
}

// Rect is a screen rectangle in global (virtual-desktop) coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsZero reports whether the rectangle carries no geometry.
func (r Rect) IsZero() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width &&
		o.Y+o.Height <= r.Y+r.Height
}

// FocusedTarget identifies the window/control eligible for capture and
// later injection. It must be re-validated immediately before injection —
// the user may have switched focus while the reply was being generated.
type FocusedTarget struct {
	Handle  uintptr // opaque platform handle (HWND / AX element identity)
	PID     int
	App     string // process / application name
	Bounds  Rect   // window bounds
	Control Rect   // focused control bounds; zero when unresolvable
}

// SameAs reports whether o refers to the same window as t.
// Handle is authoritative where the platform provides one; PID breaks ties
// on platforms where handles are not stable across queries.
func (t FocusedTarget) SameAs(o FocusedTarget) bool {
	if t.Handle != 0 && o.Handle != 0 {
		return t.Handle == o.Handle
	}
	return t.PID == o.PID && t.PID != 0
}

// CaptureRect returns the capture region for the given mode. Quick bounds
// the rectangle to the focused control; deep always uses the whole window,
// so the deep region is a superset of the quick one. Quick degrades to the
// window rectangle when the control bounds could not be resolved.
func (t FocusedTarget) CaptureRect(deep bool) Rect {
	if deep || t.Control.IsZero() {
		return t.Bounds
	}
	return t.Control
}

// HotkeyEvent is one firing of a global hotkey. Immutable once created.
type HotkeyEvent struct {
	Kind   HotkeyKind
	Time   time.Time
	Target FocusedTarget // focus snapshot at the moment of the key press
}

// CaptureMethod tags where a text fragment came from.
type CaptureMethod string

const (
	MethodAccessibility CaptureMethod = "accessibility"
	MethodOCR           CaptureMethod = "ocr"
)

// TextFragment is one extracted line of conversation text.
type TextFragment struct {
	Text   string
	Source CaptureMethod
}

// ConversationContext is the result of a successful extraction.
// It is never empty: an extraction that yields no usable text is an error,
// not an empty context.
type ConversationContext struct {
	Fragments []TextFragment
	Target    FocusedTarget
	Method    CaptureMethod
	Elapsed   time.Duration
}

// JoinedText returns the fragments as one newline-joined transcript,
// the form sent to the AI collaborator.
func (c ConversationContext) JoinedText() string {
	parts := make([]string, 0, len(c.Fragments))
	for _, f := range c.Fragments {
		parts = append(parts, f.Text)
	}
	return strings.Join(parts, "\n")
}

// ReplyRequest is a ConversationContext plus the hotkey kind that produced
// it. The kind controls the depth/verbosity requested from the AI.
type ReplyRequest struct {
	Context ConversationContext
	Kind    HotkeyKind
}

// ReplyStatus classifies the outcome of a reply generation.
type ReplyStatus string

const (
	ReplyOK        ReplyStatus = "ok"
	ReplyAiFailure ReplyStatus = "ai-failure"
	ReplyCancelled ReplyStatus = "cancelled"
)

// ReplyResult is the generated reply text plus its status.
type ReplyResult struct {
	Text   string
	Status ReplyStatus
}

// InjectionMechanism records how a reply was delivered.
type InjectionMechanism string

const (
	MechanismTyping    InjectionMechanism = "simulated-typing"
	MechanismClipboard InjectionMechanism = "clipboard-paste"
)

// InjectionOutcome records which mechanism delivered the text and whether
// the FocusedTarget was still valid at injection time.
type InjectionOutcome struct {
	Mechanism   InjectionMechanism
	TargetValid bool
}
