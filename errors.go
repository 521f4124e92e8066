package main

import "errors"

// Typed outcomes shared across the pipeline. Every stage returns one of
// these (wrapped with stage detail) rather than throwing past its caller;
// the coordinator is the single place that decides terminal-vs-fallback.

// ErrPermissionDenied means a required OS permission (Accessibility or
// Screen Recording) has not been granted. User-actionable; reported once
// per session and never retried.
var ErrPermissionDenied = errors.New("required OS permission not granted — enable Accessibility and Screen Recording in system privacy settings")

// ErrUnsupported means the focused control exposes no readable text.
// It triggers the screenshot+OCR fallback, it is not terminal.
var ErrUnsupported = errors.New("focused control exposes no readable text")

// ErrCaptureFailed is any OS-level screenshot failure, including exceeding
// the capture deadline.
var ErrCaptureFailed = errors.New("window capture failed")

// ErrNoTextFound means OCR recognized nothing above the confidence
// threshold.
var ErrNoTextFound = errors.New("no text recognized in capture")

// ErrAiFailure is a collaborator timeout or error. Terminal for the
// request; never retried (a retry risks duplicate side effects).
var ErrAiFailure = errors.New("reply generation failed")

// ErrFocusChanged means focus moved between capture and injection. The
// generated reply is discarded rather than typed into the wrong window.
var ErrFocusChanged = errors.New("focus changed since capture — reply discarded")

// ErrInjectionFailed means the target rejected synthetic input. The
// composed reply is left on the clipboard for manual paste.
var ErrInjectionFailed = errors.New("synthetic input rejected by target")
