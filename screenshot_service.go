package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/kbinani/screenshot"
)

// captureTimeout bounds one capture attempt. Exceeding it is treated as
// CaptureFailed, never an indefinite stall of the pipeline.
const captureTimeout = 2 * time.Second

// screenshotBackend abstracts the real capture implementation so unit
// tests can inject a mock without touching the display server.
type screenshotBackend interface {
	CaptureRect(r Rect) (image.Image, error)
	FullScreen() (image.Image, error)
}

// realScreenshotBackend wraps kbinani/screenshot for production use.
type realScreenshotBackend struct{}

func (realScreenshotBackend) CaptureRect(r Rect) (image.Image, error) {
	img, err := screenshot.CaptureRect(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (realScreenshotBackend) FullScreen() (image.Image, error) {
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// ScreenshotService captures a bitmap bounded to the FocusedTarget's
// rectangle — not the whole screen, to bound later OCR cost — falling back
// to the full screen only when configured to or when no geometry is known.
type ScreenshotService struct {
	backend screenshotBackend
	method  string // "window" or "screen"
	timeout time.Duration
}

// NewScreenshotService creates a ScreenshotService backed by the real
// screen-capture facility. method is the configured capture scope.
func NewScreenshotService(method string) *ScreenshotService {
	return &ScreenshotService{
		backend: realScreenshotBackend{},
		method:  method,
		timeout: captureTimeout,
	}
}

// newScreenshotServiceWithBackend wires a custom backend (tests only).
func newScreenshotServiceWithBackend(b screenshotBackend, timeout time.Duration) *ScreenshotService {
	if timeout <= 0 {
		timeout = captureTimeout
	}
	return &ScreenshotService{backend: b, method: "window", timeout: timeout}
}

// Capture grabs the target's region: the focused control for quick mode,
// the whole window for deep scans. The attempt is bounded by the capture
// timeout; permission denials are distinguished from plain capture errors
// because they are user-actionable.
func (s *ScreenshotService) Capture(ctx context.Context, target FocusedTarget, deep bool) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)

	go func() {
		rect := target.CaptureRect(deep)
		if s.method != "window" || rect.IsZero() {
			img, err := s.backend.FullScreen()
			done <- result{img, err}
			return
		}
		img, err := s.backend.CaptureRect(rect)
		done <- result{img, err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("%w: capture exceeded %s", ErrCaptureFailed, s.timeout)
	case res := <-done:
		if res.err != nil {
			if isPermissionErr(res.err) {
				return nil, fmt.Errorf("%w: screen recording", ErrPermissionDenied)
			}
			return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, res.err)
		}
		b := res.img.Bounds()
		log.Printf("screenshot: captured %dx%d (deep=%v, method=%s)", b.Dx(), b.Dy(), deep, s.method)
		return res.img, nil
	}
}

// isPermissionErr sniffs OS screen-recording denials out of the capture
// error text; the capture libraries surface them as plain errors.
func isPermissionErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "denied") ||
		strings.Contains(msg, "not permitted") ||
		strings.Contains(msg, "not authorized") ||
		strings.Contains(msg, "declined")
}
