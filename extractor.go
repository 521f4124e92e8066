package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// textProvider is one extraction strategy in the fallback chain.
type textProvider interface {
	Name() string
	Method() CaptureMethod
	Extract(ctx context.Context, target FocusedTarget, deep bool) ([]TextFragment, error)
}

// accessibilityProvider adapts AccessibilityService to the provider interface.
type accessibilityProvider struct {
	svc *AccessibilityService
}

func (p accessibilityProvider) Name() string          { return "accessibility" }
func (p accessibilityProvider) Method() CaptureMethod { return MethodAccessibility }
func (p accessibilityProvider) Extract(ctx context.Context, target FocusedTarget, deep bool) ([]TextFragment, error) {
	return p.svc.Extract(ctx, target, deep)
}

// ocrProvider chains the screenshot capturer into the OCR stage.
type ocrProvider struct {
	shots *ScreenshotService
	ocr   *OCRService
}

func (p ocrProvider) Name() string          { return "screenshot+ocr" }
func (p ocrProvider) Method() CaptureMethod { return MethodOCR }
func (p ocrProvider) Extract(ctx context.Context, target FocusedTarget, deep bool) ([]TextFragment, error) {
	if !p.ocr.IsLoaded() {
		return nil, fmt.Errorf("%w: recognizer unavailable", ErrCaptureFailed)
	}
	img, err := p.shots.Capture(ctx, target, deep)
	if err != nil {
		return nil, err
	}
	// Cancellation boundary between the capture and the CPU-bound
	// recognition pass.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.ocr.Recognize(img)
}

// ContextExtractor runs the ordered fallback chain — accessibility first,
// then screenshot+OCR — stopping at the first provider that yields usable
// text. The chain is the only retry mechanism in the system.
type ContextExtractor struct {
	providers []textProvider
}

// NewContextExtractor assembles the production chain.
func NewContextExtractor(acc *AccessibilityService, shots *ScreenshotService, ocr *OCRService) *ContextExtractor {
	return &ContextExtractor{
		providers: []textProvider{
			accessibilityProvider{svc: acc},
			ocrProvider{shots: shots, ocr: ocr},
		},
	}
}

// newContextExtractorWithProviders wires a custom chain (tests only).
func newContextExtractorWithProviders(providers ...textProvider) *ContextExtractor {
	return &ContextExtractor{providers: providers}
}

// Extract tries each provider in order and returns the first success as a
// ConversationContext. On exhaustion it returns the most specific terminal
// error: a permission denial anywhere in the chain wins, because it is the
// one the user can act on. Cancellation is checked at every stage boundary
// and aborts without a partial context.
func (e *ContextExtractor) Extract(ctx context.Context, target FocusedTarget, deep bool) (ConversationContext, error) {
	start := time.Now()

	var lastErr error
	permissionSeen := false
	for _, p := range e.providers {
		if err := ctx.Err(); err != nil {
			return ConversationContext{}, err
		}
		frags, err := p.Extract(ctx, target, deep)
		if err == nil {
			if len(frags) == 0 {
				// A provider returning success with no text is a bug;
				// treat it as a miss rather than delivering an empty context.
				lastErr = fmt.Errorf("%s: %w", p.Name(), ErrNoTextFound)
				continue
			}
			return ConversationContext{
				Fragments: frags,
				Target:    target,
				Method:    p.Method(),
				Elapsed:   time.Since(start),
			}, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ConversationContext{}, err
		}
		log.Printf("extract: %s failed: %v — trying next provider", p.Name(), err)
		if errors.Is(err, ErrPermissionDenied) {
			permissionSeen = true
		}
		lastErr = err
	}

	if permissionSeen {
		return ConversationContext{}, ErrPermissionDenied
	}
	if lastErr == nil {
		lastErr = ErrNoTextFound
	}
	return ConversationContext{}, lastErr
}
