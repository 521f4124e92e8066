package main

import (
	"context"
	"errors"
	"testing"
)

// mockProvider is one scripted stage in the fallback chain.
type mockProvider struct {
	name   string
	method CaptureMethod
	frags  []TextFragment
	err    error
	calls  int
}

func (m *mockProvider) Name() string          { return m.name }
func (m *mockProvider) Method() CaptureMethod { return m.method }
func (m *mockProvider) Extract(ctx context.Context, target FocusedTarget, deep bool) ([]TextFragment, error) {
	m.calls++
	return m.frags, m.err
}

func frag(text string) TextFragment {
	return TextFragment{Text: text, Source: MethodAccessibility}
}

func TestExtractorFirstProviderWins(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility,
		frags: []TextFragment{frag("hey, are we still on for tomorrow?")}}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR}
	e := newContextExtractorWithProviders(acc, ocr)

	cc, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cc.Method != MethodAccessibility {
		t.Errorf("method = %v; want accessibility", cc.Method)
	}
	if ocr.calls != 0 {
		t.Errorf("OCR provider invoked %d times despite accessibility success; want 0", ocr.calls)
	}
}

func TestExtractorFallsBackToOCR(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility, err: ErrUnsupported}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR,
		frags: []TextFragment{{Text: "lunch at noon?", Source: MethodOCR}}}
	e := newContextExtractorWithProviders(acc, ocr)

	cc, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cc.Method != MethodOCR {
		t.Errorf("method = %v; want ocr", cc.Method)
	}
	if acc.calls != 1 || ocr.calls != 1 {
		t.Errorf("calls = acc:%d ocr:%d; want 1 and 1", acc.calls, ocr.calls)
	}
}

func TestExtractorPermissionErrorWinsOnExhaustion(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility, err: ErrPermissionDenied}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR, err: ErrCaptureFailed}
	e := newContextExtractorWithProviders(acc, ocr)

	_, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("error = %v; want ErrPermissionDenied to take precedence", err)
	}
}

func TestExtractorExhaustionReturnsLastError(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility, err: ErrUnsupported}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR, err: ErrNoTextFound}
	e := newContextExtractorWithProviders(acc, ocr)

	_, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if !errors.Is(err, ErrNoTextFound) {
		t.Errorf("error = %v; want ErrNoTextFound", err)
	}
}

func TestExtractorEmptySuccessIsAMiss(t *testing.T) {
	// A provider that "succeeds" with zero fragments must not produce an
	// empty conversation context.
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility, frags: nil, err: nil}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR,
		frags: []TextFragment{{Text: "did you see the doc I sent?", Source: MethodOCR}}}
	e := newContextExtractorWithProviders(acc, ocr)

	cc, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if cc.Method != MethodOCR {
		t.Errorf("method = %v; want fallback to ocr after empty success", cc.Method)
	}
}

func TestExtractorCancellationAborts(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility,
		frags: []TextFragment{frag("hello")}}
	e := newContextExtractorWithProviders(acc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, FocusedTarget{PID: 1}, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
	if acc.calls != 0 {
		t.Errorf("provider invoked after cancellation; want 0 calls")
	}
}

func TestExtractorProviderCancellationPropagates(t *testing.T) {
	acc := &mockProvider{name: "accessibility", method: MethodAccessibility, err: context.Canceled}
	ocr := &mockProvider{name: "screenshot+ocr", method: MethodOCR,
		frags: []TextFragment{{Text: "some text", Source: MethodOCR}}}
	e := newContextExtractorWithProviders(acc, ocr)

	_, err := e.Extract(context.Background(), FocusedTarget{PID: 1}, false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
	if ocr.calls != 0 {
		t.Errorf("chain continued past a cancellation; OCR calls = %d", ocr.calls)
	}
}

func TestCaptureRectDeepIsSupersetOfQuick(t *testing.T) {
	target := FocusedTarget{
		Bounds:  Rect{X: 0, Y: 0, Width: 1200, Height: 800},
		Control: Rect{X: 100, Y: 600, Width: 1000, Height: 150},
	}
	quick := target.CaptureRect(false)
	deep := target.CaptureRect(true)
	if !deep.Contains(quick) {
		t.Errorf("deep rect %+v does not contain quick rect %+v", deep, quick)
	}

	// Unresolvable control bounds degrade quick to the window rectangle.
	target.Control = Rect{}
	if got := target.CaptureRect(false); got != target.Bounds {
		t.Errorf("quick rect with zero control = %+v; want window bounds %+v", got, target.Bounds)
	}
}
