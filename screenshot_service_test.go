package main

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"
)

// mockScreenshotBackend records which capture path was taken.
type mockScreenshotBackend struct {
	rects      []Rect
	fullCalls  int
	err        error
	captureLag time.Duration
}

func (m *mockScreenshotBackend) CaptureRect(r Rect) (image.Image, error) {
	m.rects = append(m.rects, r)
	if m.captureLag > 0 {
		time.Sleep(m.captureLag)
	}
	if m.err != nil {
		return nil, m.err
	}
	return image.NewRGBA(image.Rect(0, 0, r.Width, r.Height)), nil
}

func (m *mockScreenshotBackend) FullScreen() (image.Image, error) {
	m.fullCalls++
	if m.err != nil {
		return nil, m.err
	}
	return image.NewRGBA(image.Rect(0, 0, 1920, 1080)), nil
}

func boundedTarget() FocusedTarget {
	return FocusedTarget{
		Handle:  3,
		PID:     12,
		App:     "Messages",
		Bounds:  Rect{X: 10, Y: 10, Width: 800, Height: 600},
		Control: Rect{X: 20, Y: 400, Width: 700, Height: 180},
	}
}

func TestCaptureQuickUsesControlRect(t *testing.T) {
	mock := &mockScreenshotBackend{}
	svc := newScreenshotServiceWithBackend(mock, 0)

	if _, err := svc.Capture(context.Background(), boundedTarget(), false); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(mock.rects) != 1 || mock.rects[0] != boundedTarget().Control {
		t.Errorf("captured rect = %v; want the focused control %v", mock.rects, boundedTarget().Control)
	}
	if mock.fullCalls != 0 {
		t.Error("full-screen capture taken despite window geometry being known")
	}
}

func TestCaptureDeepUsesWindowRect(t *testing.T) {
	mock := &mockScreenshotBackend{}
	svc := newScreenshotServiceWithBackend(mock, 0)

	if _, err := svc.Capture(context.Background(), boundedTarget(), true); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(mock.rects) != 1 || mock.rects[0] != boundedTarget().Bounds {
		t.Errorf("captured rect = %v; want the window bounds %v", mock.rects, boundedTarget().Bounds)
	}
}

func TestCaptureNoGeometryFallsBackToFullScreen(t *testing.T) {
	mock := &mockScreenshotBackend{}
	svc := newScreenshotServiceWithBackend(mock, 0)

	target := FocusedTarget{Handle: 3, PID: 12} // no rects resolved
	if _, err := svc.Capture(context.Background(), target, false); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if mock.fullCalls != 1 {
		t.Errorf("full-screen captures = %d; want 1", mock.fullCalls)
	}
}

func TestCaptureTimeout(t *testing.T) {
	mock := &mockScreenshotBackend{captureLag: time.Second}
	svc := newScreenshotServiceWithBackend(mock, 20*time.Millisecond)

	_, err := svc.Capture(context.Background(), boundedTarget(), false)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("error = %v; want ErrCaptureFailed on timeout", err)
	}
}

func TestCapturePermissionSniffing(t *testing.T) {
	mock := &mockScreenshotBackend{err: errors.New("CGDisplayStream: operation not permitted")}
	svc := newScreenshotServiceWithBackend(mock, 0)

	_, err := svc.Capture(context.Background(), boundedTarget(), false)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("error = %v; want ErrPermissionDenied for a screen-recording denial", err)
	}
}

func TestCapturePlainFailure(t *testing.T) {
	mock := &mockScreenshotBackend{err: errors.New("display asleep")}
	svc := newScreenshotServiceWithBackend(mock, 0)

	_, err := svc.Capture(context.Background(), boundedTarget(), false)
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("error = %v; want ErrCaptureFailed", err)
	}
}

func TestCaptureCancellation(t *testing.T) {
	mock := &mockScreenshotBackend{captureLag: time.Second}
	svc := newScreenshotServiceWithBackend(mock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.Capture(ctx, boundedTarget(), false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
}
