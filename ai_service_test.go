package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockAIBackend is a scripted reply generator.
type mockAIBackend struct {
	reply      string
	err        error
	delay      time.Duration // how long Generate blocks (honors ctx)
	lastPrompt string
}

func (m *mockAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func testRequest(kind HotkeyKind) ReplyRequest {
	return ReplyRequest{
		Kind: kind,
		Context: ConversationContext{
			Target: FocusedTarget{PID: 7, App: "Slack"},
			Method: MethodAccessibility,
			Fragments: []TextFragment{
				{Text: "can you review my PR today?", Source: MethodAccessibility},
			},
		},
	}
}

func TestAIServiceSuccess(t *testing.T) {
	mock := &mockAIBackend{reply: "  Sure, I'll take a look this afternoon.  "}
	svc := newAIServiceWithBackend(mock, time.Second)

	res, err := svc.GenerateReply(context.Background(), testRequest(KindQuick))
	if err != nil {
		t.Fatalf("GenerateReply: %v", err)
	}
	if res.Status != ReplyOK {
		t.Errorf("status = %v; want ReplyOK", res.Status)
	}
	if res.Text != "Sure, I'll take a look this afternoon." {
		t.Errorf("reply not trimmed: %q", res.Text)
	}
}

func TestAIServiceTimeout(t *testing.T) {
	// Backend that never answers within the window.
	mock := &mockAIBackend{reply: "too late", delay: time.Minute}
	svc := newAIServiceWithBackend(mock, 20*time.Millisecond)

	start := time.Now()
	res, err := svc.GenerateReply(context.Background(), testRequest(KindQuick))
	if !errors.Is(err, ErrAiFailure) {
		t.Errorf("error = %v; want ErrAiFailure", err)
	}
	if res.Status != ReplyAiFailure {
		t.Errorf("status = %v; want ReplyAiFailure", res.Status)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("GenerateReply took %v; the timeout did not bound the call", elapsed)
	}
}

func TestAIServiceCancellation(t *testing.T) {
	mock := &mockAIBackend{reply: "never delivered", delay: time.Minute}
	svc := newAIServiceWithBackend(mock, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := svc.GenerateReply(ctx, testRequest(KindQuick))
	if err == nil {
		t.Fatal("GenerateReply returned nil error after cancellation")
	}
	if res.Status != ReplyCancelled {
		t.Errorf("status = %v; want ReplyCancelled", res.Status)
	}
}

func TestAIServiceEmptyReplyIsFailure(t *testing.T) {
	mock := &mockAIBackend{reply: "   "}
	svc := newAIServiceWithBackend(mock, time.Second)

	_, err := svc.GenerateReply(context.Background(), testRequest(KindQuick))
	if !errors.Is(err, ErrAiFailure) {
		t.Errorf("error = %v; want ErrAiFailure for blank reply", err)
	}
}

func TestBuildPromptModes(t *testing.T) {
	mock := &mockAIBackend{reply: "ok"}
	svc := newAIServiceWithBackend(mock, time.Second)

	if _, err := svc.GenerateReply(context.Background(), testRequest(KindQuick)); err != nil {
		t.Fatalf("GenerateReply: %v", err)
	}
	if !strings.Contains(mock.lastPrompt, "mode: quick") {
		t.Errorf("quick prompt missing mode marker:\n%s", mock.lastPrompt)
	}
	if !strings.Contains(mock.lastPrompt, "can you review my PR today?") {
		t.Error("prompt does not carry the extracted conversation text")
	}
	if !strings.Contains(mock.lastPrompt, `"Slack"`) {
		t.Error("prompt does not name the source application")
	}

	if _, err := svc.GenerateReply(context.Background(), testRequest(KindDeepScan)); err != nil {
		t.Fatalf("GenerateReply: %v", err)
	}
	if !strings.Contains(mock.lastPrompt, "mode: deep") {
		t.Errorf("deep prompt missing mode marker:\n%s", mock.lastPrompt)
	}
	if !strings.Contains(mock.lastPrompt, "scrolled-back history") {
		t.Error("deep prompt does not mention the widened capture")
	}
}
