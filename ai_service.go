package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"
)

// defaultAITimeout bounds one reply generation. A collaborator that does
// not answer within the window yields AiFailure and the request ends;
// the call is never retried (a duplicate reply is worse than none).
const defaultAITimeout = 15 * time.Second

// aiBackend abstracts the reply-generation collaborator so tests can
// inject a mock. The provider behind it is opaque to the pipeline.
type aiBackend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// geminiBackend wraps the official genai client.
type geminiBackend struct {
	cli   *genai.Client
	model string
}

func newGeminiBackend(ctx context.Context, apiKey, model string) (*geminiBackend, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: client: %w", err)
	}
	return &geminiBackend{cli: cli, model: model}, nil
}

func (g *geminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("ai: empty candidate")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// AIService turns a ReplyRequest into a ReplyResult via the external
// collaborator, under a hard per-request timeout.
type AIService struct {
	backend aiBackend
	timeout time.Duration
}

// NewAIService creates an AIService backed by the Gemini API.
func NewAIService(ctx context.Context, apiKey, model string, timeout time.Duration) (*AIService, error) {
	backend, err := newGeminiBackend(ctx, apiKey, model)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &AIService{backend: backend, timeout: timeout}, nil
}

// newAIServiceWithBackend creates an AIService with a custom backend (for tests).
func newAIServiceWithBackend(b aiBackend, timeout time.Duration) *AIService {
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &AIService{backend: b, timeout: timeout}
}

// GenerateReply sends the extracted conversation to the collaborator and
// returns the reply. The ctx is the request's cancellation scope: a newer
// hotkey press cancels it and the pending response is discarded on arrival.
func (s *AIService) GenerateReply(ctx context.Context, req ReplyRequest) (ReplyResult, error) {
	prompt := buildPrompt(req)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t0 := time.Now()
	text, err := s.backend.Generate(cctx, prompt)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return ReplyResult{Status: ReplyCancelled}, ctx.Err()
		}
		return ReplyResult{Status: ReplyAiFailure}, fmt.Errorf("%w: %v", ErrAiFailure, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ReplyResult{Status: ReplyAiFailure}, fmt.Errorf("%w: empty reply", ErrAiFailure)
	}
	log.Printf("ai: generated %d chars (%s mode, %dms)", len(text), req.Kind, time.Since(t0).Milliseconds())
	return ReplyResult{Text: text, Status: ReplyOK}, nil
}

// buildPrompt frames the raw extracted text for the collaborator. The
// hotkey kind controls the requested depth: quick asks for a short chat
// reply from the visible messages, deep asks it to weigh the full history.
func buildPrompt(req ReplyRequest) string {
	mode := "quick"
	depthNote := "Only the currently visible messages were captured. Keep the reply concise: 2-5 sentences."
	if req.Kind == KindDeepScan {
		mode = "deep"
		depthNote = "The capture includes scrolled-back history; use the full thread when choosing the angle. 5-8 sentences are acceptable if the history warrants it."
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a reply assistant. Below is raw text extracted from a chat window in the application %q (mode: %s).
The text was captured programmatically — UI elements (buttons, labels, timestamps) may be mixed in with the conversation.

1. Identify which parts are the actual conversation messages; ignore UI noise.
2. Identify the latest message that needs a reply.
3. Generate the best possible reply.

Rules:
- Write ONLY the reply text — no headers, no explanations.
- Match the language of the conversation.
- Be specific to the question at hand.
- %s

`, req.Context.Target.App, mode, depthNote)
	b.WriteString("Raw text from the window:\n\n")
	b.WriteString(req.Context.JoinedText())
	b.WriteString("\n\nYour reply:")
	return b.String()
}
