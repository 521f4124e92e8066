package main

import (
	"errors"
	"image"
	"testing"
)

// mockOCRBackend returns scripted lines.
type mockOCRBackend struct {
	lines    []ocrLine
	loadErr  error
	recogErr error
	loadLang string
}

func (m *mockOCRBackend) Load(lang, tessdataDir string) error {
	m.loadLang = lang
	return m.loadErr
}

func (m *mockOCRBackend) Recognize(img image.Image) ([]ocrLine, error) {
	if m.recogErr != nil {
		return nil, m.recogErr
	}
	return m.lines, nil
}

func (m *mockOCRBackend) Close() error { return nil }

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 8, 8))
}

func TestOCRConfidenceFilter(t *testing.T) {
	mock := &mockOCRBackend{lines: []ocrLine{
		{Text: "Alice: did you get my last message?", Confidence: 91.2},
		{Text: "l1|! garbled row", Confidence: 12.0}, // below threshold
		{Text: "Bob: yes, replying in a second", Confidence: 78.4},
	}}
	svc := newOCRServiceWithBackend(mock, "eng")
	if err := svc.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	frags, err := svc.Recognize(testImage())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("fragments = %d; want 2 (low-confidence line dropped)", len(frags))
	}
	for _, f := range frags {
		if f.Source != MethodOCR {
			t.Errorf("fragment source = %v; want ocr", f.Source)
		}
	}
}

func TestOCRAppliesChromeFilter(t *testing.T) {
	mock := &mockOCRBackend{lines: []ocrLine{
		{Text: "Send", Confidence: 99.0},
		{Text: "File", Confidence: 95.0},
		{Text: "Bob: the OCR path must drop menu chrome too", Confidence: 88.0},
	}}
	svc := newOCRServiceWithBackend(mock, "eng")
	if err := svc.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	frags, err := svc.Recognize(testImage())
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("fragments = %v; want chrome filtered out", fragmentTexts(frags))
	}
}

func TestOCRNothingUsable(t *testing.T) {
	mock := &mockOCRBackend{lines: []ocrLine{
		{Text: "smudge", Confidence: 5.0},
		{Text: "blur", Confidence: 11.0},
	}}
	svc := newOCRServiceWithBackend(mock, "eng")
	if err := svc.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err := svc.Recognize(testImage())
	if !errors.Is(err, ErrNoTextFound) {
		t.Errorf("error = %v; want ErrNoTextFound", err)
	}
}

func TestOCRRequiresLoad(t *testing.T) {
	svc := newOCRServiceWithBackend(&mockOCRBackend{}, "eng")
	if svc.IsLoaded() {
		t.Error("IsLoaded() = true before Load()")
	}
	if _, err := svc.Recognize(testImage()); err == nil {
		t.Error("Recognize before Load() returned nil error")
	}
}

func TestOCRLoadPassesLanguage(t *testing.T) {
	mock := &mockOCRBackend{}
	svc := newOCRServiceWithBackend(mock, "jpn")
	if err := svc.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mock.loadLang != "jpn" {
		t.Errorf("backend loaded language %q; want %q", mock.loadLang, "jpn")
	}
	if !svc.IsLoaded() {
		t.Error("IsLoaded() = false after successful Load()")
	}
}
