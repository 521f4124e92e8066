package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// minOCRConfidence is the per-line recognition confidence (0–100) below
// which a line is dropped rather than returned as garbage.
const minOCRConfidence = 40.0

// ocrLine is one recognized text line with its confidence.
type ocrLine struct {
	Text       string
	Confidence float64
}

// ocrBackend abstracts the actual tesseract bindings. Keeps CGo and
// language-data loading out of unit tests.
type ocrBackend interface {
	Load(lang, tessdataDir string) error
	Recognize(img image.Image) ([]ocrLine, error)
	Close() error
}

// realOCRBackend wraps github.com/otiai10/gosseract.
type realOCRBackend struct {
	client *gosseract.Client
}

func newRealOCRBackend() *realOCRBackend {
	return &realOCRBackend{}
}

func (r *realOCRBackend) Load(lang, tessdataDir string) error {
	client := gosseract.NewClient()
	if tessdataDir != "" {
		if err := client.SetTessdataPrefix(tessdataDir); err != nil {
			client.Close() //nolint:errcheck
			return fmt.Errorf("ocr: tessdata prefix %q: %w", tessdataDir, err)
		}
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close() //nolint:errcheck
		return fmt.Errorf("ocr: set language %q: %w", lang, err)
	}
	r.client = client
	return nil
}

func (r *realOCRBackend) Recognize(img image.Image) ([]ocrLine, error) {
	if r.client == nil {
		return nil, fmt.Errorf("ocr: not loaded")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("ocr: set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("ocr: recognize: %w", err)
	}
	lines := make([]ocrLine, 0, len(boxes))
	for _, b := range boxes {
		lines = append(lines, ocrLine{Text: b.Word, Confidence: b.Confidence})
	}
	return lines, nil
}

func (r *realOCRBackend) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// OCRService converts a captured bitmap into ordered text lines. It is
// CPU-bound and runs only on the coordinator worker, never on the
// hotkey-dispatch path.
type OCRService struct {
	backend     ocrBackend
	lang        string
	tessdataDir string
	loaded      bool
}

// NewOCRService creates an OCRService backed by the real tesseract CGo
// bindings, reading language data from tessdataDir.
func NewOCRService(lang, tessdataDir string) *OCRService {
	return &OCRService{backend: newRealOCRBackend(), lang: lang, tessdataDir: tessdataDir}
}

// newOCRServiceWithBackend creates an OCRService with a custom backend (for tests).
func newOCRServiceWithBackend(b ocrBackend, lang string) *OCRService {
	return &OCRService{backend: b, lang: lang}
}

// Load initializes the recognizer. Call once at startup, after the
// language data has been ensured on disk.
func (s *OCRService) Load() error {
	if err := s.backend.Load(s.lang, s.tessdataDir); err != nil {
		return err
	}
	s.loaded = true
	log.Printf("ocr: %s recognizer ready (tessdata=%s)", s.lang, s.tessdataDir)
	return nil
}

// IsLoaded reports whether the recognizer has been initialized.
func (s *OCRService) IsLoaded() bool {
	return s.loaded
}

// Recognize runs recognition on img and returns the lines that clear the
// confidence threshold, in reading order. Returns ErrNoTextFound when
// nothing usable was recognized.
func (s *OCRService) Recognize(img image.Image) ([]TextFragment, error) {
	if !s.loaded {
		return nil, fmt.Errorf("ocr: recognizer not loaded")
	}
	t0 := time.Now()
	lines, err := s.backend.Recognize(img)
	if err != nil {
		return nil, err
	}

	frags := make([]TextFragment, 0, len(lines))
	dropped := 0
	seen := map[string]struct{}{}
	for _, l := range lines {
		if l.Confidence < minOCRConfidence {
			dropped++
			continue
		}
		raw := []string{l.Text}
		for _, t := range filterLines(raw, seen) {
			frags = append(frags, TextFragment{Text: t, Source: MethodOCR})
		}
	}
	if len(frags) == 0 {
		return nil, fmt.Errorf("%w (dropped %d low-confidence lines)", ErrNoTextFound, dropped)
	}
	log.Printf("ocr: %d lines (%d below confidence %.0f) in %dms",
		len(frags), dropped, minOCRConfidence, time.Since(t0).Milliseconds())
	return frags, nil
}

// filterLines applies the same chrome/duplicate filtering the
// accessibility path uses, so both methods feed the AI comparable text.
func filterLines(raw []string, seen map[string]struct{}) []string {
	return appendFiltered(nil, seen, raw)
}
