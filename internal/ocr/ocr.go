package ocr

import (
	"fmt"
	"unicode/utf8"

	"github.com/otiai10/gosseract/v2"
)

// ExtractText performs OCR on an image file and returns the recognized text.
//
// Parameters:
//   - imagePath: Path to the image file. Supports PNG, JPEG, TIFF, BMP.
//   - language: Tesseract language code (e.g., "eng" for English). The
//     corresponding language data must be installed on the system.
//
// Returns the full recognized text with original spacing and newlines, or
// an error if the image cannot be loaded or OCR fails.
func ExtractText(imagePath, language string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// TextDensityFilter rejects page images dominated by text.
type TextDensityFilter struct {
	// MaxChars is the character-count ceiling. Pages whose extracted text
	// is longer than this are considered legend or table pages.
	MaxChars int

	// Language is the Tesseract language code used for extraction.
	Language string
}

// NewTextDensityFilter returns a filter with the given character ceiling
// and OCR language.
func NewTextDensityFilter(maxChars int, language string) *TextDensityFilter {
	return &TextDensityFilter{MaxChars: maxChars, Language: language}
}

// HasExcessText reports whether the page at imagePath carries more OCR
// characters than the configured ceiling. OCR errors propagate; this path
// is fail-fast, not degraded.
func (f *TextDensityFilter) HasExcessText(imagePath string) (bool, error) {
	text, err := ExtractText(imagePath, f.Language)
	if err != nil {
		return false, err
	}
	return utf8.RuneCountInString(text) > f.MaxChars, nil
}

// Available reports whether a working Tesseract installation can be
// reached, along with its version string. Used by the server health
// endpoint and by tests to skip when the engine is missing.
func Available() (string, bool) {
	client := gosseract.NewClient()
	defer client.Close()

	v := client.Version()
	return v, v != ""
}
