// Package ocr wraps the Tesseract OCR engine (via gosseract/v2) to measure
// how text-heavy a page image is.
//
// The pipeline does not need accurate transcription: a scanned plan set
// mixes map pages with legend and table pages, and the character count of
// a rough OCR pass is enough to tell them apart. Pages above the
// configured character threshold are treated as non-map pages and dropped.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Error Handling
//
// OCR failures propagate to the caller. Text filtering is fail-fast: a
// page that cannot be measured aborts processing of that page rather than
// being silently accepted or rejected.
package ocr
