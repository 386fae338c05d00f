// Package config holds every tunable threshold of the extraction pipeline
// in one explicit structure.
//
// The numeric defaults were tuned empirically against scanned work-zone
// plans and should be treated as a matched set: the high duplicate-match
// threshold in particular compensates for the large feature count.
// All values can be overridden through SIGNSCAN_* environment variables,
// so nothing in the pipeline reads a hidden module-level constant.
package config

import (
	"os"
	"strconv"
)

// Config carries the tunable parameters for every pipeline stage.
type Config struct {
	// Rasterization
	DPI int // render resolution for PDF pages

	// Text density filter
	MaxTextChars int // pages with more OCR characters are rejected
	OCRLanguage  string

	// Duplicate detector (ORB + ratio test)
	NFeatures int     // maximum keypoints per image
	Ratio     float64 // nearest/second-nearest distance ratio
	MinGood   int     // good matches needed to declare a duplicate

	// Primary sign plausibility
	MinArea        int     // bounding-box area floor, absolute pixels
	MaxAspectRatio float64 // max(w,h)/min(w,h) ceiling

	// Region validation
	MinCenterFrac float64 // minimum positive fraction of the center mask
	MinRedRimFrac float64 // minimum positive fraction of the red-edge mask

	// Sub-sign detection
	SubSignMinArea   float64 // contour area floor
	SubSignMinAspect float64 // rotated-rect aspect band, lower bound
	SubSignMaxAspect float64 // rotated-rect aspect band, upper bound
	SubSignMinFill   float64 // contour area / rotated-rect area floor
	SubSignMinYellow float64 // yellow coverage inside the rotated rect

	// Crop export
	Padding int // pixels added on each side before clamping

	// Classifier collaborator
	InferenceURL string // empty disables classification
	InputSize    int    // square model input edge in pixels
}

// Default returns the tuned production values.
func Default() Config {
	return Config{
		DPI:              300,
		MaxTextChars:     500,
		OCRLanguage:      "eng",
		NFeatures:        20000,
		Ratio:            0.75,
		MinGood:          12000,
		MinArea:          80 * 80,
		MaxAspectRatio:   2.0,
		MinCenterFrac:    0.05,
		MinRedRimFrac:    0.05,
		SubSignMinArea:   700,
		SubSignMinAspect: 2.3,
		SubSignMaxAspect: 6.0,
		SubSignMinFill:   0.72,
		SubSignMinYellow: 0.40,
		Padding:          6,
		InferenceURL:     "",
		InputSize:        64,
	}
}

// Load returns the default configuration with any SIGNSCAN_* environment
// overrides applied. Unparseable values fall back to the default.
func Load() Config {
	cfg := Default()
	cfg.DPI = getInt("SIGNSCAN_DPI", cfg.DPI)
	cfg.MaxTextChars = getInt("SIGNSCAN_MAX_TEXT_CHARS", cfg.MaxTextChars)
	cfg.OCRLanguage = getString("SIGNSCAN_OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.NFeatures = getInt("SIGNSCAN_NFEATURES", cfg.NFeatures)
	cfg.Ratio = getFloat("SIGNSCAN_RATIO", cfg.Ratio)
	cfg.MinGood = getInt("SIGNSCAN_MIN_GOOD", cfg.MinGood)
	cfg.MinArea = getInt("SIGNSCAN_MIN_AREA", cfg.MinArea)
	cfg.MaxAspectRatio = getFloat("SIGNSCAN_MAX_ASPECT_RATIO", cfg.MaxAspectRatio)
	cfg.MinCenterFrac = getFloat("SIGNSCAN_MIN_CENTER_FRAC", cfg.MinCenterFrac)
	cfg.MinRedRimFrac = getFloat("SIGNSCAN_MIN_REDRIM_FRAC", cfg.MinRedRimFrac)
	cfg.SubSignMinArea = getFloat("SIGNSCAN_SUBSIGN_MIN_AREA", cfg.SubSignMinArea)
	cfg.SubSignMinAspect = getFloat("SIGNSCAN_SUBSIGN_MIN_ASPECT", cfg.SubSignMinAspect)
	cfg.SubSignMaxAspect = getFloat("SIGNSCAN_SUBSIGN_MAX_ASPECT", cfg.SubSignMaxAspect)
	cfg.SubSignMinFill = getFloat("SIGNSCAN_SUBSIGN_MIN_FILL", cfg.SubSignMinFill)
	cfg.SubSignMinYellow = getFloat("SIGNSCAN_SUBSIGN_MIN_YELLOW", cfg.SubSignMinYellow)
	cfg.Padding = getInt("SIGNSCAN_PADDING", cfg.Padding)
	cfg.InferenceURL = getString("SIGNSCAN_INFERENCE_URL", cfg.InferenceURL)
	cfg.InputSize = getInt("SIGNSCAN_INPUT_SIZE", cfg.InputSize)
	return cfg
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
