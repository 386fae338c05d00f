package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.NFeatures != 20000 {
		t.Errorf("NFeatures: got %d, want 20000", cfg.NFeatures)
	}
	if cfg.Ratio != 0.75 {
		t.Errorf("Ratio: got %v, want 0.75", cfg.Ratio)
	}
	if cfg.MinGood != 12000 {
		t.Errorf("MinGood: got %d, want 12000", cfg.MinGood)
	}
	if cfg.MinArea != 6400 {
		t.Errorf("MinArea: got %d, want 6400", cfg.MinArea)
	}
	if cfg.MaxTextChars != 500 {
		t.Errorf("MaxTextChars: got %d, want 500", cfg.MaxTextChars)
	}
	if cfg.Padding != 6 {
		t.Errorf("Padding: got %d, want 6", cfg.Padding)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SIGNSCAN_MIN_GOOD", "5")
	t.Setenv("SIGNSCAN_RATIO", "0.9")
	t.Setenv("SIGNSCAN_OCR_LANGUAGE", "nor")

	cfg := Load()
	if cfg.MinGood != 5 {
		t.Errorf("MinGood override: got %d, want 5", cfg.MinGood)
	}
	if cfg.Ratio != 0.9 {
		t.Errorf("Ratio override: got %v, want 0.9", cfg.Ratio)
	}
	if cfg.OCRLanguage != "nor" {
		t.Errorf("OCRLanguage override: got %q, want nor", cfg.OCRLanguage)
	}
}

func TestLoad_BadValueFallsBack(t *testing.T) {
	t.Setenv("SIGNSCAN_NFEATURES", "not-a-number")

	cfg := Load()
	if cfg.NFeatures != Default().NFeatures {
		t.Errorf("bad value should keep default, got %d", cfg.NFeatures)
	}
}
