// Package pipeline drives a document through rasterization, page
// filtering, sign extraction and classification.
//
// Processing is strictly sequential: one page is rasterized, filtered and
// mined before the next begins. The output directory doubles as state —
// accepted pages stay on disk as page_<n>.jpg and form the comparison
// corpus for later duplicate checks, surviving process restarts. Because
// each page is checked against only the earlier pages already accepted,
// duplicate detection is order dependent by design.
package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/apvtools/signscan/internal/classify"
	"github.com/apvtools/signscan/internal/config"
	"github.com/apvtools/signscan/internal/dedup"
	"github.com/apvtools/signscan/internal/ocr"
	"github.com/apvtools/signscan/internal/raster"
	"github.com/apvtools/signscan/internal/signs"
)

// TextFilter decides whether a page image is too text-heavy to be a map.
type TextFilter interface {
	HasExcessText(imagePath string) (bool, error)
}

// DuplicateChecker decides whether a page duplicates an already-accepted
// one, and forgets cached state for deleted pages.
type DuplicateChecker interface {
	IsDuplicate(candidatePath, corpusDir string) bool
	Evict(path string)
}

// SignExtractor mines one accepted page for sign crops.
type SignExtractor interface {
	ExtractSigns(imagePath string) ([]string, error)
}

// SignResult is one classified crop in a document's result set.
type SignResult struct {
	// Filename is the crop file name, e.g. page_2_001.png.
	Filename string `json:"filename"`

	// CropPath is the full path of the written crop.
	CropPath string `json:"crop_path"`

	// PredictedClass and Confidence are the classifier's top ranked
	// label, empty when classification is disabled.
	PredictedClass string  `json:"predicted_class,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`

	// Predictions is the full ranking, highest probability first.
	Predictions []classify.Prediction `json:"predictions,omitempty"`

	// Swatch is the crop's mean color as #rrggbb, for quick visual
	// review of a result list.
	Swatch string `json:"swatch,omitempty"`
}

// Result summarizes one processed document.
type Result struct {
	PagesTotal       int          `json:"pages_total"`
	PagesKept        int          `json:"pages_kept"`
	DroppedText      int          `json:"dropped_text"`
	DroppedDuplicate int          `json:"dropped_duplicate"`
	Signs            []SignResult `json:"signs"`
}

// Pipeline wires the collaborators around the core filtering and
// extraction stages.
type Pipeline struct {
	Rasterizer raster.Rasterizer
	TextFilter TextFilter
	Duplicates DuplicateChecker
	Extractor  SignExtractor
	Classifier classify.Classifier

	// MapsDir receives accepted page images and acts as the duplicate
	// corpus; SignsDir receives the exported crops.
	MapsDir  string
	SignsDir string

	Log *log.Logger
}

// New assembles a production pipeline from the configuration. If
// cfg.InferenceURL is empty, classification is disabled and crops are
// reported without labels.
func New(cfg config.Config, mapsDir, signsDir string) *Pipeline {
	var classifier classify.Classifier = classify.Disabled{}
	if cfg.InferenceURL != "" {
		classifier = classify.NewHTTPClassifier(cfg.InferenceURL, cfg.InputSize)
	}

	return &Pipeline{
		Rasterizer: raster.NewPoppler(cfg.DPI),
		TextFilter: ocr.NewTextDensityFilter(cfg.MaxTextChars, cfg.OCRLanguage),
		Duplicates: dedup.NewMatcher(cfg.NFeatures, cfg.Ratio, cfg.MinGood),
		Extractor: signs.NewExtractor(
			signsDir,
			signs.Geometry{MinArea: cfg.MinArea, MaxAspectRatio: cfg.MaxAspectRatio},
			cfg.MinCenterFrac,
			cfg.MinRedRimFrac,
			cfg.Padding,
			signs.SubSignParams{
				MinArea:        cfg.SubSignMinArea,
				MinAspect:      cfg.SubSignMinAspect,
				MaxAspect:      cfg.SubSignMaxAspect,
				MinFill:        cfg.SubSignMinFill,
				MinYellowRatio: cfg.SubSignMinYellow,
			},
		),
		Classifier: classifier,
		MapsDir:    mapsDir,
		SignsDir:   signsDir,
		Log:        log.Default(),
	}
}

// ProcessDocument runs the full pipeline over one PDF: rasterize, filter
// pages, mine accepted pages for signs, classify the crops.
//
// A page failure aborts the run and propagates; artifacts already written
// for earlier pages are independent files and remain valid.
func (p *Pipeline) ProcessDocument(pdfPath string) (*Result, error) {
	if err := os.MkdirAll(p.MapsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create maps dir: %w", err)
	}

	// Pages are rasterized into a staging directory and only admitted to
	// MapsDir one at a time, so a page's duplicate check never sees pages
	// that come after it. Rasterizing straight into MapsDir would flip
	// the outcome for a duplicate pair (the first page would match its
	// later copy and be dropped) and could lose a unique map entirely to
	// a later text-heavy lookalike.
	staging := filepath.Join(p.MapsDir, ".staging")
	defer os.RemoveAll(staging)

	pages, err := p.Rasterizer.Rasterize(pdfPath, staging)
	if err != nil {
		return nil, fmt.Errorf("rasterization failed: %w", err)
	}

	res := &Result{PagesTotal: len(pages)}

	accepted, err := p.filterPages(pages, res)
	if err != nil {
		return nil, err
	}
	res.PagesKept = len(accepted)

	var crops []string
	for _, page := range raster.SortPages(accepted) {
		pageCrops, err := p.Extractor.ExtractSigns(page)
		if err != nil {
			return nil, fmt.Errorf("sign extraction failed for %s: %w", filepath.Base(page), err)
		}
		p.logf("extracted %d sign candidate(s) from %s", len(pageCrops), filepath.Base(page))
		crops = append(crops, pageCrops...)
	}
	sort.Strings(crops)

	for _, crop := range crops {
		sr, err := p.classifyCrop(crop)
		if err != nil {
			return nil, err
		}
		res.Signs = append(res.Signs, sr)
	}
	return res, nil
}

// filterPages admits staged pages into MapsDir in page order, applying
// the text-density and duplicate filters to each page before the next one
// becomes visible. Rejected pages are deleted immediately, so at any
// duplicate check the corpus holds exactly the earlier accepted pages
// (plus the candidate itself, which the checker skips by path).
func (p *Pipeline) filterPages(pages []string, res *Result) ([]string, error) {
	var accepted []string
	for _, staged := range pages {
		page := filepath.Join(p.MapsDir, filepath.Base(staged))
		if err := os.Rename(staged, page); err != nil {
			return nil, fmt.Errorf("failed to admit page %s: %w", filepath.Base(staged), err)
		}

		excess, err := p.TextFilter.HasExcessText(page)
		if err != nil {
			return nil, fmt.Errorf("text filter failed for %s: %w", filepath.Base(page), err)
		}
		if excess {
			if err := p.dropPage(page); err != nil {
				return nil, err
			}
			res.DroppedText++
			p.logf("dropped %s: text-heavy", filepath.Base(page))
			continue
		}

		if p.Duplicates.IsDuplicate(page, p.MapsDir) {
			if err := p.dropPage(page); err != nil {
				return nil, err
			}
			res.DroppedDuplicate++
			p.logf("dropped %s: duplicate of an accepted page", filepath.Base(page))
			continue
		}

		accepted = append(accepted, page)
	}
	return accepted, nil
}

// dropPage removes a rejected page file and any cached descriptors for it.
func (p *Pipeline) dropPage(page string) error {
	if err := os.Remove(page); err != nil {
		return fmt.Errorf("failed to remove rejected page: %w", err)
	}
	p.Duplicates.Evict(page)
	return nil
}

// classifyCrop builds the result entry for one crop. A swatch failure is
// cosmetic and only logged; a classifier failure propagates.
func (p *Pipeline) classifyCrop(crop string) (SignResult, error) {
	sr := SignResult{
		Filename: filepath.Base(crop),
		CropPath: crop,
	}

	if hex, err := signs.Swatch(crop); err != nil {
		p.logf("swatch failed for %s: %v", sr.Filename, err)
	} else {
		sr.Swatch = hex
	}

	preds, err := p.Classifier.Predict(crop)
	if err != nil {
		return sr, fmt.Errorf("classification failed for %s: %w", sr.Filename, err)
	}
	if len(preds) > 0 {
		sr.PredictedClass = preds[0].Label
		sr.Confidence = preds[0].Probability
		sr.Predictions = preds
	}
	return sr, nil
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, args...)
	}
}
