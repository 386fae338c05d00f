// Package raster converts uploaded PDF documents into per-page raster
// images, one JPEG per page at a fixed resolution.
//
// The conversion itself is delegated to poppler's pdftoppm binary, which
// must be installed on the system (Ubuntu/Debian: apt-get install
// poppler-utils). The rest of the pipeline only depends on the Rasterizer
// interface, so the poppler dependency stays confined to this package.
package raster

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// Rasterizer turns a document into a sequence of page image files inside
// outputDir, named page_<n>.jpg with n starting at 1. The returned paths
// are sorted by ascending page number.
type Rasterizer interface {
	Rasterize(pdfPath, outputDir string) ([]string, error)
}

// Poppler rasterizes PDFs by invoking pdftoppm.
type Poppler struct {
	// DPI is the render resolution. pdf page geometry is resolution
	// independent, so this fixes the pixel scale all downstream
	// thresholds were tuned against.
	DPI int
}

// NewPoppler returns a Poppler rasterizer rendering at the given DPI.
func NewPoppler(dpi int) *Poppler {
	return &Poppler{DPI: dpi}
}

var pageNumRe = regexp.MustCompile(`^page-?0*(\d+)\.jpg$`)

// Rasterize renders every page of the PDF at p.DPI into outputDir and
// returns the page file paths in page order. pdftoppm zero-pads its page
// numbers, so its output files are renamed to the pipeline's page_<n>.jpg
// convention before returning.
func (p *Poppler) Rasterize(pdfPath, outputDir string) ([]string, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not found in PATH: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	prefix := filepath.Join(outputDir, "page")
	cmd := exec.Command("pdftoppm", "-jpeg", "-r", strconv.Itoa(p.DPI), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, out)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list output dir: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	var pages []page
	for _, e := range entries {
		m := pageNumRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{num: n, path: filepath.Join(outputDir, e.Name())})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	paths := make([]string, 0, len(pages))
	for _, pg := range pages {
		want := filepath.Join(outputDir, fmt.Sprintf("page_%d.jpg", pg.num))
		if pg.path != want {
			if err := os.Rename(pg.path, want); err != nil {
				return nil, fmt.Errorf("failed to rename page file: %w", err)
			}
		}
		paths = append(paths, want)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages for %s", pdfPath)
	}
	return paths, nil
}

// SortPages orders existing page_<n>.jpg paths by their numeric page index.
// Paths that do not match the naming convention keep their relative order
// at the end.
func SortPages(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool {
		return pageIndex(sorted[i]) < pageIndex(sorted[j])
	})
	return sorted
}

var pageStemRe = regexp.MustCompile(`^page_(\d+)$`)

func pageIndex(path string) int {
	stem := filepath.Base(path)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	m := pageStemRe.FindStringSubmatch(stem)
	if m == nil {
		return int(^uint(0) >> 1) // unparseable stems sort last
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
