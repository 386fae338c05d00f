package signs

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// CropExporter writes padded sign crops into the output directory.
//
// Crops are immutable once written and named deterministically from the
// source page stem and a numeric id, so re-running a page overwrites its
// own crops and nothing else.
type CropExporter struct {
	// OutputDir receives the crop files. Created on first export.
	OutputDir string

	// Padding is added on every side of the bounding box before clamping.
	Padding int
}

// PadAndClamp expands bbox by pad on all sides and clamps the result to
// [0,width) x [0,height). The returned rectangle always lies within the
// source bounds and is empty only if bbox was degenerate.
func PadAndClamp(bbox image.Rectangle, pad, width, height int) image.Rectangle {
	r := image.Rect(bbox.Min.X-pad, bbox.Min.Y-pad, bbox.Max.X+pad, bbox.Max.Y+pad)
	return r.Intersect(image.Rect(0, 0, width, height))
}

// Export slices the padded, clamped region out of the source image and
// writes it as <stem>_<id:03d>.png in the output directory, returning the
// written path. I/O errors propagate; there is no partial-write recovery.
func (e *CropExporter) Export(src gocv.Mat, bbox image.Rectangle, stem string, id int) (string, error) {
	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	region := PadAndClamp(bbox, e.Padding, src.Cols(), src.Rows())
	if region.Empty() {
		return "", fmt.Errorf("crop region %v is empty after clamping", bbox)
	}

	crop := src.Region(region)
	defer crop.Close()

	path := filepath.Join(e.OutputDir, fmt.Sprintf("%s_%03d.png", stem, id))
	if ok := gocv.IMWrite(path, crop); !ok {
		return "", fmt.Errorf("failed to write crop %s", path)
	}
	return path, nil
}
