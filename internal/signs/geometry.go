package signs

import (
	"gocv.io/x/gocv"
)

// Geometry filters contour candidates by size and shape.
type Geometry struct {
	// MinArea is the bounding-box area floor in absolute pixels. It is
	// intentionally not scale invariant: the rasterizer renders at a
	// fixed DPI, so physical sign size maps to a fixed pixel range.
	MinArea int

	// MaxAspectRatio is the max(w,h)/min(w,h) ceiling for primary sign
	// candidates; the target class is near-square or round.
	MaxAspectRatio float64
}

// Plausible reports whether a contour's axis-aligned bounding box is big
// enough and near-square enough to be a primary sign candidate.
func (g Geometry) Plausible(contour gocv.PointVector) bool {
	r := gocv.BoundingRect(contour)
	w, h := r.Dx(), r.Dy()
	if w*h < g.MinArea {
		return false
	}
	return aspectRatio(float64(w), float64(h)) <= g.MaxAspectRatio
}

// aspectRatio returns max(w,h)/min(w,h), guarding the degenerate
// zero-extent case the same way the thresholds were tuned with.
func aspectRatio(w, h float64) float64 {
	long, short := w, h
	if short > long {
		long, short = short, long
	}
	if short < 1 {
		short = 1
	}
	return long / short
}

// maskFraction returns the fraction of positive pixels inside a mask
// region. An empty region counts as zero coverage.
func maskFraction(region gocv.Mat) float64 {
	total := region.Rows() * region.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(region)) / float64(total)
}
