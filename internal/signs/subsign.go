package signs

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// subSignIDOffset keeps under-sign crop numbers clear of the primary
// pass's contour-index ids on the same page.
const subSignIDOffset = 900

// SubSignParams holds the thresholds of the rectangular under-sign pass.
type SubSignParams struct {
	// MinArea is the contour area floor in square pixels.
	MinArea float64

	// MinAspect and MaxAspect bound the rotated minimum-area rectangle's
	// long/short side ratio. Under-signs are wide plates, roughly 2.3:1
	// to 6:1; anything squarer is a primary-sign fill, anything longer a
	// road marking or table rule.
	MinAspect float64
	MaxAspect float64

	// MinFill is the floor for contour area over rotated-rect area.
	MinFill float64

	// MinYellowRatio is the floor for yellow mask coverage inside the
	// rotated rectangle.
	MinYellowRatio float64
}

// extractSubSigns runs the under-sign pass: a narrower yellow band closed
// aggressively, then rotated-rectangle geometry checks per contour.
// Accepted candidates export their upright bounding box, not the rotated
// one.
func (e *Extractor) extractSubSigns(img, hsv gocv.Mat, stem string) ([]string, error) {
	yellow := e.Masks.BuildSubSignMask(hsv)
	defer yellow.Close()

	contours := gocv.FindContours(yellow, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var saved []string
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)

		rect, ok := e.rectangular(contour)
		if !ok {
			continue
		}
		if e.yellowRatio(yellow, rect) <= e.SubSign.MinYellowRatio {
			continue
		}

		bbox := gocv.BoundingRect(contour)
		path, err := e.Exporter.Export(img, bbox, stem, subSignIDOffset+i)
		if err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// rectangular applies the area, aspect-band and fill-ratio checks to a
// contour and returns its rotated minimum-area rectangle when it passes.
//
// The float variant of the rotated rectangle matters here: the aspect band
// and the fill denominator sit on tight thresholds, and truncating the
// side lengths to integers first would shift both tests on boundary
// shapes (a 23.4x10.2 rect has aspect 2.29, its truncation 2.30).
func (e *Extractor) rectangular(contour gocv.PointVector) (gocv.RotatedRect2f, bool) {
	area := gocv.ContourArea(contour)
	if area < e.SubSign.MinArea {
		return gocv.RotatedRect2f{}, false
	}

	rect := gocv.MinAreaRect2f(contour)
	w, h := float64(rect.Width), float64(rect.Height)
	if w == 0 || h == 0 {
		return gocv.RotatedRect2f{}, false
	}

	ar := aspectRatio(w, h)
	if ar < e.SubSign.MinAspect || ar > e.SubSign.MaxAspect {
		return gocv.RotatedRect2f{}, false
	}

	if area/(w*h) <= e.SubSign.MinFill {
		return gocv.RotatedRect2f{}, false
	}
	return rect, true
}

// yellowRatio measures yellow coverage inside the rotated rectangle: the
// mask is rendered filled, intersected with the yellow mask, and the
// positive counts divided. The float corners are cast to pixel
// coordinates only here, at draw time.
func (e *Extractor) yellowRatio(yellow gocv.Mat, rect gocv.RotatedRect2f) float64 {
	mask := gocv.Zeros(yellow.Rows(), yellow.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()

	corners := make([]image.Point, len(rect.Points))
	for i, pt := range rect.Points {
		corners[i] = image.Pt(int(pt.X), int(pt.Y))
	}
	box := gocv.NewPointsVectorFromPoints([][]image.Point{corners})
	defer box.Close()
	gocv.FillPoly(&mask, box, color.RGBA{R: 255, G: 255, B: 255, A: 0})

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(yellow, mask, &masked)

	total := gocv.CountNonZero(mask)
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(masked)) / float64(total)
}
