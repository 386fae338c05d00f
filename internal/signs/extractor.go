package signs

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// Extractor runs the full detection pass over one accepted page: primary
// red-ringed signs first, then the rectangular yellow under-signs.
type Extractor struct {
	Masks    *MaskBuilder
	Geometry Geometry
	Exporter CropExporter

	// MinCenterFrac and MinRedRimFrac are the minimum positive-pixel
	// fractions of the center and red-edge masks inside a candidate's
	// bounding box. A candidate missing either is a ring without a fill
	// (map roundabout, stamp) or a fill without a ring (plain blob).
	MinCenterFrac float64
	MinRedRimFrac float64

	SubSign SubSignParams
}

// NewExtractor wires an extractor with the supplied thresholds, writing
// crops into outputDir.
func NewExtractor(outputDir string, geom Geometry, minCenterFrac, minRedRimFrac float64, padding int, sub SubSignParams) *Extractor {
	return &Extractor{
		Masks:         NewMaskBuilder(),
		Geometry:      geom,
		Exporter:      CropExporter{OutputDir: outputDir, Padding: padding},
		MinCenterFrac: minCenterFrac,
		MinRedRimFrac: minRedRimFrac,
		SubSign:       sub,
	}
}

// ExtractSigns detects and exports every sign candidate on the page at
// imagePath, returning the written crop paths. An unreadable page is an
// error; detection itself never fails, it just finds nothing.
func (e *Extractor) ExtractSigns(imagePath string) ([]string, error) {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to read page image %s", imagePath)
	}
	defer img.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	stem := pageStem(imagePath)

	saved, err := e.extractPrimary(img, hsv, stem)
	if err != nil {
		return saved, err
	}

	subSaved, err := e.extractSubSigns(img, hsv, stem)
	saved = append(saved, subSaved...)
	return saved, err
}

// extractPrimary runs the red-ring pass. Crop ids are the contour indices,
// so ids are stable for a given page regardless of how many candidates
// are rejected in between.
func (e *Extractor) extractPrimary(img, hsv gocv.Mat, stem string) ([]string, error) {
	redEdge, center := e.Masks.Build(hsv)
	defer redEdge.Close()
	defer center.Close()

	contours := gocv.FindContours(redEdge, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var saved []string
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if !e.Geometry.Plausible(contour) {
			continue
		}

		// The convex hull's bounding box: identical to the contour's own
		// bounding box, since the hull keeps all extreme points.
		bbox := gocv.BoundingRect(contour)

		redRegion := redEdge.Region(bbox)
		centerRegion := center.Region(bbox)
		centerFrac := maskFraction(centerRegion)
		redFrac := maskFraction(redRegion)
		redRegion.Close()
		centerRegion.Close()

		if centerFrac < e.MinCenterFrac || redFrac < e.MinRedRimFrac {
			continue
		}

		path, err := e.Exporter.Export(img, bbox, stem, i)
		if err != nil {
			return saved, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// pageStem returns the file name without directory or extension, the base
// for deterministic crop naming.
func pageStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
