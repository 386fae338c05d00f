package signs

import (
	"image"

	"gocv.io/x/gocv"
)

// ColorRange is an inclusive HSV band in OpenCV's encoding (hue 0-179).
type ColorRange struct {
	Lo gocv.Scalar
	Hi gocv.Scalar
}

// MaskBuilder turns an HSV page image into the binary masks the detector
// works on. Red needs two bands because hue wraps at 0/179.
type MaskBuilder struct {
	Red1   ColorRange
	Red2   ColorRange
	Yellow ColorRange
	White  ColorRange

	// SubSignYellow is the narrower band used by the under-sign pass.
	SubSignYellow ColorRange
}

// NewMaskBuilder returns a builder with the tuned production bands.
func NewMaskBuilder() *MaskBuilder {
	return &MaskBuilder{
		Red1:          ColorRange{gocv.NewScalar(0, 90, 90, 0), gocv.NewScalar(10, 255, 255, 0)},
		Red2:          ColorRange{gocv.NewScalar(170, 90, 90, 0), gocv.NewScalar(179, 255, 255, 0)},
		Yellow:        ColorRange{gocv.NewScalar(15, 80, 100, 0), gocv.NewScalar(40, 255, 255, 0)},
		White:         ColorRange{gocv.NewScalar(0, 0, 180, 0), gocv.NewScalar(179, 60, 255, 0)},
		SubSignYellow: ColorRange{gocv.NewScalar(25, 150, 150, 0), gocv.NewScalar(35, 255, 255, 0)},
	}
}

// Build computes the red-edge and center-of-sign masks for an HSV image.
// Both returned Mats are owned by the caller.
//
// Closing iteration counts differ per color because the colors fragment
// differently on scanned pages: thin red rings break more than filled
// centers, so red gets two passes.
func (b *MaskBuilder) Build(hsv gocv.Mat) (redEdge, centerOfSign gocv.Mat) {
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3))
	defer kernel.Close()

	red := b.inRange(hsv, b.Red1)
	defer red.Close()
	red2 := b.inRange(hsv, b.Red2)
	defer red2.Close()
	gocv.BitwiseOr(red, red2, &red)

	yellow := b.inRange(hsv, b.Yellow)
	defer yellow.Close()
	white := b.inRange(hsv, b.White)
	defer white.Close()

	closeMask(&red, kernel, 2)
	closeMask(&yellow, kernel, 1)
	closeMask(&white, kernel, 1)

	redEdge = redEdgeFrom(red, yellow, white, kernel)

	centerOfSign = gocv.NewMat()
	gocv.BitwiseOr(yellow, white, &centerOfSign)
	return redEdge, centerOfSign
}

// redEdgeFrom subtracts the fill colors from the red mask and thins the
// result by one erosion pass.
//
// Historical quirk, kept deliberately: the yellow subtraction is computed
// and then replaced by the white subtraction, so only "red AND NOT white"
// survives. Pinned by TestRedEdgeFrom_YellowSubtractionDiscarded pending
// confirmation of the original intent.
func redEdgeFrom(red, yellow, white, kernel gocv.Mat) gocv.Mat {
	notYellow := gocv.NewMat()
	defer notYellow.Close()
	gocv.BitwiseNot(yellow, &notYellow)
	redEdge := gocv.NewMat()
	gocv.BitwiseAnd(red, notYellow, &redEdge)

	notWhite := gocv.NewMat()
	defer notWhite.Close()
	gocv.BitwiseNot(white, &notWhite)
	gocv.BitwiseAnd(red, notWhite, &redEdge)

	eroded := gocv.NewMat()
	gocv.Erode(redEdge, &eroded, kernel)
	redEdge.Close()
	return eroded
}

// BuildSubSignMask computes the under-sign yellow mask for an HSV image.
// The closing is more aggressive than the primary pass (5x5 rectangle,
// three iterations) because this class fragments more. The returned Mat
// is owned by the caller.
func (b *MaskBuilder) BuildSubSignMask(hsv gocv.Mat) gocv.Mat {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()

	mask := b.inRange(hsv, b.SubSignYellow)
	closeMask(&mask, kernel, 3)
	return mask
}

func (b *MaskBuilder) inRange(hsv gocv.Mat, r ColorRange) gocv.Mat {
	dst := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, r.Lo, r.Hi, &dst)
	return dst
}

// closeMask applies morphological closing in place.
func closeMask(m *gocv.Mat, kernel gocv.Mat, iterations int) {
	dst := gocv.NewMat()
	gocv.MorphologyExWithParams(*m, &dst, gocv.MorphClose, kernel, iterations, gocv.BorderConstant)
	m.Close()
	*m = dst
}
