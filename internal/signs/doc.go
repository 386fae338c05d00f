// Package signs locates traffic-sign candidates on accepted map pages and
// exports them as padded image crops.
//
// Detection is color and geometry driven, not learned. The primary sign
// class is a red ring around a yellow or white fill: HSV thresholding
// splits a page into a red-edge mask and a center mask, external contours
// of the red edge are filtered to near-square shapes of sufficient
// absolute size, and each surviving region must show enough ring and
// enough fill inside its bounding box. A second, independent pass finds
// the rectangular yellow under-signs mounted below primary signs, using a
// narrower yellow band and rotated-rectangle geometry.
//
// All thresholds are explicit fields on the component structs; nothing is
// read from package-level state.
package signs
