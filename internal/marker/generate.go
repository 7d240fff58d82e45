package marker

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GenerateImage renders marker id of dict as a printable grayscale image of
// side pixels, surrounded by a white quiet zone of margin pixels. Detection
// needs the quiet zone; a marker flush with the frame edge is not found.
// The caller owns the returned Mat.
func GenerateImage(dict Dictionary, id, side, margin int) (gocv.Mat, error) {
	if !dict.ValidID(id) {
		return gocv.NewMat(), fmt.Errorf("marker id %d out of range for %s (0-%d)", id, dict.Name, dict.Size-1)
	}
	minSide := dict.Bits + 2
	if side < minSide {
		return gocv.NewMat(), fmt.Errorf("side %d too small for %s, need at least %d", side, dict.Name, minSide)
	}
	if margin < 0 {
		return gocv.NewMat(), fmt.Errorf("negative margin %d", margin)
	}

	tile := gocv.NewMat()
	defer tile.Close()
	gocv.ArucoGenerateImageMarker(dict.Code, id, side, tile, 1)

	total := side + 2*margin
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), total, total, gocv.MatTypeCV8UC1)
	roi := out.Region(image.Rect(margin, margin, margin+side, margin+side))
	defer roi.Close()
	tile.CopyTo(&roi)

	return out, nil
}
