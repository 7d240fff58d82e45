// Package marker detects ArUco fiducial markers across several dictionaries.
package marker

import (
	"gocv.io/x/gocv"

	"marker-tracker/pkg/geometry"
)

// Detection is one decoded marker in a frame.
type Detection struct {
	ID         int           `json:"id"`
	Dictionary string        `json:"dictionary"`
	Corners    geometry.Quad `json:"corners"` // image coordinates (pixels)
}

// Center returns the marker centroid.
func (d Detection) Center() geometry.Point2D {
	return d.Corners.Center()
}

// Detector returns the markers visible in a frame.
type Detector interface {
	// Detect decodes every marker in frame. Returns an empty slice when
	// nothing is visible.
	Detect(frame gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// IDs returns the marker IDs in detector order. Duplicates are kept: the
// same ID decoded under two dictionaries appears twice.
func IDs(dets []Detection) []int {
	ids := make([]int, len(dets))
	for i, d := range dets {
		ids[i] = d.ID
	}
	return ids
}

func quadFromPoints(pts []gocv.Point2f) geometry.Quad {
	var q geometry.Quad
	for i := 0; i < len(q) && i < len(pts); i++ {
		q[i] = geometry.NewPoint2D(float64(pts[i].X), float64(pts[i].Y))
	}
	return q
}

func pointsFromQuad(q geometry.Quad) []gocv.Point2f {
	pts := make([]gocv.Point2f, len(q))
	for i, p := range q {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return pts
}

// CornerSets converts detections to the layout gocv's ArUco drawing expects.
func CornerSets(dets []Detection) ([][]gocv.Point2f, []int) {
	corners := make([][]gocv.Point2f, len(dets))
	for i, d := range dets {
		corners[i] = pointsFromQuad(d.Corners)
	}
	return corners, IDs(dets)
}
