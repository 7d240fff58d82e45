package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"marker-tracker/internal/app"
	"marker-tracker/internal/marker"
	"marker-tracker/pkg/colorutil"
)

// DefaultWidth is the working frame width. Detection on larger frames costs
// more than it gains for hand-held markers.
const DefaultWidth = 640

// Presenter scales frames to the working size and draws the overlays.
type Presenter struct {
	width int
	font  gocv.HersheyFont
}

// NewPresenter creates a presenter producing frames width pixels wide.
func NewPresenter(width int) *Presenter {
	if width <= 0 {
		width = DefaultWidth
	}
	return &Presenter{width: width, font: gocv.FontHersheySimplex}
}

// Width returns the output frame width.
func (p *Presenter) Width() int {
	return p.width
}

// TargetSize returns the output size for a source of the given size,
// keeping the aspect ratio.
func (p *Presenter) TargetSize(src image.Point) image.Point {
	if src.X <= 0 || src.Y <= 0 {
		return image.Point{}
	}
	scale := float64(p.width) / float64(src.X)
	h := int(float64(src.Y) * scale)
	if h < 1 {
		h = 1
	}
	return image.Pt(p.width, h)
}

// Prepare returns a copy of src scaled to the working width.
// The caller owns the returned Mat.
func (p *Presenter) Prepare(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty frame")
	}
	size := p.TargetSize(image.Pt(src.Cols(), src.Rows()))
	if size.X == src.Cols() {
		return src.Clone(), nil
	}
	dst := gocv.NewMat()
	gocv.Resize(src, &dst, size, 0, 0, gocv.InterpolationArea)
	return dst, nil
}

// Render draws the marker outlines, status lines and marker labels.
func (p *Presenter) Render(frame *gocv.Mat, view app.View, dets []marker.Detection) {
	if len(dets) > 0 {
		corners, ids := marker.CornerSets(dets)
		gocv.ArucoDrawDetectedMarkers(*frame, corners, ids, scalar(colorutil.ForRole(colorutil.RoleOutline)))
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	for _, l := range StatusLines(view, size) {
		p.draw(frame, l)
	}
	for _, l := range MarkerLabels(view, dets) {
		p.draw(frame, l)
	}
}

func (p *Presenter) draw(frame *gocv.Mat, l Label) {
	gocv.PutText(frame, l.Text, l.At, p.font, l.Scale, colorutil.ForRole(l.Role), l.Thickness)
}

// scalar converts an RGBA color to OpenCV's BGR scalar order.
func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), float64(c.A))
}

// Encode compresses frame as JPEG at the given quality (1-100).
func Encode(frame gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, frame, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close; hand out a Go copy.
	src := buf.GetBytes()
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}
