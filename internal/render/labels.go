// Package render draws the tracker state onto video frames and encodes them for streaming.
package render

import (
	"fmt"
	"image"

	"marker-tracker/internal/app"
	"marker-tracker/internal/marker"
	"marker-tracker/pkg/colorutil"
)

// Overlay text.
const (
	memorizeStatus = "Step 1: show the markers to memorize"
	detectStatus   = "Step 2: detecting"
	targetCallout  = "--> TARGET FOUND!"
)

// Label is one line of overlay text.
type Label struct {
	Text      string
	At        image.Point // baseline origin
	Scale     float64
	Thickness int
	Role      colorutil.Role
}

// StatusLines returns the mode banner and the per-mode summary lines for a
// frame of the given size.
func StatusLines(view app.View, frame image.Point) []Label {
	switch view.Mode {
	case app.ModeMemorize:
		lines := []Label{{Text: memorizeStatus, At: image.Pt(10, 30), Scale: 0.7, Thickness: 2, Role: colorutil.RoleStatus}}
		if n := len(view.Candidates); n > 0 {
			lines = append(lines, Label{
				Text:      fmt.Sprintf("Ready to add %d %s", n, plural(n, "marker", "markers")),
				At:        image.Pt(10, 60),
				Scale:     0.7,
				Thickness: 2,
				Role:      colorutil.RoleReady,
			})
		}
		return lines
	case app.ModeDetect:
		return []Label{
			{Text: detectStatus, At: image.Pt(10, 30), Scale: 0.7, Thickness: 2, Role: colorutil.RoleDetectStatus},
			{
				Text:      fmt.Sprintf("Targets %d | Seen %d", len(view.Targets), len(view.Sightings)),
				At:        image.Pt(10, frame.Y-12),
				Scale:     0.5,
				Thickness: 1,
				Role:      colorutil.RoleDetectStatus,
			},
		}
	}
	return nil
}

// MarkerLabels returns the position label above each recorded marker and the
// callout below each target. Nothing is labelled outside detect mode.
func MarkerLabels(view app.View, dets []marker.Detection) []Label {
	if view.Mode != app.ModeDetect || len(dets) == 0 {
		return nil
	}
	byID := view.SightingsByID()

	var out []Label
	for _, d := range dets {
		rec, ok := byID[d.ID]
		if !ok {
			continue
		}
		c := d.Center().Image()
		out = append(out, Label{
			Text:      fmt.Sprintf("#%d", rec.Position),
			At:        image.Pt(c.X, c.Y-15),
			Scale:     0.6,
			Thickness: 2,
			Role:      colorutil.RolePosition,
		})
		if rec.IsTarget {
			out = append(out, Label{
				Text:      targetCallout,
				At:        image.Pt(c.X, c.Y+30),
				Scale:     0.7,
				Thickness: 2,
				Role:      colorutil.RoleTarget,
			})
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
