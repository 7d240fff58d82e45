// Package colorutil provides the overlay palette used by the frame presenter.
package colorutil

import (
	"image/color"
)

// Overlay colors. gocv converts color.RGBA to OpenCV's BGR order itself.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Green  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// Role names what an overlay element shows.
type Role int

const (
	RoleStatus Role = iota
	RoleDetectStatus
	RoleReady
	RolePosition
	RoleTarget
	RoleOutline
)

// ForRole returns the overlay color for role.
func ForRole(role Role) color.RGBA {
	switch role {
	case RoleStatus:
		return Yellow
	case RoleDetectStatus, RoleReady, RoleOutline:
		return Green
	case RolePosition:
		return Cyan
	case RoleTarget:
		return Red
	default:
		return White
	}
}
