package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// MarkerTheme is the desktop viewer theme.
type MarkerTheme struct{}

var _ fyne.Theme = (*MarkerTheme)(nil)

func (t *MarkerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x00, G: 0xB8, B: 0xD4, A: 0xFF} // matches the position labels
	case theme.ColorNameError:
		return color.NRGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF} // target callout red
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x2E, G: 0xB8, B: 0x4A, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *MarkerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *MarkerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *MarkerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 15 // readable from a step back while holding markers
	default:
		return theme.DefaultTheme().Size(name)
	}
}
