package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/sppas/phoenix/internal/settings"
)

// phoenixTheme paints the default theme with the user's colours and text size.
type phoenixTheme struct {
	fyne.Theme
	s *settings.Settings
}

func newTheme(s *settings.Settings) fyne.Theme {
	return phoenixTheme{Theme: theme.DefaultTheme(), s: s}
}

func (t phoenixTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	switch n {
	case theme.ColorNameBackground:
		return t.s.Background
	case theme.ColorNameForeground:
		return t.s.Foreground
	case theme.ColorNameHeaderBackground:
		return t.s.Header
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return t.s.Selection
	}
	return t.Theme.Color(n, v)
}

func (t phoenixTheme) Size(n fyne.ThemeSizeName) float32 {
	switch n {
	case theme.SizeNameText:
		if t.s.TextFont.Size > 0 {
			return t.s.TextFont.Size
		}
	case theme.SizeNameCaptionText:
		if t.s.TextFont.Size > 0 {
			return t.s.TextFont.Size * 0.8
		}
	}
	return t.Theme.Size(n)
}

func (t phoenixTheme) Font(s fyne.TextStyle) fyne.Resource {
	if t.s.TextFont.Family == "mono" {
		s.Monospace = true
	}
	return t.Theme.Font(s)
}
