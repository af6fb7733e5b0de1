//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"dysaccess/shortcut"
)

// buddyTheme is a light theme with large text and the catalog's blue as
// primary color.
type buddyTheme struct{}

func (b *buddyTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.RGBA{250, 250, 252, 255}
	case theme.ColorNameForeground:
		return color.RGBA{30, 30, 40, 255}
	case theme.ColorNamePrimary:
		c, _ := shortcut.DefaultColor.RGB()
		return c
	}
	return theme.DefaultTheme().Color(name, theme.VariantLight)
}

func (b *buddyTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (b *buddyTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (b *buddyTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText {
		return 16
	}
	return theme.DefaultTheme().Size(name)
}
