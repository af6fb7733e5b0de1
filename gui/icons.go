//go:build gui

package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"dysaccess/shortcut"
)

var icons = map[shortcut.IconKey]func() fyne.Resource{
	shortcut.IconFileText:   theme.FileTextIcon,
	shortcut.IconGlobe:      theme.SearchIcon,
	shortcut.IconKeyboard:   theme.ComputerIcon,
	shortcut.IconGrid:       theme.GridIcon,
	shortcut.IconBook:       theme.FolderOpenIcon,
	shortcut.IconCalculator: theme.ListIcon,
	shortcut.IconMusic:      theme.MediaMusicIcon,
	shortcut.IconVideo:      theme.MediaVideoIcon,
	shortcut.IconImage:      theme.MediaPhotoIcon,
	shortcut.IconMail:       theme.MailComposeIcon,
	shortcut.IconPencil:     theme.DocumentCreateIcon,
	shortcut.IconGamepad:    theme.MediaPlayIcon,
}

// iconFor resolves a catalog key at render time; unknown keys get the default.
func iconFor(k shortcut.IconKey) fyne.Resource {
	if fn, ok := icons[k]; ok {
		return fn()
	}
	return icons[shortcut.DefaultIcon]()
}

func accent(k shortcut.ColorKey) color.Color {
	c, ok := k.RGB()
	if !ok {
		c, _ = shortcut.DefaultColor.RGB()
	}
	return c
}
