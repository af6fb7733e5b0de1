package shortcut

import "runtime"

type platformPaths struct {
	mac, win, linux string
}

var appPaths = map[string]platformPaths{
	"libreoffice": {
		mac:   "/Applications/LibreOffice.app",
		win:   `C:\Program Files\LibreOffice\program\soffice.exe`,
		linux: "/usr/bin/libreoffice",
	},
	"lexibar": {
		mac:   "/Applications/Lexibar.app",
		win:   `C:\Program Files\Lexibar\Lexibar.exe`,
		linux: "/usr/bin/lexibar",
	},
	"wordpad": {
		mac:   "/System/Applications/TextEdit.app",
		win:   `C:\Program Files\Windows NT\Accessories\wordpad.exe`,
		linux: "/usr/bin/gedit",
	},
}

// AppPath returns the install location of a known application for goos.
func AppPath(app, goos string) string {
	p, ok := appPaths[app]
	if !ok {
		return ""
	}
	switch goos {
	case "darwin":
		return p.mac
	case "windows":
		return p.win
	default:
		return p.linux
	}
}

// Defaults is the built-in toolbar used on first run and when the store is unreachable.
func Defaults() []Record {
	return []Record{
		{ID: "1", Name: "LibreOffice", Icon: IconFileText, Color: "Bleu", Kind: KindApp, Path: AppPath("libreoffice", runtime.GOOS)},
		{ID: "2", Name: "Navigateur", Icon: IconGlobe, Color: "Orange", Kind: KindWeb, URL: "https://www.google.fr"},
		{ID: "3", Name: "Lexibar", Icon: IconKeyboard, Color: "Violet", Kind: KindApp, Path: AppPath("lexibar", runtime.GOOS)},
		{ID: "4", Name: "AsTeRICS", Icon: IconGrid, Color: "Bleu clair", Kind: KindWeb, URL: "https://grid.asterics.eu"},
	}
}
