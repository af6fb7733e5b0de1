package shortcut

import "image/color"

type IconKey string

const (
	IconFileText   IconKey = "FileText"
	IconGlobe      IconKey = "Globe"
	IconKeyboard   IconKey = "Keyboard"
	IconGrid       IconKey = "Grid"
	IconBook       IconKey = "Book"
	IconCalculator IconKey = "Calculator"
	IconMusic      IconKey = "Music"
	IconVideo      IconKey = "Video"
	IconImage      IconKey = "Image"
	IconMail       IconKey = "Mail"
	IconPencil     IconKey = "Pencil"
	IconGamepad    IconKey = "Gamepad"
)

// Icons lists the icon catalog in picker order.
var Icons = []IconKey{
	IconFileText, IconGlobe, IconKeyboard, IconGrid, IconBook, IconCalculator,
	IconMusic, IconVideo, IconImage, IconMail, IconPencil, IconGamepad,
}

func (k IconKey) Valid() bool {
	for _, i := range Icons {
		if i == k {
			return true
		}
	}
	return false
}

type ColorKey string

type ColorEntry struct {
	Key ColorKey
	RGB color.RGBA
}

// Colors is the accent color catalog. Keys are the labels shown to the child.
var Colors = []ColorEntry{
	{"Bleu", color.RGBA{148, 206, 240, 255}},
	{"Orange", color.RGBA{251, 146, 60, 255}},
	{"Violet", color.RGBA{226, 200, 226, 255}},
	{"Vert", color.RGBA{74, 222, 128, 255}},
	{"Rose", color.RGBA{244, 114, 182, 255}},
	{"Bleu clair", color.RGBA{195, 222, 240, 255}},
	{"Violet clair", color.RGBA{234, 216, 234, 255}},
	{"Vert pastel", color.RGBA{238, 250, 226, 255}},
	{"Jaune pastel", color.RGBA{251, 245, 212, 255}},
	{"Orange pastel", color.RGBA{253, 201, 160, 255}},
	{"Violet pastel", color.RGBA{229, 224, 255, 255}},
	{"Rose pastel", color.RGBA{255, 219, 228, 255}},
	{"Pêche pastel", color.RGBA{249, 226, 211, 255}},
	{"Bleu pastel", color.RGBA{209, 225, 255, 255}},
	{"Gris pastel", color.RGBA{242, 241, 251, 255}},
}

const (
	DefaultIcon  = IconFileText
	DefaultColor = ColorKey("Bleu")
)

func (k ColorKey) Valid() bool {
	_, ok := k.RGB()
	return ok
}

// RGB resolves a color key at render time.
func (k ColorKey) RGB() (color.RGBA, bool) {
	for _, c := range Colors {
		if c.Key == k {
			return c.RGB, true
		}
	}
	return color.RGBA{}, false
}

func ColorKeys() []string {
	keys := make([]string, len(Colors))
	for i, c := range Colors {
		keys[i] = string(c.Key)
	}
	return keys
}

func IconKeys() []string {
	keys := make([]string, len(Icons))
	for i, k := range Icons {
		keys[i] = string(k)
	}
	return keys
}
