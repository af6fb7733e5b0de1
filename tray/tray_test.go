package tray

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dysaccess/dictation"
)

type controls struct {
	shown, toggled, dictations int
	onTop, autoLaunch          bool
	loginErr                   error
}

func (c *controls) ShowToolbar()   { c.shown++ }
func (c *controls) ToggleToolbar() { c.toggled++ }
func (c *controls) AlwaysOnTop() bool {
	return c.onTop
}
func (c *controls) SetAlwaysOnTop(on bool) error {
	c.onTop = on
	return nil
}
func (c *controls) AutoLaunch() bool { return c.autoLaunch }
func (c *controls) SetAutoLaunch(on bool) error {
	if c.loginErr != nil {
		return c.loginErr
	}
	c.autoLaunch = on
	return nil
}
func (c *controls) ToggleDictation(context.Context) (bool, error) {
	c.dictations++
	return true, nil
}

func find(t *testing.T, m *Menu, id ID) Item {
	t.Helper()
	for _, it := range m.Items() {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("no item %d", id)
	return Item{}
}

func TestMenuLabels(t *testing.T) {
	m := New(&controls{onTop: true}, func() {})
	labels := []string{}
	for _, it := range m.Items() {
		labels = append(labels, it.Label)
	}
	assert.Equal(t, []string{
		"Afficher DysAccess",
		"Toujours au premier plan",
		"Lancer au démarrage",
		"Démarrer la dictée",
		"Quitter",
	}, labels)
	assert.True(t, find(t, m, ItemAlwaysOnTop).Checked)
	assert.False(t, find(t, m, ItemAutoLaunch).Checked)
}

func TestMenuActions(t *testing.T) {
	c := &controls{onTop: true}
	quit := 0
	m := New(c, func() { quit++ })
	changes := 0
	m.OnChange(func() { changes++ })

	m.Activate(ItemShow)
	m.Activate(ItemAlwaysOnTop)
	m.Activate(ItemAutoLaunch)
	m.Activate(ItemDictation)
	m.Tapped()
	m.Activate(ItemQuit)

	assert.Equal(t, 1, c.shown)
	assert.False(t, c.onTop)
	assert.True(t, c.autoLaunch)
	assert.Equal(t, 1, c.dictations)
	assert.Equal(t, 1, c.toggled)
	assert.Equal(t, 1, quit)
	assert.Equal(t, 4, changes)
	assert.False(t, find(t, m, ItemAlwaysOnTop).Checked)
	assert.True(t, find(t, m, ItemAutoLaunch).Checked)
}

func TestMenuAutoLaunchRefused(t *testing.T) {
	c := &controls{loginErr: errors.New("registry denied")}
	m := New(c, nil)
	m.Activate(ItemAutoLaunch)
	assert.False(t, find(t, m, ItemAutoLaunch).Checked)
}

func TestMenuFollowsDictation(t *testing.T) {
	m := New(&controls{}, nil)
	changes := 0
	m.OnChange(func() { changes++ })

	assert.Equal(t, Tooltip, m.Tooltip())
	assert.Equal(t, iconIdleHi, m.Icon())

	updates := make(chan dictation.Status, 3)
	updates <- dictation.Status{State: dictation.Listening}
	updates <- dictation.Status{State: dictation.Listening}
	updates <- dictation.Status{State: dictation.Failed, Kind: dictation.NetworkUnavailable}
	close(updates)
	m.Follow(updates)

	assert.Equal(t, 2, changes)
	assert.Equal(t, iconError, m.Icon())
	assert.Contains(t, m.Tooltip(), dictation.NetworkUnavailable.Message())

	m.SetDictation(dictation.Status{State: dictation.Listening})
	assert.Equal(t, "Arrêter la dictée", find(t, m, ItemDictation).Label)
	require.Equal(t, iconListening, m.Icon())
}

func TestIconsArePNG(t *testing.T) {
	for name, tc := range map[string]struct {
		data []byte
		size int
	}{
		"idle":      {iconIdle, 22},
		"idle@2x":   {iconIdleHi, 44},
		"listening": {iconListening, 44},
		"error":     {iconError, 44},
	} {
		img, err := png.Decode(bytes.NewReader(tc.data))
		require.NoError(t, err, name)
		assert.Equal(t, tc.size, img.Bounds().Dx(), name)
	}
	assert.NotEqual(t, iconIdleHi, iconListening)
	assert.NotEqual(t, iconIdleHi, iconError)

	img, _ := png.Decode(bytes.NewReader(iconIdleHi))
	_, _, _, a := img.At(0, 0).RGBA()
	assert.Zero(t, a, "idle icon corners are transparent")
}
