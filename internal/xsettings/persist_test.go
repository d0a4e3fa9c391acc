package xsettings_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

func TestRegistrySetIncrementsLastChanged(t *testing.T) {
	r := xsettings.NewRegistry()
	require.NoError(t, r.Set(xsettings.Setting{Name: "Net/ThemeName", Type: xsettings.TypeString, String: "Adwaita"}))
	s, ok := r.Get("Net/ThemeName")
	require.True(t, ok)
	assert.Equal(t, uint32(0), s.LastChanged)

	require.NoError(t, r.Set(xsettings.Setting{Name: "Net/ThemeName", Type: xsettings.TypeString, String: "Breeze"}))
	s, ok = r.Get("Net/ThemeName")
	require.True(t, ok)
	assert.Equal(t, uint32(1), s.LastChanged)
	assert.Equal(t, "Breeze", s.String)
}

func TestRegistrySetRejectsInvalidName(t *testing.T) {
	r := xsettings.NewRegistry()
	assert.Error(t, r.Set(xsettings.Setting{Name: "1abc", Type: xsettings.TypeInt}))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xsettings.save")

	r := xsettings.NewRegistry()
	require.NoError(t, r.Set(xsettings.Setting{Name: "Net/ThemeName", Type: xsettings.TypeString, String: "Adwaita"}))
	require.NoError(t, r.Set(xsettings.Setting{Name: "Xft/Dpi", Type: xsettings.TypeInt, Int: 96}))
	require.NoError(t, r.Set(xsettings.Setting{Name: "Gtk/Color", Type: xsettings.TypeColor,
		Color: xsettings.Color{R: 1, G: 2, B: 3, A: 4}}))

	require.NoError(t, r.Save(path))

	loaded, err := xsettings.Load(path)
	require.NoError(t, err)

	theme, ok := loaded.Get("Net/ThemeName")
	require.True(t, ok)
	assert.Equal(t, "Adwaita", theme.String)

	dpi, ok := loaded.Get("Xft/Dpi")
	require.True(t, ok)
	assert.EqualValues(t, 96, dpi.Int)

	color, ok := loaded.Get("Gtk/Color")
	require.True(t, ok)
	assert.Equal(t, xsettings.Color{R: 1, G: 2, B: 3, A: 4}, color.Color)
}

func TestLoadMissingFileReturnsEmptyRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.save")
	r, err := xsettings.Load(path)
	require.NoError(t, err)
	assert.Empty(t, r.All())
}
