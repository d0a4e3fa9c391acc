package xsettings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

func TestSerializeThemeNameMatchesWireLayout(t *testing.T) {
	s := xsettings.Setting{
		Name:        "Net/ThemeName",
		Type:        xsettings.TypeString,
		LastChanged: 3,
		String:      "Adwaita",
	}
	data := xsettings.Serialize(0, []xsettings.Setting{s})

	assert.Equal(t, byte(0), data[0]) // byte-order marker
	assert.Equal(t, []byte{0, 0, 0}, data[1:4])

	pos := 12 // byte-order(4) + serial(4) + count(4)
	assert.Equal(t, byte(xsettings.TypeString), data[pos])
	assert.Equal(t, byte(0), data[pos+1])
	nameLen := int(data[pos+2]) | int(data[pos+3])<<8
	assert.Equal(t, len("Net/ThemeName"), nameLen)
	pos += 4
	assert.Equal(t, "Net/ThemeName", string(data[pos:pos+nameLen]))
	pos += nameLen + (4-nameLen%4)%4
	lastChanged := uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16 | uint32(data[pos+3])<<24
	assert.Equal(t, uint32(3), lastChanged)
	pos += 4
	valLen := int(data[pos]) | int(data[pos+1])<<8
	assert.Equal(t, 7, valLen)
	pos += 4
	assert.Equal(t, "Adwaita", string(data[pos:pos+valLen]))
}

func TestWireRoundTrip(t *testing.T) {
	settings := []xsettings.Setting{
		{Name: "Net/ThemeName", Type: xsettings.TypeString, LastChanged: 3, String: "Adwaita"},
		{Name: "Xft/Dpi", Type: xsettings.TypeInt, LastChanged: 1, Int: 96 * 1024},
		{Name: "Gtk/BackgroundColor", Type: xsettings.TypeColor, LastChanged: 0,
			Color: xsettings.Color{R: 10, G: 20, B: 30, A: 65535}},
	}
	data := xsettings.Serialize(42, settings)

	serial, decoded, err := xsettings.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), serial)
	assert.Equal(t, settings, decoded)
}

func TestValidateName(t *testing.T) {
	valid := []string{"Net/ThemeName", "Xft", "A1/b2/C3"}
	for _, name := range valid {
		assert.NoError(t, xsettings.ValidateName(name), name)
	}
	invalid := []string{"", "1abc", "/abc", "abc/", "a//b", "a b"}
	for _, name := range invalid {
		assert.Error(t, xsettings.ValidateName(name), name)
	}
}
