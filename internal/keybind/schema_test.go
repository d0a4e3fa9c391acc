package keybind_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
	"github.com/pekwm/pekwm-sys/internal/keybind"
)

type kind int

const (
	kindAuto kind = iota
	kindDay
	kindNight
)

func parseSection(t *testing.T, data string) *cfgparser.Entry {
	t.Helper()
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("test", data, false))
	return p.Root()
}

func TestParseKeyValuesAppliesPresentAndDefault(t *testing.T) {
	section := parseSection(t, `
Name = "frame"
Enabled = "yes"
Width = "12.5"
Mode = "Day"
`)

	var (
		name    string
		enabled bool
		width   float64
		mode    kind
		missing string
	)
	keybind.ParseKeyValues(section, []keybind.Key{
		keybind.StringKey("Name", &name, "default"),
		keybind.BoolKey("Enabled", &enabled, false),
		keybind.NumericKey("Width", &width, 0, keybind.Clamp(0, 10)),
		keybind.EnumKey("Mode", &mode, kindAuto, map[string]kind{
			"Auto": kindAuto, "Day": kindDay, "Night": kindNight,
		}),
		keybind.StringKey("Missing", &missing, "fallback"),
	}, nil)

	assert.Equal(t, "frame", name)
	assert.True(t, enabled)
	assert.Equal(t, 10.0, width) // clamped from 12.5
	assert.Equal(t, kindDay, mode)
	assert.Equal(t, "fallback", missing)
}

func TestParseKeyValuesFallsBackOnParseFailure(t *testing.T) {
	section := parseSection(t, `Enabled = "not-a-bool"`)

	var (
		enabled bool
		warned  int
	)
	keybind.ParseKeyValues(section, []keybind.Key{
		keybind.BoolKey("Enabled", &enabled, true),
	}, func(format string, args ...interface{}) { warned++ })

	assert.True(t, enabled) // default, since parse failed
	assert.Equal(t, 1, warned)
}

func TestPathKeyExpandsHomeAndEnv(t *testing.T) {
	t.Setenv("PEKWM_TEST_DIR", "xsettings")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	// Built directly rather than parsed: cfgparser would expand (and,
	// being undefined there, drop) $PEKWM_TEST_DIR before PathKey saw it.
	section := &cfgparser.Entry{Children: []*cfgparser.Entry{
		{Name: "Path", Value: "~/.pekwm/$PEKWM_TEST_DIR.save"},
	}}

	var path string
	keybind.ParseKeyValues(section, []keybind.Key{
		keybind.PathKey("Path", &path, ""),
	}, nil)

	assert.Equal(t, home+"/.pekwm/xsettings.save", path)
}
