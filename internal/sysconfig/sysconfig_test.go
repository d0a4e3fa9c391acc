package sysconfig_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
	"github.com/pekwm/pekwm-sys/internal/sysconfig"
)

func TestLoadDefaults(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("test", ``, false))

	s := sysconfig.Load(p.Root(), nil)
	assert.True(t, s.XSettings)
	assert.False(t, s.LocationLookup)
	assert.True(t, math.IsNaN(s.Latitude))
	assert.Equal(t, sysconfig.TimeOfDayAuto, s.TimeOfDay)
}

func TestLoadFullSection(t *testing.T) {
	p := cfgparser.New(cfgparser.Options{})
	require.True(t, p.ParseString("test", `
Sys {
	XSettings = "false"
	LocationLookup = "true"
	Latitude = "59.3"
	Longitude = "18.0"
	TimeOfDay = "Night"
	NetTheme = "Adwaita"
	DaytimeCommands {
		Command = "notify-send dawn"
	}
	XResources {
		Day {
			foreground = "#000000"
		}
		Night {
			foreground = "#ffffff"
		}
	}
}
`, false))

	s := sysconfig.Load(p.Root(), nil)
	assert.False(t, s.XSettings)
	assert.True(t, s.LocationLookup)
	assert.Equal(t, 59.3, s.Latitude)
	assert.Equal(t, sysconfig.TimeOfDayNight, s.TimeOfDay)
	assert.Equal(t, "Adwaita-Dark", s.NetThemeFor(sysconfig.TimeOfDayNight))
	assert.Equal(t, "Adwaita", s.NetThemeFor(sysconfig.TimeOfDayDay))
	require.Len(t, s.DaytimeCommands, 1)
	assert.Equal(t, "notify-send dawn", s.DaytimeCommands[0])
	assert.Equal(t, "#000000", s.XResources.Day["foreground"])
	assert.Equal(t, "#ffffff", s.XResources.Night["foreground"])
}
