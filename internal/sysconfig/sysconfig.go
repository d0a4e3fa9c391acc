// Package sysconfig is a typed facade over the `Sys { ... }` section
// of a pekwm configuration tree, built on top of cfgparser and
// keybind.
package sysconfig

import (
	"math"
	"strings"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
	"github.com/pekwm/pekwm-sys/internal/keybind"
)

// TimeOfDayMode selects how the active time-of-day is determined.
type TimeOfDayMode int

const (
	TimeOfDayAuto TimeOfDayMode = iota
	TimeOfDayDawn
	TimeOfDayDay
	TimeOfDayDusk
	TimeOfDayNight
)

func (m TimeOfDayMode) String() string {
	switch m {
	case TimeOfDayDawn:
		return "Dawn"
	case TimeOfDayDay:
		return "Day"
	case TimeOfDayDusk:
		return "Dusk"
	case TimeOfDayNight:
		return "Night"
	default:
		return "Auto"
	}
}

var timeOfDayTable = map[string]TimeOfDayMode{
	"Auto":  TimeOfDayAuto,
	"Dawn":  TimeOfDayDawn,
	"Day":   TimeOfDayDay,
	"Dusk":  TimeOfDayDusk,
	"Night": TimeOfDayNight,
}

// Sys is the typed view of the `Sys { ... }` section.
type Sys struct {
	XSettings            bool
	XSettingsPath        string
	LocationLookup       bool
	Latitude             float64
	Longitude            float64
	TimeOfDay            TimeOfDayMode
	Dpi                  float64
	NetTheme             string
	NetIconTheme         string
	MonitorsPath         string
	MonitorLoadOnChange  bool
	MonitorAutoConfigure bool

	DaytimeCommands  []string
	LocationCommands []string
	XResources       XResourceSet
}

// XResourceSet holds the four time-of-day maps of resource name to
// value parsed from `XResources { Dawn/Day/Dusk/Night { ... } }`.
type XResourceSet struct {
	Dawn, Day, Dusk, Night map[string]string
}

// ForMode returns the resource map for a specific time-of-day mode,
// or nil for Auto (which has no resources of its own).
func (x XResourceSet) ForMode(mode TimeOfDayMode) map[string]string {
	switch mode {
	case TimeOfDayDawn:
		return x.Dawn
	case TimeOfDayDay:
		return x.Day
	case TimeOfDayDusk:
		return x.Dusk
	case TimeOfDayNight:
		return x.Night
	default:
		return nil
	}
}

// Load reads a Sys section out of root, applying the documented
// defaults for every field the section omits. root is typically the
// ROOT entry returned by a cfgparser.CfgParser's Root().
func Load(root *cfgparser.Entry, warn keybind.Warnf) *Sys {
	s := &Sys{}
	section := root.Find("Sys")
	if section == nil {
		section = &cfgparser.Entry{Name: "Sys"}
	}

	keybind.ParseKeyValuesWithEnv(section, "PEKWM_SYS", []keybind.Key{
		keybind.BoolKey("XSettings", &s.XSettings, true),
		keybind.PathKey("XSettingsPath", &s.XSettingsPath, "~/.pekwm/xsettings.save"),
		keybind.BoolKey("LocationLookup", &s.LocationLookup, false),
		keybind.NumericKey("Latitude", &s.Latitude, math.NaN(), keybind.Clamp(-90, 90)),
		keybind.NumericKey("Longitude", &s.Longitude, math.NaN(), keybind.Clamp(-180, 180)),
		keybind.EnumKey("TimeOfDay", &s.TimeOfDay, TimeOfDayAuto, timeOfDayTable),
		keybind.NumericKey("Dpi", &s.Dpi, math.NaN()),
		keybind.StringKey("NetTheme", &s.NetTheme, ""),
		keybind.StringKey("NetIconTheme", &s.NetIconTheme, ""),
		keybind.PathKey("MonitorsPath", &s.MonitorsPath, "~/.pekwm/monitors.save"),
		keybind.BoolKey("MonitorLoadOnChange", &s.MonitorLoadOnChange, false),
		keybind.BoolKey("MonitorAutoConfigure", &s.MonitorAutoConfigure, false),
	}, warn)

	s.DaytimeCommands = commandList(section.Find("DaytimeCommands"))
	s.LocationCommands = commandList(section.Find("LocationCommands"))
	s.XResources = loadXResources(section.Find("XResources"))

	return s
}

// NetThemeFor returns NetTheme with the `-Dark` variant suffix
// applied whenever mode is anything other than Day.
func (s *Sys) NetThemeFor(mode TimeOfDayMode) string {
	if s.NetTheme == "" || mode == TimeOfDayDay {
		return s.NetTheme
	}
	return s.NetTheme + "-Dark"
}

func commandList(section *cfgparser.Entry) []string {
	if section == nil {
		return nil
	}
	var commands []string
	for _, child := range section.Children {
		commands = append(commands, child.Value)
	}
	return commands
}

func loadXResources(section *cfgparser.Entry) XResourceSet {
	var set XResourceSet
	if section == nil {
		return set
	}
	set.Dawn = resourceMap(section.Find("Dawn"))
	set.Day = resourceMap(section.Find("Day"))
	set.Dusk = resourceMap(section.Find("Dusk"))
	set.Night = resourceMap(section.Find("Night"))
	return set
}

func resourceMap(section *cfgparser.Entry) map[string]string {
	if section == nil {
		return nil
	}
	m := make(map[string]string, len(section.Children))
	for _, child := range section.Children {
		m[strings.TrimSpace(child.Name)] = child.Value
	}
	return m
}
