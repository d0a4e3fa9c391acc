package reactor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pekwm/pekwm-sys/internal/sysconfig"
	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

// dispatch parses and executes one line of the stdin command
// protocol: a verb followed by verb-specific arguments.
func (r *Reactor) dispatch(line string) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(verb) {
	case "":
		return
	case "exit":
		r.Shutdown()
	case "reload":
		r.cmdReload()
	case "theme":
		r.loadTheme(rest)
		r.applyTransitionEffects(r.current)
	case "timeofday":
		r.cmdTimeOfDay(rest)
	case "dpi":
		r.cmdDpi(rest)
	case "monload":
		r.cmdMonLoad()
	case "monsave":
		r.cmdMonSave()
	case "xset":
		r.cmdXSet(rest)
	case "xsetint":
		r.cmdXSetInt(rest)
	case "xsetcolor":
		r.cmdXSetColor(rest)
	case "xsave":
		r.cmdXSave()
	default:
		r.log.Warnf("unrecognised command %q", verb)
	}
}

func (r *Reactor) cmdReload() {
	prevXSettings := r.sys.XSettings
	if err := r.loadConfig(""); err != nil {
		r.log.Warnf("reload failed: %v", err)
		return
	}
	if r.sys.XSettings && !prevXSettings {
		if err := r.startXSettings(); err != nil {
			r.log.Warnf("XSETTINGS unavailable: %v", err)
		}
	}
	mode := r.effectiveMode(time.Now())
	r.transition(mode)
	r.scheduleNextDayChange(time.Now())
}

func (r *Reactor) cmdTimeOfDay(arg string) {
	switch strings.ToLower(arg) {
	case "auto":
		r.override = sysconfig.TimeOfDayAuto
	case "toggle":
		if r.current == sysconfig.TimeOfDayDay {
			r.override = sysconfig.TimeOfDayNight
		} else {
			r.override = sysconfig.TimeOfDayDay
		}
	case "next":
		r.override = nextMode(r.current)
	default:
		mode, ok := parseModeName(arg)
		if !ok {
			r.log.Warnf("TimeOfDay: unrecognised mode %q", arg)
			return
		}
		r.override = mode
	}
	r.transition(r.effectiveMode(time.Now()))
	r.scheduleNextDayChange(time.Now())
}

// nextMode cycles the four named phases in their natural daily order;
// Auto is not itself a phase in the cycle and is skipped over.
func nextMode(current sysconfig.TimeOfDayMode) sysconfig.TimeOfDayMode {
	switch current {
	case sysconfig.TimeOfDayDawn:
		return sysconfig.TimeOfDayDay
	case sysconfig.TimeOfDayDay:
		return sysconfig.TimeOfDayDusk
	case sysconfig.TimeOfDayDusk:
		return sysconfig.TimeOfDayNight
	default:
		return sysconfig.TimeOfDayDawn
	}
}

func parseModeName(name string) (sysconfig.TimeOfDayMode, bool) {
	switch strings.ToLower(name) {
	case "dawn":
		return sysconfig.TimeOfDayDawn, true
	case "day":
		return sysconfig.TimeOfDayDay, true
	case "dusk":
		return sysconfig.TimeOfDayDusk, true
	case "night":
		return sysconfig.TimeOfDayNight, true
	default:
		return sysconfig.TimeOfDayAuto, false
	}
}

func (r *Reactor) cmdDpi(arg string) {
	dpi, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		r.log.Warnf("Dpi: %v", err)
		return
	}
	r.sys.Dpi = dpi
	r.rm.Set("Xft.dpi", arg)
	if err := r.rm.Save(); err != nil {
		r.log.Warnf("Dpi: saving resources: %v", err)
	}
	if r.registry != nil {
		r.registry.Set(xsettings.Setting{Name: "Xft/DPI", Type: xsettings.TypeInt, Int: int32(dpi * 1024)})
		if err := r.pushXSettings(); err != nil {
			r.log.Warnf("Dpi: pushing XSETTINGS: %v", err)
		}
	}
}

func (r *Reactor) cmdMonLoad() {
	cfg, ok := r.monitors.Find()
	if !ok {
		r.log.Warnf("MonLoad: no saved layout for the current monitor set")
		return
	}
	if err := r.monitors.Apply(cfg); err != nil {
		r.log.Warnf("MonLoad: %v", err)
	}
}

func (r *Reactor) cmdMonSave() {
	cfg, err := r.monitors.Mk()
	if err != nil {
		r.log.Warnf("MonSave: %v", err)
		return
	}
	r.monitors.Add(cfg)
	if err := r.monitors.Save(expandHome(r.sys.MonitorsPath)); err != nil {
		r.log.Warnf("MonSave: saving registry: %v", err)
	}
}

func (r *Reactor) cmdXSet(arg string) {
	name, value, ok := strings.Cut(arg, " ")
	if !ok {
		r.log.Warnf("XSet: expected `<name> <string>`")
		return
	}
	r.setXSetting(xsettings.Setting{Name: name, Type: xsettings.TypeString, String: strings.TrimSpace(value)})
}

func (r *Reactor) cmdXSetInt(arg string) {
	name, value, ok := strings.Cut(arg, " ")
	if !ok {
		r.log.Warnf("XSetInt: expected `<name> <int>`")
		return
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	if err != nil {
		r.log.Warnf("XSetInt: %v", err)
		return
	}
	r.setXSetting(xsettings.Setting{Name: name, Type: xsettings.TypeInt, Int: int32(n)})
}

func (r *Reactor) cmdXSetColor(arg string) {
	name, value, ok := strings.Cut(arg, " ")
	if !ok {
		r.log.Warnf("XSetColor: expected `<name> #RRGGBB[AA]`")
		return
	}
	color, err := parseHexColor(strings.TrimSpace(value))
	if err != nil {
		r.log.Warnf("XSetColor: %v", err)
		return
	}
	r.setXSetting(xsettings.Setting{Name: name, Type: xsettings.TypeColor, Color: color})
}

func parseHexColor(s string) (xsettings.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return xsettings.Color{}, fmt.Errorf("expected #RRGGBB or #RRGGBBAA, got %q", s)
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return xsettings.Color{}, fmt.Errorf("expected #RRGGBB or #RRGGBBAA, got %q", s)
		}
	}
	component := func(i int) (uint16, error) {
		v, err := strconv.ParseUint(s[i:i+2], 16, 16)
		return uint16(v) * 0x101, err
	}
	rr, err := component(0)
	if err != nil {
		return xsettings.Color{}, err
	}
	gg, err := component(2)
	if err != nil {
		return xsettings.Color{}, err
	}
	bb, err := component(4)
	if err != nil {
		return xsettings.Color{}, err
	}
	aa := uint16(0xffff)
	if len(s) >= 8 {
		aa, err = component(6)
		if err != nil {
			return xsettings.Color{}, err
		}
	}
	return xsettings.Color{R: rr, G: gg, B: bb, A: aa}, nil
}

func (r *Reactor) setXSetting(s xsettings.Setting) {
	if r.registry == nil {
		r.log.Warnf("%s: XSETTINGS not active", s.Name)
		return
	}
	if err := r.registry.Set(s); err != nil {
		r.log.Warnf("%s: %v", s.Name, err)
		return
	}
	if err := r.pushXSettings(); err != nil {
		r.log.Warnf("%s: pushing XSETTINGS: %v", s.Name, err)
	}
}

func (r *Reactor) cmdXSave() {
	if r.registry == nil {
		r.log.Warnf("XSave: XSETTINGS not active")
		return
	}
	if err := r.registry.Save(r.xsettingsPathOrDefault()); err != nil {
		r.log.Warnf("XSave: %v", err)
	}
}
