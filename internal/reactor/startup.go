package reactor

import (
	"context"
	"fmt"
	"time"

	"github.com/pekwm/pekwm-sys/internal/sysconfig"
	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

// startup runs the documented pekwm_sys startup sequence: resolve
// location if configured and missing, compute and apply the current
// time-of-day, claim the XSETTINGS selection if enabled, and schedule
// the first day-change timeout.
func (r *Reactor) startup() error {
	if r.sys.LocationLookup && (isNaN(r.sys.Latitude) || isNaN(r.sys.Longitude)) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		lat, lon, err := r.location.Lookup(ctx)
		cancel()
		if err != nil {
			r.log.Warnf("location lookup failed: %v", err)
		} else {
			r.sys.Latitude, r.sys.Longitude = lat, lon
			r.runCommands(r.sys.LocationCommands, map[string]string{
				"PEKWM_SYS_LATITUDE":  fmt.Sprintf("%v", lat),
				"PEKWM_SYS_LONGITUDE": fmt.Sprintf("%v", lon),
			})
		}
	}

	r.current = r.effectiveMode(time.Now())
	r.applyTransitionEffects(r.current)

	if r.sys.XSettings {
		if err := r.startXSettings(); err != nil {
			r.log.Warnf("XSETTINGS unavailable: %v", err)
		}
	}

	r.scheduleNextDayChange(time.Now())
	r.log.Infof("pekwm_sys ready (time-of-day %s)", r.current)
	return nil
}

func (r *Reactor) startXSettings() error {
	registry, err := xsettings.Load(r.xsettingsPathOrDefault())
	if err != nil {
		return fmt.Errorf("reactor: loading XSETTINGS file: %w", err)
	}
	r.registry = registry

	window, err := r.conn.NewResourceID()
	if err != nil {
		return err
	}
	r.owner = xsettings.NewOwner(r.settingsConn, r.conn.DefaultScreen(), xsettings.Window(window), xsettings.Window(r.root))
	claimed, err := r.owner.SetServerOwner()
	if err != nil {
		return err
	}
	if !claimed {
		r.log.Infof("XSETTINGS selection already owned, running read-only")
		return nil
	}

	if r.sys.NetIconTheme != "" {
		r.registry.Set(xsettings.Setting{Name: "Net/IconThemeName", Type: xsettings.TypeString, String: r.sys.NetIconTheme})
	}
	if !isNaN(r.sys.Dpi) {
		r.registry.Set(xsettings.Setting{Name: "Xft/DPI", Type: xsettings.TypeInt, Int: int32(r.sys.Dpi * 1024)})
	}
	return r.pushXSettings()
}

func (r *Reactor) xsettingsPathOrDefault() string {
	if r.xsettingsPath != "" {
		return r.xsettingsPath
	}
	return expandHome("~/.pekwm/xsettings.save")
}

func (r *Reactor) pushXSettings() error {
	if r.registry == nil || r.owner == nil || !r.owner.Owned() {
		return nil
	}
	r.registry.Bump()
	settingsAtom, err := r.conn.InternAtom("_XSETTINGS_SETTINGS")
	if err != nil {
		return err
	}
	return r.conn.ChangeProperty(r.root, settingsAtom, settingsAtom, 8, r.registry.Property())
}

// applyTransitionEffects runs the ordered time-of-day side effects
// against mode without comparing it to r.current first (startup
// always applies them once, unconditionally).
func (r *Reactor) applyTransitionEffects(mode sysconfig.TimeOfDayMode) {
	if err := r.setThemeVariantAtom(mode); err != nil {
		r.log.Warnf("setting theme variant atom: %v", err)
	}
	if err := r.rm.Reload(); err != nil {
		r.log.Warnf("reloading resource manager: %v", err)
	}
	r.rm.Set("pekwm.daylight", fmt.Sprintf("%v", mode == sysconfig.TimeOfDayDay))
	r.rm.Set("pekwm.theme.variant", themeVariant(mode))
	r.rm.Set("pekwm.location.latitude", fmt.Sprintf("%v", r.sys.Latitude))
	r.rm.Set("pekwm.location.longitude", fmt.Sprintf("%v", r.sys.Longitude))
	r.rm.Merge(r.sys.XResources.ForMode(mode))
	if err := r.rm.Save(); err != nil {
		r.log.Warnf("saving resource manager: %v", err)
	}

	if r.sys.NetTheme != "" {
		if r.registry != nil {
			r.registry.Set(xsettings.Setting{Name: "Net/ThemeName", Type: xsettings.TypeString, String: r.sys.NetThemeFor(mode)})
			if err := r.pushXSettings(); err != nil {
				r.log.Warnf("pushing XSETTINGS: %v", err)
			}
		}
	}

	r.runCommands(r.sys.DaytimeCommands, map[string]string{"PEKWM_SYS_TIMEOFDAY": mode.String()})
}

func themeVariant(mode sysconfig.TimeOfDayMode) string {
	if mode == sysconfig.TimeOfDayDay {
		return "light"
	}
	return "dark"
}

func (r *Reactor) setThemeVariantAtom(mode sysconfig.TimeOfDayMode) error {
	atom, err := r.conn.InternAtom("_PEKWM_THEME_VARIANT")
	if err != nil {
		return err
	}
	stringType, err := r.conn.InternAtom("STRING")
	if err != nil {
		return err
	}
	return r.conn.ChangeProperty(r.root, atom, stringType, 8, []byte(themeVariant(mode)))
}

// transition applies the side effects and records the new current
// mode.
func (r *Reactor) transition(mode sysconfig.TimeOfDayMode) {
	r.applyTransitionEffects(mode)
	r.current = mode
}
