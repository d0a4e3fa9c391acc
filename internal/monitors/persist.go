package monitors

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
	"github.com/pekwm/pekwm-sys/internal/keybind"
)

// Load reads path's saved registry: a sequence of
// `Monitors = "<id>" { ... }` sections, each holding the screen
// geometry and a `Monitor { ... }` child per placed output. A missing
// file yields an empty, usable Store.
func Load(path string, provider XRandRProvider) (*Store, error) {
	s := NewStore(provider)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}
	p := cfgparser.New(cfgparser.Options{})
	if !p.ParseFile(path, false) {
		return nil, fmt.Errorf("monitors: could not read %q", path)
	}
	for _, section := range p.Root().FindAll("Monitors") {
		cfg, err := decodeConfig(section)
		if err != nil {
			return nil, err
		}
		s.Add(cfg)
	}
	return s, nil
}

func decodeConfig(section *cfgparser.Entry) (MonitorsConfig, error) {
	cfg := MonitorsConfig{ID: section.Value}
	keybind.ParseKeyValues(section, []keybind.Key{
		keybind.NumericKey("Width", &cfg.WidthPx, 0),
		keybind.NumericKey("Height", &cfg.HeightPx, 0),
		keybind.NumericKey("WidthMM", &cfg.WidthMM, 0),
		keybind.NumericKey("HeightMM", &cfg.HeightMM, 0),
	}, nil)
	for _, m := range section.FindAll("Monitor") {
		mon, err := decodeMonitor(m)
		if err != nil {
			return MonitorsConfig{}, err
		}
		cfg.Monitors = append(cfg.Monitors, mon)
	}
	return cfg, nil
}

func decodeMonitor(entry *cfgparser.Entry) (MonitorConfig, error) {
	var mon MonitorConfig
	var rotationDeg int
	keybind.ParseKeyValues(entry, []keybind.Key{
		keybind.StringKey("Output", &mon.Output, ""),
		keybind.StringKey("Mode", &mon.Mode, ""),
		keybind.StringKey("EdidMd5", &mon.EDIDMD5, ""),
		keybind.NumericKey("Refresh", &mon.Refresh, 0),
		keybind.NumericKey("X", &mon.X, 0),
		keybind.NumericKey("Y", &mon.Y, 0),
		keybind.NumericKey("Rotation", &rotationDeg, 0),
	}, nil)
	rot, err := rotationFromDegrees(rotationDeg)
	if err != nil {
		return MonitorConfig{}, fmt.Errorf("monitors: %q: %w", mon.Output, err)
	}
	mon.Rotation = rot
	return mon, nil
}

func rotationFromDegrees(deg int) (Rotation, error) {
	switch deg {
	case 0:
		return Rotate0, nil
	case 90:
		return Rotate90, nil
	case 180:
		return Rotate180, nil
	case 270:
		return Rotate270, nil
	default:
		return Rotate0, fmt.Errorf("invalid rotation %d", deg)
	}
}

func rotationToDegrees(r Rotation) int {
	switch r {
	case Rotate90:
		return 90
	case Rotate180:
		return 180
	case Rotate270:
		return 270
	default:
		return 0
	}
}

// Save writes every layout in s's registry to path, in insertion
// order, as a sequence of `Monitors = "<id>" { ... }` sections.
func (s *Store) Save(path string) error {
	var b strings.Builder
	for _, id := range s.order {
		cfg := s.registry[id]
		fmt.Fprintf(&b, "Monitors = %q {\n", cfg.ID)
		fmt.Fprintf(&b, "\tWidth = %q\n", strconv.Itoa(cfg.WidthPx))
		fmt.Fprintf(&b, "\tHeight = %q\n", strconv.Itoa(cfg.HeightPx))
		fmt.Fprintf(&b, "\tWidthMM = %q\n", strconv.Itoa(cfg.WidthMM))
		fmt.Fprintf(&b, "\tHeightMM = %q\n", strconv.Itoa(cfg.HeightMM))
		for _, mon := range cfg.Monitors {
			b.WriteString("\tMonitor {\n")
			fmt.Fprintf(&b, "\t\tOutput = %q\n", mon.Output)
			fmt.Fprintf(&b, "\t\tMode = %q\n", mon.Mode)
			fmt.Fprintf(&b, "\t\tEdidMd5 = %q\n", mon.EDIDMD5)
			fmt.Fprintf(&b, "\t\tRefresh = %q\n", strconv.FormatFloat(mon.Refresh, 'f', -1, 64))
			fmt.Fprintf(&b, "\t\tX = %q\n", strconv.Itoa(mon.X))
			fmt.Fprintf(&b, "\t\tY = %q\n", strconv.Itoa(mon.Y))
			fmt.Fprintf(&b, "\t\tRotation = %q\n", strconv.Itoa(rotationToDegrees(mon.Rotation)))
			b.WriteString("\t}\n")
		}
		b.WriteString("}\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
