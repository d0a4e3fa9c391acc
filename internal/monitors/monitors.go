package monitors

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// MonitorConfig is one output's placement within a saved layout.
type MonitorConfig struct {
	Output   string
	Mode     string
	EDIDMD5  string
	Refresh  float64
	X, Y     int
	Rotation Rotation
}

// MonitorsConfig is a full saved layout: screen geometry plus the
// per-output placements that produced it.
type MonitorsConfig struct {
	ID                string
	WidthPx, HeightPx int
	WidthMM, HeightMM int
	Monitors          []MonitorConfig
}

// ComputeID derives a layout's stable identity: the MD5 of
// (output-name‖edid-md5) for every connected output, in iteration
// order. Outputs that are not connected do not contribute, so the id
// only reflects what is actually connected right now.
func ComputeID(outputs []Output) string {
	h := md5.New()
	for _, o := range outputs {
		if !o.Connected {
			continue
		}
		fmt.Fprintf(h, "%s\x00%s", o.Name, o.EDIDMD5)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store is the registry of saved MonitorsConfig layouts, keyed by
// ComputeID, plus the live XRandR connection used to capture and
// apply them.
type Store struct {
	provider XRandRProvider
	registry map[string]MonitorsConfig
	order    []string
}

// NewStore builds a Store over provider. provider may be nil, in
// which case Mk reports the synthetic single-output "X11" layout
// rather than failing.
func NewStore(provider XRandRProvider) *Store {
	return &Store{provider: provider, registry: make(map[string]MonitorsConfig)}
}

// Mk populates out from the live XRandR resources, or from a single
// synthetic "X11" entry when XRandR is unavailable.
func (s *Store) Mk() (MonitorsConfig, error) {
	if s.provider == nil {
		return syntheticConfig(), nil
	}
	res, err := s.provider.ScreenResources()
	if err != nil {
		return syntheticConfig(), nil
	}
	cfg := MonitorsConfig{
		WidthPx: res.WidthPx, HeightPx: res.HeightPx,
		WidthMM: res.WidthMM, HeightMM: res.HeightMM,
	}
	for _, o := range res.Outputs {
		if !o.Connected {
			continue
		}
		cfg.Monitors = append(cfg.Monitors, MonitorConfig{
			Output: o.Name, Mode: o.Mode, EDIDMD5: o.EDIDMD5,
			Refresh: o.Refresh, X: o.X, Y: o.Y, Rotation: o.Rotation,
		})
	}
	cfg.ID = ComputeID(res.Outputs)
	return cfg, nil
}

func syntheticConfig() MonitorsConfig {
	cfg := MonitorsConfig{Monitors: []MonitorConfig{{Output: "X11"}}}
	cfg.ID = ComputeID([]Output{{Name: "X11", Connected: true}})
	return cfg
}

// Add inserts or replaces cfg in the registry, keyed by its own ID.
func (s *Store) Add(cfg MonitorsConfig) {
	if _, exists := s.registry[cfg.ID]; !exists {
		s.order = append(s.order, cfg.ID)
	}
	s.registry[cfg.ID] = cfg
}

// Find returns the registry entry matching the currently-connected
// output set, if any.
func (s *Store) Find() (MonitorsConfig, bool) {
	live, err := s.Mk()
	if err != nil {
		return MonitorsConfig{}, false
	}
	cfg, ok := s.registry[live.ID]
	return cfg, ok
}

// All returns every saved layout, in insertion order.
func (s *Store) All() []MonitorsConfig {
	out := make([]MonitorsConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.registry[id])
	}
	return out
}

const refreshTolerance = 1.0

func modeMatches(m Mode, name string, refresh float64) bool {
	return m.Name == name && math.Abs(m.Refresh-refresh) <= refreshTolerance
}

// Apply re-creates cfg's layout against the live outputs: each
// monitor's declared mode is resolved (by name and refresh, within
// ±1Hz), placed on its output's existing CRTC if one is allocated or
// the first free CRTC otherwise, and disables the previous CRTC when
// the assignment moved. The screen size is set last, once every
// output has been placed.
func (s *Store) Apply(cfg MonitorsConfig) error {
	if s.provider == nil {
		return fmt.Errorf("monitors: no XRandR provider available")
	}
	res, err := s.provider.ScreenResources()
	if err != nil {
		return fmt.Errorf("monitors: reading screen resources: %w", err)
	}
	byName := make(map[string]Output, len(res.Outputs))
	for _, o := range res.Outputs {
		byName[o.Name] = o
	}
	free := freeCrtcs(res)

	for _, mon := range cfg.Monitors {
		out, ok := byName[mon.Output]
		if !ok || !out.Connected {
			continue
		}
		if !resolveMode(out, mon.Mode, mon.Refresh) {
			continue
		}
		target := out.Crtc
		previous := out.Crtc
		if target == NoCrtc {
			if len(free) == 0 {
				continue
			}
			target = free[0]
			free = free[1:]
		}
		if _, err := s.provider.SetCrtcConfig(target, mon.Mode, mon.Refresh, mon.X, mon.Y, mon.Rotation, []string{mon.Output}); err != nil {
			return fmt.Errorf("monitors: configuring CRTC for %q: %w", mon.Output, err)
		}
		if previous != NoCrtc && previous != target {
			if err := s.provider.DisableCrtc(previous); err != nil {
				return fmt.Errorf("monitors: disabling previous CRTC for %q: %w", mon.Output, err)
			}
		}
	}
	return s.provider.SetScreenSize(cfg.WidthPx, cfg.HeightPx, cfg.WidthMM, cfg.HeightMM)
}

func resolveMode(out Output, name string, refresh float64) bool {
	for _, m := range out.Modes {
		if modeMatches(m, name, refresh) {
			return true
		}
	}
	return false
}

func freeCrtcs(res ScreenResources) []CrtcID {
	used := make(map[CrtcID]bool)
	for _, o := range res.Outputs {
		if o.Crtc != NoCrtc {
			used[o.Crtc] = true
		}
	}
	var free []CrtcID
	for _, c := range res.Crtcs {
		if !used[c] {
			free = append(free, c)
		}
	}
	return free
}

// AutoConfig assigns a free CRTC to every connected output that
// currently has none, placing each newly-configured output
// immediately to the right of the outputs already placed. Outputs are
// visited in name order so the layout is deterministic.
func (s *Store) AutoConfig() error {
	if s.provider == nil {
		return fmt.Errorf("monitors: no XRandR provider available")
	}
	res, err := s.provider.ScreenResources()
	if err != nil {
		return fmt.Errorf("monitors: reading screen resources: %w", err)
	}
	outputs := append([]Output(nil), res.Outputs...)
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Name < outputs[j].Name })

	free := freeCrtcs(res)
	nextX := 0
	for _, o := range outputs {
		if o.Connected && o.Crtc != NoCrtc {
			if right := o.X + modeWidth(o); right > nextX {
				nextX = right
			}
		}
	}
	totalHeight := 0
	for _, o := range outputs {
		if !o.Connected {
			continue
		}
		if o.Crtc != NoCrtc {
			if right := o.X + modeWidth(o); right > nextX {
				nextX = right
			}
			if o.Mode != "" {
				totalHeight = maxInt(totalHeight, modeHeight(o))
			}
			continue
		}
		if len(free) == 0 || len(o.Modes) == 0 {
			continue
		}
		mode := o.Modes[0]
		crtc := free[0]
		free = free[1:]
		if _, err := s.provider.SetCrtcConfig(crtc, mode.Name, mode.Refresh, nextX, 0, Rotate0, []string{o.Name}); err != nil {
			return fmt.Errorf("monitors: auto-configuring %q: %w", o.Name, err)
		}
		nextX += modeWidthFor(mode)
	}
	return nil
}

// modeWidth/modeHeight report an already-placed output's current
// mode dimensions, parsed from its mode name when in the conventional
// "WxH" form, else zero.
func modeWidth(o Output) int  { w, _ := parseModeDims(o.Mode); return w }
func modeHeight(o Output) int { _, h := parseModeDims(o.Mode); return h }

func modeWidthFor(m Mode) int { w, _ := parseModeDims(m.Name); return w }

func parseModeDims(name string) (w, h int) {
	var width, height int
	if n, err := fmt.Sscanf(name, "%dx%d", &width, &height); err != nil || n != 2 {
		return 0, 0
	}
	return width, height
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
