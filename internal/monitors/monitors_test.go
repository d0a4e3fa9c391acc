package monitors_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/monitors"
)

type fakeProvider struct {
	res        monitors.ScreenResources
	configured []monitors.CrtcID
	disabled   []monitors.CrtcID
	screenSize [4]int
}

func (f *fakeProvider) ScreenResources() (monitors.ScreenResources, error) { return f.res, nil }

func (f *fakeProvider) SetCrtcConfig(crtc monitors.CrtcID, mode string, refresh float64, x, y int, rotation monitors.Rotation, outputs []string) (monitors.CrtcID, error) {
	f.configured = append(f.configured, crtc)
	for i, o := range f.res.Outputs {
		for _, name := range outputs {
			if o.Name == name {
				f.res.Outputs[i].Crtc = crtc
				f.res.Outputs[i].Mode = mode
				f.res.Outputs[i].Refresh = refresh
				f.res.Outputs[i].X, f.res.Outputs[i].Y = x, y
				f.res.Outputs[i].Rotation = rotation
			}
		}
	}
	return crtc, nil
}

func (f *fakeProvider) DisableCrtc(crtc monitors.CrtcID) error {
	f.disabled = append(f.disabled, crtc)
	return nil
}

func (f *fakeProvider) SetScreenSize(w, h, wmm, hmm int) error {
	f.screenSize = [4]int{w, h, wmm, hmm}
	return nil
}

func twoOutputResources() monitors.ScreenResources {
	return monitors.ScreenResources{
		WidthPx: 3840, HeightPx: 1080, WidthMM: 700, HeightMM: 250,
		Crtcs: []monitors.CrtcID{1, 2},
		Outputs: []monitors.Output{
			{
				Name: "DP-1", Connected: true, EDIDMD5: "aaa",
				Modes: []monitors.Mode{{Name: "1920x1080", Refresh: 60}},
			},
			{
				Name: "DP-2", Connected: true, EDIDMD5: "bbb",
				Modes: []monitors.Mode{{Name: "1920x1080", Refresh: 60}},
			},
		},
	}
}

func TestMkWithoutProviderReturnsSyntheticLayout(t *testing.T) {
	s := monitors.NewStore(nil)
	cfg, err := s.Mk()
	require.NoError(t, err)
	require.Len(t, cfg.Monitors, 1)
	assert.Equal(t, "X11", cfg.Monitors[0].Output)
}

func TestComputeIDStableAcrossUnrelatedOutputs(t *testing.T) {
	id1 := monitors.ComputeID([]monitors.Output{
		{Name: "DP-1", EDIDMD5: "aaa", Connected: true},
		{Name: "DP-2", EDIDMD5: "bbb", Connected: true},
	})
	id2 := monitors.ComputeID([]monitors.Output{
		{Name: "DP-1", EDIDMD5: "aaa", Connected: true},
		{Name: "DP-2", EDIDMD5: "bbb", Connected: true},
		{Name: "DP-3", EDIDMD5: "ccc", Connected: false},
	})
	assert.Equal(t, id1, id2)
}

func TestFindMatchesLiveOutputSet(t *testing.T) {
	provider := &fakeProvider{res: twoOutputResources()}
	s := monitors.NewStore(provider)
	live, err := s.Mk()
	require.NoError(t, err)
	s.Add(live)

	found, ok := s.Find()
	require.True(t, ok)
	assert.Equal(t, live.ID, found.ID)
}

func TestAutoConfigAssignsFreeCrtcsAndPlacesToTheRight(t *testing.T) {
	provider := &fakeProvider{res: twoOutputResources()}
	s := monitors.NewStore(provider)

	require.NoError(t, s.AutoConfig())

	require.ElementsMatch(t, []monitors.CrtcID{1, 2}, provider.configured)
	dp1 := findOutput(provider.res.Outputs, "DP-1")
	dp2 := findOutput(provider.res.Outputs, "DP-2")
	require.NotNil(t, dp1)
	require.NotNil(t, dp2)
	assert.Equal(t, 0, dp1.X)
	assert.Equal(t, 1920, dp2.X)
}

func TestApplyConfiguresCrtcsAndScreenSize(t *testing.T) {
	provider := &fakeProvider{res: twoOutputResources()}
	s := monitors.NewStore(provider)
	cfg := monitors.MonitorsConfig{
		WidthPx: 3840, HeightPx: 1080, WidthMM: 700, HeightMM: 250,
		Monitors: []monitors.MonitorConfig{
			{Output: "DP-1", Mode: "1920x1080", Refresh: 60, X: 0, Y: 0},
			{Output: "DP-2", Mode: "1920x1080", Refresh: 60, X: 1920, Y: 0},
		},
	}
	require.NoError(t, s.Apply(cfg))
	assert.Equal(t, [4]int{3840, 1080, 700, 250}, provider.screenSize)
	require.Len(t, provider.configured, 2)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	provider := &fakeProvider{res: twoOutputResources()}
	s := monitors.NewStore(provider)
	live, err := s.Mk()
	require.NoError(t, err)
	live.Monitors[0].Rotation = monitors.Rotate90
	s.Add(live)

	path := filepath.Join(t.TempDir(), "monitors.cfg")
	require.NoError(t, s.Save(path))

	loaded, err := monitors.Load(path, provider)
	require.NoError(t, err)
	all := loaded.All()
	require.Len(t, all, 1)
	assert.Equal(t, live.ID, all[0].ID)
	assert.Equal(t, live.WidthPx, all[0].WidthPx)
	require.Len(t, all[0].Monitors, 2)
	assert.Equal(t, monitors.Rotate90, all[0].Monitors[0].Rotation)
}

func findOutput(outputs []monitors.Output, name string) *monitors.Output {
	for i := range outputs {
		if outputs[i].Name == name {
			return &outputs[i]
		}
	}
	return nil
}
