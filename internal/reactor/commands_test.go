package reactor

import (
	"testing"

	"github.com/pekwm/pekwm-sys/internal/sysconfig"
)

func TestParseHexColorSixDigits(t *testing.T) {
	c, err := parseHexColor("#336699")
	if err != nil {
		t.Fatal(err)
	}
	if c.R != 0x3333 || c.G != 0x6666 || c.B != 0x9999 || c.A != 0xffff {
		t.Errorf("got %+v", c)
	}
}

func TestParseHexColorEightDigitsWithAlpha(t *testing.T) {
	c, err := parseHexColor("#33669980")
	if err != nil {
		t.Fatal(err)
	}
	if c.A != 0x8080 {
		t.Errorf("alpha = %#x", c.A)
	}
}

func TestParseHexColorRejectsMalformed(t *testing.T) {
	if _, err := parseHexColor("#zz6699"); err == nil {
		t.Error("expected error for non-hex digits")
	}
}

func TestParseHexColorRejectsShortInput(t *testing.T) {
	if _, err := parseHexColor("#FF"); err == nil {
		t.Error("expected error for short input, got none")
	}
}

func TestParseModeNameCaseInsensitive(t *testing.T) {
	mode, ok := parseModeName("DUSK")
	if !ok || mode != sysconfig.TimeOfDayDusk {
		t.Errorf("got (%v, %v)", mode, ok)
	}
}

func TestNextModeCyclesThroughAllFourPhases(t *testing.T) {
	mode := sysconfig.TimeOfDayDawn
	seen := map[sysconfig.TimeOfDayMode]bool{}
	for i := 0; i < 4; i++ {
		seen[mode] = true
		mode = nextMode(mode)
	}
	if mode != sysconfig.TimeOfDayDawn {
		t.Errorf("cycle did not return to Dawn, got %v", mode)
	}
	if len(seen) != 4 {
		t.Errorf("cycle did not visit all four phases: %v", seen)
	}
}

func TestParseModeName(t *testing.T) {
	mode, ok := parseModeName("Dusk")
	if !ok || mode != sysconfig.TimeOfDayDusk {
		t.Errorf("got (%v, %v)", mode, ok)
	}
	if _, ok := parseModeName("Whenever"); ok {
		t.Error("expected false for unrecognised name")
	}
}
