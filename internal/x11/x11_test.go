package x11

import "testing"

func TestParseDisplayUnixSocket(t *testing.T) {
	network, address, screen, err := parseDisplay(":1.2")
	if err != nil {
		t.Fatal(err)
	}
	if network != "unix" || address != "/tmp/.X11-unix/X1" || screen != 2 {
		t.Errorf("got (%q, %q, %d)", network, address, screen)
	}
}

func TestParseDisplayTCP(t *testing.T) {
	network, address, screen, err := parseDisplay("example.org:0.0")
	if err != nil {
		t.Fatal(err)
	}
	if network != "tcp" || address != "example.org:6000" || screen != 0 {
		t.Errorf("got (%q, %q, %d)", network, address, screen)
	}
}

func TestParseDisplayEmpty(t *testing.T) {
	if _, _, _, err := parseDisplay(""); err == nil {
		t.Error("expected error for empty display")
	}
}

func TestParseResourceText(t *testing.T) {
	data := "Xft.dpi:\t96\nNet.themeName: Adwaita\n\nmalformed-line\n"
	values, order := parseResourceText(data)
	if values["Xft.dpi"] != "96" {
		t.Errorf(`values["Xft.dpi"] = %q`, values["Xft.dpi"])
	}
	if values["Net.themeName"] != "Adwaita" {
		t.Errorf(`values["Net.themeName"] = %q`, values["Net.themeName"])
	}
	if len(order) != 2 || order[0] != "Xft.dpi" || order[1] != "Net.themeName" {
		t.Errorf("order = %v", order)
	}
}

func TestPad4(t *testing.T) {
	cases := map[int]int{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 13: 3}
	for n, want := range cases {
		if got := pad4(n); got != want {
			t.Errorf("pad4(%d) = %d, want %d", n, got, want)
		}
	}
}
