package main

import "testing"

func TestEncodeSimpleVerbs(t *testing.T) {
	cases := map[string]string{
		"exit":     "Exit",
		"reload":   "Reload",
		"mon-load": "MonLoad",
		"mon-save": "MonSave",
		"xsave":    "XSave",
	}
	for subcommand, want := range cases {
		got, err := encode(subcommand, nil)
		if err != nil {
			t.Fatalf("%s: %v", subcommand, err)
		}
		if got != want {
			t.Errorf("%s: got %q, want %q", subcommand, got, want)
		}
	}
}

func TestEncodeArgumentVerbs(t *testing.T) {
	got, err := encode("theme", []string{"/home/u/.pekwm/themes/dark/theme"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "Theme /home/u/.pekwm/themes/dark/theme"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, err = encode("xset-color", []string{"Net/BgColor", "#112233"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "XSetColor Net/BgColor #112233"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeRejectsWrongArgCount(t *testing.T) {
	if _, err := encode("theme", nil); err == nil {
		t.Error("expected error for missing path argument")
	}
	if _, err := encode("xset", []string{"only-one"}); err == nil {
		t.Error("expected error for xset with one argument")
	}
}

func TestEncodeRejectsUnknownSubcommand(t *testing.T) {
	if _, err := encode("whatever", nil); err == nil {
		t.Error("expected error for unrecognised subcommand")
	}
}

func TestFrameLengthPrefix(t *testing.T) {
	buf := frame("Exit")
	if len(buf) != 4+len("Exit") {
		t.Fatalf("unexpected frame length %d", len(buf))
	}
}
