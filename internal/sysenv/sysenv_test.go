package sysenv_test

import (
	"strings"
	"testing"

	"github.com/pekwm/pekwm-sys/internal/sysenv"
)

func TestWithPathPrefixesExistingPath(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	env := sysenv.WithPath("/opt/pekwm/bin")
	found := false
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			found = true
			if kv != "PATH=/opt/pekwm/bin:/usr/bin" {
				t.Errorf("PATH entry = %q", kv)
			}
		}
	}
	if !found {
		t.Fatal("no PATH entry found in snapshot")
	}
}

func TestWithPathEmptyReturnsPlainSnapshot(t *testing.T) {
	t.Setenv("PEKWM_TEST_MARKER", "1")
	env := sysenv.WithPath("")
	found := false
	for _, kv := range env {
		if kv == "PEKWM_TEST_MARKER=1" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected marker var to survive an empty-prefix snapshot")
	}
}

func TestWithOverridesSetsAndAppends(t *testing.T) {
	t.Setenv("PEKWM_SYS_TIMEOFDAY", "day")
	env := sysenv.WithOverrides(map[string]string{
		"PEKWM_SYS_TIMEOFDAY": "night",
		"PEKWM_SYS_NEW_VAR":   "hello",
	})
	values := map[string]string{}
	for _, kv := range env {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			values[kv[:idx]] = kv[idx+1:]
		}
	}
	if values["PEKWM_SYS_TIMEOFDAY"] != "night" {
		t.Errorf("override did not replace existing var: %v", values["PEKWM_SYS_TIMEOFDAY"])
	}
	if values["PEKWM_SYS_NEW_VAR"] != "hello" {
		t.Errorf("override did not append new var: %v", values["PEKWM_SYS_NEW_VAR"])
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	a := sysenv.Snapshot()
	b := sysenv.Snapshot()
	if len(a) == 0 {
		t.Skip("no environment variables set")
	}
	a[0] = "MUTATED=true"
	if b[0] == "MUTATED=true" {
		t.Error("Snapshot must return independent copies")
	}
}
