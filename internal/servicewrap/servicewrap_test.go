package servicewrap

import "testing"

func TestConfigDefaults(t *testing.T) {
	sc := Config{}.toServiceConfig()
	if sc.Name != "pekwm_sys" {
		t.Errorf("Name = %q, want pekwm_sys", sc.Name)
	}
	if sc.DisplayName == "" || sc.Description == "" {
		t.Errorf("expected non-empty display name and description defaults")
	}
}

func TestConfigOverridesDefaults(t *testing.T) {
	sc := Config{Name: "custom", DisplayName: "Custom", Description: "desc", Arguments: []string{"-c", "/etc/pekwm"}}.toServiceConfig()
	if sc.Name != "custom" || sc.DisplayName != "Custom" || sc.Description != "desc" {
		t.Errorf("overrides not applied: %+v", sc)
	}
	if len(sc.Arguments) != 2 {
		t.Errorf("Arguments = %v, want 2 entries", sc.Arguments)
	}
}
