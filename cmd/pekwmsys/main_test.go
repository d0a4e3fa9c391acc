package main

import "testing"

func TestIsFlag(t *testing.T) {
	if !isFlag("-c") || !isFlag("--config") {
		t.Error("expected leading-dash arguments to be flags")
	}
	if isFlag("install") || isFlag("") {
		t.Error("expected non-dash arguments not to be flags")
	}
}
