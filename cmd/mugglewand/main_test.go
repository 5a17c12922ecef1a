package main

import (
	"testing"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("MUGGLEWAND_CONFIG", "/etc/mugglewand.yaml")

	opts, err := parseFlags([]string{"-replay", "wand.csv", "-loop", "-addr", ":9090", "-tray"})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.configPath != "/etc/mugglewand.yaml" {
		t.Errorf("configPath = %q, want the environment default", opts.configPath)
	}
	if opts.replay != "wand.csv" || !opts.loop {
		t.Errorf("replay = %q loop = %v", opts.replay, opts.loop)
	}
	if opts.addr != ":9090" || !opts.tray {
		t.Errorf("addr = %q tray = %v", opts.addr, opts.tray)
	}

	if _, err := parseFlags([]string{"-bogus"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

func TestListenURL(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080",
		"localhost:8080": "http://localhost:8080",
		"0.0.0.0:80":     "http://0.0.0.0:80",
	}
	for addr, want := range tests {
		if got := listenURL(addr); got != want {
			t.Errorf("listenURL(%q) = %q, want %q", addr, got, want)
		}
	}
}
