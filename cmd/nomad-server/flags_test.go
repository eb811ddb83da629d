package main

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Addr != "0.0.0.0:4433" {
		t.Errorf("Addr = %q, want 0.0.0.0:4433", cfg.Addr)
	}
	if cfg.MTU != 1200 {
		t.Errorf("MTU = %d, want 1200", cfg.MTU)
	}
	if cfg.PSK != "" || cfg.Verbose {
		t.Error("PSK and Verbose should be zero-valued by default")
	}
}

func TestNewFlagSet_Overrides(t *testing.T) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	if err := fs.Parse([]string{"--addr", "127.0.0.1:9999", "--psk", "secret", "--mtu", "900", "--verbose"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %q, want 127.0.0.1:9999", cfg.Addr)
	}
	if cfg.PSK != "secret" {
		t.Errorf("PSK = %q, want secret", cfg.PSK)
	}
	if cfg.MTU != 900 {
		t.Errorf("MTU = %d, want 900", cfg.MTU)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be true")
	}
}

func TestNewFlagSet_UnknownFlagErrors(t *testing.T) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	if err := fs.Parse([]string{"--bogus"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
