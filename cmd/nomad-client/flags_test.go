package main

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.MTU != 1200 {
		t.Errorf("MTU = %d, want 1200", cfg.MTU)
	}
	if cfg.Message != "hello nomad" {
		t.Errorf("Message = %q, want %q", cfg.Message, "hello nomad")
	}
	if cfg.ServerAddr != "" || cfg.PSK != "" || cfg.Verbose {
		t.Error("ServerAddr, PSK, and Verbose should be zero-valued by default")
	}
}

func TestNewFlagSet_Overrides(t *testing.T) {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	err := fs.Parse([]string{
		"--server", "127.0.0.1:4433",
		"--psk", "secret",
		"--mtu", "900",
		"--message", "ping",
		"--verbose",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ServerAddr != "127.0.0.1:4433" {
		t.Errorf("ServerAddr = %q, want 127.0.0.1:4433", cfg.ServerAddr)
	}
	if cfg.Message != "ping" {
		t.Errorf("Message = %q, want ping", cfg.Message)
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
