package main

import "flag"

// config holds the server's resolved CLI configuration.
type config struct {
	Addr    string
	PSK     string
	MTU     int
	Verbose bool
}

func defaultConfig() config {
	return config{
		Addr: "0.0.0.0:4433",
		MTU:  1200,
	}
}

// newFlagSet binds all CLI flags to cfg. ContinueOnError lets callers
// control error handling instead of the flag package exiting the process,
// which keeps run testable.
func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("nomad-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "UDP address to bind")
	fs.StringVar(&cfg.PSK, "psk", cfg.PSK, "shared passphrase standing in for a completed handshake (required)")
	fs.IntVar(&cfg.MTU, "mtu", cfg.MTU, "maximum outbound datagram size")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
	return fs
}
