package main

import "flag"

// config holds the client's resolved CLI configuration.
type config struct {
	ServerAddr string
	PSK        string
	MTU        int
	Message    string
	Verbose    bool
}

func defaultConfig() config {
	return config{
		MTU:     1200,
		Message: "hello nomad",
	}
}

func newFlagSet(cfg *config) *flag.FlagSet {
	fs := flag.NewFlagSet("nomad-client", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "server UDP address (required)")
	fs.StringVar(&cfg.PSK, "psk", cfg.PSK, "shared passphrase standing in for a completed handshake (required)")
	fs.IntVar(&cfg.MTU, "mtu", cfg.MTU, "maximum outbound datagram size")
	fs.StringVar(&cfg.Message, "message", cfg.Message, "payload to send and expect echoed back")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable debug logging")
	return fs
}
