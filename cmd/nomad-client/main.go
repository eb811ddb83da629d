// Command nomad-client sends one message to a nomad-server and waits for it
// to be echoed back, exercising the full transport pipeline end to end:
// paced sending, AEAD authentication, anti-replay, and RTT sampling.
//
// Usage:
//
//	nomad-client --server host:port --psk <shared secret> [--message text]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomadproj/nomad/aead"
	"github.com/nomadproj/nomad/cmd/internal/psk"
	"github.com/nomadproj/nomad/log"
	"github.com/nomadproj/nomad/transport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stdout, "error: %v\n", err)
		return 2
	}
	if cfg.ServerAddr == "" || cfg.PSK == "" {
		fmt.Fprintln(stdout, "error: --server and --psk are required")
		return 2
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log.SetDefault(log.New(level))
	logger := log.Default().Module("nomad-client")

	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		logger.Error("resolve server address failed", "addr", cfg.ServerAddr, "err", err)
		return 1
	}

	sock, err := transport.NewSocket(transport.SocketConfig{BindAddr: "0.0.0.0:0", MTU: cfg.MTU})
	if err != nil {
		logger.Error("bind failed", "err", err)
		return 1
	}
	defer sock.Close()

	toServerKey, toClientKey := psk.DeriveKeys(cfg.PSK)
	sessionID := transport.SessionID(psk.DeriveSessionID(cfg.PSK))

	cipher := aead.New()
	if err := cipher.InstallKeys(toServerKey, toClientKey); err != nil {
		logger.Error("install keys failed", "err", err)
		return 1
	}

	conn := transport.NewConn(sessionID, cipher, nil)
	if err := conn.HandshakeComplete(); err != nil {
		logger.Error("handshake complete failed", "err", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := conn.Submit([]byte(cfg.Message)); err != nil {
		logger.Error("submit failed", "err", err)
		return 1
	}

	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if payload, ok := conn.PollRecv(); ok {
					fmt.Fprintf(stdout, "echoed: %s\n", payload)
					srtt, _, _ := conn.RTTSnapshot()
					logger.Info("round trip complete", "srtt", time.Duration(srtt).String())
					cancel()
					return
				}
			}
		}
	}()

	if err := transport.RunConn(ctx, sock, conn, serverAddr); err != nil && ctx.Err() == nil {
		logger.Error("connection driver exited", "err", err)
		return 1
	}

	return 0
}
