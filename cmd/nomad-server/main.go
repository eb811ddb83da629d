// Command nomad-server runs a single-peer NOMAD echo server: it accepts one
// client, completes a passphrase-derived stand-in for the handshake (the
// handshake protocol itself is an external component, out of scope for the
// transport core), and echoes every payload it receives back to the sender
// over the paced, authenticated, anti-replay-protected transport.
//
// Usage:
//
//	nomad-server --psk <shared secret> [--addr host:port] [--mtu bytes]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nomadproj/nomad/aead"
	"github.com/nomadproj/nomad/cmd/internal/psk"
	"github.com/nomadproj/nomad/log"
	"github.com/nomadproj/nomad/metrics"
	"github.com/nomadproj/nomad/transport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run is the testable entry point: it parses flags, wires the transport
// core, and blocks until ctx is canceled by SIGINT/SIGTERM.
func run(args []string, stdout io.Writer) int {
	cfg := defaultConfig()
	fs := newFlagSet(&cfg)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stdout, "error: %v\n", err)
		return 2
	}
	if cfg.PSK == "" {
		fmt.Fprintln(stdout, "error: --psk is required")
		return 2
	}

	level := levelFor(cfg.Verbose)
	log.SetDefault(log.New(level))
	logger := log.Default().Module("nomad-server")

	reg := prometheus.NewRegistry()
	mset := metrics.NewSet(reg)
	go serveMetrics(reg, logger)

	tcfg := transport.Config{
		MTU:          cfg.MTU,
		MinRTO:       transport.MinRTO,
		MaxRTO:       transport.MaxRTO,
		MaxFrameRate: transport.MaxFrameRate,
	}
	logger.Info("starting nomad-server",
		"addr", cfg.Addr, "mtu", tcfg.MTU,
		"min_rto", tcfg.MinRTO, "max_rto", tcfg.MaxRTO, "max_frame_rate", tcfg.MaxFrameRate)

	sock, err := transport.NewSocket(transport.SocketConfig{BindAddr: cfg.Addr, MTU: tcfg.MTU})
	if err != nil {
		logger.Error("bind failed", "addr", cfg.Addr, "err", err)
		return 1
	}
	defer sock.Close()

	logger.Info("listening", "addr", sock.LocalAddr().String())

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// Wait for the first datagram to learn the client's address; this
	// stands in for a real handshake's address binding.
	var firstDgram transport.Datagram
	select {
	case firstDgram = <-sock.Inbound():
	case <-ctx.Done():
		return 0
	}

	toServerKey, toClientKey := psk.DeriveKeys(cfg.PSK)
	sessionID := transport.SessionID(psk.DeriveSessionID(cfg.PSK))

	cipher := aead.New()
	if err := cipher.InstallKeys(toClientKey, toServerKey); err != nil {
		logger.Error("install keys failed", "err", err)
		return 1
	}

	conn := transport.NewConn(sessionID, cipher, mset)
	if err := conn.HandshakeComplete(); err != nil {
		logger.Error("handshake complete failed", "err", err)
		return 1
	}

	if _, err := conn.HandleInbound(time.Now(), firstDgram.Addr, firstDgram.Data); err != nil {
		logger.Error("first datagram rejected", "err", err)
		return 1
	}

	go echoLoop(ctx, conn, logger)

	if err := transport.RunConn(ctx, sock, conn, firstDgram.Addr); err != nil && ctx.Err() == nil {
		logger.Error("connection driver exited", "err", err)
		return 1
	}

	logger.Info("shutdown complete")
	return 0
}

// echoLoop resubmits every delivered payload back to the peer.
func echoLoop(ctx context.Context, conn *transport.Conn, logger *log.Logger) {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				payload, ok := conn.PollRecv()
				if !ok {
					break
				}
				if err := conn.Submit(payload); err != nil {
					logger.Debug("echo submit dropped", "err", err)
				}
			}
		}
	}
}

func serveMetrics(reg *prometheus.Registry, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe("127.0.0.1:9433", mux); err != nil {
		logger.Debug("metrics server stopped", "err", err)
	}
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
