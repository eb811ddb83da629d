package transport

import (
	"net"
	"testing"
	"time"
)

func TestSocket_SendRecvRoundTrip(t *testing.T) {
	a, err := NewSocket(SocketConfig{BindAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new socket a: %v", err)
	}
	defer a.Close()

	b, err := NewSocket(SocketConfig{BindAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new socket b: %v", err)
	}
	defer b.Close()

	bAddr := b.LocalAddr().(*net.UDPAddr)
	if err := a.SendTo(bAddr, []byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case dgram := <-b.Inbound():
		if string(dgram.Data) != "hello" {
			t.Fatalf("data = %q, want %q", dgram.Data, "hello")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}
}

func TestSocket_MTUEnforced(t *testing.T) {
	s, err := NewSocket(SocketConfig{BindAddr: "127.0.0.1:0", MTU: 16})
	if err != nil {
		t.Fatalf("new socket: %v", err)
	}
	defer s.Close()

	oversized := make([]byte, 17)
	if err := s.SendTo(s.LocalAddr().(*net.UDPAddr), oversized); err != ErrOversized {
		t.Fatalf("err = %v, want ErrOversized", err)
	}

	ok := make([]byte, 16)
	if err := s.SendTo(s.LocalAddr().(*net.UDPAddr), ok); err != nil {
		t.Fatalf("send at exactly MTU: %v", err)
	}
}

func TestSocket_CloseIsIdempotentAndReleasesReader(t *testing.T) {
	s, err := NewSocket(SocketConfig{BindAddr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("new socket: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got: %v", err)
	}
}

func TestSocket_DefaultMTU(t *testing.T) {
	var cfg SocketConfig
	cfg.defaults()
	if cfg.MTU != DefaultMTU {
		t.Fatalf("default MTU = %d, want %d", cfg.MTU, DefaultMTU)
	}
}
