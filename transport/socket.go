package transport

import (
	"net"
	"sync"

	"github.com/nomadproj/nomad/log"
)

// DefaultMTU is the default maximum datagram payload after IP/UDP headers.
const DefaultMTU = 1200

// inboundQueueSize bounds the socket's inbound datagram queue; the
// recvLoop drops the newest arrival on overflow so a single flooded
// connection cannot starve delivery to others sharing the socket.
const inboundQueueSize = 256

// Datagram is one inbound UDP packet with its source address.
type Datagram struct {
	Data []byte
	Addr *net.UDPAddr
}

// SocketConfig configures a Socket. BindAddr is required; all other fields
// have defaults.
type SocketConfig struct {
	BindAddr        string
	ReadBufferSize  int
	WriteBufferSize int
	IPv6Only        bool
	MTU             int
}

func (c *SocketConfig) defaults() {
	if c.MTU <= 0 {
		c.MTU = DefaultMTU
	}
}

// Socket is an async, non-blocking UDP socket wrapper (§4.9). Reads happen
// on a background goroutine and are delivered via Inbound(); SendTo and
// Close do not block on I/O readiness. The wrapper owns the underlying file
// descriptor and releases it deterministically in Close.
type Socket struct {
	conn *net.UDPConn
	mtu  int

	recvCh chan Datagram
	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	log *log.Logger
}

// NewSocket binds a UDP socket per cfg and starts its receive loop.
func NewSocket(cfg SocketConfig) (*Socket, error) {
	cfg.defaults()

	network := "udp"
	if cfg.IPv6Only {
		network = "udp6"
	}

	laddr, err := net.ResolveUDPAddr(network, cfg.BindAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	if cfg.ReadBufferSize > 0 {
		_ = conn.SetReadBuffer(cfg.ReadBufferSize)
	}
	if cfg.WriteBufferSize > 0 {
		_ = conn.SetWriteBuffer(cfg.WriteBufferSize)
	}

	s := &Socket{
		conn:   conn,
		mtu:    cfg.MTU,
		recvCh: make(chan Datagram, inboundQueueSize),
		closed: make(chan struct{}),
		log:    log.Default().Module("socket"),
	}
	s.wg.Add(1)
	go s.recvLoop()
	return s, nil
}

// LocalAddr returns the socket's bound local address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Inbound returns the channel of received datagrams. A server demultiplexer
// selects on this alongside per-connection timers.
func (s *Socket) Inbound() <-chan Datagram { return s.recvCh }

// SendTo writes b to addr. It enforces the configured MTU; oversized
// datagrams are rejected rather than fragmented (fragmentation is out of
// scope).
func (s *Socket) SendTo(addr *net.UDPAddr, b []byte) error {
	if len(b) > s.mtu {
		return ErrOversized
	}
	_, err := s.conn.WriteToUDP(b, addr)
	if err != nil {
		select {
		case <-s.closed:
			return ErrClosed
		default:
		}
		return err // Transient: caller retries on next scheduling tick.
	}
	return nil
}

// Close releases the socket. Safe to call more than once.
func (s *Socket) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	s.wg.Wait()
	return err
}

func (s *Socket) recvLoop() {
	defer s.wg.Done()
	buf := make([]byte, 65535)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			s.log.Debug("recv error", "err", err)
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case s.recvCh <- Datagram{Data: data, Addr: addr}:
		case <-s.closed:
			return
		default:
			// Drop-newest on overflow: preserve liveness under floods
			// rather than blocking the receive loop.
			s.log.Debug("inbound queue full, dropping datagram", "from", addr)
		}
	}
}
