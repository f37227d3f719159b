// Package gateway tunnels wire.Frame traffic to and from a host over a
// serial-over-USB link, active only on the one node configured as the bus's
// gateway. Grounded on the teacher's services/bridge package: the same
// dial/backoff/reconnect supervision and length-prefixed framing, retargeted
// from generic bus-topic JSON forwarding to carrying wire.Frame directly so
// Bridge can stand in as the gateway node's own wire.Transceiver.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jangala-dev/nodecore/wire"
)

// LinkLevel is the closed set of link health states Bridge reports, matching
// the teacher's bridge.Service idle/degraded/up/error status topic.
type LinkLevel uint8

const (
	LinkIdle LinkLevel = iota
	LinkDegraded
	LinkUp
	LinkError
)

// String renders LinkLevel the way the teacher's status payload spelled it
// as a topic string.
func (l LinkLevel) String() string {
	switch l {
	case LinkIdle:
		return "idle"
	case LinkDegraded:
		return "degraded"
	case LinkUp:
		return "up"
	case LinkError:
		return "error"
	default:
		return "unknown"
	}
}

// LinkEvent is one link-state transition: the new level, a short machine
// status tag, and the triggering error, if any.
type LinkEvent struct {
	Level  LinkLevel
	Status string
	Err    error
}

// Config is the gateway link configuration.
type Config struct {
	Transport TransportConfig
}

// TransportConfig names the concrete link type. "uart" is built in; other
// names may be added via RegisterTransport.
type TransportConfig struct {
	Type string
	UART *UARTConfig
}

// UARTConfig carries enough information for an injected TinyGo dialer to
// open the UART; the pin mapping and UART instance selection happen in the
// injected UARTDial, matching the teacher's split between bridge.UARTConfig
// and its platform-supplied UARTDial.
type UARTConfig struct {
	Baud           int
	RxPin          int
	TxPin          int
	ReadTimeoutMS  int
	WriteTimeoutMS int
}

// Transport is a pluggable link dialer, mirroring bridge.Transport.
type Transport interface {
	Open(ctx context.Context) (io.ReadWriteCloser, error)
	String() string
}

type transportFactory func(TransportConfig) (Transport, error)

var (
	regMu    sync.RWMutex
	registry = map[string]transportFactory{}
)

// RegisterTransport adds a named transport factory (e.g. "tcp" for bench
// harnesses), matching bridge.RegisterTransport.
func RegisterTransport(name string, f transportFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func newTransport(cfg TransportConfig) (Transport, error) {
	regMu.RLock()
	f, ok := registry[cfg.Type]
	regMu.RUnlock()
	if ok {
		return f(cfg)
	}
	switch cfg.Type {
	case "uart":
		return newUARTTransport(cfg)
	default:
		return nil, fmt.Errorf("gateway: unknown transport type %q", cfg.Type)
	}
}

// UARTDial is injected by platform code, opening the configured UART as a
// raw byte stream. Matches bridge.UARTDial's injection point exactly.
var UARTDial func(ctx context.Context, u UARTConfig) (io.ReadWriteCloser, error)

type uartTransport struct{ cfg TransportConfig }

func newUARTTransport(cfg TransportConfig) (Transport, error) {
	if cfg.UART == nil {
		return nil, errors.New("gateway: uart transport requires uart config")
	}
	return &uartTransport{cfg: cfg}, nil
}

func (u *uartTransport) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if UARTDial == nil {
		return nil, errors.New("gateway: UARTDial not set")
	}
	return UARTDial(ctx, *u.cfg.UART)
}

func (u *uartTransport) String() string { return "uart" }

// inQueueLen bounds Bridge's RX fan-in from the link reader goroutine to
// Recv(), the same non-blocking-producer discipline as scan.Scanner's
// Events() channel.
const inQueueLen = 64

// statesQueueLen is the depth of Bridge's link-state channel: a single slot
// holding only the latest transition, same rationale as corectl's
// statusUpdates channel.
const statesQueueLen = 1

// Bridge is a wire.Transceiver backed by a supervised serial link: Send
// writes directly to the current connection, Recv pops from a channel fed
// by a background reader goroutine, so neither blocks the Bus.Pump caller
// for longer than one non-blocking operation.
type Bridge struct {
	cfg Config

	mu sync.Mutex
	wr *framedWriter
	up bool

	in     chan wire.Frame
	drops  uint32
	states chan LinkEvent
}

// New builds a Bridge over cfg. Its link-state transitions are available
// through States, the same idle/degraded/up/error sequence the teacher's
// bridge.Service publishes.
func New(cfg Config) *Bridge {
	return &Bridge{
		cfg:    cfg,
		in:     make(chan wire.Frame, inQueueLen),
		states: make(chan LinkEvent, statesQueueLen),
	}
}

// Start launches the supervised link as a background goroutine and returns
// immediately, matching bridge.Start's "runs until ctx is cancelled" shape
// but handing back the Bridge so it can be wired as a wire.Transceiver.
func Start(ctx context.Context, cfg Config) *Bridge {
	b := New(cfg)
	go b.run(ctx)
	return b
}

// States exposes link-state transitions as they happen. The channel holds
// only the latest transition; a slow or absent reader never blocks the
// supervisor goroutine.
func (b *Bridge) States() <-chan LinkEvent { return b.states }

// Drops reports frames dropped because Recv() wasn't drained in time.
func (b *Bridge) Drops() uint32 { return b.drops }

// Send implements wire.Transceiver: writes f to the current link connection,
// or fails if no connection is currently up (the supervisor redials in the
// background; a wire.Bus pumping through this Bridge drops f and counts it
// in CanDrop).
func (b *Bridge) Send(f wire.Frame) error {
	b.mu.Lock()
	wr, up := b.wr, b.up
	b.mu.Unlock()
	if !up {
		return errNotConnected
	}
	return wr.writeFrame(tagData, encodeWireFrame(f))
}

// Recv implements wire.Transceiver: a non-blocking pop of one frame already
// decoded by the background reader.
func (b *Bridge) Recv() (wire.Frame, bool, error) {
	select {
	case f := <-b.in:
		return f, true, nil
	default:
		return wire.Frame{}, false, nil
	}
}

var errNotConnected = errors.New("gateway: link not connected")

// run supervises the link for the Bridge's lifetime: dial, pump, and on any
// failure back off and redial, exactly the teacher's runLink/backoffSeq
// shape (services/bridge/bridge.go), retargeted to wire.Frame tunneling.
func (b *Bridge) run(ctx context.Context) {
	tr, err := newTransport(b.cfg.Transport)
	if err != nil {
		b.publishState(LinkError, "transport_init_failed", err)
		return
	}

	backoff := backoffSeq(250*time.Millisecond, 5*time.Second)
	b.publishState(LinkIdle, "awaiting_link", nil)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rwc, err := tr.Open(ctx)
		if err != nil {
			delay := backoff()
			b.publishState(LinkDegraded, "dial_failed_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleepCtx(ctx, delay) {
				return
			}
			continue
		}

		b.publishState(LinkUp, "link_established", nil)
		if err := b.handleLink(ctx, rwc); err != nil {
			_ = rwc.Close()
			delay := backoff()
			b.publishState(LinkDegraded, "link_lost_retrying", fmt.Errorf("%v (retry in %s)", err, delay))
			if !sleepCtx(ctx, delay) {
				return
			}
			continue
		}
		return
	}
}

// handleLink owns one connection's lifetime: a reader goroutine decoding
// frames into b.in, and a ping/pong heartbeat on the caller's goroutine,
// mirroring bridge.Service.handleLink.
func (b *Bridge) handleLink(ctx context.Context, rwc io.ReadWriteCloser) error {
	rd := newFramedReader(rwc)
	wr := newFramedWriter(rwc)

	b.mu.Lock()
	b.wr, b.up = wr, true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.up = false
		b.mu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			tag, payload, err := rd.readFrame()
			if err != nil {
				errCh <- err
				return
			}
			switch tag {
			case tagData:
				f, ok := decodeWireFrame(payload)
				if !ok {
					continue
				}
				select {
				case b.in <- f:
				default:
					b.drops++
				}
			case tagPing:
				_ = wr.writeFrame(tagPong, nil)
			case tagPong:
				// RTT tracking not needed at this scope.
			case tagClose:
				errCh <- io.EOF
				return
			}
		}
	}()

	tick := time.NewTicker(5 * time.Second)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = wr.writeFrame(tagClose, nil)
			return nil
		case err := <-errCh:
			return err
		case <-tick.C:
			if err := wr.writeFrame(tagPing, nil); err != nil {
				return err
			}
		}
	}
}

// publishState is a non-blocking drain-and-overwrite send, the same latest-
// value-only idiom as corectl.Core.publishStatus.
func (b *Bridge) publishState(level LinkLevel, status string, err error) {
	select {
	case <-b.states:
	default:
	}
	b.states <- LinkEvent{Level: level, Status: status, Err: err}
}

// backoffSeq is the teacher's own doubling-capped backoff (distinct from
// wire.Bus's additive Wait-policy backoff, which serves a different
// purpose: spacing retries on a full local queue rather than spacing
// redials of a flaky external link).
func backoffSeq(min, max time.Duration) func() time.Duration {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max < min {
		max = min
	}
	cur := min
	return func() time.Duration {
		d := cur
		cur *= 2
		if cur > max {
			cur = max
		}
		return d
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
