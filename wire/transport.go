package wire

import "time"

// Transceiver is the raw bus collaborator: one physical TX and one physical
// RX operation. Concrete bodies live in package platform; Bus never depends
// on the concrete driver, matching the teacher's transport/link split.
type Transceiver interface {
	Send(Frame) error
	Recv() (Frame, bool, error) // ok=false when nothing pending
}

// WhenFull selects Transmit's behavior when the TX queue has no room, per
// spec.md §4.4.
type WhenFull uint8

const (
	Drop WhenFull = iota
	Block
	Wait
)

// waitMinDelay and waitStep define the Wait policy's additive backoff:
// starting at ~600µs (one worst-case frame time at 250kbps plus margin) and
// stepping by 500µs, adapted from the teacher's bridge.backoffSeq shape but
// additive rather than multiplicative, per spec.md §4.4.
const (
	waitMinDelay = 600 * time.Microsecond
	waitStep     = 500 * time.Microsecond
	waitMaxTries = 8
)

// backoffSeq returns a generator of successive additive backoff delays,
// grounded on the teacher's bridge.backoffSeq closure shape.
func backoffSeq(min, step time.Duration) func() time.Duration {
	cur := min
	return func() time.Duration {
		d := cur
		cur += step
		return d
	}
}

// Bus wraps a Transceiver with bounded TX/RX queues and the transmit
// backpressure policies. The I²C-style short critical section spec.md §5
// requires is the tx mutex guarding only the try-push, never the retry
// sleep, matching "retry backoff is done outside the lock".
type Bus struct {
	tr        Transceiver
	tx        *queue
	rx        *queue
	canDrop   uint32
	rxErr     uint32
	unknown   uint32
	localAddr uint8

	sleep func(time.Duration) // overridable for tests
}

// NewBus builds a Bus over tr with empty TX/RX queues, addressed as local.
func NewBus(tr Transceiver) *Bus {
	return &Bus{tr: tr, tx: newQueue(), rx: newQueue(), sleep: time.Sleep}
}

// SetLocalAddr records this node's own address, used by ReceiveMessage to
// filter incoming traffic (spec.md §6); it never becomes the
// destination of an outgoing Send, since every message the VM originates
// (OutputChanged, InputChanged, StatusIO) is broadcast telemetry.
func (b *Bus) SetLocalAddr(addr uint8) { b.localAddr = addr }

// LocalAddr returns this node's configured address.
func (b *Bus) LocalAddr() uint8 { return b.localAddr }

// Send encodes msg addressed to Broadcast and transmits it under policy:
// the typed-message entry point the VM and core loop use for the telemetry
// broadcasts spec.md §4.6 names (OutputChanged, InputChanged, StatusIO),
// as opposed to Transmit's raw-Frame entry point used by Pump/platform
// code and SendTo's point-to-point entry point.
func (b *Bus) Send(msg Message, policy WhenFull) bool {
	return b.Transmit(Encode(msg, Broadcast), policy)
}

// SendTo encodes msg addressed to a specific node and transmits it under
// policy, for point-to-point requests (e.g. directing a ShutterCmd or
// CallProcedure at one peer) as opposed to Send's broadcast; nothing in
// this repository calls it yet.
func (b *Bus) SendTo(msg Message, dst uint8, policy WhenFull) bool {
	return b.Transmit(Encode(msg, dst), policy)
}

// UnknownTypeErrors reports the running count of frames dropped by
// ReceiveMessage because their msgType didn't decode (spec.md §7: protocol
// errors are dropped with a counter bump, never fatal).
func (b *Bus) UnknownTypeErrors() uint32 { return b.unknown }

// ReceiveMessage pops and decodes one frame from the RX queue, if any.
// Frames addressed to neither this node nor Broadcast are other nodes'
// traffic, skipped without a counter bump (spec.md §6's addressing filter).
// Malformed or unrecognized frames are dropped and counted, never returned.
func (b *Bus) ReceiveMessage() (Message, bool) {
	for {
		f, ok := b.rx.tryPop()
		if !ok {
			return Message{}, false
		}
		if dst := f.NodeAddr(); dst != b.localAddr && dst != Broadcast {
			continue
		}
		msg, err := Decode(f)
		if err != nil {
			b.unknown++
			continue
		}
		return msg, true
	}
}

// CanDrop reports the running count of frames dropped by Drop/Wait policies.
func (b *Bus) CanDrop() uint32 { return b.canDrop }

// Transmit enqueues raw for sending according to policy, returning whether
// it was (or will be) sent.
func (b *Bus) Transmit(raw Frame, policy WhenFull) bool {
	switch policy {
	case Block:
		for !b.tx.tryPush(raw) {
			b.drainTXOne()
		}
		return true

	case Wait:
		if b.tx.tryPush(raw) {
			return true
		}
		next := backoffSeq(waitMinDelay, waitStep)
		for i := 0; i < waitMaxTries; i++ {
			b.sleep(next())
			if b.tx.tryPush(raw) {
				return true
			}
		}
		b.canDrop++
		return false

	default: // Drop
		if b.tx.tryPush(raw) {
			return true
		}
		b.canDrop++
		return false
	}
}

// drainTXOne flushes one queued frame to the transceiver, used only by the
// Block policy (gateway bring-up) to make room without an unbounded spin.
func (b *Bus) drainTXOne() {
	f, ok := b.tx.tryPop()
	if !ok {
		return
	}
	_ = b.tr.Send(f)
}

// Pump drains the TX queue to the transceiver and the transceiver's pending
// RX into the RX queue. Intended to be called from the node's single I/O
// task on each scheduling turn.
func (b *Bus) Pump() {
	for {
		f, ok := b.tx.tryPop()
		if !ok {
			break
		}
		if err := b.tr.Send(f); err != nil {
			// Transient transport error: requeue once is unsafe (could
			// reorder), so the frame is dropped and counted.
			b.canDrop++
			break
		}
	}
	for {
		f, ok, err := b.tr.Recv()
		if err != nil {
			b.rxErr++
			break
		}
		if !ok {
			break
		}
		if !b.rx.tryPush(f) {
			b.rxErr++
		}
	}
}

// Receive pops one frame from the RX queue, if any.
func (b *Bus) Receive() (Frame, bool) { return b.rx.tryPop() }

// RXErrors reports the running count of RX overflow/error events.
func (b *Bus) RXErrors() uint32 { return b.rxErr }
