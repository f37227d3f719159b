package gateway

import (
	"bytes"
	"testing"

	"github.com/jangala-dev/nodecore/wire"
)

func TestFramedWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	wr := newFramedWriter(&buf)
	if err := wr.writeFrame(tagData, []byte{1, 2, 3}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}
	if err := wr.writeFrame(tagPing, nil); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	rd := newFramedReader(&buf)
	tag, payload, err := rd.readFrame()
	if err != nil || tag != tagData || !bytes.Equal(payload, []byte{1, 2, 3}) {
		t.Fatalf("got tag=%d payload=%v err=%v", tag, payload, err)
	}
	tag, payload, err = rd.readFrame()
	if err != nil || tag != tagPing || len(payload) != 0 {
		t.Fatalf("got tag=%d payload=%v err=%v", tag, payload, err)
	}
}

func TestEncodeDecodeWireFrameRoundTrip(t *testing.T) {
	f := wire.Frame{ID: wire.MakeID(0x09, 0x07), Len: 4}
	copy(f.Payload[:], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	got, ok := decodeWireFrame(encodeWireFrame(f))
	if !ok {
		t.Fatalf("decodeWireFrame failed")
	}
	if got.ID != f.ID || got.Len != f.Len || got.Payload != f.Payload {
		t.Fatalf("got %+v, want %+v", got, f)
	}
}

func TestDecodeWireFrameRejectsMalformed(t *testing.T) {
	if _, ok := decodeWireFrame([]byte{1, 2}); ok {
		t.Fatalf("expected short payload to be rejected")
	}
	if _, ok := decodeWireFrame([]byte{0, 0, 9}); ok {
		t.Fatalf("expected Len > 8 to be rejected")
	}
}

func TestBridgeSendFailsWhenNotConnected(t *testing.T) {
	b := New(Config{Transport: TransportConfig{Type: "uart", UART: &UARTConfig{Baud: 115200}}})
	if err := b.Send(wire.Frame{}); err == nil {
		t.Fatalf("expected Send to fail before any link is established")
	}
	if _, ok, _ := b.Recv(); ok {
		t.Fatalf("expected Recv to report nothing pending")
	}
}

func TestNewTransportUnknownType(t *testing.T) {
	if _, err := newTransport(TransportConfig{Type: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected unknown transport type to error")
	}
}

func TestNewUARTTransportRequiresConfig(t *testing.T) {
	if _, err := newUARTTransport(TransportConfig{Type: "uart"}); err == nil {
		t.Fatalf("expected missing UART config to error")
	}
}
