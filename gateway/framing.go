package gateway

import (
	"fmt"
	"io"

	"github.com/jangala-dev/nodecore/wire"
)

// Link-level frame tags, mirroring bridge.go's framePing/framePong/
// frameClose constants with a single data tag replacing its
// framePub/frameSub/frameUnsub/frameAck family (there is exactly one
// payload shape to tunnel here: a wire.Frame).
const (
	tagData  byte = 0x01
	tagPing  byte = 0x02
	tagPong  byte = 0x03
	tagClose byte = 0x7f
)

// framedReader and framedWriter implement the same length-prefixed framing
// as bridge.go's framedReader/framedWriter: a 1-byte tag, a 2-byte
// big-endian length, and that many payload bytes.
type framedReader struct{ r io.Reader }
type framedWriter struct{ w io.Writer }

func newFramedReader(r io.Reader) *framedReader { return &framedReader{r: r} }
func newFramedWriter(w io.Writer) *framedWriter { return &framedWriter{w: w} }

func (fr *framedReader) readFrame() (byte, []byte, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(fr.r, hdr[:]); err != nil {
		return 0, nil, err
	}
	tag := hdr[0]
	n := int(hdr[1])<<8 | int(hdr[2])
	var buf []byte
	if n > 0 {
		buf = make([]byte, n)
		if _, err := io.ReadFull(fr.r, buf); err != nil {
			return 0, nil, err
		}
	}
	return tag, buf, nil
}

func (fw *framedWriter) writeFrame(tag byte, payload []byte) error {
	if len(payload) > 0xFFFF {
		return fmt.Errorf("gateway: frame too large: %d", len(payload))
	}
	hdr := [3]byte{tag, byte(len(payload) >> 8), byte(len(payload) & 0xFF)}
	if _, err := fw.w.Write(hdr[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		_, err := fw.w.Write(payload)
		return err
	}
	return nil
}

// encodeWireFrame serializes a wire.Frame as 2-byte ID + 1-byte Len + Len
// payload bytes, the tunneled-frame payload carried inside a tagData frame.
func encodeWireFrame(f wire.Frame) []byte {
	out := make([]byte, 3+f.Len)
	out[0] = byte(f.ID >> 8)
	out[1] = byte(f.ID)
	out[2] = f.Len
	copy(out[3:], f.Payload[:f.Len])
	return out
}

// decodeWireFrame is encodeWireFrame's inverse; ok is false for a malformed
// payload (short read, Len beyond 8), which the caller drops uncounted.
func decodeWireFrame(p []byte) (wire.Frame, bool) {
	if len(p) < 3 {
		return wire.Frame{}, false
	}
	id := uint16(p[0])<<8 | uint16(p[1])
	n := p[2]
	if n > 8 || len(p) < 3+int(n) {
		return wire.Frame{}, false
	}
	var f wire.Frame
	f.ID, f.Len = id, n
	copy(f.Payload[:n], p[3:3+n])
	return f, true
}
