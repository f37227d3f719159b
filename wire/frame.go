// Package wire implements the two-wire addressed frame bus linking nodes:
// frame layout, the Message codec, and a bounded-queue transport with the
// three backpressure policies of spec.md §4.4. Grounded on the teacher's
// services/bridge (transport/backoff/framing discipline) and x/shmring
// (bounded ring index arithmetic), adapted here to a typed Frame ring rather
// than a byte ring.
package wire

// Broadcast is the reserved node address meaning "every node".
const Broadcast uint8 = 0x3F

// Frame is one physical unit on the bus: an 11-bit identifier and up to 8
// payload bytes.
type Frame struct {
	ID      uint16
	Payload [8]byte
	Len     uint8
}

// MakeID packs a 5-bit message type and 6-bit node address into the 11-bit
// identifier (spec.md §6: id = msg_type<<6 | node_addr).
func MakeID(msgType uint8, nodeAddr uint8) uint16 {
	return uint16(msgType&0x1F)<<6 | uint16(nodeAddr&0x3F)
}

// MsgType extracts the 5-bit message type from a frame identifier.
func (f Frame) MsgType() uint8 { return uint8(f.ID >> 6 & 0x1F) }

// NodeAddr extracts the 6-bit node address from a frame identifier.
func (f Frame) NodeAddr() uint8 { return uint8(f.ID & 0x3F) }
