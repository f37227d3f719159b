package wire

import "errors"

// ErrUnknownType is returned by Decode for an unrecognized message type; the
// caller drops the frame and bumps a counter rather than panicking
// (spec.md §7: protocol errors are dropped with a warning, never fatal).
var ErrUnknownType = errors.New("wire: unknown message type")

// ErrShortFrame is returned by Decode when a frame's payload is too short
// for its declared type.
var ErrShortFrame = errors.New("wire: frame too short for message type")

// MsgType is the 5-bit wire message type, per spec.md §6's table.
type MsgType uint8

const (
	TypeError            MsgType = 0x02
	TypeOutputChanged    MsgType = 0x04
	TypeInputChanged     MsgType = 0x05
	TypeSetOutput        MsgType = 0x08
	TypeTriggerInput     MsgType = 0x09
	TypeCallProcedure    MsgType = 0x0A
	TypeShutterCmd       MsgType = 0x0B
	TypeRequestStatus    MsgType = 0x0D
	TypeStatus           MsgType = 0x10
	TypeTimeAnnouncement MsgType = 0x11
	TypeInfo             MsgType = 0x12
	TypeStatusIO         MsgType = 0x13 // per-io status fan-out, not in the original wire table
	TypePong             MsgType = 0x1D
	TypePing             MsgType = 0x1E
)

// IOState is the tri/quad-state encoding shared by OutputChanged, SetOutput
// and StatusIO payloads.
type IOState uint8

const (
	StateOff IOState = iota
	StateOn
	StateToggle
	StateError
)

// Trigger mirrors package trigger's encoding for wire transport, kept as its
// own type so wire has no import dependency on trigger (spec.md §9's layered
// dependency rule: wire is depended on, it does not depend back).
type TriggerCode uint8

const (
	TrgShortClick TriggerCode = iota
	TrgLongClick
	TrgActivated
	TrgDeactivated
	TrgLongActivated
	TrgLongDeactivated
)

// ShutterCmdCode encodes the shutter command verb for ShutterCmd messages.
type ShutterCmdCode uint8

const (
	ShCmdGo          ShutterCmdCode = 0x01
	ShCmdOpen        ShutterCmdCode = 0x02
	ShCmdClose       ShutterCmdCode = 0x03
	ShCmdTilt        ShutterCmdCode = 0x04
	ShCmdTiltClose   ShutterCmdCode = 0x05
	ShCmdTiltOpen    ShutterCmdCode = 0x06
	ShCmdTiltHalf    ShutterCmdCode = 0x07
	ShCmdTiltReverse ShutterCmdCode = 0x08
	ShCmdSetIO       ShutterCmdCode = 0x10
)

// Message is the decoded, typed form of a Frame: a tagged union over the
// one field set matching its Type, mirroring the closed-variant style
// spec.md §9 calls for over interface dispatch.
type Message struct {
	Type MsgType

	ErrorCode uint32 // TypeError

	Out   uint8   // TypeOutputChanged, TypeSetOutput
	State IOState // TypeOutputChanged, TypeSetOutput, TypeStatusIO

	Input   uint8       // TypeInputChanged, TypeTriggerInput
	Trigger TriggerCode // TypeInputChanged, TypeTriggerInput

	Proc uint8 // TypeCallProcedure

	Shutter uint8          // TypeShutterCmd
	ShCmd   ShutterCmdCode // TypeShutterCmd
	A, B    uint8          // TypeShutterCmd

	Uptime  uint32 // TypeStatus
	Inputs  uint16 // TypeStatus
	Outputs uint16 // TypeStatus

	Year         uint16 // TypeTimeAnnouncement
	Month, Day   uint8
	Hour, Minute uint8
	Second, DOW  uint8

	InfoCode uint16 // TypeInfo
	InfoArg  uint32 // TypeInfo

	IO uint8 // TypeStatusIO: io index (output or input slot)

	Body uint16 // TypePing, TypePong
}

func u16le(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func u32le(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func putU16le(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putU32le(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// Encode produces the Frame for msg addressed to (nodeAddr). The payload
// layout for each type is little-endian and fixed-length per spec.md §6.
func Encode(msg Message, nodeAddr uint8) Frame {
	f := Frame{ID: MakeID(uint8(msg.Type), nodeAddr)}
	p := f.Payload[:]
	switch msg.Type {
	case TypeError:
		putU32le(p[0:4], msg.ErrorCode)
		f.Len = 4
	case TypeOutputChanged, TypeSetOutput:
		p[0], p[1] = msg.Out, byte(msg.State)
		f.Len = 2
	case TypeInputChanged, TypeTriggerInput:
		p[0], p[1] = msg.Input, byte(msg.Trigger)
		f.Len = 2
	case TypeCallProcedure:
		p[0] = msg.Proc
		f.Len = 1
	case TypeShutterCmd:
		p[0], p[1], p[2], p[3] = msg.Shutter, byte(msg.ShCmd), msg.A, msg.B
		f.Len = 7
	case TypeRequestStatus:
		f.Len = 0
	case TypeStatus:
		putU32le(p[0:4], msg.Uptime)
		putU16le(p[4:6], msg.Inputs)
		putU16le(p[6:8], msg.Outputs)
		f.Len = 8
	case TypeTimeAnnouncement:
		putU16le(p[0:2], msg.Year)
		p[2], p[3], p[4], p[5], p[6], p[7] = msg.Month, msg.Day, msg.Hour, msg.Minute, msg.Second, msg.DOW
		f.Len = 8
	case TypeInfo:
		putU16le(p[0:2], msg.InfoCode)
		putU32le(p[2:6], msg.InfoArg)
		f.Len = 6
	case TypeStatusIO:
		p[0], p[1] = msg.IO, byte(msg.State)
		f.Len = 2
	case TypePing, TypePong:
		putU16le(p[0:2], msg.Body)
		f.Len = 2
	}
	return f
}

// Decode parses a Frame's type and payload into a Message. Unknown types
// return ErrUnknownType; payloads shorter than the type's fixed length
// return ErrShortFrame. Both are non-fatal; the caller drops and counts.
func Decode(f Frame) (Message, error) {
	t := MsgType(f.MsgType())
	p := f.Payload[:f.Len]
	need := func(n int) error {
		if len(p) < n {
			return ErrShortFrame
		}
		return nil
	}
	m := Message{Type: t}
	switch t {
	case TypeError:
		if err := need(4); err != nil {
			return Message{}, err
		}
		m.ErrorCode = u32le(p)
	case TypeOutputChanged, TypeSetOutput:
		if err := need(2); err != nil {
			return Message{}, err
		}
		m.Out, m.State = p[0], IOState(p[1])
	case TypeInputChanged, TypeTriggerInput:
		if err := need(2); err != nil {
			return Message{}, err
		}
		m.Input, m.Trigger = p[0], TriggerCode(p[1])
	case TypeCallProcedure:
		if err := need(1); err != nil {
			return Message{}, err
		}
		m.Proc = p[0]
	case TypeShutterCmd:
		if err := need(4); err != nil {
			return Message{}, err
		}
		m.Shutter, m.ShCmd, m.A, m.B = p[0], ShutterCmdCode(p[1]), p[2], p[3]
	case TypeRequestStatus:
		// empty payload
	case TypeStatus:
		if err := need(8); err != nil {
			return Message{}, err
		}
		m.Uptime, m.Inputs, m.Outputs = u32le(p[0:4]), u16le(p[4:6]), u16le(p[6:8])
	case TypeTimeAnnouncement:
		if err := need(8); err != nil {
			return Message{}, err
		}
		m.Year = u16le(p[0:2])
		m.Month, m.Day, m.Hour, m.Minute, m.Second, m.DOW = p[2], p[3], p[4], p[5], p[6], p[7]
	case TypeInfo:
		if err := need(6); err != nil {
			return Message{}, err
		}
		m.InfoCode, m.InfoArg = u16le(p[0:2]), u32le(p[2:6])
	case TypeStatusIO:
		if err := need(2); err != nil {
			return Message{}, err
		}
		m.IO, m.State = p[0], IOState(p[1])
	case TypePing, TypePong:
		if err := need(2); err != nil {
			return Message{}, err
		}
		m.Body = u16le(p)
	default:
		return Message{}, ErrUnknownType
	}
	return m, nil
}
