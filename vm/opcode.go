// Package vm is the stack-based opcode executor and binding engine: it
// loads a fixed, compile-time opcode program, runs procedure 0 once to
// install bindings and shutter wiring, then dispatches input triggers and
// remote commands against the binding table for the life of the node.
// Grounded on the teacher's services/hal/internal/core.HAL dispatch loop
// (devicecode-go/services/hal/internal/core/loop.go) and its generic
// As[T] payload-assertion helper (core/payload.go), adapted from a
// capability/device registry dispatch to a fixed opcode/binding dispatch.
package vm

import "github.com/jangala-dev/nodecore/wire"

// OpKind is the closed set of VM instructions (spec.md §4.6 + glossary),
// a tagged struct rather than an interface per spec.md §9.
type OpKind uint8

const (
	OpNoop OpKind = iota
	OpStart
	OpStop
	OpCall
	OpCallRegister
	OpSetReg

	OpActivateOutput
	OpDeactivateOutput
	OpToggleOutput
	OpShutterCmd

	OpLayerPush
	OpLayerPop
	OpLayerSet
	OpLayerDefault

	OpSendStatus

	OpBindShortCall
	OpBindLongCall
	OpBindActivateCall
	OpBindDeactivateCall
	OpBindLongActivate
	OpBindLongDeactivate
	OpBindShortToggle
	OpBindLongToggle
	OpBindLayerHold
	OpBindShutter
	OpBindClearAll
)

// Opcode is one instruction, at most a few bytes of payload (glossary).
type Opcode struct {
	Kind OpKind

	Proc  uint8 // OpStart, OpCall, Bind*Call family (target procedure)
	Reg   uint8 // OpCallRegister, OpSetReg
	Value uint8 // OpSetReg

	Out uint8 // OpActivateOutput/DeactivateOutput/ToggleOutput, BindShortToggle/LongToggle

	ShutterIdx uint8               // OpShutterCmd, BindShutter
	ShutterCmd wire.ShutterCmdCode // OpShutterCmd
	A, B       uint8               // OpShutterCmd, BindShutter (down, up)

	Layer uint8 // OpLayerPush/Set, BindLayerHold

	Input uint8 // Bind* family: input line this binding keys on
}
