package vm

import (
	"time"

	"github.com/jangala-dev/nodecore/errcode"
	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/trigger"
	"github.com/jangala-dev/nodecore/wire"
)

// OutputController is the narrow interface the VM drives outputs through.
// The IoIdx-to-physical-pin resolution lives outside vm (in outputs.Table,
// built from the board wiring under cmd/), matching spec.md §9's rule that domain packages see only
// interfaces for external collaborators.
type OutputController interface {
	Set(out uint8, on bool) error
	Toggle(out uint8) (on bool, err error)
}

// ShutterSender forwards shutter commands to the shutter manager.
type ShutterSender interface {
	Send(idx uint8, cmd shutter.Cmd)
}

// BusSender broadcasts a decoded Message with the given backpressure policy.
type BusSender interface {
	Send(msg wire.Message, policy wire.WhenFull) bool
}

// StatusEntry is one line item of a status broadcast.
type StatusEntry struct {
	IO    uint8
	State wire.IOState
}

// StatusProvider supplies the current output and input snapshots for
// SendStatus / RemoteStatusRequest, per spec.md §4.6.
type StatusProvider interface {
	OutputStates() []StatusEntry
	InputStates() []StatusEntry // StateError for inputs behind an offline expander
}

// statusGap is the pacing delay between successive StatusIO sends so a slow
// bus can drain (spec.md §4.6: "pacing with a 1ms gap between sends").
const statusGap = time.Millisecond

// callDepth is the fixed return-address stack depth (spec.md §4.6: "a
// fixed call stack of depth 3").
const callDepth = 3

// Engine is the VM executor: one Program, one binding table, one layer
// stack, one register file, dispatching against injected output/shutter/bus
// collaborators. Grounded on the teacher's core.HAL as the single owner of
// all dispatch state, single-threaded by construction.
type Engine struct {
	prog     *Program
	bindings bindingTable
	layers   layerStack
	regs     [32]byte

	callStack [callDepth]int32
	depth     int

	outputs  OutputController
	shutters ShutterSender
	bus      BusSender
	status   StatusProvider

	sleep func(time.Duration)

	errExpanderOutput uint32
}

// NewEngine builds an Engine over prog, wired to its external collaborators.
func NewEngine(prog *Program, outputs OutputController, shutters ShutterSender, bus BusSender, status StatusProvider) *Engine {
	return &Engine{
		prog:     prog,
		outputs:  outputs,
		shutters: shutters,
		bus:      bus,
		status:   status,
		sleep:    time.Sleep,
	}
}

// ErrExpanderOutput reports the running count of failed output writes.
func (e *Engine) ErrExpanderOutput() uint32 { return e.errExpanderOutput }

// Boot runs procedure 0 to completion, installing the program's bindings
// and shutter wiring, per spec.md §4.6: "Procedure 0 is executed
// immediately after load, providing the one-shot configuration."
func (e *Engine) Boot() {
	start, ok := e.prog.ProcStart(0)
	if !ok {
		return
	}
	e.run(start + 1)
}

// CallProcedure runs procedure p to completion (wire.TypeCallProcedure message
// / direct remote invocation).
func (e *Engine) CallProcedure(proc uint8) {
	start, ok := e.prog.ProcStart(proc)
	if !ok {
		return
	}
	e.run(start + 1)
}

// run executes opcodes starting at pc until the outermost Stop returns.
func (e *Engine) run(pc int32) {
	baseDepth := e.depth
	for {
		if int(pc) < 0 || int(pc) >= len(e.prog.Code) {
			e.depth = baseDepth
			return
		}
		op := e.prog.Code[pc]
		switch op.Kind {
		case OpStop:
			if e.depth <= baseDepth {
				return
			}
			e.depth--
			pc = e.callStack[e.depth]
			continue

		case OpCall:
			pc = e.doCall(pc, op.Proc)
			continue

		case OpCallRegister:
			pc = e.doCall(pc, e.regs[op.Reg])
			continue

		case OpSetReg:
			e.regs[op.Reg] = op.Value

		case OpNoop:
			// no-op

		case OpStart:
			// Control can only land on a Start marker if the program or the
			// engine is broken: every jump targets procStart+1 and every body
			// closes with a Stop before the next Start.
			panic(errcode.BadProgram)

		case OpActivateOutput:
			e.doOutput(CmdActivateOutput, op.Out)
		case OpDeactivateOutput:
			e.doOutput(CmdDeactivateOutput, op.Out)
		case OpToggleOutput:
			e.doOutput(CmdToggleOutput, op.Out)

		case OpShutterCmd:
			e.shutters.Send(op.ShutterIdx, shutterCmdFromOp(op))

		case OpLayerPush:
			e.layers.Push(op.Layer)
		case OpLayerPop:
			e.layers.Pop()
		case OpLayerSet:
			e.layers.Set(op.Layer)
		case OpLayerDefault:
			e.layers.Default()

		case OpSendStatus:
			e.SendStatus()

		case OpBindShortCall:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.ShortClick, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindLongCall:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.LongClick, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindActivateCall:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.Activated, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindDeactivateCall:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.Deactivated, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindLongActivate:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.LongActivated, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindLongDeactivate:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.LongDeactivated, Action{Kind: ActionProc, Proc: op.Proc})
		case OpBindShortToggle:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.ShortClick, Action{Kind: ActionSingle, Command: CmdToggleOutput, Out: op.Out})
		case OpBindLongToggle:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.LongClick, Action{Kind: ActionSingle, Command: CmdToggleOutput, Out: op.Out})
		case OpBindLayerHold:
			e.bindings.Set(op.Input, e.layers.Current(), trigger.Activated, Action{Kind: ActionSingle, Command: CmdActivateLayer, Layer: op.Layer})
		case OpBindShutter:
			e.shutters.Send(op.ShutterIdx, shutter.Cmd{Kind: shutter.CmdSetIO, Down: op.A, Up: op.B})
		case OpBindClearAll:
			e.bindings.Clear()
		}
		pc++
	}
}

func (e *Engine) doCall(pc int32, proc uint8) int32 {
	start, ok := e.prog.ProcStart(proc)
	if !ok {
		return pc + 1
	}
	if e.depth >= callDepth {
		panic(errcode.StackOverflow)
	}
	e.callStack[e.depth] = pc + 1
	e.depth++
	return start + 1
}

// shutterCmdFromOp maps an OpShutterCmd's A/B payload bytes onto the fields
// its command verb actually consumes, mirroring corectl's decoding of the
// wire ShutterCmd payload.
func shutterCmdFromOp(op Opcode) shutter.Cmd {
	cmd := shutter.Cmd{Kind: shutterKind(op.ShutterCmd)}
	switch op.ShutterCmd {
	case wire.ShCmdGo:
		cmd.Height, cmd.Tilt = float32(op.A), float32(op.B)
	case wire.ShCmdTilt:
		cmd.Tilt = float32(op.A)
	case wire.ShCmdSetIO:
		cmd.Down, cmd.Up = op.A, op.B
	}
	return cmd
}

func shutterKind(c wire.ShutterCmdCode) shutter.CmdKind {
	switch c {
	case wire.ShCmdOpen:
		return shutter.CmdOpen
	case wire.ShCmdClose:
		return shutter.CmdClose
	case wire.ShCmdTilt:
		return shutter.CmdTilt
	case wire.ShCmdTiltClose:
		return shutter.CmdTiltClose
	case wire.ShCmdTiltOpen:
		return shutter.CmdTiltOpen
	case wire.ShCmdTiltHalf:
		return shutter.CmdTiltHalf
	case wire.ShCmdTiltReverse:
		return shutter.CmdTiltReverse
	case wire.ShCmdSetIO:
		return shutter.CmdSetIO
	default:
		return shutter.CmdGo
	}
}

func (e *Engine) doOutput(cmd Command, out uint8) {
	var err error
	on := false
	switch cmd {
	case CmdActivateOutput:
		on = true
		err = e.outputs.Set(out, true)
	case CmdDeactivateOutput:
		err = e.outputs.Set(out, false)
	case CmdToggleOutput:
		on, err = e.outputs.Toggle(out)
	}
	if err != nil {
		e.errExpanderOutput++
		return
	}
	state := wire.StateOff
	if on {
		state = wire.StateOn
	}
	e.bus.Send(wire.Message{Type: wire.TypeOutputChanged, Out: out, State: state}, wire.Drop)
}

// RemoteActivateOutput, RemoteDeactivateOutput and RemoteToggleOutput let
// corectl forward a decoded RemoteActivate/RemoteDeactivate/RemoteToggle
// event (spec.md §3) the same way a local binding's output command would be
// dispatched, with the same side effects (OutputChanged broadcast,
// errExpanderOutput bump), matching spec.md §4.6's "the executor ...
// forwards remote commands to outputs / shutters".
func (e *Engine) RemoteActivateOutput(out uint8)   { e.doOutput(CmdActivateOutput, out) }
func (e *Engine) RemoteDeactivateOutput(out uint8) { e.doOutput(CmdDeactivateOutput, out) }
func (e *Engine) RemoteToggleOutput(out uint8)     { e.doOutput(CmdToggleOutput, out) }

// HandleTrigger dispatches one semantic trigger for input. local marks a
// directly-scanned button edge (vs. a remote TriggerInput message): only
// local edges are echoed back onto the bus as InputChanged, per spec.md
// §4.6.
func (e *Engine) HandleTrigger(input uint8, trig trigger.Trigger, local bool) {
	if trig == trigger.Deactivated && e.layers.PopIfAnchoredTo(input) {
		return
	}

	action, found := e.bindings.Lookup(input, e.layers.Current(), trig)
	if found {
		e.dispatch(action, input)
	}
	if local {
		e.bus.Send(wire.Message{Type: wire.TypeInputChanged, Input: input, Trigger: wireTrigger(trig)}, wire.Wait)
	}
}

func (e *Engine) dispatch(action Action, input uint8) {
	switch action.Kind {
	case ActionSingle:
		switch action.Command {
		case CmdActivateLayer:
			e.layers.PushAnchored(input, action.Layer)
		default:
			e.doOutput(action.Command, action.Out)
		}
	case ActionProc:
		e.CallProcedure(action.Proc)
	}
}

// SendStatus broadcasts one StatusIO per output and per input, paced
// statusGap apart (spec.md §4.6).
func (e *Engine) SendStatus() {
	for _, o := range e.status.OutputStates() {
		e.bus.Send(wire.Message{Type: wire.TypeStatusIO, IO: o.IO, State: o.State}, wire.Drop)
		e.sleep(statusGap)
	}
	for _, i := range e.status.InputStates() {
		e.bus.Send(wire.Message{Type: wire.TypeStatusIO, IO: i.IO, State: i.State}, wire.Drop)
		e.sleep(statusGap)
	}
}

func wireTrigger(t trigger.Trigger) wire.TriggerCode {
	switch t {
	case trigger.ShortClick:
		return wire.TrgShortClick
	case trigger.LongClick:
		return wire.TrgLongClick
	case trigger.Activated:
		return wire.TrgActivated
	case trigger.Deactivated:
		return wire.TrgDeactivated
	case trigger.LongActivated:
		return wire.TrgLongActivated
	case trigger.LongDeactivated:
		return wire.TrgLongDeactivated
	default:
		return wire.TrgShortClick
	}
}
