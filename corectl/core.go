package corectl

import (
	"time"

	"github.com/jangala-dev/nodecore/scan"
	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/trigger"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
)

// busPollPeriod is how often RunBusConsumer drains the transceiver into the
// bus's queues and the queues into Events, matching the scan cadence order
// of magnitude so bus-originated events are not noticeably laggier than
// locally-scanned ones.
const busPollPeriod = 10 * time.Millisecond

// statusPublishPeriod is how often RunStatusPublisher re-evaluates the
// status level from live error counters and republishes it.
const statusPublishPeriod = time.Second

// statusQueueLen is the depth of Core's status-level channel: a single
// slot, since only the latest level is ever meaningful to a subscriber
// (spec.md §2 item 10 wants "the current level", not a history).
const statusQueueLen = 1

// ShutterSender is the narrow interface Core forwards decoded wire
// ShutterCmd messages through, matching spec.md §4.7's "dispatches shutter
// commands by address": Core never touches shutter.Manager's internals.
type ShutterSender interface {
	Send(idx uint8, cmd shutter.Cmd)
}

// Core owns the bounded event channel and the two producer tasks that
// feed it (RunScanConsumer and RunBusConsumer), plus a status publisher
// that reports on its own channel, per spec.md §4.7. Grounded on the teacher's HAL.Run dispatch
// loop shape (services/hal/internal/core/loop.go): one select over the
// event channel and a stop signal, with every producer pushing via a
// non-blocking send so a slow consumer never stalls a driver task.
type Core struct {
	scanner *scan.Scanner
	bus     *wire.Bus
	engine  *vm.Engine
	shut    ShutterSender
	clock   Clock

	lineToInput map[scan.LineID]uint8

	events        chan Event
	drops         uint32
	tracker       StatusTracker
	statusUpdates chan Level
}

// New builds a Core wiring scanner, bus, VM engine and shutter manager
// together. inputs gives the LineID -> logical InIdx mapping the scan
// producer needs to turn a scan.SwitchEvent into a corectl.Event.
func New(scanner *scan.Scanner, bus *wire.Bus, engine *vm.Engine, shut ShutterSender, clock Clock, inputs []InputResolution) *Core {
	if clock == nil {
		clock = NopClock{}
	}
	c := &Core{
		scanner:       scanner,
		bus:           bus,
		engine:        engine,
		shut:          shut,
		clock:         clock,
		lineToInput:   make(map[scan.LineID]uint8, len(inputs)),
		events:        make(chan Event, EventQueueLen),
		statusUpdates: make(chan Level, statusQueueLen),
	}
	for _, r := range inputs {
		c.lineToInput[r.Line] = r.Idx
	}
	return c
}

// Drops reports how many events were dropped because the bounded event
// channel was full.
func (c *Core) Drops() uint32 { return c.drops }

// StatusUpdates exposes the current status level as it changes (spec.md §2
// item 10): a status-LED driver or selftest harness reads this channel
// without Core knowing who, if anyone, is listening. The channel holds only
// the latest level; a slow or absent reader never blocks publication.
func (c *Core) StatusUpdates() <-chan Level { return c.statusUpdates }

// Counters snapshots every error counter the status level is computed from,
// read straight off scan/wire/vm's own accessors (never shared mutable
// fields), per spec.md §7.
func (c *Core) Counters() Counters {
	return Counters{
		ScanDrops:      c.scanner.Drops(),
		BusCanDrop:     c.bus.CanDrop(),
		BusRXErrors:    c.bus.RXErrors(),
		BusUnknownType: c.bus.UnknownTypeErrors(),
		VMOutputErrors: c.engine.ErrExpanderOutput(),
	}
}

// busy reports whether the core loop has unconsumed work pending, the
// Active-vs-Idle signal StatusTracker.Evaluate needs and counters alone
// can't supply.
func (c *Core) busy() bool { return len(c.events) > 0 }

// RunStatusPublisher periodically re-evaluates the status level and
// publishes it to StatusUpdates. Intended to run as its own goroutine for
// the node's lifetime; harmless if nothing ever reads StatusUpdates.
func (c *Core) RunStatusPublisher(stop <-chan struct{}) {
	t := time.NewTicker(statusPublishPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			lvl := c.tracker.Evaluate(c.Counters(), c.busy())
			c.publishStatus(lvl)
		}
	}
}

// publishStatus is a non-blocking drain-and-overwrite send: it empties the
// single-slot channel of any stale level before sending lvl, so the reader
// always sees only the most recent value and a producer never stalls
// waiting on an absent or slow consumer (same non-blocking-send idiom as
// emit, applied to a 1-slot "latest value" channel instead of a queue).
func (c *Core) publishStatus(lvl Level) {
	select {
	case <-c.statusUpdates:
	default:
	}
	c.statusUpdates <- lvl
}

// emit performs the teacher's HAL.Emit non-blocking-send idiom: never block
// a producer task on a full core event queue, count and drop instead.
func (c *Core) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.drops++
	}
}

// RunScanConsumer drains the scanner's debounced switch events, converts
// each to its semantic trigger(s), and emits one ButtonEvent per trigger.
// Intended to run as its own goroutine for the node's lifetime.
func (c *Core) RunScanConsumer(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case sw, ok := <-c.scanner.Events():
			if !ok {
				return
			}
			c.handleSwitchEvent(sw)
		}
	}
}

func (c *Core) handleSwitchEvent(sw scan.SwitchEvent) {
	input, ok := c.lineToInput[sw.ID]
	if !ok {
		return
	}
	line := c.scanner.LineFor(sw.ID)
	longSent := false
	if line != nil {
		longSent = line.LongSent()
	}
	trigs, longSentOut := trigger.Convert(sw, longSent)
	if line != nil {
		line.SetLongSent(longSentOut)
	}
	for i := 0; i < trigs.Len(); i++ {
		c.emit(Event{Kind: EvButton, Input: input, Trigger: trigs.At(i)})
	}
}

// RunBusConsumer drains the bus RX queue, filters messages by local/
// broadcast addressing (spec.md §6), and maps request-class types into
// Events or direct shutter/clock dispatch. Response-class types are
// observed and ignored, per spec.md §6.
func (c *Core) RunBusConsumer(stop <-chan struct{}) {
	t := time.NewTicker(busPollPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.bus.Pump()
			for {
				msg, ok := c.bus.ReceiveMessage()
				if !ok {
					break
				}
				c.handleMessage(msg)
			}
		}
	}
}

func (c *Core) handleMessage(msg wire.Message) {
	switch msg.Type {
	case wire.TypeSetOutput:
		switch msg.State {
		case wire.StateOn:
			c.emit(Event{Kind: EvRemoteActivate, Out: msg.Out})
		case wire.StateOff:
			c.emit(Event{Kind: EvRemoteDeactivate, Out: msg.Out})
		default:
			c.emit(Event{Kind: EvRemoteToggle, Out: msg.Out})
		}
	case wire.TypeTriggerInput:
		c.emit(Event{Kind: EvButton, Input: msg.Input, Trigger: wireToTrigger(msg.Trigger), Remote: true})
	case wire.TypeCallProcedure:
		c.emit(Event{Kind: EvRemoteProcCall, Proc: msg.Proc})
	case wire.TypeRequestStatus:
		c.emit(Event{Kind: EvRemoteStatusRequest})
	case wire.TypeShutterCmd:
		c.shut.Send(msg.Shutter, shutterCmdFrom(msg))
	case wire.TypeTimeAnnouncement:
		c.clock.SetFromAnnouncement(int(msg.Year), int(msg.Month), int(msg.Day), int(msg.Hour), int(msg.Minute), int(msg.Second), int(msg.DOW))
	case wire.TypePing:
		c.bus.Send(wire.Message{Type: wire.TypePong, Body: msg.Body}, wire.Drop)
	default:
		// Response-class types (OutputChanged, InputChanged, Info, Error,
		// Status, Pong, StatusIO): observed and otherwise ignored, per
		// spec.md §6.
	}
}

// Run dispatches events against the VM engine until stop is closed. This is
// the single consumer of the event channel; each event is handed to the
// matching vm.Engine method (HandleTrigger, the Remote* calls,
// CallProcedure, SendStatus).
func (c *Core) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev := <-c.events:
			c.dispatch(ev)
		}
	}
}

func (c *Core) dispatch(ev Event) {
	switch ev.Kind {
	case EvButton:
		// Only locally-scanned edges are echoed back onto the bus as
		// InputChanged; a remote TriggerInput must not re-broadcast.
		c.engine.HandleTrigger(ev.Input, ev.Trigger, !ev.Remote)
	case EvRemoteToggle:
		c.engine.RemoteToggleOutput(ev.Out)
	case EvRemoteActivate:
		c.engine.RemoteActivateOutput(ev.Out)
	case EvRemoteDeactivate:
		c.engine.RemoteDeactivateOutput(ev.Out)
	case EvRemoteProcCall:
		c.engine.CallProcedure(ev.Proc)
	case EvRemoteStatusRequest:
		c.engine.SendStatus()
	}
}

func shutterCmdFrom(msg wire.Message) shutter.Cmd {
	cmd := shutter.Cmd{Down: msg.A, Up: msg.B}
	switch msg.ShCmd {
	case wire.ShCmdGo:
		cmd.Kind = shutter.CmdGo
		cmd.Height, cmd.Tilt = float32(msg.A), float32(msg.B)
	case wire.ShCmdOpen:
		cmd.Kind = shutter.CmdOpen
	case wire.ShCmdClose:
		cmd.Kind = shutter.CmdClose
	case wire.ShCmdTilt:
		cmd.Kind = shutter.CmdTilt
		cmd.Tilt = float32(msg.A)
	case wire.ShCmdTiltClose:
		cmd.Kind = shutter.CmdTiltClose
	case wire.ShCmdTiltOpen:
		cmd.Kind = shutter.CmdTiltOpen
	case wire.ShCmdTiltHalf:
		cmd.Kind = shutter.CmdTiltHalf
	case wire.ShCmdTiltReverse:
		cmd.Kind = shutter.CmdTiltReverse
	case wire.ShCmdSetIO:
		cmd.Kind = shutter.CmdSetIO
	}
	return cmd
}

func wireToTrigger(t wire.TriggerCode) trigger.Trigger {
	switch t {
	case wire.TrgShortClick:
		return trigger.ShortClick
	case wire.TrgLongClick:
		return trigger.LongClick
	case wire.TrgActivated:
		return trigger.Activated
	case wire.TrgDeactivated:
		return trigger.Deactivated
	case wire.TrgLongActivated:
		return trigger.LongActivated
	case wire.TrgLongDeactivated:
		return trigger.LongDeactivated
	default:
		return trigger.ShortClick
	}
}
