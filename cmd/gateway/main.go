//go:build rp2040 || rp2350

// cmd/gateway boots the same node stack as cmd/node, then starts the
// serial-over-USB bridge and forwards frames between the physical two-wire
// bus and the host link, grounded on the teacher's services/bridge
// composition in main.go (one dial-supervised link, glued to the rest of
// the system by a small forwarding loop rather than by the bridge owning
// bus semantics itself).
package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/nodecore/corectl"
	"github.com/jangala-dev/nodecore/corectl/logx"
	"github.com/jangala-dev/nodecore/gateway"
	"github.com/jangala-dev/nodecore/outputs"
	"github.com/jangala-dev/nodecore/platform"
	"github.com/jangala-dev/nodecore/scan"
	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
	"github.com/jangala-dev/nodecore/x/shmring"
)

func main() {
	time.Sleep(3 * time.Second)
	var log logx.Logger
	log.SetName("gateway")
	mirrorHandle, mirrorRing := shmring.NewRegistered(64)
	log.SetMirror(mirrorRing)

	machine.I2C1.Configure(machine.I2CConfig{SDA: machine.Pin(i2cSDAPin), SCL: machine.Pin(i2cSCLPin)})

	scanExpanders := make([]scan.Expander, len(expanderAddrs))
	outExpanders := make([]outputs.Expander, len(expanderAddrs))
	for i, addr := range expanderAddrs {
		e := platform.NewExpander(machine.I2C1, addr)
		scanExpanders[i] = e
		outExpanders[i] = e
	}

	nativeIn := make([]scan.NativePin, len(nativeInputPins))
	for i, pin := range nativeInputPins {
		nativeIn[i] = platform.NewInputPin(pin, inputPull)
	}
	nativeOut := make([]outputs.NativePin, len(nativeOutputPins))
	for i, pin := range nativeOutputPins {
		nativeOut[i] = platform.NewOutputPin(pin)
	}

	scanner := scan.New(scan.Config{
		Expanders:   scanExpanders,
		ExpanderReq: expanderRequired[:],
		NativePins:  nativeIn,
	})

	driver := outputs.New(outputs.Config{Expanders: outExpanders, Natives: nativeOut})
	outTable := outputs.NewTable(driver, outputResolutions)

	shutterMgr := shutter.New(outTable)
	for _, p := range shutterProfiles {
		shutterMgr.Configure(p.idx, p.riseMs, p.dropMs, p.tiltMs, p.overMs)
	}

	// hostBridge is the gateway's own USB-serial link to the host, carrying
	// wire.Frame traffic exactly as the physical bus does for peers.
	gateway.UARTDial = platform.DialGatewayUART
	ctx := context.Background()
	hostBridge := gateway.Start(ctx, gateway.Config{
		Transport: gateway.TransportConfig{
			Type: "uart",
			UART: &gateway.UARTConfig{Baud: gatewayUARTBaud, RxPin: gatewayUARTRxPin, TxPin: gatewayUARTTxPin},
		},
	})
	hostBus := wire.NewBus(hostBridge)

	// physBus talks to peer nodes over the physical two-wire bus (the
	// concrete CAN driver is out of scope, see platform.CANStub), teeing
	// everything that crosses the wire up to the host link so the core loop
	// stays the RX queue's single consumer.
	physBus := wire.NewBus(teeTransceiver{inner: platform.CANStub{}, host: hostBus})
	physBus.SetLocalAddr(localAddress)

	prog, err := corectl.LoadEmbeddedProgram()
	if err != nil {
		panic(err)
	}
	provider := corectl.NewProvider(outTable, scanner, inputResolutions)
	engine := vm.NewEngine(prog, outTable, shutterMgr, physBus, provider)
	engine.Boot()

	core := corectl.New(scanner, physBus, engine, shutterMgr, corectl.NopClock{}, inputResolutions)

	stop := make(chan struct{})

	go scanner.Run(stop)
	go shutterMgr.Run(stop)
	go core.RunScanConsumer(stop)
	go core.RunBusConsumer(stop)
	go core.RunStatusPublisher(stop)
	go runBridgeForward(stop, physBus, hostBus)

	log.Info("ready addr=", int(localAddress), " mirror=", int(mirrorHandle))
	core.Run(stop)
}

// teeTransceiver wraps the physical bus transceiver so every frame crossing
// the wire at this node, inbound from peers or outbound from the local core,
// is also mirrored to the host link, best-effort. The core loop's bus
// consumer stays the physical RX queue's only reader; without the tee, a
// second drain loop would steal frames from it.
type teeTransceiver struct {
	inner wire.Transceiver
	host  *wire.Bus
}

func (t teeTransceiver) Send(f wire.Frame) error {
	t.host.Transmit(f, wire.Drop)
	return t.inner.Send(f)
}

func (t teeTransceiver) Recv() (wire.Frame, bool, error) {
	f, ok, err := t.inner.Recv()
	if ok && err == nil {
		t.host.Transmit(f, wire.Drop)
	}
	return f, ok, err
}

// runBridgeForward injects host-originated frames onto the physical bus.
// The opposite direction needs no loop here: teeTransceiver mirrors wire
// traffic to the host as a side effect of the core's own bus pumping.
// Host-originated commands use Wait so a momentarily busy local bus does not
// silently lose a host request.
func runBridgeForward(stop <-chan struct{}, physBus, hostBus *wire.Bus) {
	t := time.NewTicker(busForwardPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			hostBus.Pump()
			for {
				f, ok := hostBus.Receive()
				if !ok {
					break
				}
				physBus.Transmit(f, wire.Wait)
			}
		}
	}
}
