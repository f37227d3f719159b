//go:build rp2040 || rp2350

// cmd/node is a peer controller's composition root: it claims the board's
// I2C bus and native pins, builds the scanner/output-driver/shutter-
// manager/VM/bus stack, wires them together through corectl.Core, and runs
// every long-lived component as its own goroutine. Grounded on the
// teacher's cmd/pico-hal-main/main.go: a short bring-up delay for USB/I2C to
// settle, one composition function, then an event loop that never returns.
package main

import (
	"time"

	"machine"

	"github.com/jangala-dev/nodecore/corectl"
	"github.com/jangala-dev/nodecore/corectl/logx"
	"github.com/jangala-dev/nodecore/outputs"
	"github.com/jangala-dev/nodecore/platform"
	"github.com/jangala-dev/nodecore/scan"
	"github.com/jangala-dev/nodecore/shutter"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
	"github.com/jangala-dev/nodecore/x/shmring"
)

func main() {
	time.Sleep(3 * time.Second) // allow board to settle, per teacher convention
	var log logx.Logger
	log.SetName("node")
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

	canBus := wire.NewBus(platform.CANStub{})
	canBus.SetLocalAddr(localAddress)

	prog, err := corectl.LoadEmbeddedProgram()
	if err != nil {
		panic(err)
	}

	provider := corectl.NewProvider(outTable, scanner, inputResolutions)
	engine := vm.NewEngine(prog, outTable, shutterMgr, canBus, provider)
	engine.Boot()

	core := corectl.New(scanner, canBus, engine, shutterMgr, corectl.NopClock{}, inputResolutions)

	stop := make(chan struct{})

	go scanner.Run(stop)
	go shutterMgr.Run(stop)
	go core.RunScanConsumer(stop)
	go core.RunBusConsumer(stop)
	go core.RunStatusPublisher(stop)

	log.Info("ready addr=", int(localAddress), " mirror=", int(mirrorHandle))
	core.Run(stop) // blocks forever, the single event-channel consumer
}
