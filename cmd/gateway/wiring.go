//go:build rp2040 || rp2350

package main

import (
	"github.com/jangala-dev/nodecore/corectl"
	"github.com/jangala-dev/nodecore/outputs"
	"github.com/jangala-dev/nodecore/scan"
)

// outputResolutions and inputResolutions mirror cmd/node's board wiring:
// the gateway runs the identical core (spec.md §1: "each controller runs
// the same core") and additionally bridges to the host.
var outputResolutions = func() []outputs.Resolution {
	res := make([]outputs.Resolution, 0, 16+len(nativeOutputPins))
	for bit := 0; bit < 16; bit++ {
		res = append(res, outputs.Resolution{
			Idx:    uint8(bit),
			Target: outputs.Target{Kind: outputs.KindExpander, Expander: 0, Bit: uint8(bit), Inverted: true},
		})
	}
	for i := range nativeOutputPins {
		res = append(res, outputs.Resolution{
			Idx:    uint8(16 + i),
			Target: outputs.Target{Kind: outputs.KindNative, Bit: uint8(i), Inverted: false},
		})
	}
	return res
}()

var inputResolutions = func() []corectl.InputResolution {
	native := map[uint8]int{3: 0, 6: 1}
	res := make([]corectl.InputResolution, 0, 16)
	for idx := uint8(0); idx < 16; idx++ {
		if ni, ok := native[idx]; ok {
			res = append(res, corectl.InputResolution{Idx: idx, Line: scan.LineID{Source: scan.SourceNative, Bit: uint8(ni)}})
			continue
		}
		res = append(res, corectl.InputResolution{Idx: idx, Line: scan.LineID{Source: 1, Bit: idx}})
	}
	return res
}()
