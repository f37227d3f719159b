//go:build rp2040 || rp2350

package main

import (
	"github.com/jangala-dev/nodecore/corectl"
	"github.com/jangala-dev/nodecore/outputs"
	"github.com/jangala-dev/nodecore/scan"
)

// outputResolutions is the static OutIdx -> physical Target table spec.md
// §4.3 calls for. Idx 0-3 and 7-8 are the ones program.json actually binds
// (short-toggles and the shutter's up/down pair); the rest are declared so
// GetAll/status fan-out has a full 16-wide picture to report, matching
// spec.md §8 scenario 6's shape.
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

// inputResolutions is the InIdx -> scan.LineID table. Inputs 3 and 6 are
// native-wired (program.json's layer-hold anchor and the status-request
// button); the rest sit on expander 1.
var inputResolutions = func() []corectl.InputResolution {
	native := map[uint8]int{3: 0, 6: 1} // InIdx -> index into nativeInputPins
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
