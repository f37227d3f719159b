package corectl

import (
	"embed"
	"fmt"

	"github.com/andreyvit/tinyjson"
	"github.com/jangala-dev/nodecore/vm"
	"github.com/jangala-dev/nodecore/wire"
)

//go:embed program.json
var embeddedProgram embed.FS

// LoadEmbeddedProgram decodes the compiled-in opcode listing and returns a
// loaded vm.Program. Grounded on the teacher's services/config package:
// the program is embedded JSON, decoded once at boot with
// github.com/andreyvit/tinyjson's generic Value() (no reflection-based
// struct tags, matching the teacher's no-allocation-on-the-decode-path
// style), never read from a filesystem at runtime: "compiled in," not
// persistent configuration storage, per spec.md §1's Non-goals.
func LoadEmbeddedProgram() (*vm.Program, error) {
	raw, err := embeddedProgram.ReadFile("program.json")
	if err != nil {
		return nil, err
	}
	return DecodeProgram(raw)
}

// DecodeProgram parses a JSON array of opcode objects into a vm.Program.
// Each element has an "op" string naming the opcode and the fields that
// opcode's payload needs; unrecognized fields are ignored, matching the
// tolerant-decode style of the teacher's own embedded-config consumer.
func DecodeProgram(raw []byte) (*vm.Program, error) {
	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()

	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("corectl: program.json is not a JSON array")
	}
	code := make([]vm.Opcode, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("corectl: program.json[%d] is not an object", i)
		}
		op, err := decodeOpcode(m)
		if err != nil {
			return nil, fmt.Errorf("corectl: program.json[%d]: %w", i, err)
		}
		code = append(code, op)
	}
	return vm.Load(code)
}

func numField(m map[string]any, key string) uint8 {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return uint8(x)
	case int:
		return uint8(x)
	default:
		return 0
	}
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

var opNames = map[string]vm.OpKind{
	"noop":          vm.OpNoop,
	"start":         vm.OpStart,
	"stop":          vm.OpStop,
	"call":          vm.OpCall,
	"call_register": vm.OpCallRegister,
	"set_register":  vm.OpSetReg,

	"activate_output":   vm.OpActivateOutput,
	"deactivate_output": vm.OpDeactivateOutput,
	"toggle_output":     vm.OpToggleOutput,
	"shutter_cmd":       vm.OpShutterCmd,

	"layer_push":    vm.OpLayerPush,
	"layer_pop":     vm.OpLayerPop,
	"layer_set":     vm.OpLayerSet,
	"layer_default": vm.OpLayerDefault,

	"send_status": vm.OpSendStatus,

	"bind_short_call":      vm.OpBindShortCall,
	"bind_long_call":       vm.OpBindLongCall,
	"bind_activate_call":   vm.OpBindActivateCall,
	"bind_deactivate_call": vm.OpBindDeactivateCall,
	"bind_long_activate":   vm.OpBindLongActivate,
	"bind_long_deactivate": vm.OpBindLongDeactivate,
	"bind_short_toggle":    vm.OpBindShortToggle,
	"bind_long_toggle":     vm.OpBindLongToggle,
	"bind_layer_hold":      vm.OpBindLayerHold,
	"bind_shutter":         vm.OpBindShutter,
	"bind_clear_all":       vm.OpBindClearAll,
}

var shutterCmdNames = map[string]wire.ShutterCmdCode{
	"go":           wire.ShCmdGo,
	"open":         wire.ShCmdOpen,
	"close":        wire.ShCmdClose,
	"tilt":         wire.ShCmdTilt,
	"tilt_close":   wire.ShCmdTiltClose,
	"tilt_open":    wire.ShCmdTiltOpen,
	"tilt_half":    wire.ShCmdTiltHalf,
	"tilt_reverse": wire.ShCmdTiltReverse,
	"set_io":       wire.ShCmdSetIO,
}

func decodeOpcode(m map[string]any) (vm.Opcode, error) {
	name := strField(m, "op")
	kind, ok := opNames[name]
	if !ok {
		return vm.Opcode{}, fmt.Errorf("unknown opcode %q", name)
	}
	op := vm.Opcode{
		Kind:       kind,
		Proc:       numField(m, "proc"),
		Reg:        numField(m, "reg"),
		Value:      numField(m, "value"),
		Out:        numField(m, "out"),
		ShutterIdx: numField(m, "shutter"),
		A:          numField(m, "a"),
		B:          numField(m, "b"),
		Layer:      numField(m, "layer"),
		Input:      numField(m, "input"),
	}
	if sc, ok := m["cmd"]; ok {
		name, _ := sc.(string)
		op.ShutterCmd = shutterCmdNames[name]
	}
	return op, nil
}
