package vm

import "github.com/jangala-dev/nodecore/errcode"

// MaxOpcodes bounds the compiled-in opcode array (glossary: "a fixed
// capacity, e.g. 1024").
const MaxOpcodes = 1024

// MaxProcs bounds the number of distinct procedure numbers a program may
// declare via Start(p).
const MaxProcs = 64

// Program is the loaded opcode array plus the procedure start-offset table
// built once at Load, mirroring the teacher's single-linear-scan
// initialization style (registerCap/applyConfig's one-pass setup).
type Program struct {
	Code      []Opcode
	procStart [MaxProcs]int32 // -1 = undeclared
}

// Load scans code once, populating procStart[p] with the index of the
// Start(p) opcode itself, per spec.md §4.6: "At load time the engine scans
// the opcode array once to populate proc_start[p]"; execution then jumps to
// proc_start[p]+1, skipping the Start marker. Load also validates the
// Program invariants spec.md §3 requires of a well-formed program: every
// Start is matched by a Stop, no ProcIdx is declared twice, and procedure 0
// exists. A violation of any of these returns errcode.BadProgram rather
// than letting a malformed program run.
func Load(code []Opcode) (*Program, error) {
	if len(code) > MaxOpcodes {
		return nil, errcode.BadProgram
	}
	p := &Program{Code: code}
	for i := range p.procStart {
		p.procStart[i] = -1
	}
	for i, op := range code {
		if op.Kind != OpStart {
			continue
		}
		if int(op.Proc) >= MaxProcs {
			return nil, errcode.BadProgram
		}
		if p.procStart[op.Proc] >= 0 {
			return nil, errcode.BadProgram // duplicate ProcIdx
		}
		p.procStart[op.Proc] = int32(i)
		if !hasMatchingStop(code, i+1) {
			return nil, errcode.BadProgram
		}
	}
	if p.procStart[0] < 0 {
		return nil, errcode.BadProgram // procedure 0 must exist
	}
	return p, nil
}

// hasMatchingStop reports whether the procedure body starting at from (the
// opcode just after its Start) contains a Stop that closes it before the
// next Start or the end of the array. Procedures are not physically nested:
// a Call in the body jumps to a separate Start...Stop region and returns, so
// the body's matching Stop is simply the first OpStop before the next
// OpStart.
func hasMatchingStop(code []Opcode, from int) bool {
	for i := from; i < len(code); i++ {
		switch code[i].Kind {
		case OpStart:
			return false // ran into the next procedure without closing this one
		case OpStop:
			return true
		}
	}
	return false
}

// ProcStart returns the index of procedure p's Start opcode, and whether p
// was declared. Callers jump to the returned index + 1.
func (p *Program) ProcStart(proc uint8) (int32, bool) {
	if int(proc) >= len(p.procStart) {
		return 0, false
	}
	pc := p.procStart[proc]
	return pc, pc >= 0
}
