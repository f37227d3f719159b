package vm

import "testing"

func TestLoadPopulatesProcStart(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpNoop},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 1},
		{Kind: OpNoop},
		{Kind: OpStop},
	}
	p, err := Load(code)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if pc, ok := p.ProcStart(0); !ok || pc != 0 {
		t.Fatalf("proc 0 start: pc=%d ok=%v", pc, ok)
	}
	if pc, ok := p.ProcStart(1); !ok || pc != 3 {
		t.Fatalf("proc 1 start: pc=%d ok=%v", pc, ok)
	}
	if _, ok := p.ProcStart(2); ok {
		t.Fatalf("proc 2 should be undeclared")
	}
}

func TestLoadRejectsOversizeProgram(t *testing.T) {
	code := make([]Opcode, MaxOpcodes+1)
	if _, err := Load(code); err == nil {
		t.Fatalf("expected error for oversize program")
	}
}

func TestLoadRejectsMissingProcedureZero(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 1},
		{Kind: OpStop},
	}
	if _, err := Load(code); err == nil {
		t.Fatalf("expected error when procedure 0 is never declared")
	}
}

func TestLoadRejectsDuplicateProcIdx(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 0},
		{Kind: OpStop},
	}
	if _, err := Load(code); err == nil {
		t.Fatalf("expected error for a ProcIdx declared twice")
	}
}

func TestLoadRejectsStartWithoutMatchingStop(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpNoop},
		// no Stop before end of array
	}
	if _, err := Load(code); err == nil {
		t.Fatalf("expected error when a Start has no matching Stop")
	}
}

func TestLoadRejectsStartRunningIntoNextProcedure(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpNoop},
		// proc 0 never closes before proc 1 begins
		{Kind: OpStart, Proc: 1},
		{Kind: OpStop},
	}
	if _, err := Load(code); err == nil {
		t.Fatalf("expected error when a procedure runs into the next Start unclosed")
	}
}

func TestLoadAcceptsProcedureThatCallsAnother(t *testing.T) {
	code := []Opcode{
		{Kind: OpStart, Proc: 0},
		{Kind: OpCall, Proc: 1}, // jumps to proc 1's own region and returns
		{Kind: OpNoop},
		{Kind: OpStop},
		{Kind: OpStart, Proc: 1},
		{Kind: OpNoop},
		{Kind: OpStop},
	}
	if _, err := Load(code); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
