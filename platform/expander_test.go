package platform

import "testing"

type fakeI2C struct {
	word     uint16
	lastAddr uint16
	txErr    error
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.lastAddr = addr
	if f.txErr != nil {
		return f.txErr
	}
	if len(w) > 0 {
		f.word = uint16(w[0]) | uint16(w[1])<<8
		return nil
	}
	if len(r) > 0 {
		r[0], r[1] = byte(f.word), byte(f.word>>8)
	}
	return nil
}

func TestExpanderReadAllRoundTrip(t *testing.T) {
	fake := &fakeI2C{word: 0xBEEF}
	e := NewExpander(fake, 0x20)

	got, err := e.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if got != 0xBEEF {
		t.Fatalf("got %#x, want %#x", got, 0xBEEF)
	}
	if fake.lastAddr != 0x20 {
		t.Fatalf("wrong address: %#x", fake.lastAddr)
	}
}

func TestExpanderSetAllThenReadAllReflectsWrite(t *testing.T) {
	fake := &fakeI2C{}
	e := NewExpander(fake, 0x21)

	if err := e.SetAll(0x00FF); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	got, err := e.ReadAll()
	if err != nil || got != 0x00FF {
		t.Fatalf("got %#x, err %v", got, err)
	}
}

func TestExpanderReleaseWritesAllHigh(t *testing.T) {
	fake := &fakeI2C{word: 0}
	e := NewExpander(fake, 0x22)

	if err := e.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if fake.word != 0xFFFF {
		t.Fatalf("got %#x, want 0xFFFF", fake.word)
	}
}
