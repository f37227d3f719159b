package trigger

import (
	"testing"

	"github.com/jangala-dev/nodecore/scan"
)

func TestShortClick(t *testing.T) {
	out, longSent := Convert(scan.SwitchEvent{State: scan.Activated}, false)
	if out.Len() != 1 || out.At(0) != Activated {
		t.Fatalf("Activated: got %+v", out)
	}
	if longSent {
		t.Fatalf("longSent should reset on Activated")
	}

	out, longSent = Convert(scan.SwitchEvent{State: scan.Deactivated, MS: 200}, false)
	if out.Len() != 2 || out.At(0) != ShortClick || out.At(1) != Deactivated {
		t.Fatalf("short release: got %+v", out)
	}
	if longSent {
		t.Fatalf("longSent should be false after short release")
	}
}

func TestLongClickSequence(t *testing.T) {
	out, longSent := Convert(scan.SwitchEvent{State: scan.Deactivated, MS: 900}, false)
	if out.Len() != 3 || out.At(0) != LongClick || out.At(1) != LongDeactivated || out.At(2) != Deactivated {
		t.Fatalf("long release: got %+v", out)
	}
	if longSent {
		t.Fatalf("longSent resets after release regardless")
	}
}

func TestLongActivatedDebouncedToFirstOccurrence(t *testing.T) {
	out, longSent := Convert(scan.SwitchEvent{State: scan.Active, MS: 450}, false)
	if out.Len() != 1 || out.At(0) != LongActivated {
		t.Fatalf("first long-hold poll: got %+v", out)
	}
	if !longSent {
		t.Fatalf("longSent should now be true")
	}

	out, longSent = Convert(scan.SwitchEvent{State: scan.Active, MS: 480}, longSent)
	if out.Len() != 0 {
		t.Fatalf("repeat long-hold poll should not re-emit: got %+v", out)
	}
	if !longSent {
		t.Fatalf("longSent should remain true")
	}
}

func TestActiveBelowThresholdEmitsNothing(t *testing.T) {
	out, longSent := Convert(scan.SwitchEvent{State: scan.Active, MS: 90}, false)
	if out.Len() != 0 {
		t.Fatalf("below-threshold active poll should emit nothing: got %+v", out)
	}
	if longSent {
		t.Fatalf("longSent should stay false below threshold")
	}
}
