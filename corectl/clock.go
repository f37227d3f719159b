package corectl

// Clock is the external collaborator that owns the node's real-time clock.
// spec.md §4.7 calls this out explicitly as "updates a real-time clock via
// an external collaborator, not specified here"; corectl only forwards a
// decoded TimeAnnouncement to it.
type Clock interface {
	SetFromAnnouncement(year int, month, day, hour, minute, second, dow int)
}

// NopClock discards every announcement; used where no RTC is wired (tests,
// the selftest bench harness).
type NopClock struct{}

func (NopClock) SetFromAnnouncement(int, int, int, int, int, int, int) {}
