package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable). Grouped per the error taxonomy: transient
// transport, persistent transport, protocol, programming, command refusal.
const (
	OK Code = "ok"

	// Transient transport: counted and retried/dropped per policy, never
	// surfaced beyond telemetry.
	I2CError Code = "i2c_error"
	BusFull  Code = "bus_full"
	RXError  Code = "rx_error"
	Timeout  Code = "timeout"

	// Persistent transport: required resource unreachable.
	ExpanderUnreachable Code = "expander_unreachable"
	ExpanderUnavailable Code = "expander_unavailable"

	// Protocol: malformed or unrecognized wire data, dropped with a warning.
	UnknownMsgType Code = "unknown_msg_type"
	BadFrame       Code = "bad_frame"
	InvalidPayload Code = "invalid_payload"

	// Programming errors: bugs in the compiled-in program or engine.
	StackOverflow  Code = "stack_overflow"
	BadProgram     Code = "bad_program"
	UnboundCommand Code = "unbound_command"

	// Command refusal: a well-formed request rejected by policy.
	NotSleeping Code = "not_sleeping"
	Unbound     Code = "unbound"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
// Extend the heuristics per platform/driver.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	return Error
}
