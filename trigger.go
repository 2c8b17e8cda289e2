package gracexit

import (
	"errors"
	"fmt"
	"os"
)

// Trigger is an external event that initiates process termination.
type Trigger int

const (
	// TriggerInterrupt is delivered on os.Interrupt (SIGINT). It is always an expected exit.
	TriggerInterrupt Trigger = iota + 1
	// TriggerTerminate is delivered on SIGTERM.
	TriggerTerminate
	// TriggerUnhandledRejection is delivered when a background task fails and nobody handles the error.
	TriggerUnhandledRejection
	// TriggerUncaughtException is delivered when a panic is recovered by Coordinator.Recover.
	TriggerUncaughtException
)

// triggers is the fixed set of triggers the Coordinator subscribes to.
var triggers = []Trigger{
	TriggerInterrupt,
	TriggerTerminate,
	TriggerUnhandledRejection,
	TriggerUncaughtException,
}

// String returns string representation of the Trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerInterrupt:
		return "SIGINT"
	case TriggerTerminate:
		return "SIGTERM"
	case TriggerUnhandledRejection:
		return "unhandledRejection"
	case TriggerUncaughtException:
		return "uncaughtException"
	default:
		return fmt.Sprintf("Trigger(%d)", int(t))
	}
}

var _ fmt.Stringer = Trigger(0)

// ErrNoReason is reported for a non-interrupt trigger that carried no payload at all.
var ErrNoReason = errors.New("terminated without a reason")

// SignalError is the cause of termination by an OS signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("received signal: %v", e.Signal)
}

// PanicError is the cause of termination by a recovered panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ReasonError wraps a rejection reason that is not an error.
type ReasonError struct {
	Value interface{}
}

func (e *ReasonError) Error() string {
	return fmt.Sprintf("rejected with non-error reason: %v", e.Value)
}

// normalizer derives the termination cause from the raw trigger payload.
// A nil result means the exit is expected.
type normalizer func(payload []interface{}) error

var normalizers = map[Trigger]normalizer{
	TriggerInterrupt:          func([]interface{}) error { return nil },
	TriggerTerminate:          normalizePayload,
	TriggerUnhandledRejection: normalizePayload,
	TriggerUncaughtException:  normalizePayload,
}

// normalize maps the trigger payload to the termination cause.
func normalize(trigger Trigger, payload ...interface{}) error {
	n, ok := normalizers[trigger]
	if !ok {
		n = normalizePayload
	}
	return n(payload)
}

// normalizePayload prefers a structured error in the second position and falls back to the first one.
func normalizePayload(payload []interface{}) error {
	if len(payload) > 1 {
		if err, ok := payload[1].(error); ok && err != nil {
			return err
		}
	}
	if len(payload) == 0 {
		return ErrNoReason
	}

	switch v := payload[0].(type) {
	case nil:
		return ErrNoReason
	case error:
		return v
	case os.Signal:
		return &SignalError{Signal: v}
	default:
		return &ReasonError{Value: v}
	}
}
