package gracexit

import "sync"

var (
	defaultOnce        sync.Once
	defaultCoordinator *Coordinator
)

// Default returns the process-wide Coordinator bound to the real OS process.
func Default() *Coordinator {
	defaultOnce.Do(func() {
		defaultCoordinator = New()
	})
	return defaultCoordinator
}

// SetLogger sets the Logger of the Default Coordinator.
func SetLogger(log Logger) error { return Default().SetLogger(log) }

// SetErrorExitCode sets the error exit code of the Default Coordinator.
func SetErrorExitCode(code int) error { return Default().SetErrorExitCode(code) }

// SetExitHandler sets the exit handler of the Default Coordinator.
func SetExitHandler(handler Handler) error { return Default().SetExitHandler(handler) }

// RegisterExitHandler sets the exit handler of the Default Coordinator.
//
// Deprecated: use SetExitHandler instead.
func RegisterExitHandler(handler Handler) error { return Default().RegisterExitHandler(handler) }

// Subscribe registers an Observer on the Default Coordinator.
func Subscribe(event Event, o Observer) (unsubscribe func()) { return Default().Subscribe(event, o) }

// OnWillExit registers an EventWillExit Observer on the Default Coordinator.
func OnWillExit(o Observer) (unsubscribe func()) { return Default().OnWillExit(o) }

// Reject reports an unhandled failure to the Default Coordinator.
func Reject(reason interface{}) { Default().Reject(reason) }

// Recover reports a panic of the current goroutine to the Default Coordinator.
// It must be deferred directly: defer gracexit.Recover().
func Recover() {
	if r := recover(); r != nil {
		Default().handlePanic(r)
	}
}

// Go runs fn in a goroutine guarded by the Default Coordinator.
func Go(fn func() error) { Default().Go(fn) }

// Exit terminates the process through the Default Coordinator.
func Exit(code int) { Default().Exit(code) }
