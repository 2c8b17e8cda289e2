package gracexit

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
)

const defaultErrorExitCode = 1

var (
	// ErrNilLogger is returned when a nil Logger is set.
	ErrNilLogger = errors.New("logger must not be nil")
	// ErrInvalidExitCode is returned when an error exit code is not positive.
	ErrInvalidExitCode = errors.New("error exit code must be greater than zero")
	// ErrInvalidHandler is returned when a nil Handler is set.
	ErrInvalidHandler = errors.New("invalid exit handler, example: func(isExpectedExit bool, cause error) (int, error)")
	// ErrHandlerAlreadySet is returned on an attempt to set a second exit handler.
	ErrHandlerAlreadySet = errors.New("multiple exit handlers are not allowed, subscribe to EventWillExit to observe the exit")
)

// Handler is the primary shutdown routine.
//
// The cause is nil for an expected exit. A positive code overrides the exit code of the process.
// A returned error or a panic is logged and makes the process exit with the error exit code.
type Handler func(isExpectedExit bool, cause error) (code int, err error)

// Coordinator funnels termination triggers of the process through exactly one exit Handler.
type Coordinator struct {
	mx            *sync.RWMutex
	handler       Handler
	errorExitCode int
	log           Logger

	exiting    atomic.Bool
	terminated atomic.Bool
	monitoring atomic.Bool

	monitorOnce *sync.Once
	done        chan struct{}

	observers *broadcaster

	termHooksMx *sync.Mutex
	termHooks   []func(code int)

	proc Process
}

// Option configures a Coordinator.
type Option func(c *Coordinator)

// WithProcess sets the Process used to subscribe to signals and to terminate.
func WithProcess(p Process) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.proc = p
		}
	}
}

// WithLogger sets the Logger. A nil Logger is ignored.
func WithLogger(l Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithErrorExitCode sets the exit code for unexpected exits. Non-positive codes are ignored.
func WithErrorExitCode(code int) Option {
	return func(c *Coordinator) {
		if code > 0 {
			c.errorExitCode = code
		}
	}
}

// New creates a new Coordinator.
//
// Most applications should use the process-wide instance returned by Default.
// Triggers are not monitored until an exit handler is set.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		mx:            &sync.RWMutex{},
		errorExitCode: defaultErrorExitCode,
		log:           NewConsoleLogger(os.Stderr),
		monitorOnce:   &sync.Once{},
		done:          make(chan struct{}),
		observers:     newBroadcaster(),
		termHooksMx:   &sync.Mutex{},
		proc:          OSProcess(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.onTerminate(func(code int) {
		if code > 0 {
			c.logger().Fatal(fmt.Sprintf("process (%d) was terminated unexpectedly (code=%d)", c.proc.Pid(), code), nil)
		}
	})

	return c
}

// SetLogger replaces the Logger used for diagnostic output.
func (c *Coordinator) SetLogger(log Logger) error {
	if log == nil {
		return ErrNilLogger
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.log = log
	return nil
}

// SetErrorExitCode sets the exit code used when the exit is unexpected. Default is 1.
func (c *Coordinator) SetErrorExitCode(code int) error {
	if code <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidExitCode, code)
	}

	c.mx.Lock()
	defer c.mx.Unlock()
	c.errorExitCode = code
	return nil
}

// SetExitHandler sets the exit handler and starts monitoring of all the triggers.
//
// Only one handler is allowed per Coordinator: the second call fails with ErrHandlerAlreadySet.
// Use Subscribe to observe the exit instead.
func (c *Coordinator) SetExitHandler(handler Handler) error {
	if handler == nil {
		return ErrInvalidHandler
	}

	c.mx.Lock()
	if c.handler != nil {
		c.mx.Unlock()
		return ErrHandlerAlreadySet
	}
	c.handler = handler
	c.mx.Unlock()

	c.monitorOnce.Do(c.monitor)
	return nil
}

// RegisterExitHandler sets the exit handler.
//
// Deprecated: use SetExitHandler instead.
func (c *Coordinator) RegisterExitHandler(handler Handler) error {
	c.logger().Warn("DEPRECATED: please use SetExitHandler instead")
	return c.SetExitHandler(handler)
}

// Subscribe registers a passive Observer of the event. Observers are notified synchronously
// before the exit handler starts. The returned function cancels the subscription.
func (c *Coordinator) Subscribe(event Event, o Observer) (unsubscribe func()) {
	if o == nil {
		return func() {}
	}
	return c.observers.subscribe(event, o)
}

// OnWillExit is a shortcut for Subscribe(EventWillExit, o).
func (c *Coordinator) OnWillExit(o Observer) (unsubscribe func()) {
	return c.Subscribe(EventWillExit, o)
}

// Raise delivers the trigger with a raw payload, as if it came from the runtime.
func (c *Coordinator) Raise(trigger Trigger, payload ...interface{}) {
	c.handleProcessExit(trigger, normalize(trigger, payload...))
}

// Reject reports a failure nobody is going to handle. It blocks until the exit handler completes.
//
// Before an exit handler is set the process terminates right away with the error exit code.
func (c *Coordinator) Reject(reason interface{}) {
	if !c.monitoring.Load() {
		c.logger().Fatal("unhandled rejection", normalize(TriggerUnhandledRejection, reason))
		c.terminate(c.exitCodeOnError())
		return
	}
	c.Raise(TriggerUnhandledRejection, reason)
}

// Recover turns a panic of the current goroutine into TriggerUncaughtException.
// It must be deferred directly:
//
//	defer coordinator.Recover()
//
// Before an exit handler is set the panic is re-raised.
func (c *Coordinator) Recover() {
	if r := recover(); r != nil {
		c.handlePanic(r)
	}
}

func (c *Coordinator) handlePanic(r interface{}) {
	if !c.monitoring.Load() {
		panic(r)
	}
	c.Raise(TriggerUncaughtException, r, toPanicError(r))
}

// Go runs fn in a new goroutine. A panic of fn raises TriggerUncaughtException,
// a non-nil error raises TriggerUnhandledRejection.
func (c *Coordinator) Go(fn func() error) {
	go func() {
		defer c.Recover()

		if err := fn(); err != nil {
			c.Reject(err)
		}
	}()
}

// Exit terminates the process with the given code through the Coordinator,
// so the termination diagnostics are still emitted.
func (c *Coordinator) Exit(code int) {
	c.terminate(code)
}

// IsExiting reports whether the shutdown has started.
func (c *Coordinator) IsExiting() bool {
	return c.exiting.Load()
}

// monitor subscribes to the signal triggers.
//
// Note: this method will start internal monitoring goroutine.
func (c *Coordinator) monitor() {
	chSignals := make(chan os.Signal, 1)
	c.proc.Notify(chSignals, os.Interrupt, syscall.SIGTERM)
	c.monitoring.Store(true)

	go func() {
		defer c.proc.Stop(chSignals)

		for {
			select {
			case sig := <-chSignals:
				trigger := TriggerTerminate
				if sig == os.Interrupt {
					trigger = TriggerInterrupt
				}
				// the handler may hang: keep listening so that the next signal forces the exit
				go c.Raise(trigger, sig)
			case <-c.done:
				return
			}
		}
	}()
}

// handleProcessExit is the only transition of the exit state machine.
func (c *Coordinator) handleProcessExit(trigger Trigger, cause error) {
	if !c.exiting.CompareAndSwap(false, true) {
		c.logger().Fatal(fmt.Sprintf("%v received twice, handler not responding, force exit", trigger), cause)
		c.terminate(c.exitCodeOnError())
		return
	}

	isExpectedExit := cause == nil
	if isExpectedExit {
		c.logger().Warn(fmt.Sprintf("%v received, going to shutdown", trigger))
	} else {
		c.logger().Fatal(fmt.Sprintf("%v received (unexpected), going to shutdown", trigger), cause)
	}

	onPanic := func(err error) { c.logger().Fatal("exit observer failed", err) }
	c.observers.emit(EventWillExit, isExpectedExit, onPanic)
	c.observers.emit(EventExit, isExpectedExit, onPanic)

	res := c.invokeHandler(isExpectedExit, cause)
	if res.err != nil {
		c.logger().Fatal("exit handler failed", res.err)
	}

	c.terminate(res.exitCode(isExpectedExit, c.exitCodeOnError()))
}

// handlerResult is the outcome of the exit handler call.
type handlerResult struct {
	code int
	err  error
}

// exitCode derives the final exit code of the process.
func (r handlerResult) exitCode(isExpectedExit bool, errorExitCode int) int {
	switch {
	case r.err != nil:
		return errorExitCode
	case r.code > 0:
		return r.code
	case isExpectedExit:
		return 0
	default:
		return errorExitCode
	}
}

func (c *Coordinator) invokeHandler(isExpectedExit bool, cause error) (res handlerResult) {
	c.mx.RLock()
	handler := c.handler
	c.mx.RUnlock()

	if handler == nil {
		return handlerResult{}
	}

	defer func() {
		if r := recover(); r != nil {
			res = handlerResult{err: toPanicError(r)}
		}
	}()

	code, err := handler(isExpectedExit, cause)
	return handlerResult{code: code, err: err}
}

func (c *Coordinator) onTerminate(hook func(code int)) {
	c.termHooksMx.Lock()
	defer c.termHooksMx.Unlock()
	c.termHooks = append(c.termHooks, hook)
}

// terminate runs the termination hooks and exits the process. Only the first call has effect.
func (c *Coordinator) terminate(code int) {
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}
	c.exiting.Store(true)
	close(c.done)

	c.termHooksMx.Lock()
	hooks := make([]func(int), len(c.termHooks))
	copy(hooks, c.termHooks)
	c.termHooksMx.Unlock()

	for _, hook := range hooks {
		hook(code)
	}

	c.proc.Exit(code)
}

func (c *Coordinator) logger() Logger {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.log
}

func (c *Coordinator) exitCodeOnError() int {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return c.errorExitCode
}

func toPanicError(r interface{}) *PanicError {
	if pe, ok := r.(*PanicError); ok {
		return pe
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}
