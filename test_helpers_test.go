package gracexit

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"
)

const waitTimeout = 5 * time.Second

// fakeProcess records subscriptions and exit codes instead of touching the real process.
type fakeProcess struct {
	mx       sync.Mutex
	signals  []os.Signal
	ch       chan<- os.Signal
	stopped  bool
	exitCh   chan int
	exitCnt  int
	exitCode int
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{exitCh: make(chan int, 16)}
}

func (p *fakeProcess) Notify(c chan<- os.Signal, sig ...os.Signal) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.ch = c
	p.signals = append(p.signals, sig...)
}

func (p *fakeProcess) Stop(c chan<- os.Signal) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.ch == c {
		p.stopped = true
	}
}

func (p *fakeProcess) Exit(code int) {
	p.mx.Lock()
	p.exitCnt++
	p.exitCode = code
	p.mx.Unlock()
	p.exitCh <- code
}

func (p *fakeProcess) Pid() int { return 42 }

// send delivers the signal the way the runtime would.
func (p *fakeProcess) send(t *testing.T, sig os.Signal) {
	t.Helper()
	p.mx.Lock()
	ch := p.ch
	p.mx.Unlock()
	if ch == nil {
		t.Fatal("signals are not monitored")
	}
	select {
	case ch <- sig:
	case <-time.After(waitTimeout):
		t.Fatalf("signal %v was not consumed", sig)
	}
}

// waitExit blocks until the process exits and returns the exit code.
func (p *fakeProcess) waitExit(t *testing.T) int {
	t.Helper()
	select {
	case code := <-p.exitCh:
		return code
	case <-time.After(waitTimeout):
		t.Fatal("process did not exit in time")
		return -1
	}
}

func (p *fakeProcess) exits() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.exitCnt
}

type logEntry struct {
	level string
	msg   string
	err   error
}

// recordLogger keeps all log entries in memory.
type recordLogger struct {
	mx      sync.Mutex
	entries []logEntry
}

func (l *recordLogger) Warn(msg string) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.entries = append(l.entries, logEntry{level: "warn", msg: msg})
}

func (l *recordLogger) Fatal(msg string, err error) {
	l.mx.Lock()
	defer l.mx.Unlock()
	l.entries = append(l.entries, logEntry{level: "fatal", msg: msg, err: err})
}

func (l *recordLogger) all() []logEntry {
	l.mx.Lock()
	defer l.mx.Unlock()
	return append([]logEntry(nil), l.entries...)
}

func (l *recordLogger) has(level, msg string) bool {
	for _, e := range l.all() {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

func (l *recordLogger) String() string {
	return fmt.Sprintf("%+v", l.all())
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeProcess, *recordLogger) {
	t.Helper()
	p := newFakeProcess()
	l := &recordLogger{}
	return New(WithProcess(p), WithLogger(l)), p, l
}
