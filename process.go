package gracexit

import (
	"os"
	"os/signal"
)

// Process abstracts the hosting OS process.
type Process interface {
	// Notify relays incoming signals to c, like signal.Notify.
	Notify(c chan<- os.Signal, sig ...os.Signal)
	// Stop stops relaying signals to c, like signal.Stop.
	Stop(c chan<- os.Signal)
	// Exit terminates the process with the given code. It does not return for the real process.
	Exit(code int)
	// Pid returns the process id.
	Pid() int
}

type osProcess struct{}

// OSProcess returns the Process implementation backed by os/signal and os.Exit.
func OSProcess() Process {
	return osProcess{}
}

func (osProcess) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }

func (osProcess) Stop(c chan<- os.Signal) { signal.Stop(c) }

func (osProcess) Exit(code int) { os.Exit(code) }

func (osProcess) Pid() int { return os.Getpid() }

var _ Process = osProcess{}
