package gracexit

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
)

// Logger specifies the interface for all diagnostic output of the Coordinator.
type Logger interface {
	Warn(msg string)
	Fatal(msg string, err error)
}

// Printfer is implemented by *log.Logger.
type Printfer interface {
	Printf(format string, v ...interface{})
}

var (
	warnColor  = color.New(color.FgYellow)
	fatalColor = color.New(color.FgRed, color.Bold)
)

// consoleLogger prints colored messages to the error stream.
type consoleLogger struct {
	w io.Writer
}

// NewConsoleLogger creates a colored console Logger writing to w.
// If w is nil, os.Stderr is used.
func NewConsoleLogger(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &consoleLogger{w: w}
}

func (l *consoleLogger) Warn(msg string) {
	warnColor.Fprintf(l.w, "[*] %s\n", msg)
}

func (l *consoleLogger) Fatal(msg string, err error) {
	if err == nil {
		fatalColor.Fprintf(l.w, "[!] %s\n", msg)
		return
	}
	fatalColor.Fprintf(l.w, "[!] %s: %+v\n", msg, err)
}

type hcLogger struct {
	l hclog.Logger
}

// NewHCLogger adapts a hclog.Logger. Fatal messages are emitted at error level.
func NewHCLogger(l hclog.Logger) Logger {
	if l == nil {
		l = hclog.Default()
	}
	return &hcLogger{l: l}
}

func (l *hcLogger) Warn(msg string) {
	l.l.Warn(msg)
}

func (l *hcLogger) Fatal(msg string, err error) {
	if err == nil {
		l.l.Error(msg)
		return
	}
	l.l.Error(msg, "error", err)
}

type printfLogger struct {
	l Printfer
}

// NewPrintfLogger adapts a Printf-style logger.
// If l is nil, log.Default() is used.
func NewPrintfLogger(l Printfer) Logger {
	if l == nil {
		l = log.Default()
	}
	return &printfLogger{l: l}
}

func (l *printfLogger) Warn(msg string) {
	l.l.Printf("[WARN] %s", msg)
}

func (l *printfLogger) Fatal(msg string, err error) {
	if err == nil {
		l.l.Printf("[FATAL] %s", msg)
		return
	}
	l.l.Printf("[FATAL] %s: %+v", msg, err)
}

var (
	_ Logger = &consoleLogger{}
	_ Logger = &hcLogger{}
	_ Logger = &printfLogger{}
)
