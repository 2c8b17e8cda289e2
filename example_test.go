package gracexit_test

import (
	"errors"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/skovtunenko/gracexit"
)

func ExampleSetExitHandler() {
	// Register the only exit handler of the process:
	err := gracexit.SetExitHandler(func(isExpectedExit bool, cause error) (int, error) {
		log.Printf("shutting down (expected: %v): %v", isExpectedExit, cause)

		// close resources here...

		return 0, nil
	})
	if err != nil {
		log.Fatalf("set exit handler: %+v", err)
	}
}

func ExampleCoordinator_SetLogger() {
	coordinator := gracexit.New()

	// Set hclog based logger instead of default console one:
	if err := coordinator.SetLogger(gracexit.NewHCLogger(hclog.New(&hclog.LoggerOptions{
		Name:   "exit",
		Output: os.Stderr,
	}))); err != nil {
		log.Printf("set logger: %+v", err)
	}

	// Or a standard library logger:
	_ = coordinator.SetLogger(gracexit.NewPrintfLogger(log.Default()))
}

func ExampleCoordinator_Subscribe() {
	coordinator := gracexit.New()

	unsubscribe := coordinator.Subscribe(gracexit.EventWillExit, func(isExpectedExit bool) {
		log.Printf("process is about to exit (expected: %v)", isExpectedExit)
	})
	defer unsubscribe()
}

func ExampleCoordinator_Go() {
	coordinator := gracexit.New()

	if err := coordinator.SetExitHandler(func(isExpectedExit bool, cause error) (int, error) {
		if errors.Is(cause, errBrokenPipeline) {
			return 3, nil
		}
		return 0, nil
	}); err != nil {
		log.Fatalf("set exit handler: %+v", err)
	}

	// non-nil error terminates the process with the exit code 3:
	coordinator.Go(func() error {
		return errBrokenPipeline
	})
}

var errBrokenPipeline = errors.New("broken pipeline")
