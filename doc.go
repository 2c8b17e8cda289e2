// Package gracexit provides a process-wide [Coordinator] that intercepts termination triggers
// and funnels them through exactly one exit [Handler] before the process terminates with a deterministic exit code.
//
// The triggers are: [os.Interrupt] (SIGINT), SIGTERM, unhandled failures of background tasks
// reported with [Coordinator.Reject] and panics recovered with [Coordinator.Recover].
// SIGINT is always an expected exit. Every other trigger carries a cause and is unexpected.
//
// The exit handler is invoked at most once. A second trigger received while the handler is still running
// forces the exit with the error exit code (1 by default) without invoking the handler again.
//
// Passive observers registered with [Coordinator.Subscribe] are notified synchronously before the handler starts.
//
// Example code:
//
//	func main() {
//		if err := gracexit.SetExitHandler(func(isExpectedExit bool, cause error) (int, error) {
//			log.Printf("closing resources (expected: %v, cause: %v)", isExpectedExit, cause)
//			return 0, db.Close()
//		}); err != nil {
//			log.Fatal(err)
//		}
//
//		gracexit.OnWillExit(func(isExpectedExit bool) {
//			readiness.Store(false)
//		})
//
//		gracexit.Go(func() error {
//			return worker.Run() // a returned error terminates the process
//		})
//
//		defer gracexit.Recover()
//		// ... run the application
//		select {}
//	}
//
// Exit codes:
//   - 0 for an expected exit, unless the handler returned a positive code;
//   - the positive code returned by the handler for an unexpected exit, or the error exit code otherwise;
//   - the error exit code if the handler failed or a trigger was received twice.
package gracexit
