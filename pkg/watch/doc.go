// Package watch delivers change notifications for a directory tree.
//
// A Watch owns one background goroutine. Start spawns it; the goroutine
// waits for the root to exist, registers the tree with the native facility,
// signals readiness, then hands every Change to the current Listener until
// Close is called.
//
// # Usage
//
//	w := watch.New("/srv/content", watch.WithListener(func(c watch.Change) {
//	    fmt.Println(c.Op, c.Filename)
//	}))
//	if _, err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if _, err := w.Await(); err != nil {
//	    return err
//	}
//
// # Lifecycle
//
// A Watch moves Created -> Running -> Stopped and is single-use: it cannot
// be restarted after Close. Start twice reports ErrAlreadyStarted; Await
// reports ErrAwaitTimeout if registration does not complete in time, or the
// registration failure itself if the background goroutine already gave up.
// Close waits for the goroutine to exit and reports ErrCloseTimeout when it
// does not. After Close returns the listener is not called again.
//
// # Directory recreation
//
// When the root directory is deleted the native facility drops its watch and
// nothing reports the directory coming back. The Watch notices the loss and
// registers again, waiting for the directory to be recreated. Changes made
// between recreation and re-registration are not reported.
// WithRecovery(false) disables this.
package watch
