// Package watcher wraps the native filesystem notification facility
// (fsnotify) in a single-session Eye.
//
// The native facility only reports events for directories it was explicitly
// told about. An Eye hides that: Register waits for the root to exist, then
// walks it and adds every directory. Poll performs one bounded wait and turns
// whatever the facility delivered into Change records.
//
// Usage:
//
//	eye := watcher.NewEye(watcher.DefaultOptions())
//	defer eye.Close()
//
//	if err := eye.Register(ctx, "/path/to/root"); err != nil {
//	    return err
//	}
//
//	for {
//	    changes, err := eye.Poll(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    for _, c := range changes {
//	        fmt.Println(c.Op, c.Filename)
//	    }
//	}
//
// An Eye is not safe for concurrent Poll calls; it is meant to be owned by
// one goroutine.
package watcher
