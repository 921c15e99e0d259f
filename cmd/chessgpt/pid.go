// FILE: cmd/chessgpt/pid.go
package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// lockInstance writes the PID to path and holds an exclusive lock on it so
// two players never archive into the same database. The returned function
// releases the lock and removes the file.
func lockInstance(path string) (func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open PID file: %w", err)
	}

	if err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return nil, fmt.Errorf("cannot acquire lock: another instance is running")
		}
		return nil, fmt.Errorf("lock failed: %w", err)
	}

	// The lock is held, so any previous content is stale
	if err = file.Truncate(0); err == nil {
		_, err = fmt.Fprintf(file, "%d\n", os.Getpid())
	}
	if err == nil {
		err = file.Sync()
	}
	if err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("cannot write PID: %w", err)
	}

	return func() {
		os.Remove(path)
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
	}, nil
}
