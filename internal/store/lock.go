package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// FileLock is an advisory lock file carrying the owner's pid. It guards a
// plan directory against concurrent writers from other processes; within a
// process the engine is already the single writer.
type FileLock struct {
	path string
}

// NewFileLock returns a lock rooted at path, not yet acquired.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file location.
func (l *FileLock) Path() string { return l.path }

// Acquire creates the lock file exclusively. If a lock already exists but
// its owning process is gone, the stale file is removed and acquisition
// retried once.
func (l *FileLock) Acquire() error {
	err := l.tryAcquire()
	if err == nil {
		return nil
	}
	if !os.IsExist(err) {
		return fmt.Errorf("acquire lock: %w", err)
	}

	pid, perr := l.ownerPID()
	if perr == nil && processAlive(pid) {
		return fmt.Errorf("plan directory locked by running process %d", pid)
	}

	// Stale or unreadable lock: clear it and retry once.
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale lock: %w", err)
	}
	if err := l.tryAcquire(); err != nil {
		return fmt.Errorf("acquire lock after stale cleanup: %w", err)
	}
	return nil
}

// Release removes the lock file. Releasing an unheld lock is a no-op.
func (l *FileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

func (l *FileLock) tryAcquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%d\n", os.Getpid())
	return err
}

// ownerPID reads the pid recorded in the lock file.
func (l *FileLock) ownerPID() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// processAlive reports whether a process with the given pid exists. Signal
// zero checks existence without delivering anything.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
