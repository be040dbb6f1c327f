// Package lock provides a cross-process lockfile guarding sync runs.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/cadence/internal/logger"
)

// ErrLocked is returned when another live process holds the lock
var ErrLocked = errors.New("another sync is already running")

var (
	findProcessFunc = ps.FindProcess
	currentPID      = os.Getpid
)

// Locker serializes sync runs. Unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// File is a PID lockfile. A lockfile whose owner is no longer running is
// treated as stale and replaced.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

// Holder describes the process recorded in a lockfile
type Holder struct {
	PID        int
	Executable string
}

func (f *File) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := f.create()
		if err == nil {
			return f.release, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		holder, alive, err := f.inspect()
		if err != nil {
			return nil, err
		}
		if alive {
			return nil, fmt.Errorf("%w (pid %d)", ErrLocked, holder.PID)
		}

		logger.Warn("Removing stale sync lockfile", "path", f.Path, "pid", holder.PID)
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, ErrLocked
}

func (f *File) create() error {
	fh, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	defer fh.Close()

	exe := ""
	if p, err := findProcessFunc(currentPID()); err == nil && p != nil {
		exe = p.Executable()
	}
	_, err = fmt.Fprintf(fh, "%d|%s\n", currentPID(), exe)
	return err
}

// inspect reads the lockfile and reports whether its holder is still running
func (f *File) inspect() (Holder, bool, error) {
	holder, err := ReadHolder(f.Path)
	if err != nil {
		// Unreadable or malformed lockfiles are stale
		return holder, false, nil
	}

	process, err := findProcessFunc(holder.PID)
	if err != nil || process == nil {
		return holder, false, nil
	}
	if holder.Executable != "" && process.Executable() != holder.Executable {
		// The PID was recycled by an unrelated program
		return holder, false, nil
	}
	return holder, true, nil
}

// Inspect reports the recorded holder and whether it is still running. It
// returns an error wrapping os.ErrNotExist when no lockfile exists.
func (f *File) Inspect() (Holder, bool, error) {
	if _, err := os.Stat(f.Path); err != nil {
		return Holder{}, false, err
	}
	return f.inspect()
}

// RemoveStale deletes the lockfile when its holder is gone and reports
// whether anything was removed.
func (f *File) RemoveStale() (bool, error) {
	_, alive, err := f.Inspect()
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if alive {
		return false, nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return false, err
	}
	return true, nil
}

func (f *File) release() error {
	holder, err := ReadHolder(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if holder.PID != currentPID() {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadHolder parses a lockfile of the form "pid|executable"
func ReadHolder(path string) (Holder, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Holder{}, err
	}

	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	if len(parts) != 2 {
		return Holder{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid < 1 {
		return Holder{}, errors.New("invalid process ID in lockfile")
	}
	return Holder{PID: pid, Executable: parts[1]}, nil
}
