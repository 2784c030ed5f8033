package binary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the maximum age of an install lock before it's considered stale.
	StaleLockThreshold = 10 * time.Minute
)

// ErrInstallInProgress means another process holds the install lock for the
// same tool and destination.
var ErrInstallInProgress = errors.New("install lock exists: another install of this tool may be in progress")

// installLock serializes installs of one tool into one directory.
type installLock struct {
	path string
	file *os.File
}

func lockPath(dir string, tool Tool) string {
	return filepath.Join(dir, fmt.Sprintf(".%s.lock", tool))
}

// acquireInstallLock creates the lock file with O_CREATE|O_EXCL. A lock older
// than StaleLockThreshold is removed and acquisition retried once.
func acquireInstallLock(dir string, tool Tool) (*installLock, error) {
	path := lockPath(dir, tool)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if stale, _ := isLockStale(path); !stale {
			return nil, ErrInstallInProgress
		}
		os.Remove(path)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrInstallInProgress
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &installLock{path: path, file: file}, nil
}

// release removes the lock file.
func (l *installLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}

	return nil
}

func isLockStale(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
