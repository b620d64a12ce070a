package reminder

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const lockFile = "remind.lock"

// LockInfo is the content of the scheduler lock file.
type LockInfo struct {
	PID       int   `json:"pid"`
	StartedAt int64 `json:"started_at"`
}

func lockPath(dir string) string {
	return filepath.Join(dir, lockFile)
}

// acquireLock claims the scheduler lock in dir. The returned file holds an
// exclusive flock until releaseLock or process exit.
func acquireLock(dir string) (*os.File, error) {
	f, err := os.OpenFile(lockPath(dir), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			if info, ok := Running(dir); ok {
				return nil, fmt.Errorf("reminder scheduler already running (pid %d)", info.PID)
			}
			return nil, errors.New("reminder scheduler already running")
		}
		return nil, err
	}

	data, err := json.Marshal(LockInfo{
		PID:       os.Getpid(),
		StartedAt: time.Now().Unix(),
	})
	if err != nil {
		_ = releaseLock(f)
		return nil, err
	}
	if err := f.Truncate(0); err != nil {
		_ = releaseLock(f)
		return nil, err
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		_ = releaseLock(f)
		return nil, err
	}
	if err := f.Sync(); err != nil {
		_ = releaseLock(f)
		return nil, err
	}
	return f, nil
}

// releaseLock clears the lock contents and drops the flock. The file is
// never unlinked.
func releaseLock(f *os.File) error {
	truncErr := f.Truncate(0)
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return errors.Join(truncErr, f.Close())
}

// Running reports the live scheduler holding the lock in dir, if any.
func Running(dir string) (LockInfo, bool) {
	data, err := os.ReadFile(lockPath(dir))
	if err != nil || len(data) == 0 {
		return LockInfo{}, false
	}
	var info LockInfo
	if json.Unmarshal(data, &info) != nil || info.PID <= 0 {
		return LockInfo{}, false
	}
	if syscall.Kill(info.PID, 0) != nil {
		return LockInfo{}, false
	}
	return info, true
}
