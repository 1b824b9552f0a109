// Package checkpoint saves and restores the state of training extensions, so that training can be resumed.
//
// A Snapshot holds one JSON entry per extension, by name. It is written atomically (to a
// temporary file that is then renamed), holding a lock on "<path>.lock" so concurrent
// programs writing to the same checkpoint don't interleave.
package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Version1 of the checkpoint format. The only one for now.
const Version1 = "ner-checkpoint.v1"

var (
	// SessionID is unique and created anew at the start of the program. It is stamped in every saved Snapshot.
	SessionID string

	// DefaultDirCreationPerm is used when creating the checkpoint directory.
	DefaultDirCreationPerm = os.FileMode(0755)

	// LockRetryDelay is the period used to poll for the lock while another program holds it.
	LockRetryDelay = 500 * time.Millisecond
)

func init() {
	SessionID = strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Snapshot holds the state of named entries.
type Snapshot struct {
	Version string `json:"version"`

	// SessionID of the program that saved the snapshot.
	SessionID string `json:"session_id"`

	Entries map[string]json.RawMessage `json:"entries"`
}

// New creates an empty Snapshot.
func New() *Snapshot {
	return &Snapshot{
		Version:   Version1,
		SessionID: SessionID,
		Entries:   make(map[string]json.RawMessage),
	}
}

// Put encodes v as the entry name, replacing any previous one.
func (s *Snapshot) Put(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode checkpoint entry %q", name)
	}
	s.Entries[name] = data
	return nil
}

// Get decodes the entry name into v. It returns false if there is no such entry.
func (s *Snapshot) Get(name string, v any) (bool, error) {
	data, found := s.Entries[name]
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, errors.Wrapf(err, "failed to decode checkpoint entry %q", name)
	}
	return true, nil
}

// Save writes the snapshot to filePath, replacing any previous one.
// It waits, until ctx is done, for other programs saving to the same filePath.
func Save(ctx context.Context, filePath string, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode checkpoint")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for checkpoint %q", filePath)
	}

	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(ctx, lockPath, func() {
		tmpPath := filePath + ".saving"
		if err := os.WriteFile(tmpPath, data, 0644); err != nil {
			mainErr = errors.Wrapf(err, "failed to write temporary checkpoint %q", tmpPath)
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move checkpoint %q to %q", tmpPath, filePath)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to save %q", lockPath, filePath)
	}
	return nil
}

// Load reads a snapshot saved with Save.
func Load(filePath string) (*Snapshot, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read checkpoint %q", filePath)
	}
	s := &Snapshot{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "failed to parse checkpoint %q", filePath)
	}
	if s.Version != Version1 {
		return nil, errors.Errorf("checkpoint %q has unsupported version %q", filePath, s.Version)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]json.RawMessage)
	}
	return s, nil
}

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes fn.
// If the lockPath is already locked, it polls every LockRetryDelay until it acquires the lock or ctx is done.
func execOnFileLock(ctx context.Context, lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		return errors.Wrapf(err, "while trying to lock %q", lockPath)
	}
	if !locked {
		return errors.Errorf("failed to lock %q", lockPath)
	}

	// Unlock in a deferred function, so it happens even if `fn()` panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr != nil {
			if err == nil {
				err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
			} else {
				klog.Errorf("Error unlocking file %q: %v", lockPath, unlockErr)
			}
		}
	}()

	fn()
	return
}
