package suspend

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
)

// Entry is one journaled suspension. Kernel handles are not persisted;
// recovery re-resolves the process's cgroup instead.
type Entry struct {
	PID         int32     `json:"pid"`
	Tier        string    `json:"tier"`
	SuspendedAt time.Time `json:"suspended_at"`
}

// Journal persists the current suspension records so a restarted daemon
// can resume processes a crashed predecessor left frozen.
type Journal struct {
	path string
}

// NewJournal creates a journal at the given path.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Save writes all entries atomically: temp file then rename.
func (j *Journal) Save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	data, err := sonic.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("write temp journal: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("rename journal: %w", err)
	}
	return nil
}

// Load reads the journal. A missing file is an empty journal, not an
// error.
func (j *Journal) Load() ([]Entry, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var entries []Entry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse journal: %w", err)
	}
	return entries, nil
}

// Clear empties the journal.
func (j *Journal) Clear() error {
	return j.Save(nil)
}
