// Package recents implements the recency ledger: an append-only file of
// corpus lines, oldest first on disk, read back most recent first.
//
// Writers within one process are serialized. Separate processes racing on
// the same file are not coordinated.
package recents

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/fsutil"
)

const (
	// MaxBytes is the ledger size above which the next append compacts it.
	MaxBytes = 4096
	// MaxEntries is the number of distinct lines kept by compaction.
	MaxEntries = 50
)

// writeMu serializes appends and compactions. Compaction renames a new file
// over the ledger, so an append still writing to the old inode would be lost.
var writeMu sync.Mutex

// Ledger is the recents file of one invocation.
type Ledger struct {
	Path    string
	Enabled bool
}

// New returns a ledger for path. An empty path disables it.
func New(path string) Ledger {
	return Ledger{Path: path, Enabled: path != ""}
}

// Append records a selection. It returns false without error when the
// ledger is disabled or token or description is empty. An existing ledger
// is compacted before the line is appended.
func (l Ledger) Append(token, description string) (bool, error) {
	if !l.Enabled || l.Path == "" || token == "" || description == "" {
		return false, nil
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	exists, err := fsutil.Exists(l.Path)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if exists {
		if _, err := l.compact(); err != nil {
			return false, err
		}
	} else if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to create recents directory: %w", err))
	}

	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to open recents: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, errors.NewInternal(err)
	}
	line := corpus.Join(token, description)
	if info.Size() > 0 {
		line = "\n" + line
	}
	if _, err := f.WriteString(line); err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to append to recents: %w", err))
	}
	if err := f.Close(); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// ReadTopN returns at most n distinct lines, most recent first.
// A missing or disabled ledger yields no lines. The file is never modified.
func (l Ledger) ReadTopN(n int) ([]string, error) {
	lines, err := l.readLines()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	return corpus.ReverseDedupe(lines, n), nil
}

// CompactIfOversized rewrites the ledger keeping only the newest
// MaxEntries distinct lines once it grows past MaxBytes. The rewrite
// replaces the file atomically. Below the threshold nothing happens.
func (l Ledger) CompactIfOversized() (bool, error) {
	if !l.Enabled || l.Path == "" {
		return false, nil
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	return l.compact()
}

// compact does the work of CompactIfOversized. The caller holds writeMu.
func (l Ledger) compact() (bool, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewInternal(err)
	}
	if info.Size() <= MaxBytes {
		return false, nil
	}

	lines, err := l.readLines()
	if err != nil {
		return false, err
	}
	kept := corpus.ReverseDedupe(lines, MaxEntries)
	chronological := make([]string, len(kept))
	for i, line := range kept {
		chronological[len(kept)-1-i] = line
	}

	data := []byte(joinLines(chronological))
	if err := fsutil.WriteFileAtomic(l.Path, data, info.Mode().Perm()); err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to compact recents: %w", err))
	}
	return true, nil
}

func (l Ledger) readLines() ([]string, error) {
	if !l.Enabled || l.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}
	return corpus.Lines(string(data)), nil
}

func joinLines(lines []string) string {
	return corpus.Corpus{Lines: lines}.Text()
}
