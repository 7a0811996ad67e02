// Package ledger accumulates the outcome of every item in a batch run and
// persists it as batch_summary.json.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ZacxDev/newsclip/pkg/types"
	"github.com/pkg/errors"
)

// Entry is one outcome record.
type Entry struct {
	Catalog     string          `json:"catalog,omitempty"`
	Category    string          `json:"category"`
	Keyword     string          `json:"keyword"`
	Title       string          `json:"title"`
	Status      types.ItemState `json:"status"`
	Video       string          `json:"video,omitempty"`
	TitleCard   string          `json:"title_card,omitempty"`
	Skipped     bool            `json:"skipped,omitempty"`
	DurationSec float64         `json:"duration_sec,omitempty"`
	FPS         float64         `json:"fps,omitempty"`
	Frames      int             `json:"frames,omitempty"`
	Step        string          `json:"step,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Position orders entries by where their item sits in the run: catalog index,
// then item index within the catalog.
type Position struct {
	Catalog int
	Item    int
}

func (p Position) less(o Position) bool {
	if p.Catalog != o.Catalog {
		return p.Catalog < o.Catalog
	}
	return p.Item < o.Item
}

type record struct {
	pos   Position
	entry Entry
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu        sync.Mutex
	successes []record
	failures  []record
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Add records e as a success or failure according to its status.
func (l *Ledger) Add(pos Position, e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Status.Succeeded() {
		l.successes = append(l.successes, record{pos, e})
	} else {
		l.failures = append(l.failures, record{pos, e})
	}
}

// Successes returns success entries in run order.
func (l *Ledger) Successes() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sorted(l.successes)
}

// Failures returns failure entries in run order.
func (l *Ledger) Failures() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sorted(l.failures)
}

// Counts returns the number of successes and failures.
func (l *Ledger) Counts() (successes, failures int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.successes), len(l.failures)
}

func sorted(records []record) []Entry {
	cp := append([]record(nil), records...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].pos.less(cp[j].pos) })
	out := make([]Entry, len(cp))
	for i, r := range cp {
		out[i] = r.entry
	}
	return out
}

// Summary is the on-disk shape of a ledger. Both lists are always present,
// empty rather than null.
type Summary struct {
	Successes []Entry `json:"successes"`
	Failures  []Entry `json:"failures"`
}

// Summary snapshots the ledger in run order.
func (l *Ledger) Summary() Summary {
	return Summary{Successes: l.Successes(), Failures: l.Failures()}
}

// WriteJSON writes the ledger to path. The file is replaced atomically so a
// crash never leaves a truncated summary.
func (l *Ledger) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create ledger directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".batch_summary-*.json")
	if err != nil {
		return errors.Wrap(err, "create ledger temp file")
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l.Summary()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "encode ledger")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close ledger temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "write ledger")
	}
	return nil
}

// ReadJSON loads a summary written by WriteJSON.
func ReadJSON(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "decode ledger %s", path)
	}
	return &s, nil
}
