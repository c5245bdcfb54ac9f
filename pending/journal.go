package pending

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/lifecycle"
)

// DefaultTTL is how long an unfinished record stays recoverable.
const DefaultTTL = 2 * time.Minute

// Record is the persisted progress of one logical transaction, written so a
// restarted client can tell the user a submission may still be landing.
type Record struct {
	ID           string
	Phase        lifecycle.Phase
	Attempt      int
	Signature    solana.Signature
	Reason       string
	ExpiryHeight uint64
	StartedAt    time.Time
	UpdatedAt    time.Time
	Metadata     map[string]string
}

// Recoverable reports whether r did not confirm and was touched within ttl.
func (r *Record) Recoverable(now time.Time, ttl time.Duration) bool {
	if r == nil || r.Phase == lifecycle.PhaseConfirmed || r.Phase == lifecycle.PhaseIdle {
		return false
	}
	return now.Sub(r.UpdatedAt) < ttl
}

func (r *Record) clone() *Record {
	c := *r
	if r.Metadata != nil {
		c.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Journal persists Records keyed by identity.
type Journal interface {
	// Put stores r, replacing any record with the same ID.
	Put(r *Record) error

	// Get returns the record for id or ErrRecordNotFound.
	Get(id string) (*Record, error)

	// Delete removes the record for id. Deleting a missing record is not an error.
	Delete(id string) error

	// List returns all records ordered by StartedAt.
	List() ([]*Record, error)
}

// Update applies fn to the record for id, creating it when absent, and
// stamps UpdatedAt.
func Update(j Journal, id string, now time.Time, fn func(r *Record)) error {
	if j == nil {
		return fmt.Errorf("%w: journal", ErrNilParam)
	}
	if id == "" {
		return ErrEmptyIdentity
	}
	r, err := j.Get(id)
	switch {
	case err == nil:
	case errors.Is(err, ErrRecordNotFound):
		r = &Record{ID: id, Phase: lifecycle.PhaseIdle, StartedAt: now}
	default:
		return err
	}
	fn(r)
	r.ID = id
	r.UpdatedAt = now
	return j.Put(r)
}

// Recoverable lists records still worth surfacing at now.
func Recoverable(j Journal, now time.Time, ttl time.Duration) ([]*Record, error) {
	all, err := j.List()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, r := range all {
		if r.Recoverable(now, ttl) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Prune deletes every record that is no longer recoverable and returns how
// many were removed.
func Prune(j Journal, now time.Time, ttl time.Duration) (int, error) {
	all, err := j.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range all {
		if r.Recoverable(now, ttl) {
			continue
		}
		if err := j.Delete(r.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func sortRecords(rs []*Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].StartedAt.Equal(rs[j].StartedAt) {
			return rs[i].ID < rs[j].ID
		}
		return rs[i].StartedAt.Before(rs[j].StartedAt)
	})
}

// MemJournal is an in-memory Journal for tests and journal-less handlers.
type MemJournal struct {
	mu      sync.RWMutex
	records map[string]*Record
}

var _ Journal = (*MemJournal)(nil)

// NewMemJournal creates an empty in-memory journal.
func NewMemJournal() *MemJournal {
	return &MemJournal{records: make(map[string]*Record)}
}

func (j *MemJournal) Put(r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	if r.ID == "" {
		return ErrEmptyIdentity
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[r.ID] = r.clone()
	return nil
}

func (j *MemJournal) Get(id string) (*Record, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	r, ok := j.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return r.clone(), nil
}

func (j *MemJournal) Delete(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.records, id)
	return nil
}

func (j *MemJournal) List() ([]*Record, error) {
	j.mu.RLock()
	out := make([]*Record, 0, len(j.records))
	for _, r := range j.records {
		out = append(out, r.clone())
	}
	j.mu.RUnlock()
	sortRecords(out)
	return out, nil
}
