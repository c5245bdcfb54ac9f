// Package pending deduplicates in-flight submissions by logical identity and
// journals their progress.
package pending

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/solanasaga/saga-tx-go/lifecycle"
)

// Producer runs one submission. It receives a context that is never
// cancelled by a waiting caller.
type Producer[T any] func(ctx context.Context) (T, error)

// Options configures a Registry. The zero value is usable.
type Options struct {
	// Journal records start and settlement of every submission when set.
	Journal Journal
	Logger  *zap.Logger
	Now     func() time.Time
}

// Registry shares one producer run among concurrent callers of the same
// identity. The entry lives until the producer returns; the next call after
// that starts a new run.
type Registry[T any] struct {
	group   singleflight.Group
	mu      sync.Mutex
	pending map[string]struct{}

	journal Journal
	logger  *zap.Logger
	now     func() time.Time
}

// NewRegistry creates an empty Registry.
func NewRegistry[T any](opts Options) *Registry[T] {
	r := &Registry[T]{
		pending: make(map[string]struct{}),
		journal: opts.Journal,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.logger = r.logger.Named("pending")
	return r
}

// SubmitOnce runs producer for identity unless a run is already in flight,
// in which case it waits for that run. Every waiter receives the same value
// and error. A caller whose ctx ends stops waiting with ctx.Err(); the run
// itself continues for the others.
func (r *Registry[T]) SubmitOnce(ctx context.Context, identity string, producer Producer[T]) (T, error) {
	var zero T
	if identity == "" {
		return zero, ErrEmptyIdentity
	}
	if producer == nil {
		return zero, fmt.Errorf("%w: producer", ErrNilParam)
	}
	runCtx := context.WithoutCancel(ctx)

	// Holding mu across DoChan orders this call against settle: a caller
	// either joins the live run or starts a fresh one, never a finished one.
	r.mu.Lock()
	r.pending[identity] = struct{}{}
	ch := r.group.DoChan(identity, func() (v interface{}, err error) {
		// A panic settles the entry as an error instead of escaping into
		// the singleflight goroutine.
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("producer panicked", zap.String("identity", identity), zap.Any("panic", p))
				v, err = nil, fmt.Errorf("%w: %v", ErrProducerPanic, p)
			}
			r.settle(identity, err)
		}()
		r.record(identity, func(rec *Record) {
			*rec = Record{ID: identity, Phase: lifecycle.PhasePreparing, StartedAt: r.now()}
		})
		return producer(runCtx)
	})
	r.mu.Unlock()

	select {
	case res := <-ch:
		if res.Shared {
			r.logger.Debug("shared in-flight submission", zap.String("identity", identity))
		}
		v, _ := res.Val.(T)
		return v, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// IsPending reports whether a run for identity is in flight.
func (r *Registry[T]) IsPending(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[identity]
	return ok
}

// Len returns the number of in-flight identities.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Registry[T]) settle(identity string, err error) {
	r.record(identity, func(rec *Record) {
		if err != nil {
			rec.Phase = lifecycle.PhaseError
			if rec.Reason == "" {
				rec.Reason = err.Error()
			}
			return
		}
		rec.Phase = lifecycle.PhaseConfirmed
	})

	r.mu.Lock()
	delete(r.pending, identity)
	r.group.Forget(identity)
	r.mu.Unlock()
}

// record writes through to the journal. Journal failures are logged and
// never fail the submission.
func (r *Registry[T]) record(identity string, fn func(*Record)) {
	if r.journal == nil {
		return
	}
	if err := Update(r.journal, identity, r.now(), fn); err != nil {
		r.logger.Warn("journal update failed", zap.String("identity", identity), zap.Error(err))
	}
}
