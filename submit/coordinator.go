package submit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/pending"
	"github.com/solanasaga/saga-tx-go/tx"
)

// Result is the outcome of a confirmed run.
type Result struct {
	Signature solana.Signature
	Confirmed bool
	Attempts  int
}

// TransactionBuilder produces a fresh unsigned transaction per call.
type TransactionBuilder interface {
	Build(ctx context.Context, operations []solana.Instruction, feePayer solana.PublicKey) (*tx.Unsigned, error)
}

// SigningDispatcher signs and submits one prepared transaction.
type SigningDispatcher interface {
	Dispatch(ctx context.Context, u *tx.Unsigned, opts DispatchOptions) (solana.Signature, error)
}

// ConfirmationWaiter waits for a submitted signature.
type ConfirmationWaiter interface {
	ConfirmAt(ctx context.Context, sig solana.Signature, cp tx.Checkpoint, target network.Commitment) error
}

// CoordinatorConfig wires a Coordinator. Builder, Dispatcher and Waiter are
// required.
type CoordinatorConfig struct {
	Builder    TransactionBuilder
	Dispatcher SigningDispatcher
	Waiter     ConfirmationWaiter

	// Emitter receives every phase of every run until the next Reset.
	Emitter *lifecycle.Emitter
	// Journal records the progress of runs that carry an Identity.
	Journal pending.Journal
	Metrics *Metrics
	Logger  *zap.Logger
	Sleep   func(ctx context.Context, d time.Duration) error
	Now     func() time.Time
}

// Coordinator runs bounded attempts of build, dispatch and confirm. Each
// attempt builds a new transaction with a new checkpoint; nothing from a
// failed attempt is reused.
type Coordinator struct {
	builder    TransactionBuilder
	dispatcher SigningDispatcher
	waiter     ConfirmationWaiter
	emitter    *lifecycle.Emitter
	journal    pending.Journal
	metrics    *Metrics
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	generation atomic.Uint64
	active     atomic.Int64
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		builder:    cfg.Builder,
		dispatcher: cfg.Dispatcher,
		waiter:     cfg.Waiter,
		emitter:    cfg.Emitter,
		journal:    cfg.Journal,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
		now:        cfg.Now,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Reset stops every run at its next attempt boundary and detaches those
// runs from the emitter. An attempt already in progress finishes.
func (c *Coordinator) Reset() {
	c.generation.Add(1)
}

// Active returns the number of runs in progress.
func (c *Coordinator) Active() int {
	return int(c.active.Load())
}

// Run submits operations paid by feePayer, making at most maxAttempts
// attempts. Terminal errors end the run at once. Retryable errors are
// retried after Backoff; when the budget runs out the last one is returned
// inside a *RetriesExhaustedError. A single-attempt run returns its error
// unwrapped.
func (c *Coordinator) Run(ctx context.Context, operations []solana.Instruction, feePayer solana.PublicKey, maxAttempts int, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	gen := c.generation.Load()
	log := c.logger.With(zap.String("run_id", uuid.NewString()))
	if opts.Identity != "" {
		log = log.With(zap.String("identity", opts.Identity))
	}

	c.active.Add(1)
	defer c.active.Add(-1)
	c.metrics.runStarted()

	m := lifecycle.NewMachine(c.sink(gen, opts))
	res, err := c.run(ctx, m, log, gen, operations, feePayer, maxAttempts, opts)
	c.metrics.runFinished(err)
	return res, err
}

func (c *Coordinator) run(ctx context.Context, m *lifecycle.Machine, log *zap.Logger, gen uint64,
	operations []solana.Instruction, feePayer solana.PublicKey, maxAttempts int, opts Options) (*Result, error) {
	if err := m.Start(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			delay := Backoff(attempt-1, opts.RetryDelay, opts.MaxRetryDelay)
			log.Info("retrying", zap.Int("attempt", attempt), zap.Duration("backoff", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return c.fail(m, err)
			}
			if c.generation.Load() != gen {
				return c.fail(m, ErrReset)
			}
			if err := m.NextAttempt(); err != nil {
				return nil, err
			}
		}

		log.Debug("attempt started", zap.Int("attempt", attempt))
		sig, err := c.attempt(ctx, m, log, operations, feePayer, opts)
		if err == nil {
			_ = m.Confirm(sig)
			log.Info("transaction confirmed", zap.Int("attempt", attempt), zap.Stringer("signature", sig))
			return &Result{Signature: sig, Confirmed: true, Attempts: attempt}, nil
		}

		kind := Classify(err)
		log.Warn("attempt failed", zap.Int("attempt", attempt), zap.Stringer("kind", kind), zap.Error(err))
		if !kind.Retryable() || maxAttempts == 1 {
			return c.fail(m, err)
		}
		if attempt >= maxAttempts {
			return c.fail(m, &RetriesExhaustedError{Attempts: attempt, LastPhase: m.State().Phase, Err: err})
		}
		if c.generation.Load() != gen {
			return c.fail(m, ErrReset)
		}
	}
}

func (c *Coordinator) attempt(ctx context.Context, m *lifecycle.Machine, log *zap.Logger,
	operations []solana.Instruction, feePayer solana.PublicKey, opts Options) (solana.Signature, error) {
	u, err := c.builder.Build(ctx, operations, feePayer)
	if err != nil {
		return solana.Signature{}, err
	}
	c.record(opts.Identity, func(r *pending.Record) { r.ExpiryHeight = u.Checkpoint.ExpiryHeight })

	sig, err := c.dispatcher.Dispatch(ctx, u, DispatchOptions{
		Send: opts.sendOptions(),
		Report: func(p lifecycle.Phase) {
			if err := m.Advance(p); err != nil {
				log.Debug("phase not advanced", zap.Error(err))
			}
		},
	})
	if err != nil {
		return solana.Signature{}, err
	}
	_ = m.Confirming(sig)

	sent := c.now()
	if err := c.waiter.ConfirmAt(ctx, sig, u.Checkpoint, opts.Commitment); err != nil {
		return sig, err
	}
	c.metrics.confirmed(c.now().Sub(sent))
	return sig, nil
}

// reject publishes a run that failed before it could start.
func (c *Coordinator) reject(opts Options, err error) error {
	m := lifecycle.NewMachine(c.sink(c.generation.Load(), opts.withDefaults()))
	_ = m.Fail(Reason(err))
	return err
}

func (c *Coordinator) fail(m *lifecycle.Machine, err error) (*Result, error) {
	_ = m.Fail(Reason(err))
	return nil, err
}

// sink fans a run's states out to the shared emitter (until a Reset), the
// caller's observer and the journal.
func (c *Coordinator) sink(gen uint64, opts Options) func(lifecycle.State) {
	return func(s lifecycle.State) {
		if c.emitter != nil && c.generation.Load() == gen {
			c.emitter.Emit(s)
		}
		if opts.OnPhase != nil {
			opts.OnPhase(s)
		}
		c.record(opts.Identity, func(r *pending.Record) {
			r.Phase = s.Phase
			r.Attempt = s.Attempt
			r.Reason = s.Reason
			if s.Signature != (solana.Signature{}) {
				r.Signature = s.Signature
			}
			if r.Metadata == nil && len(opts.Metadata) > 0 {
				r.Metadata = make(map[string]string, len(opts.Metadata))
				for k, v := range opts.Metadata {
					r.Metadata[k] = v
				}
			}
		})
	}
}

// record writes through to the journal. Failures are logged, never returned.
func (c *Coordinator) record(identity string, fn func(*pending.Record)) {
	if c.journal == nil || identity == "" {
		return
	}
	if err := pending.Update(c.journal, identity, c.now(), fn); err != nil {
		c.logger.Warn("journal update failed", zap.String("identity", identity), zap.Error(err))
	}
}
