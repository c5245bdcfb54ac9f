// Package submit runs Solana transactions from instructions to confirmation:
// it builds with a fresh checkpoint, signs through the protocol the runtime
// environment requires, waits for confirmation, retries what is safe to
// retry, and publishes every phase.
package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/pending"
	"github.com/solanasaga/saga-tx-go/platform"
	"github.com/solanasaga/saga-tx-go/tx"
	"github.com/solanasaga/saga-tx-go/wallet"
)

// Config wires a Handler. RPC is required.
type Config struct {
	RPC    network.BlockchainService
	Wallet wallet.Adapter
	// Classifier decides the signing protocol. Nil means desktop.
	Classifier *platform.Classifier

	Journal    pending.Journal
	JournalTTL time.Duration

	PollInterval    time.Duration
	MaxPollErrors   int
	DeepLinkTimeout time.Duration

	Metrics *Metrics
	Logger  *zap.Logger
	Sleep   func(ctx context.Context, d time.Duration) error
	Now     func() time.Time
}

// Handler is the caller-facing submission surface.
type Handler struct {
	wallet     wallet.Adapter
	classifier *platform.Classifier
	env        platform.Environment

	builder  *tx.Builder
	coord    *Coordinator
	emitter  *lifecycle.Emitter
	registry *pending.Registry[*Result]

	journal pending.Journal
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewHandler creates a Handler. The environment is classified here, once.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.RPC == nil {
		return nil, fmt.Errorf("%w: rpc", ErrNilParam)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = platform.Fixed(platform.Desktop)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.JournalTTL <= 0 {
		cfg.JournalTTL = pending.DefaultTTL
	}
	logger := cfg.Logger.Named("submit")
	env := cfg.Classifier.Environment()

	builder := tx.NewBuilder(tx.NewBlockhashProvider(cfg.RPC))
	dispatcher := NewDispatcher(env, cfg.Wallet, cfg.RPC, cfg.DeepLinkTimeout, logger)
	dispatcher.metrics = cfg.Metrics
	waiter := NewWaiter(cfg.RPC, WaiterConfig{
		PollInterval:  cfg.PollInterval,
		MaxPollErrors: cfg.MaxPollErrors,
		Logger:        logger,
		Sleep:         cfg.Sleep,
	})
	emitter := lifecycle.NewEmitter()

	h := &Handler{
		wallet:     cfg.Wallet,
		classifier: cfg.Classifier,
		env:        env,
		builder:    builder,
		emitter:    emitter,
		journal:    cfg.Journal,
		ttl:        cfg.JournalTTL,
		now:        cfg.Now,
		logger:     logger,
		coord: NewCoordinator(CoordinatorConfig{
			Builder:    builder,
			Dispatcher: dispatcher,
			Waiter:     waiter,
			Emitter:    emitter,
			Journal:    cfg.Journal,
			Metrics:    cfg.Metrics,
			Logger:     logger,
			Sleep:      cfg.Sleep,
			Now:        cfg.Now,
		}),
		registry: pending.NewRegistry[*Result](pending.Options{
			Journal: cfg.Journal,
			Logger:  cfg.Logger,
			Now:     cfg.Now,
		}),
	}
	logger.Info("handler ready", zap.Stringer("environment", env))
	return h, nil
}

func (h *Handler) connected() bool {
	return h.wallet != nil && h.wallet.Connected()
}

// CreateTransaction builds an unsigned transaction paid by the connected
// wallet.
func (h *Handler) CreateTransaction(ctx context.Context, instructions []solana.Instruction) (*tx.Unsigned, error) {
	if !h.connected() {
		return nil, ErrWalletNotConnected
	}
	return h.builder.Build(ctx, instructions, h.wallet.PublicKey())
}

// SendTransaction makes one attempt to land u. The checkpoint carried by u
// is replaced by a fresh one immediately before the wallet sees it.
func (h *Handler) SendTransaction(ctx context.Context, u *tx.Unsigned, opts Options) (*Result, error) {
	if err := h.precheck(u, opts); err != nil {
		return nil, err
	}
	return h.coord.Run(ctx, u.Operations, u.FeePayer, 1, opts)
}

// SendTransactionWithRetry lands u within opts.MaxRetries attempts. With an
// Identity set, concurrent calls for the same identity share one run.
func (h *Handler) SendTransactionWithRetry(ctx context.Context, u *tx.Unsigned, opts Options) (*Result, error) {
	if err := h.precheck(u, opts); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	run := func(ctx context.Context) (*Result, error) {
		return h.coord.Run(ctx, u.Operations, u.FeePayer, opts.MaxRetries, opts)
	}
	if opts.Identity == "" {
		return run(ctx)
	}
	return h.registry.SubmitOnce(ctx, opts.Identity, run)
}

// SendTransactionBatch sends each transaction in order, starting the next
// only after the previous one confirmed. It stops at the first failure and
// returns the results confirmed so far with the error.
func (h *Handler) SendTransactionBatch(ctx context.Context, batch []*tx.Unsigned, opts Options) ([]*Result, error) {
	results := make([]*Result, 0, len(batch))
	for i, u := range batch {
		res, err := h.SendTransaction(ctx, u, opts)
		if err != nil {
			return results, fmt.Errorf("submit: batch item %d of %d: %w", i+1, len(batch), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// TrackTransaction runs factory under identity unless a run for identity is
// already in flight, in which case it shares that run's outcome.
func (h *Handler) TrackTransaction(ctx context.Context, identity string, factory pending.Producer[*Result]) (*Result, error) {
	return h.registry.SubmitOnce(ctx, identity, factory)
}

// IsPending reports whether a run for identity is in flight.
func (h *Handler) IsPending(identity string) bool {
	return h.registry.IsPending(identity)
}

// Subscribe observes every phase published by this handler.
func (h *Handler) Subscribe(observer func(lifecycle.State)) (unsubscribe func()) {
	return h.emitter.Subscribe(observer)
}

// Status returns the last published state.
func (h *Handler) Status() lifecycle.State {
	return h.emitter.Current()
}

// IsProcessing reports whether any run is in progress.
func (h *Handler) IsProcessing() bool {
	return h.coord.Active() > 0
}

// Reset publishes idle and stops in-flight runs at their next attempt
// boundary. Wallet interactions already started are not interrupted.
func (h *Handler) Reset() {
	h.coord.Reset()
	h.emitter.Reset()
}

// Environment returns the classified runtime environment.
func (h *Handler) Environment() platform.Environment { return h.env }

// IsMobile reports whether the host is a mobile device.
func (h *Handler) IsMobile() bool {
	return h.env != platform.Desktop || h.classifier.Signals().Mobile()
}

// Recoverable lists journaled submissions that had not confirmed and are
// younger than the journal TTL.
func (h *Handler) Recoverable() ([]*pending.Record, error) {
	if h.journal == nil {
		return nil, nil
	}
	return pending.Recoverable(h.journal, h.now(), h.ttl)
}

// ClearJournal forgets the journal record for identity.
func (h *Handler) ClearJournal(identity string) error {
	if h.journal == nil {
		return nil
	}
	return h.journal.Delete(identity)
}

// PruneJournal deletes records that are no longer recoverable.
func (h *Handler) PruneJournal() (int, error) {
	if h.journal == nil {
		return 0, nil
	}
	n, err := pending.Prune(h.journal, h.now(), h.ttl)
	if n > 0 {
		h.logger.Debug("journal pruned", zap.Int("removed", n))
	}
	return n, err
}

// precheck rejects calls that cannot start and publishes the error phase
// for them.
func (h *Handler) precheck(u *tx.Unsigned, opts Options) error {
	switch {
	case !h.connected():
		return h.coord.reject(opts, ErrWalletNotConnected)
	case u == nil:
		return h.coord.reject(opts, fmt.Errorf("%w: unsigned transaction", tx.ErrNilParam))
	}
	return nil
}
