package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/tx"
)

// Waiter defaults.
const (
	DefaultPollInterval  = 2 * time.Second
	DefaultMaxPollErrors = 3
)

// StatusSource is the subset of the RPC collaborator the waiter polls.
type StatusSource interface {
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*network.SignatureStatus, error)
	GetBlockHeight(ctx context.Context, commitment network.Commitment) (uint64, error)
}

// WaiterConfig configures a Waiter. Zero fields take their defaults.
type WaiterConfig struct {
	PollInterval  time.Duration
	MaxPollErrors int
	Logger        *zap.Logger
	// Sleep replaces the poll wait in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Waiter polls a signature until it reaches the target commitment or its
// checkpoint expires.
type Waiter struct {
	rpc           StatusSource
	interval      time.Duration
	maxPollErrors int
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *zap.Logger
}

// NewWaiter creates a Waiter polling rpc.
func NewWaiter(rpc StatusSource, cfg WaiterConfig) *Waiter {
	w := &Waiter{
		rpc:           rpc,
		interval:      cfg.PollInterval,
		maxPollErrors: cfg.MaxPollErrors,
		sleep:         cfg.Sleep,
		logger:        cfg.Logger,
	}
	if w.interval <= 0 {
		w.interval = DefaultPollInterval
	}
	if w.maxPollErrors <= 0 {
		w.maxPollErrors = DefaultMaxPollErrors
	}
	if w.sleep == nil {
		w.sleep = sleepContext
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Confirm waits for sig at confirmed commitment. See ConfirmAt.
func (w *Waiter) Confirm(ctx context.Context, sig solana.Signature, cp tx.Checkpoint) error {
	return w.ConfirmAt(ctx, sig, cp, network.CommitmentConfirmed)
}

// ConfirmAt returns nil once sig reaches target, *TransactionError if the
// chain recorded a failure, and ErrExpired once the block height passes the
// checkpoint with no confirmation. Expiry is only declared after one last
// status check. Consecutive polling failures beyond the configured limit
// end the wait with the last failure.
func (w *Waiter) ConfirmAt(ctx context.Context, sig solana.Signature, cp tx.Checkpoint, target network.Commitment) error {
	pollErrs := 0
	pollFailed := func(err error) error {
		pollErrs++
		w.logger.Debug("confirmation poll failed", zap.Int("consecutive", pollErrs), zap.Error(err))
		if pollErrs > w.maxPollErrors {
			return fmt.Errorf("submit: confirm %s: %w", sig, err)
		}
		return nil
	}

	for {
		done, err := w.check(ctx, sig, target)
		if done {
			return err
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if ferr := pollFailed(err); ferr != nil {
				return ferr
			}
		} else {
			pollErrs = 0
		}

		height, err := w.rpc.GetBlockHeight(ctx, network.CommitmentConfirmed)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if ferr := pollFailed(err); ferr != nil {
				return ferr
			}
		case cp.ExpiredAt(height):
			if done, err := w.check(ctx, sig, target); done {
				return err
			}
			return fmt.Errorf("%w: block height %d passed %d", ErrExpired, height, cp.ExpiryHeight)
		}

		if err := w.sleep(ctx, w.interval); err != nil {
			return err
		}
	}
}

// check reports done with nil for a confirmed signature and done with a
// *TransactionError for a failed one. A signature the node has not seen, or
// one below target, is not done.
func (w *Waiter) check(ctx context.Context, sig solana.Signature, target network.Commitment) (bool, error) {
	st, err := w.rpc.GetSignatureStatus(ctx, sig)
	if err != nil {
		return false, err
	}
	if st == nil {
		return false, nil
	}
	if st.Failed() {
		return true, &TransactionError{Signature: sig, Reason: string(st.Err)}
	}
	level := st.ConfirmationStatus
	if level == "" && st.Confirmations == nil {
		// Rooted statuses from older nodes omit the level.
		level = network.CommitmentFinalized
	}
	return level.Satisfies(target), nil
}
