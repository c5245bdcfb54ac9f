package submit

import (
	"context"
	"time"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
)

// Default per-call settings.
const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 10 * time.Second
	DefaultRPCMaxRetries = 3
)

// Options are per-call submission settings. Start from DefaultOptions; zero
// numeric fields are replaced by their defaults.
type Options struct {
	// Commitment is the confirmation level a run waits for.
	Commitment    network.Commitment
	SkipPreflight bool
	// RPCMaxRetries is the node-side rebroadcast budget passed with each send.
	RPCMaxRetries uint

	// MaxRetries is the attempt budget of SendTransactionWithRetry.
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// Identity deduplicates concurrent submissions and keys the journal.
	Identity string
	Metadata map[string]string

	// OnPhase observes this call's phases only.
	OnPhase func(lifecycle.State)
}

// DefaultOptions returns the default settings.
func DefaultOptions() Options {
	return Options{
		Commitment:    network.CommitmentConfirmed,
		RPCMaxRetries: DefaultRPCMaxRetries,
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Commitment == "" {
		o.Commitment = d.Commitment
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = d.MaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.MaxRetryDelay <= 0 {
		o.MaxRetryDelay = d.MaxRetryDelay
	}
	if o.MaxRetryDelay < o.RetryDelay {
		o.MaxRetryDelay = o.RetryDelay
	}
	return o
}

func (o Options) sendOptions() network.SendOptions {
	return network.SendOptions{
		SkipPreflight:       o.SkipPreflight,
		PreflightCommitment: o.Commitment,
		MaxRetries:          o.RPCMaxRetries,
	}
}

// Backoff returns the wait after failed attempt n (1-based):
// base * 2^(n-1), capped at max.
func Backoff(n int, base, max time.Duration) time.Duration {
	if n < 1 || base <= 0 {
		return 0
	}
	d := base
	for i := 1; i < n; i++ {
		if d >= max/2 {
			return max
		}
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

// sleepContext waits for d or until ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
