package tx

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/network"
)

// Checkpoint is a recent blockhash together with the last block height at
// which a transaction referencing it can still land.
type Checkpoint struct {
	Blockhash    solana.Hash `json:"blockhash"`
	ExpiryHeight uint64      `json:"expiry_height"`
}

// IsZero reports whether the checkpoint was never fetched.
func (c Checkpoint) IsZero() bool {
	return c.Blockhash == (solana.Hash{})
}

// ExpiredAt reports whether the validity window has passed at the given
// block height.
func (c Checkpoint) ExpiredAt(height uint64) bool {
	return height > c.ExpiryHeight
}

// BlockhashSource is the subset of the RPC collaborator the provider needs.
type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context, commitment network.Commitment) (*network.LatestBlockhash, error)
}

// BlockhashProvider fetches a fresh Checkpoint on every call. Results are
// never cached: a stale blockhash gets the transaction rejected by the
// wallet or the cluster.
type BlockhashProvider struct {
	src BlockhashSource
}

// NewBlockhashProvider creates a provider backed by src.
func NewBlockhashProvider(src BlockhashSource) *BlockhashProvider {
	return &BlockhashProvider{src: src}
}

// Fetch requests the latest blockhash at confirmed commitment. A processed
// blockhash may belong to a fork that is later abandoned.
func (p *BlockhashProvider) Fetch(ctx context.Context) (Checkpoint, error) {
	lb, err := p.src.GetLatestBlockhash(ctx, network.CommitmentConfirmed)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("tx: fetch checkpoint: %w", err)
	}
	if lb == nil || lb.Blockhash == (solana.Hash{}) {
		return Checkpoint{}, fmt.Errorf("%w: empty blockhash", ErrInvalidCheckpoint)
	}
	return Checkpoint{
		Blockhash:    lb.Blockhash,
		ExpiryHeight: lb.LastValidBlockHeight,
	}, nil
}
