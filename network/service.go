package network

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BlockchainService is the RPC collaborator used by the submission pipeline.
type BlockchainService interface {
	// GetLatestBlockhash returns a recent blockhash and the last block height
	// at which a transaction referencing it is still valid.
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)

	// SendRawTransaction submits a serialized, signed transaction and returns
	// its signature. Acceptance is not confirmation.
	SendRawTransaction(ctx context.Context, rawTx []byte, opts SendOptions) (solana.Signature, error)

	// GetSignatureStatus returns the status of a submitted signature, or nil
	// when the node has not seen it.
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)

	// GetBlockHeight returns the current block height at the given commitment.
	GetBlockHeight(ctx context.Context, commitment Commitment) (uint64, error)
}

// Commitment is the degree of network finality requested for a read.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}

// Satisfies reports whether a status reported at c meets the target level.
func (c Commitment) Satisfies(target Commitment) bool {
	return c.rank() > 0 && c.rank() >= target.rank()
}

// ParseCommitment validates a commitment name.
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(s)
	if c.rank() == 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCommitment, s)
	}
	return c, nil
}

// LatestBlockhash is the result of getLatestBlockhash.
type LatestBlockhash struct {
	Blockhash            solana.Hash `json:"blockhash"`
	LastValidBlockHeight uint64      `json:"last_valid_block_height"`
	Slot                 uint64      `json:"slot"`
}

// SendOptions are passed verbatim to sendTransaction.
type SendOptions struct {
	SkipPreflight       bool       `json:"skip_preflight"`
	PreflightCommitment Commitment `json:"preflight_commitment"`
	// MaxRetries is the node-side rebroadcast budget, independent of any
	// client-side retry loop.
	MaxRetries uint `json:"max_retries"`
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64          `json:"slot"`
	Confirmations      *uint64         `json:"confirmations"` // nil once rooted
	Err                json.RawMessage `json:"err"`           // nil on success
	ConfirmationStatus Commitment      `json:"confirmation_status"`
}

// Failed reports whether the chain recorded an execution error.
func (s *SignatureStatus) Failed() bool {
	return len(s.Err) > 0 && string(s.Err) != "null"
}
