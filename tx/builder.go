package tx

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PacketDataSize is the largest serialized transaction the cluster accepts.
const PacketDataSize = 1232

// Unsigned is a transaction ready for a wallet: operations, fee payer and
// checkpoint. It is a value built once per attempt and never mutated;
// Transaction compiles a fresh wire transaction on every call.
type Unsigned struct {
	Operations []solana.Instruction
	FeePayer   solana.PublicKey
	Checkpoint Checkpoint
}

// Complete reports whether the fee payer and checkpoint are both set.
func (u *Unsigned) Complete() bool {
	return u != nil && !u.FeePayer.IsZero() && !u.Checkpoint.IsZero()
}

// Transaction compiles u into a new solana.Transaction with no signatures.
// It refuses to compile without a fee payer and checkpoint, since a wallet
// signature over an incomplete message is rejected downstream.
func (u *Unsigned) Transaction() (*solana.Transaction, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: unsigned transaction", ErrNilParam)
	}
	if !u.Complete() {
		return nil, ErrIncomplete
	}
	return compile(u.Operations, u.Checkpoint.Blockhash, u.FeePayer)
}

// CheckpointSource yields a fresh checkpoint per call.
type CheckpointSource interface {
	Fetch(ctx context.Context) (Checkpoint, error)
}

// Builder assembles Unsigned transactions. It is stateless apart from its
// checkpoint source.
type Builder struct {
	checkpoints CheckpointSource
}

// NewBuilder creates a Builder that attaches checkpoints from src.
func NewBuilder(src CheckpointSource) *Builder {
	return &Builder{checkpoints: src}
}

// Build validates operations, then fetches a checkpoint and attaches it with
// the fee payer as the final step, keeping the time between fetch and wallet
// hand-off as short as possible.
func (b *Builder) Build(ctx context.Context, operations []solana.Instruction, feePayer solana.PublicKey) (*Unsigned, error) {
	if len(operations) == 0 {
		return nil, fmt.Errorf("%w: no operations", ErrInvalidOperations)
	}
	if feePayer.IsZero() {
		return nil, fmt.Errorf("%w: fee payer is zero", ErrInvalidParams)
	}

	ops := make([]solana.Instruction, len(operations))
	for i, op := range operations {
		if op == nil {
			return nil, fmt.Errorf("%w: operation %d is nil", ErrInvalidOperations, i)
		}
		if op.ProgramID().IsZero() {
			return nil, fmt.Errorf("%w: operation %d has no program id", ErrInvalidOperations, i)
		}
		if _, err := op.Data(); err != nil {
			return nil, fmt.Errorf("%w: operation %d data: %w", ErrInvalidOperations, i, err)
		}
		ops[i] = op
	}

	// Compile against a placeholder blockhash to catch malformed account
	// lists and oversize messages before any network call.
	if _, err := compile(ops, solana.Hash{}, feePayer); err != nil {
		return nil, err
	}

	cp, err := b.checkpoints.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	return &Unsigned{
		Operations: ops,
		FeePayer:   feePayer,
		Checkpoint: cp,
	}, nil
}

func compile(ops []solana.Instruction, blockhash solana.Hash, feePayer solana.PublicKey) (*solana.Transaction, error) {
	t, err := solana.NewTransaction(ops, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("%w: compile message: %w", ErrInvalidOperations, err)
	}
	msg, err := t.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize message: %w", ErrInvalidOperations, err)
	}
	signers := int(t.Message.Header.NumRequiredSignatures)
	if size := shortVecLen(signers) + signers*len(solana.Signature{}) + len(msg); size > PacketDataSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, PacketDataSize)
	}
	return t, nil
}

// shortVecLen is the encoded size of a compact-u16 length prefix.
func shortVecLen(n int) int {
	size := 1
	for n >= 0x80 {
		n >>= 7
		size++
	}
	return size
}
