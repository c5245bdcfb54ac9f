package tx

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MemoProgramID is the SPL Memo program (v2).
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

// MaxMemoLen bounds a single memo payload.
const MaxMemoLen = 566

// MemoInstruction builds an SPL Memo instruction signed by signer. Memos
// are a cheap way to exercise the pipeline end to end on devnet.
func MemoInstruction(memo string, signer solana.PublicKey) (solana.Instruction, error) {
	if memo == "" || len(memo) > MaxMemoLen {
		return nil, fmt.Errorf("%w: memo length %d", ErrInvalidParams, len(memo))
	}
	if signer.IsZero() {
		return nil, fmt.Errorf("%w: memo signer", ErrNilParam)
	}
	return solana.NewInstruction(
		MemoProgramID,
		solana.AccountMetaSlice{solana.Meta(signer).SIGNER()},
		[]byte(memo),
	), nil
}
