package tx

import (
	"context"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solanasaga/saga-tx-go/network"
)

// countingSource hands out a distinct checkpoint per call.
type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Fetch(ctx context.Context) (Checkpoint, error) {
	s.calls++
	if s.err != nil {
		return Checkpoint{}, s.err
	}
	var h solana.Hash
	h[0] = byte(s.calls)
	h[31] = 0xAA
	return Checkpoint{Blockhash: h, ExpiryHeight: uint64(100 + s.calls)}, nil
}

func newPayer(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func memo(t *testing.T, text string, signer solana.PublicKey) solana.Instruction {
	t.Helper()
	ix, err := MemoInstruction(text, signer)
	require.NoError(t, err)
	return ix
}

func TestBuildAttachesCheckpointAndPayer(t *testing.T) {
	src := &countingSource{}
	payer := newPayer(t)
	b := NewBuilder(src)

	u, err := b.Build(context.Background(), []solana.Instruction{memo(t, "claim-bet-42", payer)}, payer)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, payer, u.FeePayer)
	assert.Equal(t, byte(1), u.Checkpoint.Blockhash[0])
	assert.Equal(t, uint64(101), u.Checkpoint.ExpiryHeight)
	assert.True(t, u.Complete())

	wire, err := u.Transaction()
	require.NoError(t, err)
	assert.Equal(t, u.Checkpoint.Blockhash, wire.Message.RecentBlockhash)
	require.NotEmpty(t, wire.Message.AccountKeys)
	assert.Equal(t, payer, wire.Message.AccountKeys[0])
	assert.Empty(t, wire.Signatures)
}

func TestBuildFetchesFreshCheckpointEveryCall(t *testing.T) {
	src := &countingSource{}
	payer := newPayer(t)
	b := NewBuilder(src)
	ops := []solana.Instruction{memo(t, "x", payer)}

	seen := map[solana.Hash]bool{}
	for i := 0; i < 3; i++ {
		u, err := b.Build(context.Background(), ops, payer)
		require.NoError(t, err)
		assert.False(t, seen[u.Checkpoint.Blockhash], "checkpoint reused on build %d", i)
		seen[u.Checkpoint.Blockhash] = true
	}
	assert.Equal(t, 3, src.calls)
}

func TestBuildRejectsInvalidOperations(t *testing.T) {
	payer := newPayer(t)
	tests := []struct {
		name    string
		ops     []solana.Instruction
		payer   solana.PublicKey
		wantErr error
	}{
		{"empty", nil, payer, ErrInvalidOperations},
		{"nil operation", []solana.Instruction{nil}, payer, ErrInvalidOperations},
		{"zero program", []solana.Instruction{solana.NewInstruction(solana.PublicKey{}, nil, []byte{1})}, payer, ErrInvalidOperations},
		{"zero payer", []solana.Instruction{memo(t, "x", payer)}, solana.PublicKey{}, ErrInvalidParams},
		{"too large", []solana.Instruction{
			solana.NewInstruction(MemoProgramID, nil, []byte(strings.Repeat("a", PacketDataSize))),
		}, payer, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &countingSource{}
			_, err := NewBuilder(src).Build(context.Background(), tt.ops, tt.payer)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, src.calls, "checkpoint must not be fetched for invalid input")
		})
	}
}

func TestBuildDoesNotAliasCallerSlice(t *testing.T) {
	payer := newPayer(t)
	ops := []solana.Instruction{memo(t, "a", payer)}
	u, err := NewBuilder(&countingSource{}).Build(context.Background(), ops, payer)
	require.NoError(t, err)

	ops[0] = memo(t, "b", payer)
	data, err := u.Operations[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
}

func TestBuildPropagatesFetchError(t *testing.T) {
	payer := newPayer(t)
	src := &countingSource{err: network.ErrUnavailable}
	_, err := NewBuilder(src).Build(context.Background(), []solana.Instruction{memo(t, "x", payer)}, payer)
	assert.ErrorIs(t, err, network.ErrUnavailable)
}

func TestUnsignedTransactionRequiresCompleteFields(t *testing.T) {
	payer := newPayer(t)
	ops := []solana.Instruction{memo(t, "x", payer)}

	_, err := (&Unsigned{Operations: ops, FeePayer: payer}).Transaction()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = (&Unsigned{Operations: ops, Checkpoint: Checkpoint{Blockhash: solana.Hash{1}}}).Transaction()
	assert.ErrorIs(t, err, ErrIncomplete)

	var nilTx *Unsigned
	_, err = nilTx.Transaction()
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestUnsignedTransactionIsFreshEachCall(t *testing.T) {
	payer := newPayer(t)
	u := &Unsigned{
		Operations: []solana.Instruction{memo(t, "x", payer)},
		FeePayer:   payer,
		Checkpoint: Checkpoint{Blockhash: solana.Hash{9}, ExpiryHeight: 5},
	}
	a, err := u.Transaction()
	require.NoError(t, err)
	b, err := u.Transaction()
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestBlockhashProviderFetch(t *testing.T) {
	var gotCommitment network.Commitment
	mock := &network.MockBlockchainService{
		GetLatestBlockhashFn: func(ctx context.Context, c network.Commitment) (*network.LatestBlockhash, error) {
			gotCommitment = c
			return &network.LatestBlockhash{Blockhash: solana.Hash{4}, LastValidBlockHeight: 250}, nil
		},
	}
	cp, err := NewBlockhashProvider(mock).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, network.CommitmentConfirmed, gotCommitment)
	assert.Equal(t, solana.Hash{4}, cp.Blockhash)
	assert.Equal(t, uint64(250), cp.ExpiryHeight)
}

func TestBlockhashProviderErrors(t *testing.T) {
	unavailable := &network.MockBlockchainService{
		GetLatestBlockhashFn: func(ctx context.Context, c network.Commitment) (*network.LatestBlockhash, error) {
			return nil, network.ErrUnavailable
		},
	}
	_, err := NewBlockhashProvider(unavailable).Fetch(context.Background())
	assert.ErrorIs(t, err, network.ErrUnavailable)

	empty := &network.MockBlockchainService{
		GetLatestBlockhashFn: func(ctx context.Context, c network.Commitment) (*network.LatestBlockhash, error) {
			return &network.LatestBlockhash{}, nil
		},
	}
	_, err = NewBlockhashProvider(empty).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidCheckpoint)
}

func TestCheckpointExpiredAt(t *testing.T) {
	cp := Checkpoint{Blockhash: solana.Hash{1}, ExpiryHeight: 10}
	assert.False(t, cp.ExpiredAt(10))
	assert.True(t, cp.ExpiredAt(11))
	assert.True(t, Checkpoint{}.IsZero())
}

func TestMemoInstruction(t *testing.T) {
	payer := newPayer(t)
	ix, err := MemoInstruction("hello", payer)
	require.NoError(t, err)
	assert.Equal(t, MemoProgramID, ix.ProgramID())
	require.Len(t, ix.Accounts(), 1)
	assert.True(t, ix.Accounts()[0].IsSigner)

	_, err = MemoInstruction("", payer)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = MemoInstruction("x", solana.PublicKey{})
	assert.ErrorIs(t, err, ErrNilParam)
}
