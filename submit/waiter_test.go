package submit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/tx"
)

var testCheckpoint = tx.Checkpoint{Blockhash: solana.Hash{1}, ExpiryHeight: 100}

// scriptedStatus replays statuses in order and repeats the last one.
type scriptedStatus struct {
	mu       sync.Mutex
	statuses []*network.SignatureStatus
	errs     []error
	heights  []uint64
	checks   int
}

func (s *scriptedStatus) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*network.SignatureStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.checks
	s.checks++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if len(s.statuses) == 0 {
		return nil, nil
	}
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return s.statuses[i], nil
}

func (s *scriptedStatus) GetBlockHeight(ctx context.Context, commitment network.Commitment) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.heights) == 0 {
		return 0, nil
	}
	h := s.heights[0]
	if len(s.heights) > 1 {
		s.heights = s.heights[1:]
	}
	return h, nil
}

func newTestWaiter(src StatusSource, sl *sleeps) *Waiter {
	return NewWaiter(src, WaiterConfig{PollInterval: 5 * time.Millisecond, MaxPollErrors: 2, Sleep: sl.sleep})
}

func TestConfirmConfirmed(t *testing.T) {
	src := &scriptedStatus{
		statuses: []*network.SignatureStatus{nil, {ConfirmationStatus: network.CommitmentProcessed}, {ConfirmationStatus: network.CommitmentConfirmed}},
		heights:  []uint64{10},
	}
	sl := &sleeps{}
	require.NoError(t, newTestWaiter(src, sl).Confirm(context.Background(), solana.Signature{1}, testCheckpoint))
	assert.Equal(t, 3, src.checks)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, sl.recorded())
}

func TestConfirmTargetFinalized(t *testing.T) {
	src := &scriptedStatus{
		statuses: []*network.SignatureStatus{{ConfirmationStatus: network.CommitmentConfirmed}, {ConfirmationStatus: network.CommitmentFinalized}},
		heights:  []uint64{10},
	}
	err := newTestWaiter(src, &sleeps{}).ConfirmAt(context.Background(), solana.Signature{1}, testCheckpoint, network.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, 2, src.checks)
}

func TestConfirmRootedWithoutLevel(t *testing.T) {
	src := &scriptedStatus{statuses: []*network.SignatureStatus{{Slot: 3}}}
	assert.NoError(t, newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{1}, testCheckpoint))
}

func TestConfirmFailed(t *testing.T) {
	src := &scriptedStatus{statuses: []*network.SignatureStatus{{
		ConfirmationStatus: network.CommitmentConfirmed,
		Err:                json.RawMessage(`{"InstructionError":[0,{"Custom":6000}]}`),
	}}}
	err := newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{7}, testCheckpoint)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionFailed)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, solana.Signature{7}, txErr.Signature)
	assert.Contains(t, txErr.Reason, "6000")
}

func TestConfirmExpiredAfterFinalCheck(t *testing.T) {
	src := &scriptedStatus{heights: []uint64{99, 100, 101}}
	err := newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{1}, testCheckpoint)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 4, src.checks, "three polls plus the final check")
}

func TestConfirmLandsOnFinalCheck(t *testing.T) {
	src := &scriptedStatus{
		statuses: []*network.SignatureStatus{nil, {ConfirmationStatus: network.CommitmentConfirmed}},
		heights:  []uint64{101},
	}
	assert.NoError(t, newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{1}, testCheckpoint))
}

func TestConfirmToleratesPollErrors(t *testing.T) {
	src := &scriptedStatus{
		errs:     []error{network.ErrUnavailable, network.ErrUnavailable, nil},
		statuses: []*network.SignatureStatus{nil, nil, {ConfirmationStatus: network.CommitmentConfirmed}},
		heights:  []uint64{10},
	}
	assert.NoError(t, newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{1}, testCheckpoint))
}

func TestConfirmGivesUpAfterPollErrors(t *testing.T) {
	src := &scriptedStatus{
		errs:    []error{network.ErrUnavailable, network.ErrUnavailable, network.ErrUnavailable},
		heights: []uint64{10},
	}
	err := newTestWaiter(src, &sleeps{}).Confirm(context.Background(), solana.Signature{1}, testCheckpoint)
	assert.ErrorIs(t, err, network.ErrUnavailable)
	assert.Equal(t, KindNetworkUnavailable, Classify(err))
}

func TestConfirmContextCancelled(t *testing.T) {
	src := &scriptedStatus{heights: []uint64{10}}
	ctx, cancel := context.WithCancel(context.Background())
	sl := &sleeps{onWait: cancel}
	err := newTestWaiter(src, sl).Confirm(ctx, solana.Signature{1}, testCheckpoint)
	assert.ErrorIs(t, err, context.Canceled)
}
