package submit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/tx"
	"github.com/solanasaga/saga-tx-go/wallet"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err       error
		want      Kind
		retryable bool
	}{
		{ErrWalletNotConnected, KindWalletNotConnected, false},
		{fmt.Errorf("submit: sign transaction: %w", wallet.ErrUserRejected), KindUserRejected, false},
		{errors.New("User rejected the request"), KindUserRejected, false},
		{wallet.ErrDisconnected, KindWalletDisconnected, false},
		{fmt.Errorf("%w: no operations", tx.ErrInvalidOperations), KindInvalidOperations, false},
		{tx.ErrIncomplete, KindInvalidOperations, false},
		{fmt.Errorf("%w: %w", ErrSendFailed, errors.Join(network.ErrSendRejected, network.ErrInsufficientFunds)), KindInsufficientFunds, false},
		{fmt.Errorf("tx: fetch checkpoint: %w", network.ErrUnavailable), KindNetworkUnavailable, true},
		{fmt.Errorf("%w: %w", ErrSendFailed, network.ErrSendRejected), KindSendFailed, true},
		{fmt.Errorf("%w: height 5", ErrExpired), KindExpired, true},
		{&TransactionError{Signature: solana.Signature{1}, Reason: "{}"}, KindTransactionFailed, true},
		{ErrAtomicUnsupported, KindAtomicUnsupported, false},
		{ErrWalletTimeout, KindWalletTimeout, false},
		{context.Canceled, KindCanceled, false},
		{ErrReset, KindReset, false},
		{&RetriesExhaustedError{Attempts: 3, Err: ErrExpired}, KindRetriesExhausted, false},
		{&network.RPCError{Code: -32005, Message: "Node is behind"}, KindNetworkUnavailable, true},
		{fmt.Errorf("tx: fetch checkpoint: %w", &network.RPCError{Code: -32005}), KindNetworkUnavailable, true},
		{errors.New("something else"), KindUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got, "error: %v", tt.err)
			assert.Equal(t, tt.retryable, got.Retryable())
		})
	}
	assert.Equal(t, KindUnknown, Classify(nil))
}

func TestReasonDistinguishesCauses(t *testing.T) {
	funds := Reason(errors.Join(network.ErrSendRejected, network.ErrInsufficientFunds))
	rejected := Reason(wallet.ErrUserRejected)
	offline := Reason(network.ErrUnavailable)

	assert.Contains(t, funds, "Insufficient")
	assert.Contains(t, rejected, "rejected in the wallet")
	assert.NotEqual(t, funds, offline)
	assert.NotEqual(t, rejected, offline)
	assert.Empty(t, Reason(nil))
	assert.Equal(t, "something else", Reason(errors.New("something else")))

	exhausted := &RetriesExhaustedError{Attempts: 3, Err: network.ErrUnavailable}
	assert.Equal(t, "Failed after 3 attempts: "+offline, Reason(exhausted))
}

func TestRetriesExhaustedErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &RetriesExhaustedError{
		Attempts:  2,
		LastPhase: lifecycle.PhaseConfirming,
		Err:       fmt.Errorf("%w: late", ErrExpired),
	})
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Contains(t, err.Error(), "2 attempts")
	assert.Contains(t, err.Error(), "confirming")
}

func TestTransactionErrorIs(t *testing.T) {
	err := &TransactionError{Signature: solana.Signature{9}, Reason: `{"InstructionError":[0,"InvalidArgument"]}`}
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.NotErrorIs(t, err, ErrExpired)
	assert.Contains(t, err.Error(), "InvalidArgument")
}
