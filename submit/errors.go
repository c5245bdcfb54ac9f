package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/tx"
	"github.com/solanasaga/saga-tx-go/wallet"
)

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("submit: required parameter is nil")

	// ErrWalletNotConnected indicates a submission was requested without a
	// connected wallet.
	ErrWalletNotConnected = errors.New("submit: wallet not connected")

	// ErrSendFailed indicates the node rejected the raw transaction.
	ErrSendFailed = errors.New("submit: send failed")

	// ErrExpired indicates the checkpoint's validity window passed without a
	// confirmation. The attempt's outcome is unknown.
	ErrExpired = errors.New("submit: checkpoint expired before confirmation")

	// ErrTransactionFailed indicates the chain executed the transaction and
	// recorded an error. Match *TransactionError for the reason.
	ErrTransactionFailed = errors.New("submit: transaction failed on chain")

	// ErrRetriesExhausted indicates every attempt failed. Match
	// *RetriesExhaustedError for the last error.
	ErrRetriesExhausted = errors.New("submit: retries exhausted")

	// ErrAtomicUnsupported indicates a deep-link environment with a wallet
	// that cannot sign and send in one operation.
	ErrAtomicUnsupported = errors.New("submit: wallet does not support atomic sign-and-send")

	// ErrWalletTimeout indicates the external wallet did not answer within the
	// deep-link timeout. The transaction may still be submitted by the wallet.
	ErrWalletTimeout = errors.New("submit: wallet did not respond in time")

	// ErrReset indicates the handler was reset while a run was between attempts.
	ErrReset = errors.New("submit: handler reset")
)

// TransactionError is a chain-reported execution failure.
type TransactionError struct {
	Signature solana.Signature
	// Reason is the error object reported by the node, as JSON.
	Reason string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("submit: transaction %s failed: %s", e.Signature, e.Reason)
}

func (e *TransactionError) Is(target error) bool { return target == ErrTransactionFailed }

// RetriesExhaustedError wraps the last error of a run that used its whole
// attempt budget.
type RetriesExhaustedError struct {
	Attempts  int
	LastPhase lifecycle.Phase
	Err       error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("submit: retries exhausted after %d attempts (last phase %s): %v", e.Attempts, e.LastPhase, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() []error { return []error{ErrRetriesExhausted, e.Err} }

// Kind is the caller-facing category of a submission error.
type Kind int

const (
	KindUnknown Kind = iota
	KindWalletNotConnected
	KindUserRejected
	KindWalletDisconnected
	KindInvalidOperations
	KindInsufficientFunds
	KindNetworkUnavailable
	KindSendFailed
	KindExpired
	KindTransactionFailed
	KindRetriesExhausted
	KindAtomicUnsupported
	KindWalletTimeout
	KindCanceled
	KindReset
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindWalletNotConnected: "wallet_not_connected",
	KindUserRejected:       "user_rejected",
	KindWalletDisconnected: "wallet_disconnected",
	KindInvalidOperations:  "invalid_operations",
	KindInsufficientFunds:  "insufficient_funds",
	KindNetworkUnavailable: "network_unavailable",
	KindSendFailed:         "send_failed",
	KindExpired:            "expired",
	KindTransactionFailed:  "transaction_failed",
	KindRetriesExhausted:   "retries_exhausted",
	KindAtomicUnsupported:  "atomic_unsupported",
	KindWalletTimeout:      "wallet_timeout",
	KindCanceled:           "canceled",
	KindReset:              "reset",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Retryable reports whether a fresh attempt with a new checkpoint may
// succeed. Errors nothing recognizes are retried, like network trouble.
func (k Kind) Retryable() bool {
	switch k {
	case KindUnknown, KindNetworkUnavailable, KindSendFailed, KindExpired, KindTransactionFailed:
		return true
	}
	return false
}

// Classify maps err onto a Kind. Exhaustion is reported before the error it
// wraps, and insufficient funds before the send rejection that carries it.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrRetriesExhausted):
		return KindRetriesExhausted
	case errors.Is(err, ErrReset):
		return KindReset
	case errors.Is(err, ErrWalletNotConnected):
		return KindWalletNotConnected
	case isUserRejection(err):
		return KindUserRejected
	case errors.Is(err, wallet.ErrDisconnected):
		return KindWalletDisconnected
	case errors.Is(err, ErrAtomicUnsupported):
		return KindAtomicUnsupported
	case errors.Is(err, ErrWalletTimeout):
		return KindWalletTimeout
	case errors.Is(err, network.ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, tx.ErrInvalidOperations),
		errors.Is(err, tx.ErrInvalidParams),
		errors.Is(err, tx.ErrTooLarge),
		errors.Is(err, tx.ErrIncomplete),
		errors.Is(err, tx.ErrNilParam):
		return KindInvalidOperations
	case errors.Is(err, ErrTransactionFailed):
		return KindTransactionFailed
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrSendFailed), errors.Is(err, network.ErrSendRejected):
		return KindSendFailed
	case errors.Is(err, network.ErrUnavailable), errors.Is(err, tx.ErrInvalidCheckpoint),
		errors.Is(err, network.ErrInvalidResponse), isNodeError(err):
		return KindNetworkUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindUnknown
}

// isNodeError reports a JSON-RPC error from a reachable node outside
// sendTransaction, e.g. -32005 "Node is behind".
func isNodeError(err error) bool {
	var rpcErr *network.RPCError
	return errors.As(err, &rpcErr)
}

// isUserRejection also matches by message, since third-party wallets
// report a decline with their own error values.
func isUserRejection(err error) bool {
	if errors.Is(err, wallet.ErrUserRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") || strings.Contains(msg, "user declined")
}

// Reason returns a short message for users. Insufficient funds and user
// rejection read differently from network trouble.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var exhausted *RetriesExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Sprintf("Failed after %d attempts: %s", exhausted.Attempts, Reason(exhausted.Err))
	}
	switch Classify(err) {
	case KindWalletNotConnected:
		return "Wallet not connected"
	case KindUserRejected:
		return "Transaction was rejected in the wallet"
	case KindWalletDisconnected:
		return "Wallet disconnected during the transaction"
	case KindInvalidOperations:
		return "Transaction is malformed: " + err.Error()
	case KindInsufficientFunds:
		return "Insufficient SOL balance to pay for this transaction"
	case KindNetworkUnavailable:
		return "Network unavailable, please try again"
	case KindSendFailed:
		return "Transaction was rejected by the network"
	case KindExpired:
		return "Transaction expired before it was confirmed"
	case KindTransactionFailed:
		return "Transaction failed on chain"
	case KindAtomicUnsupported:
		return "This wallet cannot send transactions from a mobile browser"
	case KindWalletTimeout:
		return "Wallet did not respond; check the wallet app before retrying"
	case KindCanceled:
		return "Transaction cancelled"
	case KindReset:
		return "Transaction abandoned"
	}
	return err.Error()
}
