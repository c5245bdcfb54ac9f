package network

import "errors"

var (
	// ErrUnavailable indicates the client could not reach the RPC endpoint.
	ErrUnavailable = errors.New("network: rpc endpoint unavailable")

	// ErrSendRejected indicates the node rejected a submitted transaction
	// (for example a failed preflight simulation).
	ErrSendRejected = errors.New("network: transaction rejected")

	// ErrInsufficientFunds indicates the fee payer or a debited account cannot
	// cover the transaction. It always accompanies ErrSendRejected.
	ErrInsufficientFunds = errors.New("network: insufficient funds")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrInvalidCommitment indicates an unknown commitment level.
	ErrInvalidCommitment = errors.New("network: invalid commitment level")
)
