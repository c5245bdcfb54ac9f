package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInvalidOperations indicates the instruction list is empty or malformed.
	ErrInvalidOperations = errors.New("tx: invalid operations")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")

	// ErrTooLarge indicates the serialized transaction exceeds the packet limit.
	ErrTooLarge = errors.New("tx: transaction too large")

	// ErrIncomplete indicates a transaction lacks its fee payer or checkpoint
	// and must not be handed to a wallet.
	ErrIncomplete = errors.New("tx: fee payer and checkpoint must be set before signing")

	// ErrInvalidCheckpoint indicates the node returned an unusable blockhash.
	ErrInvalidCheckpoint = errors.New("tx: invalid checkpoint")
)
