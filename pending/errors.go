package pending

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("pending: nil parameter")

	// ErrEmptyIdentity indicates a submission without a logical identity.
	ErrEmptyIdentity = errors.New("pending: empty transaction identity")

	// ErrRecordNotFound indicates the journal has no record for an identity.
	ErrRecordNotFound = errors.New("pending: record not found")

	// ErrProducerPanic indicates the submission producer panicked.
	ErrProducerPanic = errors.New("pending: producer panicked")
)
