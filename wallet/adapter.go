// Package wallet defines the wallet collaborator used by the submission
// pipeline and a local keypair wallet that implements it.
//
// A wallet always signs; only some wallets can also submit. Deep-link mobile
// wallets must implement AtomicSender because control leaves the process
// between signing and sending.
package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/network"
)

// Adapter is the minimum wallet surface: connection state and signing.
// SignTransaction signs t in place and returns it. It must not transmit.
type Adapter interface {
	PublicKey() solana.PublicKey
	Connected() bool
	SignTransaction(ctx context.Context, t *solana.Transaction) (*solana.Transaction, error)
}

// AtomicSender is a wallet that can sign and submit in one operation.
type AtomicSender interface {
	Adapter
	SignAndSendTransaction(ctx context.Context, t *solana.Transaction, opts network.SendOptions) (solana.Signature, error)
}

// Sender submits a serialized transaction. network.RPCClient satisfies it.
type Sender interface {
	SendRawTransaction(ctx context.Context, rawTx []byte, opts network.SendOptions) (solana.Signature, error)
}

// Approver is asked before every signature. Returning an error declines the
// request; implementations should return ErrUserRejected for a user decline.
type Approver func(ctx context.Context, t *solana.Transaction) error
