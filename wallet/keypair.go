package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"

	"github.com/solanasaga/saga-tx-go/network"
)

var (
	_ Adapter      = (*Keypair)(nil)
	_ AtomicSender = (*Keypair)(nil)
)

// Keypair is a local wallet holding one ed25519 key. It starts connected.
type Keypair struct {
	key     solana.PrivateKey
	pub     solana.PublicKey
	sender  Sender
	approve Approver

	disconnected atomic.Bool
}

// KeypairOption configures a Keypair.
type KeypairOption func(*Keypair)

// WithSender attaches the sender used by SignAndSendTransaction.
func WithSender(s Sender) KeypairOption {
	return func(k *Keypair) { k.sender = s }
}

// WithApprover installs a hook consulted before each signature.
func WithApprover(a Approver) KeypairOption {
	return func(k *Keypair) { k.approve = a }
}

// NewKeypair wraps a 64-byte ed25519 private key.
func NewKeypair(key solana.PrivateKey, opts ...KeypairOption) (*Keypair, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(key))
	}
	k := &Keypair{key: key, pub: key.PublicKey()}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// KeypairFromSeed derives the key from the first 32 bytes of seed, the same
// derivation solana-keygen applies to a recovered BIP39 seed without a path.
func KeypairFromSeed(seed []byte, opts ...KeypairOption) (*Keypair, error) {
	if len(seed) < ed25519.SeedSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidSeed, ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	return NewKeypair(solana.PrivateKey(priv), opts...)
}

// KeypairFromMnemonic derives the BIP39 seed of mnemonic and passphrase and
// returns the keypair for it.
func KeypairFromMnemonic(mnemonic, passphrase string, opts ...KeypairOption) (*Keypair, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return KeypairFromSeed(seed, opts...)
}

func (k *Keypair) PublicKey() solana.PublicKey { return k.pub }

func (k *Keypair) Connected() bool { return !k.disconnected.Load() }

// PrivateKey returns the wrapped key.
func (k *Keypair) PrivateKey() solana.PrivateKey { return k.key }

// Disconnect makes every later signing request fail with ErrDisconnected.
func (k *Keypair) Disconnect() { k.disconnected.Store(true) }

// Connect reverses Disconnect.
func (k *Keypair) Connect() { k.disconnected.Store(false) }

// SignTransaction asks the approver, then adds this key's signature to t.
func (k *Keypair) SignTransaction(ctx context.Context, t *solana.Transaction) (*solana.Transaction, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrSigningFailed)
	}
	if !k.Connected() {
		return nil, ErrDisconnected
	}
	if k.approve != nil {
		if err := k.approve(ctx, t); err != nil {
			return nil, err
		}
	}
	_, err := t.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		if pk == k.pub {
			return &k.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return t, nil
}

// SignAndSendTransaction signs t and submits it through the attached sender.
func (k *Keypair) SignAndSendTransaction(ctx context.Context, t *solana.Transaction, opts network.SendOptions) (solana.Signature, error) {
	if k.sender == nil {
		return solana.Signature{}, ErrNoSender
	}
	signed, err := k.SignTransaction(ctx, t)
	if err != nil {
		return solana.Signature{}, err
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: serialize: %w", ErrSigningFailed, err)
	}
	return k.sender.SendRawTransaction(ctx, raw, opts)
}
