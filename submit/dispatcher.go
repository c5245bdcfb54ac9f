package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/solanasaga/saga-tx-go/lifecycle"
	"github.com/solanasaga/saga-tx-go/network"
	"github.com/solanasaga/saga-tx-go/platform"
	"github.com/solanasaga/saga-tx-go/tx"
	"github.com/solanasaga/saga-tx-go/wallet"
)

// DefaultDeepLinkTimeout bounds an atomic sign-and-send in a deep-link wallet.
const DefaultDeepLinkTimeout = 90 * time.Second

const (
	protocolSignThenSend = "sign_then_send"
	protocolAtomic       = "atomic"
)

// RawSender submits serialized transactions.
type RawSender interface {
	SendRawTransaction(ctx context.Context, rawTx []byte, opts network.SendOptions) (solana.Signature, error)
}

// DispatchOptions configure one Dispatch call.
type DispatchOptions struct {
	Send network.SendOptions
	// Report receives signing and, for the two-step protocol, sending.
	Report func(lifecycle.Phase)
}

// Dispatcher signs and submits a prepared transaction with the protocol its
// environment requires. The environment is fixed at construction.
type Dispatcher struct {
	env             platform.Environment
	wallet          wallet.Adapter
	rpc             RawSender
	deepLinkTimeout time.Duration
	metrics         *Metrics
	logger          *zap.Logger
}

// NewDispatcher creates a Dispatcher. A non-positive timeout uses
// DefaultDeepLinkTimeout; a nil logger logs nothing.
func NewDispatcher(env platform.Environment, w wallet.Adapter, rpc RawSender, deepLinkTimeout time.Duration, logger *zap.Logger) *Dispatcher {
	if deepLinkTimeout <= 0 {
		deepLinkTimeout = DefaultDeepLinkTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{env: env, wallet: w, rpc: rpc, deepLinkTimeout: deepLinkTimeout, logger: logger}
}

// Environment returns the environment the dispatcher was built for.
func (d *Dispatcher) Environment() platform.Environment { return d.env }

// Dispatch hands u to the wallet and returns the network signature once the
// transaction is submitted. It does not wait for confirmation.
//
// Wallet interactions are not cancelled with ctx: a request the user may
// still approve must not be abandoned halfway.
func (d *Dispatcher) Dispatch(ctx context.Context, u *tx.Unsigned, opts DispatchOptions) (solana.Signature, error) {
	if u == nil {
		return solana.Signature{}, fmt.Errorf("%w: unsigned transaction", tx.ErrNilParam)
	}
	if !u.Complete() {
		return solana.Signature{}, tx.ErrIncomplete
	}
	if d.wallet == nil || !d.wallet.Connected() {
		return solana.Signature{}, wallet.ErrDisconnected
	}
	if d.wallet.PublicKey() != u.FeePayer {
		return solana.Signature{}, fmt.Errorf("%w: connected key %s is not fee payer %s",
			wallet.ErrDisconnected, d.wallet.PublicKey(), u.FeePayer)
	}

	t, err := u.Transaction()
	if err != nil {
		return solana.Signature{}, err
	}
	report := opts.Report
	if report == nil {
		report = func(lifecycle.Phase) {}
	}

	wctx := context.WithoutCancel(ctx)
	if d.env.Atomic() {
		return d.signAndSend(wctx, t, opts.Send, report)
	}
	return d.signThenSend(wctx, t, opts.Send, report)
}

// signThenSend is the two-step protocol of injected and desktop wallets.
func (d *Dispatcher) signThenSend(ctx context.Context, t *solana.Transaction, opts network.SendOptions, report func(lifecycle.Phase)) (solana.Signature, error) {
	d.metrics.attempt(protocolSignThenSend)
	report(lifecycle.PhaseSigning)

	signed, err := d.wallet.SignTransaction(ctx, t)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("submit: sign transaction: %w", err)
	}
	if signed == nil || len(signed.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("submit: sign transaction: %w", wallet.ErrSigningFailed)
	}

	report(lifecycle.PhaseSending)
	raw, err := signed.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: serialize: %w", ErrSendFailed, err)
	}
	if d.rpc == nil {
		return solana.Signature{}, fmt.Errorf("%w: rpc sender", ErrNilParam)
	}
	sig, err := d.rpc.SendRawTransaction(ctx, raw, opts)
	if err != nil {
		return solana.Signature{}, sendError(err)
	}
	d.logger.Debug("transaction sent", zap.String("protocol", protocolSignThenSend), zap.Stringer("signature", sig))
	return sig, nil
}

type atomicResult struct {
	sig solana.Signature
	err error
}

// signAndSend is the deep-link protocol: one wallet call signs and submits.
// There is no fallback to signThenSend.
func (d *Dispatcher) signAndSend(ctx context.Context, t *solana.Transaction, opts network.SendOptions, report func(lifecycle.Phase)) (solana.Signature, error) {
	sender, ok := d.wallet.(wallet.AtomicSender)
	if !ok {
		return solana.Signature{}, ErrAtomicUnsupported
	}
	d.metrics.attempt(protocolAtomic)
	report(lifecycle.PhaseSigning)

	ctx, cancel := context.WithTimeout(ctx, d.deepLinkTimeout)
	defer cancel()

	done := make(chan atomicResult, 1)
	go func() {
		sig, err := sender.SignAndSendTransaction(ctx, t, opts)
		done <- atomicResult{sig: sig, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return solana.Signature{}, fmt.Errorf("%w: %w", ErrWalletTimeout, res.err)
			}
			return solana.Signature{}, sendError(res.err)
		}
		d.logger.Debug("transaction sent", zap.String("protocol", protocolAtomic), zap.Stringer("signature", res.sig))
		return res.sig, nil
	case <-ctx.Done():
		d.logger.Warn("wallet did not answer", zap.Duration("timeout", d.deepLinkTimeout))
		return solana.Signature{}, fmt.Errorf("%w after %s", ErrWalletTimeout, d.deepLinkTimeout)
	}
}

// sendError marks node rejections as ErrSendFailed and leaves other errors,
// including ErrUnavailable and wallet errors, as they are.
func sendError(err error) error {
	if errors.Is(err, network.ErrSendRejected) {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return err
}
