package network

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Compile-time interface check.
var _ BlockchainService = (*RPCClient)(nil)

// insufficientFundsMarkers are substrings the node uses when a preflight
// simulation fails because an account cannot pay.
var insufficientFundsMarkers = []string{
	"insufficient funds",
	"insufficientfundsforfee",
	"insufficientfundsforrent",
	"attempt to debit an account but found no record of a prior credit",
}

// commitmentConfig is the trailing config object accepted by most read methods.
type commitmentConfig struct {
	Commitment Commitment `json:"commitment,omitempty"`
}

// decodeHash parses a base58 blockhash as returned by the node.
func decodeHash(s string) (solana.Hash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("%w: invalid blockhash %q: %v", ErrInvalidResponse, s, err)
	}
	if len(raw) != len(solana.Hash{}) {
		return solana.Hash{}, fmt.Errorf("%w: blockhash is %d bytes", ErrInvalidResponse, len(raw))
	}
	var h solana.Hash
	copy(h[:], raw)
	return h, nil
}

// decodeSignature parses a base58 transaction signature.
func decodeSignature(s string) (solana.Signature, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: invalid signature %q: %v", ErrInvalidResponse, s, err)
	}
	if len(raw) != len(solana.Signature{}) {
		return solana.Signature{}, fmt.Errorf("%w: signature is %d bytes", ErrInvalidResponse, len(raw))
	}
	var sig solana.Signature
	copy(sig[:], raw)
	return sig, nil
}

// readError marks an RPC error returned by a read method as ErrUnavailable:
// the node answered but cannot serve the request now (e.g. -32005 "Node is
// behind"). The *RPCError stays reachable through errors.As.
func readError(err error) error {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, rpcErr)
	}
	return err
}

// latestBlockhashResult maps the JSON returned by getLatestBlockhash.
type latestBlockhashResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	} `json:"value"`
}

// GetLatestBlockhash calls `getLatestBlockhash` at the given commitment.
func (c *RPCClient) GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error) {
	params := []interface{}{commitmentConfig{Commitment: commitment}}
	var res latestBlockhashResult
	if err := c.Call(ctx, "getLatestBlockhash", params, &res); err != nil {
		return nil, readError(err)
	}
	hash, err := decodeHash(res.Value.Blockhash)
	if err != nil {
		return nil, err
	}
	return &LatestBlockhash{
		Blockhash:            hash,
		LastValidBlockHeight: res.Value.LastValidBlockHeight,
		Slot:                 res.Context.Slot,
	}, nil
}

// sendTransactionConfig maps the config object of sendTransaction.
type sendTransactionConfig struct {
	Encoding            string     `json:"encoding"`
	SkipPreflight       bool       `json:"skipPreflight"`
	PreflightCommitment Commitment `json:"preflightCommitment,omitempty"`
	MaxRetries          uint       `json:"maxRetries"`
}

// SendRawTransaction calls `sendTransaction` with the base64-encoded wire
// transaction. RPC errors are wrapped with ErrSendRejected, and additionally
// with ErrInsufficientFunds when the node reports an unfunded account.
func (c *RPCClient) SendRawTransaction(ctx context.Context, rawTx []byte, opts SendOptions) (solana.Signature, error) {
	if len(rawTx) == 0 {
		return solana.Signature{}, fmt.Errorf("%w: empty transaction", ErrSendRejected)
	}
	params := []interface{}{
		base64.StdEncoding.EncodeToString(rawTx),
		sendTransactionConfig{
			Encoding:            "base64",
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
			MaxRetries:          opts.MaxRetries,
		},
	}
	var sigStr string
	if err := c.Call(ctx, "sendTransaction", params, &sigStr); err != nil {
		return solana.Signature{}, classifySendError(err)
	}
	return decodeSignature(sigStr)
}

// classifySendError maps a sendTransaction failure onto the package sentinels.
// Transport failures keep their ErrUnavailable wrapping.
func classifySendError(err error) error {
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return err
	}
	if isInsufficientFunds(rpcErr) {
		return fmt.Errorf("%w: %w: %w", ErrSendRejected, ErrInsufficientFunds, rpcErr)
	}
	return fmt.Errorf("%w: %w", ErrSendRejected, rpcErr)
}

func isInsufficientFunds(e *RPCError) bool {
	text := strings.ToLower(e.Message + " " + string(e.Data))
	for _, marker := range insufficientFundsMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// signatureStatusesResult maps the JSON returned by getSignatureStatuses.
type signatureStatusesResult struct {
	Value []*struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *uint64         `json:"confirmations"`
		Err                json.RawMessage `json:"err"`
		ConfirmationStatus string          `json:"confirmationStatus"`
	} `json:"value"`
}

// GetSignatureStatus calls `getSignatureStatuses` for a single signature.
// A null entry (signature unknown to the node) is returned as (nil, nil).
func (c *RPCClient) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	params := []interface{}{
		[]string{sig.String()},
		map[string]bool{"searchTransactionHistory": false},
	}
	var res signatureStatusesResult
	if err := c.Call(ctx, "getSignatureStatuses", params, &res); err != nil {
		return nil, readError(err)
	}
	if len(res.Value) != 1 {
		return nil, fmt.Errorf("%w: expected 1 status, got %d", ErrInvalidResponse, len(res.Value))
	}
	v := res.Value[0]
	if v == nil {
		return nil, nil
	}
	status := &SignatureStatus{
		Slot:               v.Slot,
		Confirmations:      v.Confirmations,
		ConfirmationStatus: Commitment(v.ConfirmationStatus),
	}
	if len(v.Err) > 0 && string(v.Err) != "null" {
		status.Err = v.Err
	}
	return status, nil
}

// GetBlockHeight calls `getBlockHeight` at the given commitment.
func (c *RPCClient) GetBlockHeight(ctx context.Context, commitment Commitment) (uint64, error) {
	params := []interface{}{commitmentConfig{Commitment: commitment}}
	var height uint64
	if err := c.Call(ctx, "getBlockHeight", params, &height); err != nil {
		return 0, readError(err)
	}
	return height, nil
}
