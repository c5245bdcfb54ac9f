package network

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// MockBlockchainService is a test double for BlockchainService.
// All function fields must be set before the corresponding method is called.
type MockBlockchainService struct {
	GetLatestBlockhashFn func(ctx context.Context, commitment Commitment) (*LatestBlockhash, error)
	SendRawTransactionFn func(ctx context.Context, rawTx []byte, opts SendOptions) (solana.Signature, error)
	GetSignatureStatusFn func(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
	GetBlockHeightFn     func(ctx context.Context, commitment Commitment) (uint64, error)
}

var _ BlockchainService = (*MockBlockchainService)(nil)

func (m *MockBlockchainService) GetLatestBlockhash(ctx context.Context, commitment Commitment) (*LatestBlockhash, error) {
	return m.GetLatestBlockhashFn(ctx, commitment)
}
func (m *MockBlockchainService) SendRawTransaction(ctx context.Context, rawTx []byte, opts SendOptions) (solana.Signature, error) {
	return m.SendRawTransactionFn(ctx, rawTx, opts)
}
func (m *MockBlockchainService) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	return m.GetSignatureStatusFn(ctx, sig)
}
func (m *MockBlockchainService) GetBlockHeight(ctx context.Context, commitment Commitment) (uint64, error) {
	return m.GetBlockHeightFn(ctx, commitment)
}
