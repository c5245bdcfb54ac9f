package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockImplementsInterface(t *testing.T) {
	var _ BlockchainService = (*MockBlockchainService)(nil)
}

func TestSignatureStatusFailed(t *testing.T) {
	tests := []struct {
		name string
		err  json.RawMessage
		want bool
	}{
		{"nil", nil, false},
		{"json null", json.RawMessage(`null`), false},
		{"instruction error", json.RawMessage(`{"InstructionError":[0,"InvalidAccountData"]}`), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SignatureStatus{Err: tt.err}
			assert.Equal(t, tt.want, s.Failed())
		})
	}
}
