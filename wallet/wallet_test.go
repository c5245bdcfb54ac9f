package wallet

import (
	"context"
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solanasaga/saga-tx-go/network"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// --- Mnemonic tests ---

func TestGenerateMnemonic_12Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 12)
	assert.True(t, ValidateMnemonic(mnemonic))
}

func TestGenerateMnemonic_24Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic24Words)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 24)
	assert.True(t, ValidateMnemonic(mnemonic))
}

func TestGenerateMnemonic_InvalidEntropy(t *testing.T) {
	_, err := GenerateMnemonic(64)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	withPass, err := SeedFromMnemonic(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, seed, withPass, "passphrase must change the seed")

	_, err = SeedFromMnemonic("not a real mnemonic", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption tests ---

func TestEncryptDecryptSeed_RoundTrip(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	sealed, err := EncryptSeed(seed, "test-password-123")
	require.NoError(t, err)
	assert.Len(t, sealed, SaltLen+NonceLen+len(seed)+ChecksumLen+16)

	opened, err := DecryptSeed(sealed, "test-password-123")
	require.NoError(t, err)
	assert.Equal(t, seed, opened)
}

func TestDecryptSeed_WrongPassword(t *testing.T) {
	sealed, err := EncryptSeed(make([]byte, 32), "correct-password")
	require.NoError(t, err)

	_, err = DecryptSeed(sealed, "wrong-password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_EmptySeed(t *testing.T) {
	_, err := EncryptSeed(nil, "password")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDecryptSeed_TooShort(t *testing.T) {
	_, err := DecryptSeed([]byte{0x01, 0x02, 0x03}, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptSeed_CorruptedCiphertext(t *testing.T) {
	sealed, err := EncryptSeed(make([]byte, 32), "pw")
	require.NoError(t, err)

	sealed[SaltLen+NonceLen+5] ^= 0xFF
	_, err = DecryptSeed(sealed, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_DifferentCiphertexts(t *testing.T) {
	seed := make([]byte, 32)
	a, err := EncryptSeed(seed, "same")
	require.NoError(t, err)
	b, err := EncryptSeed(seed, "same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "salt and nonce must be random")
}

// --- Keypair tests ---

func memoTx(t *testing.T, signer solana.PublicKey) *solana.Transaction {
	t.Helper()
	ix := solana.NewInstruction(
		solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"),
		solana.AccountMetaSlice{solana.Meta(signer).SIGNER()},
		[]byte("hello"),
	)
	var blockhash solana.Hash
	blockhash[0] = 1
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(signer))
	require.NoError(t, err)
	return tx
}

func newTestKeypair(t *testing.T, opts ...KeypairOption) *Keypair {
	t.Helper()
	k, err := KeypairFromMnemonic(testMnemonic, "", opts...)
	require.NoError(t, err)
	return k
}

func TestKeypairFromMnemonic_Deterministic(t *testing.T) {
	a := newTestKeypair(t)
	b := newTestKeypair(t)
	assert.Equal(t, a.PublicKey(), b.PublicKey())

	seed, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	want := ed25519.NewKeyFromSeed(seed[:32]).Public().(ed25519.PublicKey)
	assert.Equal(t, []byte(want), a.PublicKey().Bytes())
}

func TestNewKeypair_InvalidKey(t *testing.T) {
	_, err := NewKeypair(solana.PrivateKey{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = KeypairFromSeed(make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestKeypairSignTransaction(t *testing.T) {
	k := newTestKeypair(t)
	tx := memoTx(t, k.PublicKey())

	signed, err := k.SignTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, signed.Signatures, 1)

	msg, err := signed.Message.MarshalBinary()
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(k.PublicKey().Bytes(), msg, signed.Signatures[0][:]))
}

func TestKeypairSignTransaction_ForeignSigner(t *testing.T) {
	k := newTestKeypair(t)
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	_, err = k.SignTransaction(context.Background(), memoTx(t, other.PublicKey()))
	assert.ErrorIs(t, err, ErrSigningFailed)
}

func TestKeypairDisconnect(t *testing.T) {
	k := newTestKeypair(t)
	assert.True(t, k.Connected())

	k.Disconnect()
	assert.False(t, k.Connected())
	_, err := k.SignTransaction(context.Background(), memoTx(t, k.PublicKey()))
	assert.ErrorIs(t, err, ErrDisconnected)

	k.Connect()
	_, err = k.SignTransaction(context.Background(), memoTx(t, k.PublicKey()))
	assert.NoError(t, err)
}

func TestKeypairApprover(t *testing.T) {
	calls := 0
	k := newTestKeypair(t, WithApprover(func(ctx context.Context, tx *solana.Transaction) error {
		calls++
		return ErrUserRejected
	}))
	tx := memoTx(t, k.PublicKey())

	_, err := k.SignTransaction(context.Background(), tx)
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, 1, calls)
	assert.Empty(t, tx.Signatures, "a declined request must not sign")
}

func TestKeypairSignAndSend(t *testing.T) {
	var gotRaw []byte
	var gotOpts network.SendOptions
	mock := &network.MockBlockchainService{
		SendRawTransactionFn: func(ctx context.Context, rawTx []byte, opts network.SendOptions) (solana.Signature, error) {
			gotRaw = rawTx
			gotOpts = opts
			return solana.Signature{7}, nil
		},
	}
	k := newTestKeypair(t, WithSender(mock))

	opts := network.SendOptions{SkipPreflight: true, MaxRetries: 2}
	sig, err := k.SignAndSendTransaction(context.Background(), memoTx(t, k.PublicKey()), opts)
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{7}, sig)
	assert.Equal(t, opts, gotOpts)
	assert.NotEmpty(t, gotRaw)
}

func TestKeypairSignAndSend_NoSender(t *testing.T) {
	k := newTestKeypair(t)
	_, err := k.SignAndSendTransaction(context.Background(), memoTx(t, k.PublicKey()), network.SendOptions{})
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestKeypairSignAndSend_SenderError(t *testing.T) {
	mock := &network.MockBlockchainService{
		SendRawTransactionFn: func(ctx context.Context, rawTx []byte, opts network.SendOptions) (solana.Signature, error) {
			return solana.Signature{}, network.ErrSendRejected
		},
	}
	k := newTestKeypair(t, WithSender(mock))
	_, err := k.SignAndSendTransaction(context.Background(), memoTx(t, k.PublicKey()), network.SendOptions{})
	assert.True(t, errors.Is(err, network.ErrSendRejected))
}

// --- Keystore tests ---

func TestKeystoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "id.json")
	k := newTestKeypair(t)

	require.NoError(t, SaveKeystore(path, k, "pw"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadKeystore(path, "pw")
	require.NoError(t, err)
	assert.Equal(t, k.PublicKey(), loaded.PublicKey())
	assert.Equal(t, k.PrivateKey(), loaded.PrivateKey())
}

func TestLoadKeystore_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadKeystore(filepath.Join(dir, "missing.json"), "pw")
	assert.ErrorIs(t, err, ErrKeystoreNotFound)

	path := filepath.Join(dir, "id.json")
	require.NoError(t, SaveKeystore(path, newTestKeypair(t), "pw"))
	_, err = LoadKeystore(path, "nope")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{"), 0o600))
	_, err = LoadKeystore(garbage, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}
