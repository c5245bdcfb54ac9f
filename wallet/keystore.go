package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for seed encryption.
const (
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32
)

// Sealed seed layout: salt || nonce || AES-GCM(seed || checksum).
const (
	SaltLen     = 16
	NonceLen    = 12
	ChecksumLen = 4
)

// KeystoreVersion is written into every keystore file.
const KeystoreVersion = 1

func seedChecksum(seed []byte) []byte {
	sum := sha256.Sum256(seed)
	return sum[:ChecksumLen]
}

func seedCipher(password string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptSeed seals seed under password with Argon2id and AES-256-GCM. The
// plaintext carries SHA256(seed)[:4] so a wrong key is caught after opening.
func EncryptSeed(seed []byte, password string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	out := make([]byte, SaltLen+NonceLen)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("wallet: failed to read randomness: %w", err)
	}
	salt, nonce := out[:SaltLen], out[SaltLen:]

	aead, err := seedCipher(password, salt)
	if err != nil {
		return nil, fmt.Errorf("wallet: cipher setup failed: %w", err)
	}
	plaintext := append(append(make([]byte, 0, len(seed)+ChecksumLen), seed...), seedChecksum(seed)...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// DecryptSeed opens a blob produced by EncryptSeed.
func DecryptSeed(sealed []byte, password string) ([]byte, error) {
	if len(sealed) < SaltLen+NonceLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	salt := sealed[:SaltLen]
	nonce := sealed[SaltLen : SaltLen+NonceLen]

	aead, err := seedCipher(password, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, nonce, sealed[SaltLen+NonceLen:], nil)
	if err != nil || len(plaintext) < ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	seed := plaintext[:len(plaintext)-ChecksumLen]
	if !bytes.Equal(plaintext[len(seed):], seedChecksum(seed)) {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}

// keystoreFile is the on-disk JSON document. Seed is base64 by encoding/json.
type keystoreFile struct {
	Version   int    `json:"version"`
	PublicKey string `json:"public_key"`
	Seed      []byte `json:"seed"`
}

// SaveKeystore encrypts the keypair's ed25519 seed and writes it to path
// with owner-only permissions, creating parent directories.
func SaveKeystore(path string, k *Keypair, password string) error {
	if k == nil {
		return fmt.Errorf("%w: nil keypair", ErrInvalidKey)
	}
	sealed, err := EncryptSeed(ed25519.PrivateKey(k.key).Seed(), password)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(keystoreFile{
		Version:   KeystoreVersion,
		PublicKey: k.pub.String(),
		Seed:      sealed,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: encode keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("wallet: create keystore dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("wallet: write keystore: %w", err)
	}
	return nil
}

// LoadKeystore reads and decrypts a keystore written by SaveKeystore.
func LoadKeystore(path, password string, opts ...KeypairOption) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("wallet: read keystore: %w", err)
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: malformed keystore: %v", ErrDecryptionFailed, err)
	}
	seed, err := DecryptSeed(ks.Seed, password)
	if err != nil {
		return nil, err
	}
	k, err := KeypairFromSeed(seed, opts...)
	if err != nil {
		return nil, err
	}
	if want, err := solana.PublicKeyFromBase58(ks.PublicKey); err != nil || want != k.pub {
		return nil, ErrKeystoreMismatch
	}
	return k, nil
}
