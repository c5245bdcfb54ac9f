package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty or too short to derive a key.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrInvalidKey indicates a private key of the wrong length.
	ErrInvalidKey = errors.New("wallet: invalid private key")

	// ErrDecryptionFailed indicates wrong password or corrupted keystore data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrKeystoreNotFound indicates no keystore file exists at the given path.
	ErrKeystoreNotFound = errors.New("wallet: keystore not found")

	// ErrKeystoreMismatch indicates the decrypted key does not match the
	// public key recorded in the keystore.
	ErrKeystoreMismatch = errors.New("wallet: keystore public key mismatch")

	// ErrUserRejected indicates the user declined to approve a signature.
	ErrUserRejected = errors.New("wallet: user rejected the request")

	// ErrDisconnected indicates the wallet is not connected, or is connected
	// under a different key than the transaction requires.
	ErrDisconnected = errors.New("wallet: wallet disconnected")

	// ErrSigningFailed indicates the wallet could not produce a signature.
	ErrSigningFailed = errors.New("wallet: signing failed")

	// ErrNoSender indicates an atomic send was requested from a wallet that
	// has no transaction sender attached.
	ErrNoSender = errors.New("wallet: no transaction sender configured")
)
