// Package cryptox implements the key-derivation and sealed-record
// primitives used by the credential directory and the vault.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the number of random bytes used for key-derivation salts.
const SaltSize = 16

const keySize = 32

// DeriveKey derives a 32-byte symmetric key from a secret and salt using
// argon2id. Derivation is intentionally expensive (64 MiB, 4 lanes), so
// callers should hold on to the result instead of re-deriving per operation.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, keySize)
}

// MakeVerifier returns a value that is safe to persist and later compare to
// confirm a derived key without revealing it.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// Record is a sealed payload together with everything needed to open it
// again given the original secret: the key-derivation salt, the AES-GCM
// nonce and the ciphertext (which carries the authentication tag).
type Record struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts plaintext under a key derived from secret, using a fresh
// random salt and nonce and AES-256-GCM.
func Seal(plaintext, secret []byte) (*Record, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	key := DeriveKey(secret, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &Record{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// Open decrypts a sealed record with a key derived from secret and the
// record's salt. Any authentication failure — wrong secret, tampered or
// truncated record — is reported as common.ErrDecryptionFailed, never as
// empty data.
func Open(r *Record, secret []byte) ([]byte, error) {
	key := DeriveKey(secret, r.Salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(r.Nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("%w: invalid nonce size", common.ErrDecryptionFailed)
	}

	plaintext, err := aesgcm.Open(nil, r.Nonce, r.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
