// Package directory implements the credential directory: the mapping from a
// user's email to the data needed to verify their sign-in secret. Plain
// secrets are never stored; the directory keeps an argon2id-derived
// verifier together with its salt.
package directory

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/cryptox"
	"github.com/dmitrijs2005/lockbox/internal/storage"
)

// directoryKey is the fixed storage key the whole directory record lives under.
const directoryKey = "users"

// user is the persisted form of one registration.
type user struct {
	Email    string `json:"email"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// Directory registers and verifies identities against an injected storage
// backend. Email matching is case-sensitive exact match.
type Directory struct {
	kv storage.KV
}

func New(kv storage.KV) *Directory {
	return &Directory{kv: kv}
}

// load returns the decoded directory and the raw record it was decoded from.
// An absent record decodes to an empty directory with nil raw bytes.
func (d *Directory) load(ctx context.Context) ([]user, []byte, error) {
	raw, err := d.kv.Get(ctx, directoryKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var users []user
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, nil, fmt.Errorf("corrupted directory record: %w", err)
	}
	return users, raw, nil
}

// Register adds a new identity. An empty email or secret fails with
// common.ErrValidation; a duplicate email with common.ErrAlreadyExists.
//
// The directory is a single record replaced wholesale, so the write goes
// through CompareAndSwap: losing a race against a concurrent registration
// re-reads and retries, and the duplicate check runs again against the
// fresh record.
func (d *Directory) Register(ctx context.Context, email string, secret []byte) error {
	if email == "" || len(secret) == 0 {
		return fmt.Errorf("%w: email and secret are required", common.ErrValidation)
	}

	for {
		users, raw, err := d.load(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Email == email {
				return common.ErrAlreadyExists
			}
		}

		salt := common.GenerateRandByteArray(cryptox.SaltSize)
		key := cryptox.DeriveKey(secret, salt)
		verifier := cryptox.MakeVerifier(key)
		common.WipeByteArray(key)

		next, err := json.Marshal(append(users, user{Email: email, Salt: salt, Verifier: verifier}))
		if err != nil {
			return err
		}

		err = d.kv.CompareAndSwap(ctx, directoryKey, raw, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return err
		}
	}
}

// Authenticate verifies the (email, secret) pair. Unknown email and wrong
// secret are deliberately indistinguishable: both fail with
// common.ErrInvalidCredentials.
func (d *Directory) Authenticate(ctx context.Context, email string, secret []byte) error {
	if email == "" || len(secret) == 0 {
		return common.ErrInvalidCredentials
	}

	users, _, err := d.load(ctx)
	if err != nil {
		return err
	}

	for _, u := range users {
		if u.Email != email {
			continue
		}
		key := cryptox.DeriveKey(secret, u.Salt)
		candidate := cryptox.MakeVerifier(key)
		common.WipeByteArray(key)

		if subtle.ConstantTimeCompare(u.Verifier, candidate) == 1 {
			return nil
		}
		break
	}
	return common.ErrInvalidCredentials
}
