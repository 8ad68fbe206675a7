package directory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Directory, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	return New(kv), kv
}

func TestRegisterThenAuthenticate(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, "a@x.com", []byte("hunter2")))
	require.NoError(t, d.Authenticate(ctx, "a@x.com", []byte("hunter2")))
}

func TestRegister_Validation(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	err := d.Register(ctx, "", []byte("secret"))
	assert.True(t, errors.Is(err, common.ErrValidation))

	err = d.Register(ctx, "a@x.com", nil)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestRegister_Duplicate(t *testing.T) {
	d, kv := setup(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, "a@x.com", []byte("hunter2")))

	err := d.Register(ctx, "a@x.com", []byte("other"))
	assert.True(t, errors.Is(err, common.ErrAlreadyExists))

	// the stored record still contains exactly one user for that email
	raw, err := kv.Get(ctx, "users")
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(raw, &users))
	assert.Len(t, users, 1)

	// and the original secret still authenticates
	require.NoError(t, d.Authenticate(ctx, "a@x.com", []byte("hunter2")))
}

func TestRegister_CaseSensitiveEmails(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, "a@x.com", []byte("one")))
	require.NoError(t, d.Register(ctx, "A@x.com", []byte("two")))

	require.NoError(t, d.Authenticate(ctx, "a@x.com", []byte("one")))
	require.NoError(t, d.Authenticate(ctx, "A@x.com", []byte("two")))
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, "a@x.com", []byte("hunter2")))

	// wrong secret and unknown email must be indistinguishable
	errWrong := d.Authenticate(ctx, "a@x.com", []byte("nope"))
	errUnknown := d.Authenticate(ctx, "b@x.com", []byte("hunter2"))

	assert.True(t, errors.Is(errWrong, common.ErrInvalidCredentials))
	assert.True(t, errors.Is(errUnknown, common.ErrInvalidCredentials))
	assert.Equal(t, errWrong, errUnknown)
}

func TestAuthenticate_EmptyInput(t *testing.T) {
	d, _ := setup(t)
	ctx := context.Background()

	err := d.Authenticate(ctx, "", []byte("x"))
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))

	err = d.Authenticate(ctx, "a@x.com", nil)
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))
}

func TestDirectory_NoPlainSecretStored(t *testing.T) {
	d, kv := setup(t)
	ctx := context.Background()

	secret := "hunter2-very-secret"
	require.NoError(t, d.Register(ctx, "a@x.com", []byte(secret)))

	raw, err := kv.Get(ctx, "users")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), secret)
}
