package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/logging"
	"github.com/dmitrijs2005/lockbox/internal/session"
	"github.com/dmitrijs2005/lockbox/internal/vault"
)

// EntryService defines the vault operations for the CLI. Every operation
// resolves the identity and cached master secret from the session: a closed
// session fails with common.ErrUnauthorized and a locked one with
// common.ErrLocked, which tells the caller to prompt for the master secret
// and call Unlock.
type EntryService interface {
	Unlock(ctx context.Context, masterSecret []byte) error
	List(ctx context.Context) ([]vault.Entry, error)
	Upsert(ctx context.Context, entry vault.Entry) error
	Remove(ctx context.Context, id string) error
}

type entryService struct {
	store   *vault.Store
	session *session.Holder
	log     logging.Logger
}

// NewEntryService constructs an EntryService bound to the given vault store
// and session holder.
func NewEntryService(store *vault.Store, holder *session.Holder, log logging.Logger) EntryService {
	return &entryService{store: store, session: holder, log: log}
}

// Unlock validates the master secret against the stored collection and, on
// success, caches it in the session. When the identity has no collection
// yet there is nothing to validate against and the secret is accepted as-is;
// the first save seals the collection under it.
func (s *entryService) Unlock(ctx context.Context, masterSecret []byte) error {
	identity, ok := s.session.Current()
	if !ok {
		return common.ErrUnauthorized
	}

	if _, err := s.store.List(ctx, identity, masterSecret); err != nil {
		if errors.Is(err, common.ErrDecryptionFailed) {
			s.log.Warn(ctx, "unlock rejected", "email", identity)
		}
		return err
	}

	if err := s.session.Unlock(masterSecret); err != nil {
		return err
	}
	s.log.Info(ctx, "vault unlocked", "email", identity)
	return nil
}

// creds resolves the identity and a copy of the cached master secret from
// the session. The caller must wipe the returned secret after use.
func (s *entryService) creds() (string, []byte, error) {
	identity, ok := s.session.Current()
	if !ok {
		return "", nil, common.ErrUnauthorized
	}
	secret, ok := s.session.MasterSecret()
	if !ok {
		return "", nil, common.ErrLocked
	}
	return identity, secret, nil
}

func (s *entryService) List(ctx context.Context) ([]vault.Entry, error) {
	identity, secret, err := s.creds()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	return s.store.List(ctx, identity, secret)
}

func (s *entryService) Upsert(ctx context.Context, entry vault.Entry) error {
	identity, secret, err := s.creds()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if err := s.store.Upsert(ctx, identity, secret, entry); err != nil {
		return err
	}
	s.log.Info(ctx, "entry saved", "id", entry.ID)
	return nil
}

func (s *entryService) Remove(ctx context.Context, id string) error {
	identity, secret, err := s.creds()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(secret)

	if err := s.store.Remove(ctx, identity, secret, id); err != nil {
		return err
	}
	s.log.Info(ctx, "entry removed", "id", id)
	return nil
}
