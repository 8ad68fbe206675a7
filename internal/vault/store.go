package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/cryptox"
	"github.com/dmitrijs2005/lockbox/internal/storage"
)

// keyPrefix namespaces per-identity records in the shared backend.
const keyPrefix = "vault_"

// record is the durable per-identity representation: a generation stamp for
// optimistic concurrency plus the sealed entry collection. The plaintext
// behind Sealed is the JSON-encoded entry slice in insertion order.
type record struct {
	Generation uint64          `json:"generation"`
	Sealed     *cryptox.Record `json:"sealed"`
}

// Store persists each identity's entire entry collection as a single sealed
// record. Every mutation decrypts the full collection, applies the change
// and swaps the re-sealed record back; the record is either replaced as a
// whole or left untouched.
type Store struct {
	kv storage.KV
}

func New(kv storage.KV) *Store {
	return &Store{kv: kv}
}

func storageKey(identity string) string {
	return keyPrefix + identity
}

// load returns the decoded record and the raw bytes it was decoded from,
// or (nil, nil, nil) when the identity has no collection yet.
func (s *Store) load(ctx context.Context, identity string) (*record, []byte, error) {
	raw, err := s.kv.Get(ctx, storageKey(identity))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	rec := &record{}
	if err := json.Unmarshal(raw, rec); err != nil || rec.Sealed == nil {
		return nil, nil, fmt.Errorf("%w: malformed vault record", common.ErrDecryptionFailed)
	}
	return rec, raw, nil
}

func decryptEntries(rec *record, masterSecret []byte) ([]Entry, error) {
	plaintext, err := cryptox.Open(rec.Sealed, masterSecret)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	var entries []Entry
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("%w: malformed entry collection", common.ErrDecryptionFailed)
	}
	return entries, nil
}

// List returns the identity's entries in insertion order. An identity with
// no stored collection gets an empty slice; a wrong master secret or a
// corrupted record fails with common.ErrDecryptionFailed — never an empty
// result.
func (s *Store) List(ctx context.Context, identity string, masterSecret []byte) ([]Entry, error) {
	rec, _, err := s.load(ctx, identity)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return []Entry{}, nil
	}
	return decryptEntries(rec, masterSecret)
}

// Upsert replaces the entry with a matching ID or appends it, then seals
// and writes the whole collection back. The write is optimistic: if another
// writer advanced the record since it was read, common.ErrConflict is
// returned and nothing is changed; the caller may simply retry.
func (s *Store) Upsert(ctx context.Context, identity string, masterSecret []byte, entry Entry) error {
	if entry.ID == "" || entry.Title == "" || entry.Password == "" {
		return fmt.Errorf("%w: id, title and password are required", common.ErrValidation)
	}

	rec, raw, err := s.load(ctx, identity)
	if err != nil {
		return err
	}

	var entries []Entry
	var generation uint64
	if rec != nil {
		entries, err = decryptEntries(rec, masterSecret)
		if err != nil {
			return err
		}
		generation = rec.Generation
	}

	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	return s.save(ctx, identity, masterSecret, entries, generation, raw)
}

// Remove deletes the entry with the given ID. Removing an absent ID is a
// no-op, and an identity with no stored collection writes nothing.
func (s *Store) Remove(ctx context.Context, identity string, masterSecret []byte, id string) error {
	rec, raw, err := s.load(ctx, identity)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	entries, err := decryptEntries(rec, masterSecret)
	if err != nil {
		return err
	}

	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}

	return s.save(ctx, identity, masterSecret, kept, rec.Generation, raw)
}

// save seals the collection under a fresh salt and nonce and swaps it in
// with the next generation stamp. raw is the record the mutation was based
// on (nil when the collection did not exist yet).
func (s *Store) save(ctx context.Context, identity string, masterSecret []byte, entries []Entry, generation uint64, raw []byte) error {
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	sealed, err := cryptox.Seal(plaintext, masterSecret)
	if err != nil {
		return err
	}

	next, err := json.Marshal(record{Generation: generation + 1, Sealed: sealed})
	if err != nil {
		return err
	}
	return s.kv.CompareAndSwap(ctx, storageKey(identity), raw, next)
}
