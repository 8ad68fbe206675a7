// Package session holds the per-process authenticated state: the identity
// that signed in and, once supplied, the master secret that unlocks the
// vault. Nothing in this package is ever written to durable storage.
package session

import (
	"sync"

	"github.com/dmitrijs2005/lockbox/internal/common"
)

// Holder is the process-scoped session state. The zero value is a closed
// session. All methods are safe for concurrent use.
type Holder struct {
	mu           sync.Mutex
	identity     string
	masterSecret []byte
	opened       bool
}

func NewHolder() *Holder {
	return &Holder{}
}

// Open records the authenticated identity. Any master secret cached for a
// previous identity is wiped.
func (h *Holder) Open(identity string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wipeLocked()
	h.identity = identity
	h.opened = true
}

// Current returns the active identity, or false when no session is open.
func (h *Holder) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.opened {
		return "", false
	}
	return h.identity, true
}

// Unlock caches the master secret for the rest of the session. The holder
// keeps its own copy, so the caller may wipe its buffer afterwards.
// Unlocking a closed session fails with common.ErrUnauthorized.
func (h *Holder) Unlock(masterSecret []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.opened {
		return common.ErrUnauthorized
	}
	h.wipeLocked()
	h.masterSecret = append([]byte(nil), masterSecret...)
	return nil
}

// MasterSecret returns a copy of the cached master secret, or false when the
// session is locked and the caller must prompt for it again.
func (h *Holder) MasterSecret() ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.opened || h.masterSecret == nil {
		return nil, false
	}
	return append([]byte(nil), h.masterSecret...), true
}

// Lock wipes the cached master secret but keeps the identity signed in.
func (h *Holder) Lock() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wipeLocked()
}

// Close tears the session down: the identity is cleared and the cached
// master secret wiped. Safe to call repeatedly.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.wipeLocked()
	h.identity = ""
	h.opened = false
}

func (h *Holder) wipeLocked() {
	common.WipeByteArray(h.masterSecret)
	h.masterSecret = nil
}
