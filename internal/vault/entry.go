// Package vault implements the encrypted record store: one sealed
// collection of entries per identity, decrypted in full on read and
// re-encrypted in full on every write.
package vault

import "time"

// Entry is one stored credential. ID must be unique within an identity's
// collection; Title and Password are required.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	URL       string    `json:"url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
