package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/vault"
	"github.com/google/uuid"
)

// ensureUnlocked gates the vault commands: the user must be logged in, and
// if the vault is still locked the master password is requested on the spot.
func (a *App) ensureUnlocked(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first.")
		return common.ErrUnauthorized
	}
	if !a.isUnlocked() {
		return a.promptUnlock(ctx)
	}
	return nil
}

// saveEntry persists the entry and translates concurrent-modification
// failures into a user-facing retry hint.
func (a *App) saveEntry(ctx context.Context, entry vault.Entry) error {
	if err := a.entryService.Upsert(ctx, entry); err != nil {
		switch {
		case errors.Is(err, common.ErrConflict):
			fmt.Println("The vault was modified by another process, please try again.")
		case errors.Is(err, common.ErrValidation):
			fmt.Println("Title and password are required.")
		default:
			log.Printf("error: %v", err)
		}
		return err
	}
	return nil
}

// Add collects the fields for a new entry and persists it. An empty password
// is replaced with a generated one, which is printed so the user can copy it.
func (a *App) Add(ctx context.Context) error {
	if err := a.ensureUnlocked(ctx); err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, "Enter title", os.Stdout)
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		fmt.Println("Title is required.")
		return common.ErrValidation
	}

	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSimpleText(a.reader, "Enter password (empty to generate)", os.Stdout)
	if err != nil {
		return err
	}
	if password == "" {
		password, err = GeneratePassword(DefaultGeneratorOptions())
		if err != nil {
			return err
		}
		fmt.Printf("Generated password: %s\n", password)
	}

	url, err := getSimpleText(a.reader, "Enter URL (optional)", os.Stdout)
	if err != nil {
		return err
	}

	notes, err := GetMultiline(a.reader, "Enter notes (optional):", os.Stdout)
	if err != nil {
		return err
	}

	entry := vault.Entry{
		ID:        uuid.NewString(),
		Title:     title,
		Username:  username,
		Password:  password,
		URL:       url,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	if err := a.saveEntry(ctx, entry); err != nil {
		return err
	}
	fmt.Printf("Saved entry %s\n", entry.ID)
	return nil
}

// Edit updates an existing entry in place. Each field is prompted with its
// current value; an empty answer keeps it. The entry id and creation time
// never change.
func (a *App) Edit(ctx context.Context) error {
	if err := a.ensureUnlocked(ctx); err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Enter record id to edit", os.Stdout)
	if err != nil {
		return err
	}

	entry, err := a.findEntry(ctx, id)
	if err != nil {
		return err
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Enter title [%s]", entry.Title), os.Stdout)
	if err != nil {
		return err
	}
	if title != "" {
		entry.Title = title
	}

	username, err := getSimpleText(a.reader, fmt.Sprintf("Enter username [%s]", entry.Username), os.Stdout)
	if err != nil {
		return err
	}
	if username != "" {
		entry.Username = username
	}

	password, err := getSimpleText(a.reader, "Enter password (empty to keep current)", os.Stdout)
	if err != nil {
		return err
	}
	if password != "" {
		entry.Password = password
	}

	url, err := getSimpleText(a.reader, fmt.Sprintf("Enter URL [%s]", entry.URL), os.Stdout)
	if err != nil {
		return err
	}
	if url != "" {
		entry.URL = url
	}

	notes, err := GetMultiline(a.reader, "Enter notes (empty to keep current):", os.Stdout)
	if err != nil {
		return err
	}
	if notes != "" {
		entry.Notes = notes
	}

	if err := a.saveEntry(ctx, entry); err != nil {
		return err
	}
	fmt.Printf("Updated entry %s\n", entry.ID)
	return nil
}

// matchesFilter reports whether the entry matches a case-insensitive
// substring query over title, username and URL.
func matchesFilter(e vault.Entry, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.Username), q) ||
		strings.Contains(strings.ToLower(e.URL), q)
}

// List prints a one-line summary for each stored entry in insertion order.
// An optional argument narrows the output to entries whose title, username
// or URL contains it.
func (a *App) List(ctx context.Context, args []string) error {
	if err := a.ensureUnlocked(ctx); err != nil {
		return err
	}

	entries, err := a.entryService.List(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	if len(entries) == 0 {
		fmt.Println("The vault is empty.")
		return nil
	}

	if filter := strings.Join(args, " "); filter != "" {
		kept := make([]vault.Entry, 0, len(entries))
		for _, e := range entries {
			if matchesFilter(e, filter) {
				kept = append(kept, e)
			}
		}
		entries = kept
		if len(entries) == 0 {
			fmt.Printf("No entries match %q\n", filter)
			return nil
		}
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s | %s", e.ID, e.Title)
		if e.Username != "" {
			line += " | " + e.Username
		}
		if e.URL != "" {
			line += " | " + e.URL
		}
		fmt.Println(line)
	}
	return nil
}

// Show displays a single entry by ID, including the password and notes.
func (a *App) Show(ctx context.Context) error {
	if err := a.ensureUnlocked(ctx); err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Enter record id to show", os.Stdout)
	if err != nil {
		return err
	}

	entry, err := a.findEntry(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Title: %s\n", entry.Title)
	fmt.Printf("Username: %s\n", entry.Username)
	fmt.Printf("Password: %s\n", entry.Password)
	if entry.URL != "" {
		fmt.Printf("URL: %s\n", entry.URL)
	}
	if entry.Notes != "" {
		fmt.Printf("Notes: %s\n", entry.Notes)
	}
	fmt.Printf("Created: %s\n", entry.CreatedAt.Format(time.RFC3339))
	return nil
}

// Delete removes an entry by its identifier, prompting the user for the ID.
// Deleting an unknown id is not an error.
func (a *App) Delete(ctx context.Context) error {
	if err := a.ensureUnlocked(ctx); err != nil {
		return err
	}

	id, err := getSimpleText(a.reader, "Enter record id to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.entryService.Remove(ctx, id); err != nil {
		if errors.Is(err, common.ErrConflict) {
			fmt.Println("The vault was modified by another process, please try again.")
		} else {
			log.Printf("error: %v", err)
		}
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// Generate prints a random password. An optional argument overrides the
// default length of 16.
func (a *App) Generate(ctx context.Context, args []string) error {
	opts := DefaultGeneratorOptions()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Println("Usage: generate [length]")
			return common.ErrValidation
		}
		opts.Length = n
	}

	password, err := GeneratePassword(opts)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Println(password)
	return nil
}

// findEntry looks an entry up by id in the decrypted collection.
func (a *App) findEntry(ctx context.Context, id string) (vault.Entry, error) {
	var zero vault.Entry

	entries, err := a.entryService.List(ctx)
	if err != nil {
		log.Printf("error: %v", err)
		return zero, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	fmt.Printf("No entry with id %s\n", id)
	return zero, common.ErrNotFound
}
