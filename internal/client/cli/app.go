// Package cli implements the interactive lockbox client: a REPL over the
// auth and entry services with storage selected via configuration.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/lockbox/internal/client/config"
	"github.com/dmitrijs2005/lockbox/internal/client/services"
	"github.com/dmitrijs2005/lockbox/internal/common"
	"github.com/dmitrijs2005/lockbox/internal/directory"
	"github.com/dmitrijs2005/lockbox/internal/logging"
	"github.com/dmitrijs2005/lockbox/internal/session"
	"github.com/dmitrijs2005/lockbox/internal/storage"
	"github.com/dmitrijs2005/lockbox/internal/vault"
)

type App struct {
	config       *config.Config
	authService  services.AuthService
	entryService services.EntryService
	session      *session.Holder
	kv           storage.KV
	reader       *bufio.Reader
}

// NewApp wires the full client: opens the configured storage backend, builds
// the credential directory, vault store and session holder on top of it, and
// exposes them through the auth and entry services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	kv, err := storage.NewKV(ctx, c.Storage())
	if err != nil {
		log.Printf("error initializing storage: %s", err.Error())
		return nil, err
	}

	holder := session.NewHolder()
	as := services.NewAuthService(directory.New(kv), holder, logger)
	es := services.NewEntryService(vault.New(kv), holder, logger)

	return &App{
		config:       c,
		authService:  as,
		entryService: es,
		session:      holder,
		kv:           kv,
		reader:       bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and blocks until the user exits or stdin is closed.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Println("Welcome to lockbox CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// Close tears down the session and releases the storage backend.
func (a *App) Close() {
	a.session.Close()
	if err := a.kv.Close(); err != nil {
		log.Printf("error closing storage: %s", err.Error())
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.session.Current()
	return ok
}

func (a *App) isUnlocked() bool {
	secret, ok := a.session.MasterSecret()
	if ok {
		// status check only, the copy is not needed
		common.WipeByteArray(secret)
	}
	return ok
}

// getStatus renders the prompt suffix, e.g. "(a@example.com unlocked)".
func (a *App) getStatus() string {
	identity, ok := a.session.Current()
	if !ok {
		return ""
	}
	state := "locked"
	if a.isUnlocked() {
		state = "unlocked"
	}
	return fmt.Sprintf("(%s %s)", identity, state)
}
