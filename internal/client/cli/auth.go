package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/lockbox/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email and password and attempts to create
// a new account in the credential directory.
//
// On success it prints "Success!" and returns nil. The password byte slice
// is securely wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, email, password); err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyExists):
			fmt.Println("An account with this email already exists.")
		case errors.Is(err, common.ErrValidation):
			fmt.Println("Email and password must not be empty.")
		default:
			log.Printf("error: %v", err)
		}
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts for credentials and tries to authenticate. On success the
// session is opened and the user is immediately asked for the master
// password to unlock the vault; declining to unlock keeps the session open
// but locked.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, email, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			fmt.Println("Invalid email or password.")
		} else {
			log.Printf("error: %v", err)
		}
		return err
	}

	fmt.Println("Logged in.")
	return a.promptUnlock(ctx)
}

// Unlock re-prompts for the master password, e.g. after a failed attempt
// during login.
func (a *App) Unlock(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Please login first.")
		return common.ErrUnauthorized
	}
	return a.promptUnlock(ctx)
}

// promptUnlock reads the master password and validates it against the stored
// vault. The secret is wiped before returning; on success the session keeps
// its own copy.
func (a *App) promptUnlock(ctx context.Context) error {
	master, err := getPassword(os.Stdout, "Enter master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(master)

	if err := a.entryService.Unlock(ctx, master); err != nil {
		if errors.Is(err, common.ErrDecryptionFailed) {
			fmt.Println("Wrong master password, vault stays locked. Use 'unlock' to retry.")
		} else {
			log.Printf("error: %v", err)
		}
		return err
	}

	fmt.Println("Vault unlocked.")
	return nil
}

// Logout closes the session and wipes the cached master secret.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}
