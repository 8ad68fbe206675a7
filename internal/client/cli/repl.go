package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Unlock(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context) error
	Delete(ctx context.Context) error
	Generate(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the lockbox CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	Not logged in:
//	  - help            — show available commands
//	  - register        — create an account
//	  - login           — authenticate
//	  - generate [len]  — generate a random password
//	  - exit | quit     — leave the program
//
//	Logged in:
//	  - help            — show available commands
//	  - add             — add a vault entry
//	  - edit            — edit a vault entry by id
//	  - (l)ist [filter] — list entries, optionally filtered by substring
//	  - show            — show a single entry (interactive ID prompt)
//	  - delete          — delete an entry by id
//	  - unlock          — re-enter the master password
//	  - generate [len]  — generate a random password
//	  - logout          — log out
//	  - exit | quit     — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("lb %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, edit, (l)ist [filter], show, delete, unlock, generate, logout, exit")
			} else {
				printlnFn("Available commands: register, login, generate, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "add":
			_ = a.Add(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "l", "list":
			_ = a.List(ctx, args)

		case "show":
			_ = a.Show(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "unlock":
			_ = a.Unlock(ctx)

		case "generate":
			_ = a.Generate(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
