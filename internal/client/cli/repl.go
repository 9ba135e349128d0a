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
	Verify(ctx context.Context) error
	MFA(ctx context.Context) error
	List(ctx context.Context) error
	View(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Shared(ctx context.Context, args []string) error
	Download(ctx context.Context, args []string) error
	Users(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the filevault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command and the rest as arguments, and dispatches to methods on 'a'.
// Unknown commands are reported back to the user. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help               — show available commands
//	  - register           — create an account
//	  - login              — authenticate
//	  - verify             — complete a pending MFA challenge
//	  - shared <id>        — view a file shared by link
//	  - exit | quit        — leave the program
//
//	Logged in:
//	  - help               — show available commands
//	  - list               — list your files
//	  - view <id>          — view a file (served from cache when possible)
//	  - upload <path>      — upload a local file
//	  - delete <id>        — delete a file
//	  - share <id>         — create a share link for a file
//	  - shared <id>        — view a file shared by link
//	  - download <id> <to> — save a file to the local disk
//	  - users              — list user accounts (admin only)
//	  - whoami             — show the current identity
//	  - mfa                — enable multi-factor authentication
//	  - verify             — confirm the authenticator code
//	  - logout             — log out
//	  - exit | quit        — leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own outcomes. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("fv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, view, upload, delete, share, shared, download, users, whoami, mfa, verify, logout, exit")
			} else {
				printlnFn("Available commands: register, login, verify, shared, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "mfa":
			_ = a.MFA(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "view":
			_ = a.View(ctx, args)

		case "upload":
			_ = a.Upload(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "share":
			_ = a.Share(ctx, args)

		case "shared":
			_ = a.Shared(ctx, args)

		case "download":
			_ = a.Download(ctx, args)

		case "users":
			_ = a.Users(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

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
