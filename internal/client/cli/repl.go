package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/psadmin/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Export(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           show available commands
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - whoami         show the signed-in admin
//	  - list [column]  list players; a column toggles the sort
//	  - stats          summary figures
//	  - edit <id>      edit a player
//	  - delete <id>    delete a player (asks for confirmation)
//	  - export         upload a JSON snapshot
//	  - logout         log out
//	  - exit | quit    leave the program
//
// The session's expiry is checked before every command, so a session that
// lapsed while idle falls back to the logged-out command set. Handler
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ps> %s > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn(ctx) {
			switch cmd {
			case "help":
				printlnFn("Available commands: login, exit")
			case "login":
				report(a.Login(ctx))
			case "logout", "whoami", "list", "l", "stats", "edit", "delete", "export":
				printlnFn("Please login first")
			default:
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn("Available commands: whoami, (l)ist [column], stats, edit <id>, delete <id>, export, logout, exit")
		case "login":
			printlnFn("Already logged in")
		case "whoami":
			report(a.Whoami(ctx))
		case "l", "list":
			report(a.List(ctx, args))
		case "stats":
			report(a.Stats(ctx))
		case "edit":
			report(a.Edit(ctx, args))
		case "delete":
			report(a.Delete(ctx, args))
		case "export":
			report(a.Export(ctx))
		case "logout":
			report(a.Logout(ctx))
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		printlnFn("Usage:", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
	case errors.Is(err, common.ErrStoreUnavailable):
		printlnFn("Error:", err, "(please try again)")
	default:
		printlnFn("Error:", err)
	}
}
