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
	view() View
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Status(ctx context.Context) error
	Accounts(ctx context.Context, args []string) error
	Balance(ctx context.Context, args []string) error
	Transactions(ctx context.Context, args []string) error
	Transfer(ctx context.Context) error
}

// runREPL reads a line from reader, parses the first token as the command
// and dispatches to a. The loop exits on EOF or "exit"/"quit".
//
// The prompt shows the current location (from statusFn). Commands:
//
//	Login view:
//	  - help                       show available commands
//	  - register                   create an account
//	  - login                      authenticate
//	  - status                     show session state
//	  - exit | quit                leave the program
//
//	Dashboard view:
//	  - me                         show the current user
//	  - accounts [customerID]      list accounts
//	  - balance <accountID>        show an account balance
//	  - transactions <accountID>   list transactions
//	  - transfer                   move money between accounts
//	  - status, logout, help, exit
//
// Errors returned by command handlers are ignored here; handlers report
// them to the user themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("securebank %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.view() == ViewDashboard {
				printlnFn("Available commands: me, accounts [customerID], balance <id>, transactions <id>, transfer, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "status":
			_ = a.Status(ctx)

		case "accounts":
			_ = a.Accounts(ctx, args)

		case "balance":
			_ = a.Balance(ctx, args)

		case "transactions", "tx":
			_ = a.Transactions(ctx, args)

		case "transfer":
			_ = a.Transfer(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
