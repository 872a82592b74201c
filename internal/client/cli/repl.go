package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	appRole() models.Role
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Profile(ctx context.Context) error
	Contact(ctx context.Context) error
	Bookings(ctx context.Context, args []string) error
	Sessions(ctx context.Context) error
	Get(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Stats(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF, when ctx is done or when the user types "exit" or
// "quit".
//
// The prompt shows statusFn() so a session dropped by the server shows up
// as the guest prompt on the next line without any message. Handlers
// report their own errors; their return values only matter to tests.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("park> %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText(a.isLoggedIn(), a.appRole()))

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami", "me":
			_ = a.WhoAmI(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "contact":
			_ = a.Contact(ctx)

		case "b", "bookings":
			_ = a.Bookings(ctx, args)

		case "sessions":
			_ = a.Sessions(ctx)

		case "get":
			_ = a.Get(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func helpText(loggedIn bool, role models.Role) string {
	if !loggedIn {
		return "Available commands: register, login, status, stats, exit"
	}
	cmds := []string{"whoami", "(b)ookings [status]"}
	switch role {
	case models.RoleOwner:
		cmds = append(cmds, "profile", "contact")
	case models.RoleDriver:
		cmds = append(cmds, "sessions")
	}
	cmds = append(cmds, "get <path>", "status", "stats", "logout", "exit")
	return "Available commands: " + strings.Join(cmds, ", ")
}
