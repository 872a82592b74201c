package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	role     models.Role

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeExec) isLoggedIn() bool     { return f.loggedIn }
func (f *fakeExec) appRole() models.Role { return f.role }
func (f *fakeExec) Register(context.Context) error {
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error   { return f.record("whoami") }
func (f *fakeExec) Profile(context.Context) error  { return f.record("profile") }
func (f *fakeExec) Contact(context.Context) error  { return f.record("contact") }
func (f *fakeExec) Sessions(context.Context) error { return f.record("sessions") }
func (f *fakeExec) Status(context.Context) error   { return f.record("status") }
func (f *fakeExec) Stats(context.Context) error    { return f.record("stats") }
func (f *fakeExec) Bookings(_ context.Context, args []string) error {
	return f.record("bookings " + strings.Join(args, " "))
}
func (f *fakeExec) Get(_ context.Context, args []string) error {
	return f.record("get " + strings.Join(args, " "))
}

func captureREPL(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureREPL(t)

	input := strings.Join([]string{
		"help",
		"login",
		"",
		"whoami",
		"b active",
		"bookings",
		"sessions",
		"get  vehicles/1 ",
		"status",
		"stats",
		"foobar",
		"logout",
		"exit",
		"login",
	}, "\n")
	exec := &fakeExec{role: models.RoleDriver}

	runREPL(context.Background(), exec, func() string { return "st" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"login", "whoami", "bookings active", "bookings ", "sessions",
		"get vehicles/1", "status", "stats", "logout",
	}, exec.calls)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "park> st > ")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureREPL(t)
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("register")))

	assert.Equal(t, []string{"register"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	out := captureREPL(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}

	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("login\n")))

	assert.Empty(t, exec.calls)
	assert.Empty(t, *out)
}

func TestRunREPL_PromptFollowsStatus(t *testing.T) {
	out := captureREPL(t)
	exec := &fakeExec{}
	status := func() string {
		if exec.loggedIn {
			return "Dana"
		}
		return "guest"
	}

	runREPL(context.Background(), exec, status, bufio.NewReader(strings.NewReader("login\nlogout\n")))

	var prompts []string
	for _, l := range *out {
		if strings.HasPrefix(l, "park>") {
			prompts = append(prompts, l)
		}
	}
	assert.Equal(t, []string{"park> guest > ", "park> Dana > ", "park> guest > "}, prompts)
}

func TestHelpText(t *testing.T) {
	tests := []struct {
		name     string
		loggedIn bool
		role     models.Role
		has      []string
		hasNot   []string
	}{
		{"guest", false, models.RoleOwner, []string{"register", "login"}, []string{"logout", "bookings"}},
		{"owner", true, models.RoleOwner, []string{"profile", "contact", "(b)ookings", "logout"}, []string{"sessions", "register"}},
		{"driver", true, models.RoleDriver, []string{"sessions", "get <path>"}, []string{"profile", "contact"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := helpText(tt.loggedIn, tt.role)
			for _, s := range tt.has {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.hasNot {
				assert.NotContains(t, got, s)
			}
		})
	}
}
