package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/client"
	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/client/session"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) requireLogin() bool {
	if a.isLoggedIn() {
		return true
	}
	a.println("Please log in first.")
	return false
}

// report prints a failed command. A 401 prints nothing: the session is
// already gone and the prompt says so.
func (a *App) report(ctx context.Context, action string, err error, fallback string) {
	if errors.Is(err, client.ErrUnauthorized) {
		a.log.Debug(ctx, "command ended by session invalidation", "action", action)
		return
	}
	a.printf("%s: %s\n", action, describeError(err, fallback))
}

// describeError turns err into one line for the user.
func describeError(err error, fallback string) string {
	var (
		ve *models.ValidationError
		ae *client.APIError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, session.ErrNotAuthenticated):
		return "please log in first"
	case errors.Is(err, session.ErrAlreadyAuthenticated):
		return "already signed in, log out first"
	case errors.Is(err, client.ErrNotSupported):
		return "not available in this app"
	case errors.As(err, &ae):
		if ae.Kind == client.KindNetwork {
			return "server unreachable, try again later"
		}
		if fallback == "" {
			fallback = ae.Error()
		}
		return ae.Message(fallback)
	default:
		return err.Error()
	}
}

func (a *App) printProfile(u *models.UserProfile) {
	a.printf("ID:      %d\n", u.ID)
	a.printf("Name:    %s\n", u.Name)
	a.printf("Email:   %s\n", u.Email)
	if u.PhoneNumber != "" {
		a.printf("Phone:   %s\n", u.PhoneNumber)
	}
	if u.Address != "" {
		a.printf("Address: %s\n", u.Address)
	}
	if !u.CreatedAt.IsZero() {
		a.printf("Since:   %s\n", formatTime(u.CreatedAt))
	}
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format(timeLayout)
}

func formatMoney(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatMinutes(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 0, 64) + "m"
}
