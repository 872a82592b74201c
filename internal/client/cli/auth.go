package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and creates the account. The
// user still has to log in afterwards.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	phone, err := getSimpleText(a.reader, "Enter phone number (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	_, err = a.session.Register(ctx, models.NewUser{
		Name:        name,
		Email:       email,
		Password:    string(password),
		PhoneNumber: phone,
	})
	if err != nil {
		a.report(ctx, "Registration failed", err, "registration rejected")
		return err
	}

	a.println("Account created. Use 'login' to sign in.")
	return nil
}

// Login prompts for credentials and signs in. A rejected login shows the
// server's reason, or "invalid credentials" when it gave none.
func (a *App) Login(ctx context.Context) error {
	if st := a.session.State(); st.Authenticated() {
		a.printf("Already signed in as %s\n", st.User.DisplayName())
		return nil
	}

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.session.Login(ctx, models.Credentials{
		Email:    strings.TrimSpace(email),
		Password: string(password),
	})
	if err != nil {
		a.printf("Login failed: %s\n", describeError(err, "invalid credentials"))
		return err
	}

	a.printf("Welcome, %s!\n", user.DisplayName())
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.report(ctx, "Logout failed", err, "")
		return err
	}
	a.println("Signed out.")
	return nil
}

// WhoAmI reloads the profile from the backend and prints it.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}

	user, err := a.session.RefreshProfile(ctx)
	if err != nil {
		a.report(ctx, "Could not load profile", err, "")
		return err
	}

	a.printProfile(user)
	return nil
}
