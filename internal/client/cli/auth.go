package cli

import (
	"context"
	"fmt"
	"time"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for a username and password and authenticates against
// the remote credential record. A rejected login is returned as an error
// whose message is safe to show.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	callCtx, cancel := a.callCtx(ctx)
	defer cancel()

	user, err := a.session.Login(callCtx, userName, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", user)
	return nil
}

// Logout clears the stored session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	st := a.session.Status()
	fmt.Fprintf(a.out, "Admin: %s (session valid until %s)\n", st.Username, st.ExpiresAt.Format(time.DateTime))
	return nil
}
