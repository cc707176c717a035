package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/common"
)

// getSimpleText and getPassword are seams over the interactive prompts.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for username, email and password and creates the account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.authService.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s. You can log in now.\n", p.Username)
	return nil
}

// Login authenticates by username or email. A failed attempt leaves any
// previous session in place.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter username or email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	p, err := a.authService.Login(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		return err
	}

	a.userName = p.Username
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s\n", p.Username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// restoreSession picks up a session stored by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	u, err := a.authService.CurrentUser(ctx)
	if err != nil {
		return
	}
	a.userName = u
}

// forgetOnUnauthorized mirrors the service dropping an expired session.
func (a *App) forgetOnUnauthorized(err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		a.userName = ""
		return fmt.Errorf("%w (please log in again)", err)
	}
	return err
}
