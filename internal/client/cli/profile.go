package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/common"
)

// readFile is a seam for loading avatar images.
var readFile = os.ReadFile

func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintln(a.out, a.userName)
	return nil
}

// Show prints the profile of username, or of the current user when empty.
func (a *App) Show(ctx context.Context, username string) error {
	p, err := a.profileService.Show(ctx, username)
	if err != nil {
		return err
	}
	printProfile(a, p)
	return nil
}

// Update prompts for each editable field; empty answers leave it unchanged.
func (a *App) Update(ctx context.Context) error {
	var upd models.ProfileUpdate

	email, err := getSimpleText(a.reader, "New email (empty to keep)", a.out)
	if err != nil {
		return err
	}
	bio, err := getSimpleText(a.reader, "New bio (empty to keep)", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "New password (empty to keep)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if email != "" {
		upd.Email = &email
	}
	if bio != "" {
		upd.Bio = &bio
	}
	if len(password) > 0 {
		pw := string(password)
		upd.Password = &pw
	}

	p, err := a.profileService.Update(ctx, upd)
	if err != nil {
		return a.forgetOnUnauthorized(err)
	}
	printProfile(a, p)
	return nil
}

// Avatar uploads the image at path and sets it as the profile picture.
func (a *App) Avatar(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("usage: avatar <file>")
	}
	data, err := readFile(path)
	if err != nil {
		return err
	}

	p, err := a.profileService.UploadAvatar(ctx, data)
	if err != nil {
		return a.forgetOnUnauthorized(err)
	}
	printProfile(a, p)
	return nil
}

// Delete removes the account after the user retypes their username.
func (a *App) Delete(ctx context.Context) error {
	confirm, err := getSimpleText(a.reader, fmt.Sprintf("Type %q to delete your account", a.userName), a.out)
	if err != nil {
		return err
	}
	if confirm != a.userName {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	p, err := a.profileService.Delete(ctx)
	if err != nil {
		return a.forgetOnUnauthorized(err)
	}

	a.userName = ""
	fmt.Fprintf(a.out, "Deleted %s\n", p.Username)
	return nil
}

func printProfile(a *App, p *models.Profile) {
	var b strings.Builder
	fmt.Fprintf(&b, "username:   %s\n", p.Username)
	if p.Email != "" {
		fmt.Fprintf(&b, "email:      %s\n", p.Email)
	}
	fmt.Fprintf(&b, "bio:        %s\n", deref(p.Bio))
	fmt.Fprintf(&b, "image:      %s\n", deref(p.Image))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "created:    %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if !p.LastLoginAt.IsZero() {
		fmt.Fprintf(&b, "last login: %s\n", p.LastLoginAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprint(a.out, b.String())
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
