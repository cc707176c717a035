package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/client/models"
)

type fakeAuth struct {
	regArgs []string
	regPass []byte
	regErr  error

	loginID   string
	loginPass []byte
	loginUser string
	loginErr  error

	current    string
	currentErr error

	logoutCalled bool
	logoutErr    error

	pingErr error
}

func (f *fakeAuth) Register(_ context.Context, username, email string, pw []byte) (*models.Profile, error) {
	f.regArgs = []string{username, email}
	f.regPass = append([]byte(nil), pw...)
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.Profile{Username: username, Email: email}, nil
}

func (f *fakeAuth) Login(_ context.Context, identifier string, pw []byte) (*models.Profile, error) {
	f.loginID, f.loginPass = identifier, append([]byte(nil), pw...)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.Profile{Username: f.loginUser}, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalled = true
	return f.logoutErr
}

func (f *fakeAuth) CurrentUser(context.Context) (string, error) { return f.current, f.currentErr }
func (f *fakeAuth) Ping(context.Context) error                  { return f.pingErr }
func (f *fakeAuth) Close(context.Context) error                 { return nil }

type fakeProfile struct {
	showIn  string
	showErr error

	updIn  *models.ProfileUpdate
	updErr error

	avatarIn  []byte
	avatarErr error

	deleted bool
	delErr  error
}

func (f *fakeProfile) Show(_ context.Context, username string) (*models.Profile, error) {
	f.showIn = username
	if f.showErr != nil {
		return nil, f.showErr
	}
	return &models.Profile{Username: "alice"}, nil
}

func (f *fakeProfile) Update(_ context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	f.updIn = &upd
	if f.updErr != nil {
		return nil, f.updErr
	}
	return &models.Profile{Username: "alice", Bio: upd.Bio}, nil
}

func (f *fakeProfile) UploadAvatar(_ context.Context, data []byte) (*models.Profile, error) {
	f.avatarIn = data
	if f.avatarErr != nil {
		return nil, f.avatarErr
	}
	img := "http://img"
	return &models.Profile{Username: "alice", Image: &img}, nil
}

func (f *fakeProfile) Delete(context.Context) (*models.Profile, error) {
	f.deleted = true
	if f.delErr != nil {
		return nil, f.delErr
	}
	return &models.Profile{Username: "alice"}, nil
}

// newTestApp returns an App writing to a buffer.
func newTestApp(auth *fakeAuth, prof *fakeProfile) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return &App{
		authService:    auth,
		profileService: prof,
		reader:         bufio.NewReader(strings.NewReader("")),
		out:            &out,
	}, &out
}

// stubInputs answers text prompts in order and returns password for every
// password prompt.
func stubInputs(t *testing.T, password []byte, answers ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		return append([]byte(nil), password...), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}
