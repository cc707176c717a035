package cli

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog(t *testing.T) {
	t.Helper()
	old := log.Default().Writer()
	log.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { log.SetOutput(old) })
}

func TestRegister_Success(t *testing.T) {
	f := &fakeAuth{}
	a, out := newTestApp(f, &fakeProfile{})
	stubInputs(t, []byte("secret"), "alice", "alice@example.org")

	require.NoError(t, a.Register(context.Background()))
	assert.Equal(t, []string{"alice", "alice@example.org"}, f.regArgs)
	assert.Equal(t, "secret", string(f.regPass))
	assert.Contains(t, out.String(), "Registered alice")
	assert.False(t, a.isLoggedIn(), "registration does not log in")
}

func TestRegister_ErrorPropagates(t *testing.T) {
	f := &fakeAuth{regErr: &client.APIError{Status: 400, Detail: "Email already in use."}}
	a, _ := newTestApp(f, &fakeProfile{})
	stubInputs(t, []byte("secret"), "alice", "alice@example.org")

	assert.ErrorContains(t, a.Register(context.Background()), "Email already in use.")
}

func TestLogin_Success(t *testing.T) {
	quietLog(t)
	f := &fakeAuth{loginUser: "alice"}
	a, out := newTestApp(f, &fakeProfile{})
	stubInputs(t, []byte("pw"), "alice@example.org")

	require.NoError(t, a.Login(context.Background()))
	assert.Equal(t, "alice@example.org", f.loginID)
	assert.Equal(t, "alice", a.userName, "canonical username comes from the server")
	assert.Equal(t, ModeOnline, a.Mode)
	assert.Contains(t, out.String(), "Logged in as alice")
}

func TestLogin_Unavailable(t *testing.T) {
	quietLog(t)
	f := &fakeAuth{loginErr: client.ErrUnavailable}
	a, _ := newTestApp(f, &fakeProfile{})
	stubInputs(t, []byte("pw"), "alice")

	assert.ErrorIs(t, a.Login(context.Background()), client.ErrUnavailable)
	assert.Equal(t, ModeOffline, a.Mode)
	assert.False(t, a.isLoggedIn())
}

func TestLogin_WrongCredentialsKeepsUser(t *testing.T) {
	f := &fakeAuth{loginErr: &client.APIError{Status: 403, Detail: "Invalid credentials."}}
	a, _ := newTestApp(f, &fakeProfile{})
	a.userName = "bob"
	stubInputs(t, []byte("bad"), "alice")

	assert.ErrorIs(t, a.Login(context.Background()), client.ErrForbidden)
	assert.Equal(t, "bob", a.userName)
}

func TestLogout(t *testing.T) {
	f := &fakeAuth{}
	a, _ := newTestApp(f, &fakeProfile{})
	a.userName = "alice"

	require.NoError(t, a.Logout(context.Background()))
	assert.True(t, f.logoutCalled)
	assert.False(t, a.isLoggedIn())
}

func TestLogout_ErrorPropagates(t *testing.T) {
	f := &fakeAuth{logoutErr: errors.New("clean-fail")}
	a, _ := newTestApp(f, &fakeProfile{})
	a.userName = "alice"

	assert.Error(t, a.Logout(context.Background()))
	assert.True(t, a.isLoggedIn())
}

func TestRestoreSession(t *testing.T) {
	a, _ := newTestApp(&fakeAuth{current: "alice"}, &fakeProfile{})
	a.restoreSession(context.Background())
	assert.Equal(t, "alice", a.userName)

	a, _ = newTestApp(&fakeAuth{currentErr: client.ErrNotLoggedIn}, &fakeProfile{})
	a.restoreSession(context.Background())
	assert.False(t, a.isLoggedIn())
}
