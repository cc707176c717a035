// Package services contains server-side business logic. This file implements
// UserService: registration, credential verification, login, profile
// lookup, update and self-delete.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/dbx"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/auth"
	"github.com/dmitrijs2005/accounts/internal/server/models"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accounts/internal/server/repositories/users"
)

// PasswordHasher is the hashing contract UserService relies on.
// *auth.Hasher implements it.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, plain string) (string, error)
	Verify(salt, plain, hash string) bool
}

// UserService provides account operations on top of the identity store.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      *auth.TokenService
	logger      logging.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummySalt string
	dummyHash string
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h PasswordHasher, ts *auth.TokenService, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		tokens:      ts,
		logger:      l.With("module", "user_service"),
		now:         time.Now,
	}
}

// Register creates a new account. Email uniqueness is checked before
// username uniqueness; the unique constraints catch concurrent duplicates.
func (s *UserService) Register(ctx context.Context, in models.NewUser) (*models.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrBadRequest)
	}
	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	taken, err := repo.Exists(ctx, users.FieldEmail, in.Email)
	if err != nil {
		return nil, common.NewPersistenceError("register", err)
	}
	if taken {
		return nil, common.ErrDuplicateEmail
	}

	taken, err = repo.Exists(ctx, users.FieldUsername, in.Username)
	if err != nil {
		return nil, common.NewPersistenceError("register", err)
	}
	if taken {
		return nil, common.ErrDuplicateUsername
	}

	salt, hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Insert(ctx, &models.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hash,
		PasswordSalt:   salt,
	})
	if err != nil {
		var ce *users.ConflictError
		if errors.As(err, &ce) {
			switch ce.Field {
			case string(users.FieldEmail):
				return nil, common.ErrDuplicateEmail
			case string(users.FieldUsername):
				return nil, common.ErrDuplicateUsername
			}
		}
		return nil, common.NewPersistenceError("register", err)
	}

	s.logger.Info(ctx, "user registered", "username", user.Username, "id", user.ID)
	return user, nil
}

// VerifyLogin checks credentials and returns the stored user. Unknown
// identifiers, store failures and wrong passwords all yield
// common.ErrInvalidCredentials.
func (s *UserService) VerifyLogin(ctx context.Context, in models.LoginInput) (*models.User, error) {
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrBadRequest)
	}

	field, value := users.FieldUsername, in.Username
	if value == "" {
		field, value = users.FieldEmail, in.Email
	}
	if value == "" {
		return nil, fmt.Errorf("%w: either username or email must be provided", common.ErrBadRequest)
	}

	user, err := s.lookup(ctx, s.repomanager.Users(s.db), field, value)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "credential lookup failed", "field", string(field), "error", err)
		}
		s.equalizeTiming(in.Password)
		return nil, common.ErrInvalidCredentials
	}

	if !s.hasher.Verify(user.PasswordSalt, in.Password, user.HashedPassword) {
		return nil, common.ErrInvalidCredentials
	}

	return user, nil
}

// Login verifies credentials, issues a token for the stored username and
// records the login time.
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (*models.LoginResult, error) {
	user, err := s.VerifyLogin(ctx, in)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}

	if err := s.RecordLogin(ctx, user); err != nil {
		return nil, err
	}

	return &models.LoginResult{Token: token, User: user.Private()}, nil
}

// RecordLogin moves the stored last-login timestamp to now. Only that
// column is written; the rest of user is a possibly stale snapshot.
func (s *UserService) RecordLogin(ctx context.Context, user *models.User) error {
	at, err := s.repomanager.Users(s.db).TouchLogin(ctx, user.ID, s.now().UTC())
	if err != nil {
		return common.NewPersistenceError("record login", err)
	}
	user.LastLoginAt = at
	return nil
}

// GetByUsername returns the account named username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindBy(ctx, users.FieldUsername, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.NewPersistenceError("look up user", err)
	}
	return user, nil
}

// Authenticate verifies an access token and returns its claims.
func (s *UserService) Authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrTokenMalformed
	}
	return s.tokens.Verify(token)
}

// Update applies a partial update to the caller's own account.
func (s *UserService) Update(ctx context.Context, claims *auth.Claims, username string, in models.UserUpdate) (*models.User, error) {
	if err := auth.Authorize(claims, username); err != nil {
		return nil, err
	}

	apply, err := s.buildUpdate(in)
	if err != nil {
		return nil, err
	}

	user, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindBy(ctx, users.FieldUsername, username)
		if err != nil {
			return nil, err
		}

		apply(user)

		if err := repo.Persist(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
	if err != nil {
		return nil, storeError("update", err)
	}

	s.logger.Info(ctx, "user updated", "username", username)
	return user, nil
}

// Delete removes the caller's own account and returns what was removed.
func (s *UserService) Delete(ctx context.Context, claims *auth.Claims, username string) (*models.User, error) {
	if err := auth.Authorize(claims, username); err != nil {
		return nil, err
	}

	user, err := dbx.InTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindBy(ctx, users.FieldUsername, username)
		if err != nil {
			return nil, err
		}
		if err := repo.Remove(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
	if err != nil {
		return nil, storeError("delete", err)
	}

	s.logger.Info(ctx, "user deleted", "username", username)
	return user, nil
}

// --- helpers below ---

// buildUpdate validates in and returns a function that writes the present,
// non-empty fields onto a user. A new password gets a new salt.
func (s *UserService) buildUpdate(in models.UserUpdate) (func(*models.User), error) {
	email, hasEmail := present(in.Email)
	bio, hasBio := present(in.Bio)
	image, hasImage := present(in.Image)
	password, hasPassword := present(in.Password)

	if hasEmail {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if hasImage {
		if err := validateImageURL(image); err != nil {
			return nil, err
		}
	}

	var salt, hash string
	if hasPassword {
		var err error
		if salt, hash, err = s.hashPassword(password); err != nil {
			return nil, err
		}
	}

	return func(u *models.User) {
		if hasEmail {
			u.Email = email
		}
		if hasBio {
			u.Bio = &bio
		}
		if hasImage {
			u.Image = &image
		}
		if hasPassword {
			u.PasswordSalt, u.HashedPassword = salt, hash
		}
	}, nil
}

func (s *UserService) lookup(ctx context.Context, repo users.Repository, field users.Field, value string) (*models.User, error) {
	exists, err := repo.Exists(ctx, field, value)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrorNotFound
	}
	return repo.FindBy(ctx, field, value)
}

func (s *UserService) hashPassword(plain string) (salt, hash string, err error) {
	salt, err = s.hasher.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("%w: generate salt: %v", common.ErrorInternal, err)
	}
	hash, err = s.hasher.Hash(salt, plain)
	if err != nil {
		return "", "", fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	return salt, hash, nil
}

// equalizeTiming runs one verification against a throwaway hash so that
// a miss costs about as much as a wrong password.
func (s *UserService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		salt, hash, err := s.hashPassword("not-a-real-password")
		if err == nil {
			s.dummySalt, s.dummyHash = salt, hash
		}
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(s.dummySalt, password, s.dummyHash)
	}
}

// storeError keeps not-found as is and reports anything else as a
// persistence failure of op.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return common.NewPersistenceError(op, err)
}

func present(v *string) (string, bool) {
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

func validateUsername(username string) error {
	if strings.ContainsAny(username, "/?# \t\r\n") {
		return fmt.Errorf("%w: username must not contain spaces or URL separators", common.ErrBadRequest)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q is not a valid email address", common.ErrBadRequest, email)
	}
	return nil
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: image must be an absolute http(s) URL", common.ErrBadRequest)
	}
	return nil
}
