// Package models holds the server-side domain types and their JSON views.
package models

import "time"

// User is a stored identity. HashedPassword and PasswordSalt never leave
// the server; use Public or Private for responses.
type User struct {
	ID             int64
	Username       string
	Email          string
	Bio            *string
	Image          *string
	HashedPassword string
	PasswordSalt   string
	CreatedAt      time.Time
	LastLoginAt    time.Time
}

// PublicUser is what anyone may see about an account.
type PublicUser struct {
	Username    string    `json:"username"`
	Bio         *string   `json:"bio"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// PrivateUser is the owner's view of the account.
type PrivateUser struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Bio         *string   `json:"bio"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		Username:    u.Username,
		Bio:         u.Bio,
		Image:       u.Image,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

func (u *User) Private() PrivateUser {
	return PrivateUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Bio:         u.Bio,
		Image:       u.Image,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// NewUser is the registration payload.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput identifies an account by username or email. Username wins
// when both are present.
type LoginInput struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// UserUpdate is a partial update. Nil or empty fields are left alone.
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
	Password *string `json:"password,omitempty"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  PrivateUser `json:"user"`
}

// DeletedUser wraps the public view of a removed account.
type DeletedUser struct {
	DeletedUser PublicUser `json:"deleted_user"`
}

// ImageUpload describes where a client should PUT a profile image and
// which URL to store on the profile afterwards.
type ImageUpload struct {
	UploadURL string    `json:"upload_url"`
	ImageURL  string    `json:"image_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
