// Package models holds the account payloads the CLI exchanges with the server.
package models

import "time"

// Profile is a user as returned by the API. ID and Email are only present
// in the owner's view.
type Profile struct {
	ID          int64     `json:"id,omitempty"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Bio         *string   `json:"bio"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// Session is the login response.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// ProfileUpdate is a partial update; nil fields are not sent.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Image    *string `json:"image,omitempty"`
	Password *string `json:"password,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	for _, v := range []*string{u.Email, u.Bio, u.Image, u.Password} {
		if v != nil && *v != "" {
			return false
		}
	}
	return true
}

// ImageUpload is a presigned slot for a profile image.
type ImageUpload struct {
	UploadURL string    `json:"upload_url"`
	ImageURL  string    `json:"image_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
