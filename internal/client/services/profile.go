package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/accounts/internal/client/client"
	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/netx"
)

// MaxAvatarBytes caps the size of an uploaded profile image.
const MaxAvatarBytes = 5 << 20

// uploadFn is a seam for the presigned PUT.
var uploadFn = netx.UploadToPresignedURL

// ProfileService covers profile operations of the logged-in user. Any call
// that hits an expired or rejected token clears the local session.
type ProfileService interface {
	Show(ctx context.Context, username string) (*models.Profile, error)
	Update(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error)
	UploadAvatar(ctx context.Context, data []byte) (*models.Profile, error)
	Delete(ctx context.Context) (*models.Profile, error)
}

type profileService struct {
	client client.Client
	db     *sql.DB
}

func NewProfileService(client client.Client, db *sql.DB) ProfileService {
	return &profileService{client: client, db: db}
}

// Show returns the public profile of username, or of the current user when
// username is empty.
func (p *profileService) Show(ctx context.Context, username string) (*models.Profile, error) {
	if username == "" {
		current, _, err := loadSession(ctx, p.db)
		if err != nil {
			return nil, err
		}
		username = current
	}
	return p.client.GetUser(ctx, username)
}

func (p *profileService) Update(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	if upd.IsEmpty() {
		return nil, errors.New("nothing to update")
	}

	username, token, err := loadSession(ctx, p.db)
	if err != nil {
		return nil, err
	}

	profile, err := p.client.UpdateUser(ctx, token, username, upd)
	return profile, p.dropSessionOnAuthError(ctx, err)
}

// UploadAvatar stores data in object storage through a presigned URL and
// points the profile image at it.
func (p *profileService) UploadAvatar(ctx context.Context, data []byte) (*models.Profile, error) {
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}
	if len(data) > MaxAvatarBytes {
		return nil, fmt.Errorf("image is larger than %d bytes", MaxAvatarBytes)
	}

	username, token, err := loadSession(ctx, p.db)
	if err != nil {
		return nil, err
	}

	slot, err := p.client.RequestImageUpload(ctx, token, username)
	if err != nil {
		return nil, p.dropSessionOnAuthError(ctx, err)
	}

	if err := uploadFn(ctx, slot.UploadURL, http.DetectContentType(data), data); err != nil {
		return nil, fmt.Errorf("image upload error: %w", err)
	}

	image := slot.ImageURL
	profile, err := p.client.UpdateUser(ctx, token, username, models.ProfileUpdate{Image: &image})
	return profile, p.dropSessionOnAuthError(ctx, err)
}

// Delete removes the current account and forgets the session.
func (p *profileService) Delete(ctx context.Context) (*models.Profile, error) {
	username, token, err := loadSession(ctx, p.db)
	if err != nil {
		return nil, err
	}

	profile, err := p.client.DeleteUser(ctx, token, username)
	if err != nil {
		return nil, p.dropSessionOnAuthError(ctx, err)
	}

	if err := clearSession(ctx, p.db); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *profileService) dropSessionOnAuthError(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := clearSession(ctx, p.db); cerr != nil {
			return errors.Join(err, cerr)
		}
	}
	return err
}
