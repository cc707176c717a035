package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/server/models"
)

// MemoryRepository is a map-backed Repository with the same uniqueness and
// last-login rules as the PostgreSQL one. It ignores transactions: writes
// are visible immediately and never rolled back.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*models.User), now: time.Now}
}

func (r *MemoryRepository) FindBy(ctx context.Context, field Field, value any) (*models.User, error) {
	if _, ok := field.column(); !ok {
		return nil, fmt.Errorf("unsupported lookup field %q", field)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.find(field, value); u != nil {
		return clone(u), nil
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Exists(ctx context.Context, field Field, value string) (bool, error) {
	if field != FieldUsername && field != FieldEmail {
		return false, fmt.Errorf("unsupported lookup field %q", field)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.find(field, value) != nil, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(FieldEmail, user.Email) != nil {
		return nil, &ConflictError{Op: "insert user", Field: string(FieldEmail)}
	}
	if r.find(FieldUsername, user.Username) != nil {
		return nil, &ConflictError{Op: "insert user", Field: string(FieldUsername)}
	}

	r.nextID++
	now := r.now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.LastLoginAt = now
	r.byID[user.ID] = clone(user)

	return user, nil
}

func (r *MemoryRepository) Persist(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if other := r.find(FieldEmail, user.Email); other != nil && other.ID != user.ID {
		return &ConflictError{Op: "update user", Field: string(FieldEmail)}
	}

	next := clone(user)
	next.Username = stored.Username
	next.CreatedAt = stored.CreatedAt
	if stored.LastLoginAt.After(next.LastLoginAt) {
		next.LastLoginAt = stored.LastLoginAt
	}
	r.byID[user.ID] = next
	user.LastLoginAt = next.LastLoginAt

	return nil
}

func (r *MemoryRepository) TouchLogin(ctx context.Context, id int64, at time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return time.Time{}, common.ErrorNotFound
	}
	if at.After(stored.LastLoginAt) {
		stored.LastLoginAt = at
	}
	return stored.LastLoginAt, nil
}

func (r *MemoryRepository) Remove(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[user.ID]; !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, user.ID)
	return nil
}

// find must be called with mu held.
func (r *MemoryRepository) find(field Field, value any) *models.User {
	for _, u := range r.byID {
		switch field {
		case FieldID:
			if id, ok := toID(value); ok && u.ID == id {
				return u
			}
		case FieldUsername:
			if u.Username == value {
				return u
			}
		case FieldEmail:
			if u.Email == value {
				return u
			}
		}
	}
	return nil
}

func toID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, true
	case int:
		return int64(id), true
	default:
		return 0, false
	}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.Bio != nil {
		bio := *u.Bio
		c.Bio = &bio
	}
	if u.Image != nil {
		image := *u.Image
		c.Image = &image
	}
	return &c
}
