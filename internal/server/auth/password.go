package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptEncoding is the base64 alphabet bcrypt uses for salts.
var bcryptEncoding = base64.NewEncoding("./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789").
	WithPadding(base64.NoPadding)

const saltBytes = 16

// Hasher derives and checks password hashes. Every identity stores its own
// salt next to the hash; the hash covers salt || password.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt work factor. Values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// GenerateSalt returns a fresh salt in bcrypt format ($2a$<cost>$<22 chars>).
func (h *Hasher) GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return fmt.Sprintf("$2a$%02d$%s", h.cost, bcryptEncoding.EncodeToString(b)), nil
}

// Hash returns the bcrypt hash of salt || plain.
func (h *Hasher) Hash(salt, plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(salt, plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain, combined with salt, matches hash.
// A malformed hash simply does not match.
func (h *Hasher) Verify(salt, plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(salt, plain)) == nil
}

// prehash folds salt || plain into 44 bytes so bcrypt's 72-byte input
// limit never truncates or rejects long passwords.
func prehash(salt, plain string) []byte {
	sum := sha256.Sum256([]byte(salt + plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
