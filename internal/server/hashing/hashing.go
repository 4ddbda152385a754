// Package hashing provides one-way, salted hashing for secrets: account
// passwords and password-reset codes share the same primitive (bcrypt).
package hashing

import "golang.org/x/crypto/bcrypt"

// Hasher produces and verifies bcrypt digests. bcrypt salts every digest
// itself, so hashing the same input twice yields two different digests.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// bcrypt range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted digest of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether secret matches digest. It returns false, never an
// error, for any non-matching input including corrupt or legacy digests.
func (h *Hasher) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)) == nil
}
