package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/agutierrezreginodev/potencia-agenda/internal/config"
)

// User is an authenticated caller. Its ID is the actor recorded in usage rows.
type User struct {
	ID   string
	Name string
}

type keyEntry struct {
	hash string
	user *User
}

// Authenticator validates API keys and resolves the owning user
type Authenticator struct {
	users map[string]keyEntry // keyhash -> user
}

// NewAuthenticator creates an authenticator from the configured users
func NewAuthenticator(users []config.UserConfig) *Authenticator {
	a := &Authenticator{
		users: make(map[string]keyEntry),
	}

	for _, uc := range users {
		u := &User{ID: uc.ID, Name: uc.Name}
		for _, key := range uc.APIKeys {
			h := strings.ToLower(strings.TrimSpace(key.KeyHash))
			a.users[h] = keyEntry{hash: h, user: u}
		}
	}

	return a
}

// Len returns the number of registered keys.
func (a *Authenticator) Len() int {
	return len(a.users)
}

// ValidateAPIKey validates an API key and returns the associated user
func (a *Authenticator) ValidateAPIKey(apiKey string) (*User, error) {
	keyHash := HashAPIKey(apiKey)

	entry, ok := a.users[keyHash]
	if !ok {
		return nil, fmt.Errorf("invalid API key")
	}

	if subtle.ConstantTimeCompare([]byte(keyHash), []byte(entry.hash)) != 1 {
		return nil, fmt.Errorf("invalid API key")
	}
	return entry.user, nil
}

// ExtractAPIKey extracts the API key from the Authorization header
func ExtractAPIKey(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Support "Bearer <key>" format
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}

	return strings.TrimSpace(parts[1]), nil
}

// HashAPIKey creates a SHA-256 hash of an API key for storage
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// GenerateAPIKey returns a new random key with the "pa_" prefix.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return "pa_" + hex.EncodeToString(buf), nil
}

type userKey struct{}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}

// ActorID returns the authenticated user's ID, or "" when unauthenticated.
func ActorID(ctx context.Context) string {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}
