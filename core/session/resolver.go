package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
)

// Identity is the base identity recovered from a decoded credential.
// It is produced once per decode and never mutated.
type Identity struct {
	SubjectID       int
	Username        string
	Email           string
	Role            string
	MembershipStage string
	MemberStatus    string
	ExpiresAt       time.Time
}

// Claims represents the authorization claims transmitted via a JWT.
// The member-status string travels under the legacy "is_member" wire name.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt    int64  `json:"oriat,omitempty"`
	Username        string `json:"username,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
	MembershipStage string `json:"membership_stage,omitempty"`
	MemberStatus    string `json:"is_member,omitempty"`
}

func (c *Claims) Identity() *Identity {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return nil
	}
	return &Identity{
		SubjectID:       id,
		Username:        c.Username,
		Email:           c.Email,
		Role:            c.Role,
		MembershipStage: c.MembershipStage,
		MemberStatus:    c.MemberStatus,
		ExpiresAt:       time.Unix(c.ExpiresAt, 0),
	}
}

// Store holds the persisted raw credential under a single well-known key;
// presence of a token is the sole source of "is a session attempted" before
// decoding.
type Store interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu    sync.Mutex
	token string
}

var _ Store = (*MemStore)(nil)

func (s *MemStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *MemStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Resolver decodes bearer credentials locally; no network calls.
type Resolver struct {
	secret []byte
}

func NewResolver(secret []byte) *Resolver {
	return &Resolver{secret: secret}
}

// Resolve decodes a raw token into an Identity. Malformed, tampered or
// expired tokens resolve to nil; resolution never fails loudly.
func (r *Resolver) Resolve(raw string) *Identity {
	if raw == "" {
		return nil
	}
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}
	return claims.Identity()
}

// ResolveStored resolves the credential held in store. Malformed or expired
// credentials are purged from the store; the caller treats nil as guest.
func (r *Resolver) ResolveStored(store Store) *Identity {
	raw := store.Token()
	if raw == "" {
		return nil
	}
	ident := r.Resolve(raw)
	if ident == nil {
		store.Clear()
	}
	return ident
}
