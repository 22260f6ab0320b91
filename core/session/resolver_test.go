package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

var testSecret = []byte("secret")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("signToken(): %v", err)
	}
	return raw
}

func newClaims(exp time.Time) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "42",
			ExpiresAt: exp.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
		Username:        "amara",
		Email:           "amara@test.test",
		Role:            "user",
		MembershipStage: "pre",
		MemberStatus:    "approved",
	}
}

func TestResolver_Resolve(t *testing.T) {
	rslv := NewResolver(testSecret)

	valid := signToken(t, newClaims(time.Now().Add(time.Hour)))
	expired := signToken(t, newClaims(time.Now().Add(-time.Hour)))
	tampered := valid[:len(valid)-3] + "xxx"

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not.a.token"},
		{name: "tampered", raw: tampered},
		{name: "expired", raw: expired},
		{name: "valid", raw: valid, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ident := rslv.Resolve(tt.raw)
			if tt.want {
				if assert.NotNil(t, ident) {
					assert.Equal(t, 42, ident.SubjectID)
					assert.Equal(t, "amara", ident.Username)
					assert.Equal(t, "approved", ident.MemberStatus)
				}
			} else {
				assert.Nil(t, ident)
			}
		})
	}
}

func TestResolver_ResolveStored_purgesExpired(t *testing.T) {
	rslv := NewResolver(testSecret)

	store := new(MemStore)
	store.SetToken(signToken(t, newClaims(time.Now().Add(-time.Minute))))

	assert.Nil(t, rslv.ResolveStored(store))
	assert.Empty(t, store.Token(), "expired credential must be purged")

	// a fresh credential survives resolution
	valid := signToken(t, newClaims(time.Now().Add(time.Hour)))
	store.SetToken(valid)
	assert.NotNil(t, rslv.ResolveStored(store))
	assert.Equal(t, valid, store.Token())
}
