// Package auth resolves the opaque bearer token on an inbound request to a
// clientId. Token issuance is an external collaborator — this module only
// validates tokens minted elsewhere and extracts the claim the rest of the
// engine needs.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the shape this engine expects on an access token: just enough
// to resolve a clientId, not a general-purpose identity payload.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Validator validates bearer tokens against a single HMAC secret. The
// secret is held on the Validator instance, not package scope — callers
// build one at startup from config.Settings and pass it explicitly to the
// middleware that needs it.
type Validator struct {
	secret []byte
}

// NewValidator builds a Validator for the given secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ValidateAndExtractClientID parses and validates tokenStr, returning the
// clientId claim on success.
func (v *Validator) ValidateAndExtractClientID(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid access token")
	}
	if claims.ClientID == "" {
		return "", errors.New("access token missing client_id claim")
	}

	return claims.ClientID, nil
}

// ExpiresWithin is a small helper tests use to construct tokens with a
// bounded lifetime without needing the (out-of-scope) issuance path.
func ExpiresWithin(d time.Duration) *jwt.NumericDate {
	return jwt.NewNumericDate(time.Now().Add(d))
}

// HashAdminKey hashes a raw admin API key for storage, the way an operator
// would generate the value that ends up in ADMIN_API_KEY_HASH.
func HashAdminKey(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAdminKey checks raw against hash, the bcrypt hash configured for the
// hot-reload admin endpoint (PricingConfigEntry writes).
func VerifyAdminKey(hash, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
