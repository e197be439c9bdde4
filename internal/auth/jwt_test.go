package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, clientID string, expiry time.Duration) string {
	t.Helper()
	claims := Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: ExpiresWithin(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestValidator_ValidateAndExtractClientID_Success(t *testing.T) {
	v := NewValidator("test-secret")
	tok := signToken(t, "test-secret", "client-1", time.Hour)

	clientID, err := v.ValidateAndExtractClientID(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clientID != "client-1" {
		t.Errorf("clientID = %q, want client-1", clientID)
	}
}

func TestValidator_ValidateAndExtractClientID_WrongSecretFails(t *testing.T) {
	v := NewValidator("test-secret")
	tok := signToken(t, "other-secret", "client-1", time.Hour)

	if _, err := v.ValidateAndExtractClientID(tok); err == nil {
		t.Fatal("expected an error for a token signed with a different secret")
	}
}

func TestValidator_ValidateAndExtractClientID_ExpiredTokenFails(t *testing.T) {
	v := NewValidator("test-secret")
	tok := signToken(t, "test-secret", "client-1", -time.Hour)

	if _, err := v.ValidateAndExtractClientID(tok); err == nil {
		t.Fatal("expected an error for an expired token")
	}
}

func TestValidator_ValidateAndExtractClientID_MissingClientIDFails(t *testing.T) {
	v := NewValidator("test-secret")
	tok := signToken(t, "test-secret", "", time.Hour)

	if _, err := v.ValidateAndExtractClientID(tok); err == nil {
		t.Fatal("expected an error for a token missing the client_id claim")
	}
}

func TestHashAndVerifyAdminKey_RoundTrip(t *testing.T) {
	hash, err := HashAdminKey("super-secret-key")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}
	if err := VerifyAdminKey(hash, "super-secret-key"); err != nil {
		t.Errorf("VerifyAdminKey with correct key failed: %v", err)
	}
	if err := VerifyAdminKey(hash, "wrong-key"); err == nil {
		t.Error("expected VerifyAdminKey to fail for the wrong key")
	}
}
