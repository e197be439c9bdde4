package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"arespricing/internal/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signedToken(t *testing.T, secret, clientID string) string {
	t.Helper()
	claims := auth.Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: auth.ExpiresWithin(time.Hour),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestAuthMiddleware_MissingHeaderReturnsUnauthorized(t *testing.T) {
	validator := auth.NewValidator("test-secret")
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(AuthMiddleware(validator))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MalformedHeaderReturnsUnauthorized(t *testing.T) {
	validator := auth.NewValidator("test-secret")
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(AuthMiddleware(validator))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Basic abc123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_ValidTokenSetsClientIDAndProceeds(t *testing.T) {
	secret := "test-secret"
	validator := auth.NewValidator(secret)
	tok := signedToken(t, secret, "client-42")

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	var seenClientID string
	r.Use(AuthMiddleware(validator))
	r.GET("/x", func(c *gin.Context) {
		seenClientID = ClientID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if seenClientID != "client-42" {
		t.Errorf("clientID = %q, want client-42", seenClientID)
	}
}

func TestAdminAuth_EmptyHashAlwaysRejects(t *testing.T) {
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(AdminAuth(""))
	r.PUT("/admin/config", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPut, "/admin/config", nil)
	req.Header.Set("X-Admin-Key", "anything")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAdminAuth_WrongKeyRejects(t *testing.T) {
	hash, err := auth.HashAdminKey("correct-key")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(AdminAuth(hash))
	r.PUT("/admin/config", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPut, "/admin/config", nil)
	req.Header.Set("X-Admin-Key", "wrong-key")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAdminAuth_CorrectKeyProceeds(t *testing.T) {
	hash, err := auth.HashAdminKey("correct-key")
	if err != nil {
		t.Fatalf("HashAdminKey: %v", err)
	}

	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	r.Use(AdminAuth(hash))
	r.PUT("/admin/config", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPut, "/admin/config", nil)
	req.Header.Set("X-Admin-Key", "correct-key")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
