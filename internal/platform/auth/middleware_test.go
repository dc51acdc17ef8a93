package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims(sub string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: []string{RoleRegistrar},
	}
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (*Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Principal
	err := mw(func(c echo.Context) error {
		if p, ok := PrincipalFromContext(c.Request().Context()); ok {
			got = &p
		}
		return c.String(http.StatusOK, "ok")
	})(c)
	return got, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}), tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	uid := uuid.New()
	org := uuid.New()
	claims := validClaims(uid.String())
	claims.OrgID = org.String()

	p, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}),
		"Bearer "+createTestToken(t, claims, testSigningKey))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected principal on context")
	}
	if p.UserID != uid {
		t.Errorf("expected user %s, got %s", uid, p.UserID)
	}
	if p.OrganizationID == nil || *p.OrganizationID != org {
		t.Errorf("expected organization %s, got %v", org, p.OrganizationID)
	}
	if !p.HasRole(RoleRegistrar) {
		t.Error("expected registrar role")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	claims := validClaims(uuid.NewString())
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}),
		"Bearer "+createTestToken(t, claims, testSigningKey))
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}),
		"Bearer "+createTestToken(t, validClaims(uuid.NewString()), []byte("other-key")))
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_NonUUIDSubject(t *testing.T) {
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey}),
		"Bearer "+createTestToken(t, validClaims("user-123"), testSigningKey))
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_IssuerMismatch(t *testing.T) {
	claims := validClaims(uuid.NewString())
	claims.Issuer = "https://other.example.com"
	_, err := runMiddleware(t, JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "https://idp.example.com"}),
		"Bearer "+createTestToken(t, claims, testSigningKey))
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware_InjectsAdmin(t *testing.T) {
	p, err := runMiddleware(t, DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey}), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.UserID != DevUserID {
		t.Fatalf("expected dev principal, got %+v", p)
	}
	if !p.HasRole(RoleAuditor) {
		t.Error("expected dev principal to be admin")
	}
	if p.OrganizationID != nil {
		t.Error("expected dev principal to be platform-level")
	}
}

func TestDevAuthMiddleware_ValidatesProvidedToken(t *testing.T) {
	_, err := runMiddleware(t, DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey}), "Bearer garbage")
	expectStatus(t, err, http.StatusUnauthorized)
}
