package tokens

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/gogotex/appcatalog/internal/config"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

func newIssuer(secret string) *Issuer {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.Issuer = "appcatalog"
	return NewIssuer(cfg)
}

func TestIssueToken_UnlimitedHasNoExp(t *testing.T) {
	iss := newIssuer("test-secret-32-bytes-should-be-long-enough")
	u := &models.User{Name: "LineageBot", Email: "LineageBot@example.org", IsBot: true}

	mech, err := iss.IssueToken(u, models.JWTTokenExpiryUnlimited)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if mech.JWTTokenExpiresAt != nil {
		t.Fatalf("unlimited token should not expire, got %v", mech.JWTTokenExpiresAt)
	}

	parsed, err := jwt.Parse(mech.JWTToken, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-32-bytes-should-be-long-enough"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims type assertion failed")
	}
	if claims["sub"] != u.Name {
		t.Fatalf("unexpected sub claim: got=%v want=%v", claims["sub"], u.Name)
	}
	if claims["isBot"] != true {
		t.Fatalf("expected isBot claim")
	}
	if _, ok := claims["exp"]; ok {
		t.Fatalf("unexpected exp claim on unlimited token")
	}
}

func TestIssueToken_DayExpiry(t *testing.T) {
	iss := newIssuer("another-secret-32-bytes-longgggg")
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	iss.now = func() time.Time { return fixed }

	mech, err := iss.IssueToken(&models.User{Name: "x"}, models.JWTTokenExpiry7)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	if mech.JWTTokenExpiresAt == nil || !mech.JWTTokenExpiresAt.Equal(fixed.Add(7*24*time.Hour)) {
		t.Fatalf("unexpected expiry: %v", mech.JWTTokenExpiresAt)
	}
	// the fixed clock is in the past relative to exp, so validation uses the real clock
	_, err = jwt.Parse(mech.JWTToken, func(token *jwt.Token) (interface{}, error) { return []byte("another-secret-32-bytes-longgggg"), nil })
	if err == nil {
		t.Fatalf("expected token issued for 2026-01-01 + 7d to be expired")
	}
}

func TestIssueToken_Errors(t *testing.T) {
	if _, err := newIssuer("").IssueToken(&models.User{Name: "x"}, models.JWTTokenExpiryUnlimited); err == nil {
		t.Fatalf("expected error without secret")
	}
	if _, err := newIssuer("s").IssueToken(&models.User{Name: "x"}, "forever"); err == nil {
		t.Fatalf("expected error for unknown expiry")
	}
}

// Tampering with payload must fail signature verification
func TestIssueToken_TamperedPayload(t *testing.T) {
	secret := "tamper-test-secret-32-bytes-xxxxxxx"
	mech, err := newIssuer(secret).IssueToken(&models.User{Name: "user-t"}, models.JWTTokenExpiryUnlimited)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}
	parts := strings.Split(mech.JWTToken, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), "user-t", "attacker", 1)))
	_, err = jwt.Parse(strings.Join(parts, "."), func(token *jwt.Token) (interface{}, error) { return []byte(secret), nil })
	if err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}
