package tokens

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gogotex/appcatalog/internal/config"
	"github.com/gogotex/appcatalog/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Issuer signs JWTs for bot users.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{secret: []byte(cfg.JWT.Secret), issuer: cfg.JWT.Issuer, now: time.Now}
}

// IssueToken returns the JWT auth mechanism for u. Day-based expiry policies set
// an exp claim; Unlimited tokens carry none.
func (i *Issuer) IssueToken(u *models.User, expiry models.JWTTokenExpiry) (*models.JWTAuthMechanism, error) {
	if len(i.secret) == 0 {
		return nil, fmt.Errorf("jwt secret not configured")
	}
	now := i.now()
	claims := jwt.MapClaims{
		"sub":   u.Name,
		"email": u.Email,
		"isBot": u.IsBot,
		"iat":   now.Unix(),
	}
	if i.issuer != "" {
		claims["iss"] = i.issuer
	}
	mech := &models.JWTAuthMechanism{JWTTokenExpiry: expiry}
	if expiry != models.JWTTokenExpiryUnlimited {
		days, err := strconv.Atoi(string(expiry))
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid token expiry %q", expiry)
		}
		exp := now.Add(time.Duration(days) * 24 * time.Hour)
		claims["exp"] = exp.Unix()
		mech.JWTTokenExpiresAt = &exp
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, err
	}
	mech.JWTToken = signed
	return mech, nil
}
