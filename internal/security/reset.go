package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reset-token failure mode: bad signature,
// wrong algorithm, malformed input, or expiry. Callers never learn which.
var ErrInvalidToken = errors.New("invalid or expired token")

// ResetCodec issues and redeems stateless password-reset tokens. A token
// binds an email address to its issue time under the server secret;
// validity is re-derived on redemption, nothing is stored. Rotating the
// secret invalidates all outstanding tokens.
type ResetCodec struct {
	secret []byte
	now    func() time.Time
}

func NewResetCodec(secret string) *ResetCodec {
	return &ResetCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs the email together with the current time. The result is a
// URL-safe opaque string.
func (c *ResetCodec) Issue(email string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:  email,
		IssuedAt: jwt.NewNumericDate(c.now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Redeem verifies the signature and the token age. It returns the email
// only when both check out; any failure yields ErrInvalidToken.
func (c *ResetCodec) Redeem(tokenStr string, maxAge time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(c.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" || claims.IssuedAt == nil {
		return "", ErrInvalidToken
	}
	if c.now().Sub(claims.IssuedAt.Time) > maxAge {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
