package devserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"noodlemap/pkg/models"
)

// tokenIssuer signs and verifies the HS256 session tokens. Claim names must
// stay in lockstep with the client-side decoder: userId, sub, roles,
// ownedShopIds.
type tokenIssuer struct {
	secret []byte
	issuer string
	expiry time.Duration
}

func newTokenIssuer(secret, issuer string, expiry time.Duration) *tokenIssuer {
	return &tokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
	}
}

// Issue signs a token for the account.
func (t *tokenIssuer) Issue(u *account) (string, int, error) {
	now := time.Now()
	expiresAt := now.Add(t.expiry)

	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}

	claims := jwt.MapClaims{
		"sub":          u.Username,
		"userId":       u.ID,
		"roles":        roles,
		"ownedShopIds": u.OwnedShopIDs,
		"iss":          t.issuer,
		"iat":          jwt.NewNumericDate(now),
		"exp":          jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, int(time.Until(expiresAt).Seconds()), nil
}

// Verify checks the signature and returns the authenticated user id.
func (t *tokenIssuer) Verify(tokenString string) (int64, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, models.ErrInvalidToken
	}

	userID, ok := claims["userId"].(float64)
	if !ok {
		return 0, models.ErrInvalidToken
	}
	return int64(userID), nil
}
