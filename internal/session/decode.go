package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"noodlemap/pkg/models"
)

// Claim names the backend puts in the token payload. These must match the
// issuer exactly; DecodeToken fails closed when a required one is missing.
const (
	claimUserID        = "userId"
	claimRoles         = "roles"
	claimOwnedShopIDs  = "ownedShopIds"
	claimOwnedShopID   = "ownedShopId" // legacy single-value shape
)

var ErrMalformedCredential = errors.New("malformed credential")

// DecodeToken extracts the identity from a JWT payload without verifying the
// signature: the client never holds the signing key, and the server is
// authoritative for permissions regardless of what the claims say. Missing
// required claims fail closed rather than producing a partial identity.
func DecodeToken(token string) (*models.Identity, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}

	username, _ := claims["sub"].(string)
	if username == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedCredential)
	}

	id, ok := claimInt64(claims[claimUserID])
	if !ok {
		return nil, fmt.Errorf("%w: missing user id", ErrMalformedCredential)
	}

	identity := &models.Identity{
		ID:       id,
		Username: username,
		Roles:    models.NormalizeRoles(claims[claimRoles]),
	}

	// The owned-shops claim is a list in current tokens and a single value
	// in older ones.
	if raw, exists := claims[claimOwnedShopIDs]; exists {
		identity.OwnedShopIDs = claimInt64List(raw)
	} else if raw, exists := claims[claimOwnedShopID]; exists {
		if shopID, ok := claimInt64(raw); ok {
			identity.OwnedShopIDs = []int64{shopID}
		}
	}

	return identity, nil
}

// claimInt64 converts the JSON-number shapes a numeric claim can arrive in.
func claimInt64(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func claimInt64List(raw interface{}) []int64 {
	items, ok := raw.([]interface{})
	if !ok {
		if id, ok := claimInt64(raw); ok {
			return []int64{id}
		}
		return nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if id, ok := claimInt64(item); ok {
			out = append(out, id)
		}
	}
	return out
}
