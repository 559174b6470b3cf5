package models

import (
	"sort"
	"time"
)

// Role is a user role as carried in the JWT roles claim.
type Role string

const (
	RoleUser      Role = "ROLE_USER"
	RoleShopOwner Role = "ROLE_SHOP_OWNER"
	RoleAdmin     Role = "ROLE_ADMIN"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleShopOwner, RoleAdmin:
		return true
	}
	return false
}

// RoleSet is a canonical set of roles. The wire shape of the roles claim is
// inconsistent (sometimes a list, sometimes a single string), so it is
// normalized into a RoleSet exactly once, at decode time.
type RoleSet map[Role]struct{}

// NormalizeRoles folds any of the wire shapes of a roles claim into a RoleSet.
// Unknown role strings are dropped.
func NormalizeRoles(raw interface{}) RoleSet {
	set := make(RoleSet)
	add := func(v interface{}) {
		s, ok := v.(string)
		if !ok {
			return
		}
		if r := Role(s); ValidRole(r) {
			set[r] = struct{}{}
		}
	}
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			add(item)
		}
	case []string:
		for _, item := range v {
			add(item)
		}
	default:
		add(v)
	}
	return set
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// List returns the roles in stable order.
func (s RoleSet) List() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Identity is the decoded client-side view of the logged-in user. It is
// derived from the token payload and is not authoritative: the server
// re-checks every permission.
type Identity struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Roles        RoleSet `json:"roles"`
	OwnedShopIDs []int64 `json:"ownedShopIds,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Roles.Has(RoleAdmin)
}

// OwnsShop reports whether the identity owns the given shop.
func (i *Identity) OwnsShop(shopID int64) bool {
	if i == nil || !i.Roles.Has(RoleShopOwner) {
		return false
	}
	for _, id := range i.OwnedShopIDs {
		if id == shopID {
			return true
		}
	}
	return false
}

// UserAccount is the admin-facing view of a registered user.
type UserAccount struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginRequest
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	ShopOwner bool   `json:"shopOwner,omitempty"`
}

// LoginResponse carries the signed token; identity fields are decoded from
// the token itself, never trusted from a separate payload.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in,omitempty"` // seconds
}

// UpdateUserRoleRequest is the admin role-change payload.
type UpdateUserRoleRequest struct {
	Role Role `json:"role" validate:"required"`
}
