package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPagesFor(t *testing.T) {
	assert.Equal(t, 0, TotalPagesFor(0, 10))
	assert.Equal(t, 1, TotalPagesFor(1, 10))
	assert.Equal(t, 1, TotalPagesFor(10, 10))
	assert.Equal(t, 2, TotalPagesFor(11, 10))
	assert.Equal(t, 5, TotalPagesFor(48, 10))
	assert.Equal(t, 0, TotalPagesFor(5, 0))
}

func TestNewPage(t *testing.T) {
	all := make([]int, 13)
	for i := range all {
		all[i] = i
	}

	p := NewPage(all, 0, 5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, p.Content)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 13, p.TotalElements)
	assert.True(t, p.HasNext())

	p = NewPage(all, 2, 5)
	assert.Equal(t, []int{10, 11, 12}, p.Content)
	assert.False(t, p.HasNext())

	// past the end is empty, not a panic
	p = NewPage(all, 9, 5)
	assert.Empty(t, p.Content)
	assert.Equal(t, 13, p.TotalElements)

	p = NewPage([]int{}, 0, 5)
	assert.Empty(t, p.Content)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext())
}

func TestCreateReviewRequestValidate(t *testing.T) {
	rating := func(n int) *int { return &n }
	parent := ReviewID(9)

	cases := []struct {
		name string
		req  CreateReviewRequest
		want error
	}{
		{"valid top-level", CreateReviewRequest{ShopID: 1, Rating: rating(4), Content: "good"}, nil},
		{"valid reply", CreateReviewRequest{ShopID: 1, ParentReviewID: &parent, Content: "thanks"}, nil},
		{"missing content", CreateReviewRequest{ShopID: 1, Rating: rating(4)}, ErrEmptyContent},
		{"rating on reply", CreateReviewRequest{ShopID: 1, ParentReviewID: &parent, Rating: rating(4), Content: "no"}, ErrRatingOnReply},
		{"missing rating", CreateReviewRequest{ShopID: 1, Content: "no stars"}, ErrRatingMissing},
		{"rating too low", CreateReviewRequest{ShopID: 1, Rating: rating(0), Content: "zero"}, ErrRatingRange},
		{"rating too high", CreateReviewRequest{ShopID: 1, Rating: rating(6), Content: "six"}, ErrRatingRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}

	long := make([]byte, MaxReviewLength+1)
	for i := range long {
		long[i] = 'a'
	}
	err := (&CreateReviewRequest{ShopID: 1, Rating: rating(3), Content: string(long)}).Validate()
	assert.ErrorIs(t, err, ErrContentTooLong)
}

func TestNormalizeRoles(t *testing.T) {
	set := NormalizeRoles([]interface{}{"ROLE_USER", "ROLE_ADMIN"})
	assert.True(t, set.Has(RoleUser))
	assert.True(t, set.Has(RoleAdmin))
	assert.False(t, set.Has(RoleShopOwner))

	set = NormalizeRoles("ROLE_SHOP_OWNER")
	assert.Equal(t, []Role{RoleShopOwner}, set.List())

	set = NormalizeRoles([]interface{}{"ROLE_USER", "ROLE_WIZARD", 42})
	assert.Equal(t, []Role{RoleUser}, set.List())

	set = NormalizeRoles(nil)
	assert.Empty(t, set.List())
}

func TestIdentityPermissions(t *testing.T) {
	owner := &Identity{
		ID:           3,
		Username:     "chef",
		Roles:        NormalizeRoles([]interface{}{"ROLE_USER", "ROLE_SHOP_OWNER"}),
		OwnedShopIDs: []int64{7},
	}
	assert.True(t, owner.OwnsShop(7))
	assert.False(t, owner.OwnsShop(8))
	assert.False(t, owner.IsAdmin())

	// owned-shop ids without the owner role grant nothing
	demoted := &Identity{
		ID:           3,
		Roles:        NormalizeRoles("ROLE_USER"),
		OwnedShopIDs: []int64{7},
	}
	assert.False(t, demoted.OwnsShop(7))

	var nobody *Identity
	assert.False(t, nobody.IsAdmin())
	assert.False(t, nobody.OwnsShop(7))
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinLat: 10.70, MaxLat: 10.85, MinLng: 106.62, MaxLng: 106.77}
	assert.True(t, b.Contains(10.78, 106.70))
	assert.True(t, b.Contains(10.70, 106.62), "edges are inclusive")
	assert.False(t, b.Contains(10.60, 106.70))
	assert.False(t, b.Contains(10.78, 106.80))
}

func TestResponseEnvelope(t *testing.T) {
	ok := OK(map[string]int{"n": 1})
	assert.True(t, ok.Success)
	require.NotNil(t, ok.Data)

	msg := OKMessage("done")
	assert.True(t, msg.Success)
	assert.Equal(t, "done", msg.Message)

	fail := Fail("nope")
	assert.False(t, fail.Success)
	assert.Equal(t, "nope", fail.Message)
}
