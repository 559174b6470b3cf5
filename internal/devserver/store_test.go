package devserver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noodlemap/pkg/models"
)

func ratingPtr(n int) *int { return &n }

func seedOwnerAndShop(t *testing.T, s *Store) (*account, *models.Shop) {
	t.Helper()
	_, err := s.CreateUser("admin", "", "admin-password", false)
	require.NoError(t, err)
	owner, err := s.CreateUser("chef", "", "chef-password", true)
	require.NoError(t, err)
	shop, err := s.CreateShop(owner.ID, models.ShopRequest{Name: "Pho 88", Address: "12 Nguyen Hue"})
	require.NoError(t, err)
	return owner, shop
}

func TestFirstUserBecomesAdmin(t *testing.T) {
	s := NewStore()

	first, err := s.CreateUser("admin", "admin@example.com", "admin-password", false)
	require.NoError(t, err)
	assert.Contains(t, first.Roles, models.RoleAdmin)

	second, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)
	assert.NotContains(t, second.Roles, models.RoleAdmin)
	assert.Equal(t, []models.Role{models.RoleUser}, second.Roles)

	third, err := s.CreateUser("chef", "", "chef-password", true)
	require.NoError(t, err)
	assert.Contains(t, third.Roles, models.RoleShopOwner)
}

func TestCreateUserRejectsDuplicateCaseInsensitive(t *testing.T) {
	s := NewStore()
	_, err := s.CreateUser("Eater", "", "eater-password", false)
	require.NoError(t, err)

	_, err = s.CreateUser("eater", "", "other-password", false)
	assert.ErrorIs(t, err, models.ErrUsernameExists)
}

func TestAuthenticate(t *testing.T) {
	s := NewStore()
	created, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	u, err := s.Authenticate("eater", "eater-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = s.Authenticate("eater", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = s.Authenticate("nobody", "whatever")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSetUserRoleReplacesGrants(t *testing.T) {
	s := NewStore()
	_, err := s.CreateUser("admin", "", "admin-password", false)
	require.NoError(t, err)
	u, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	require.NoError(t, s.SetUserRole(u.ID, models.RoleAdmin))
	got, _ := s.GetUser(u.ID)
	assert.ElementsMatch(t, []models.Role{models.RoleUser, models.RoleAdmin}, got.Roles)

	// demoting back to plain user drops the extra grant
	require.NoError(t, s.SetUserRole(u.ID, models.RoleUser))
	got, _ = s.GetUser(u.ID)
	assert.Equal(t, []models.Role{models.RoleUser}, got.Roles)

	assert.ErrorIs(t, s.SetUserRole(99999, models.RoleAdmin), models.ErrUserNotFound)
}

func TestCreateShopRecordsOwnership(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)

	require.NotNil(t, shop.Owner)
	assert.Equal(t, owner.ID, shop.Owner.ID)

	got, _ := s.GetUser(owner.ID)
	assert.Contains(t, got.OwnedShopIDs, shop.ID)
}

func TestDeleteShopCascades(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(4), Content: "good",
	}, nil)
	require.NoError(t, err)
	pid := review.ID
	_, err = s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "thanks",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteShop(shop.ID))

	_, ok := s.GetShop(shop.ID)
	assert.False(t, ok)
	_, ok = s.GetReview(review.ID)
	assert.False(t, ok, "reviews must go down with their shop")
	got, _ := s.GetUser(owner.ID)
	assert.NotContains(t, got.OwnedShopIDs, shop.ID)
}

func TestOwnerCannotRateOwnShopButCanReply(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	_, err = s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(5), Content: "my shop is great",
	}, nil)
	assert.ErrorIs(t, err, models.ErrForbidden)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "average",
	}, nil)
	require.NoError(t, err)

	pid := review.ID
	reply, err := s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "come again, we improved",
	}, nil)
	require.NoError(t, err)
	assert.True(t, reply.IsReply())
}

func TestRepliesCannotNest(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "average",
	}, nil)
	require.NoError(t, err)

	pid := review.ID
	reply, err := s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "thanks",
	}, nil)
	require.NoError(t, err)

	rid := reply.ID
	_, err = s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &rid, Content: "replying to the reply",
	}, nil)
	assert.ErrorIs(t, err, models.ErrReviewNotFound, "a reply is not a valid parent")
}

func TestDeleteTopLevelReviewTakesReplies(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "average",
	}, nil)
	require.NoError(t, err)
	pid := review.ID
	reply, err := s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "thanks",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteReview(review.ID))
	_, ok := s.GetReview(reply.ID)
	assert.False(t, ok)

	got, _ := s.GetShop(shop.ID)
	assert.Equal(t, 0, got.ReviewCount)
}

func TestDeleteReplyDecrementsParentCount(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "average",
	}, nil)
	require.NoError(t, err)
	pid := review.ID
	reply, err := s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "thanks",
	}, nil)
	require.NoError(t, err)

	got, _ := s.GetReview(review.ID)
	require.Equal(t, 1, got.ReplyCount)

	require.NoError(t, s.DeleteReview(reply.ID))
	got, _ = s.GetReview(review.ID)
	assert.Equal(t, 0, got.ReplyCount)
}

func TestUpdateReviewRejectsOverlongContent(t *testing.T) {
	s := NewStore()
	_, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "short",
	}, nil)
	require.NoError(t, err)

	long := make([]byte, models.MaxReviewLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = s.UpdateReview(review.ID, models.UpdateReviewRequest{Content: string(long)})
	assert.ErrorIs(t, err, models.ErrContentTooLong)

	_, err = s.UpdateReview(review.ID, models.UpdateReviewRequest{Content: ""})
	assert.ErrorIs(t, err, models.ErrEmptyContent)
}

func TestRatingAggregates(t *testing.T) {
	s := NewStore()
	_, shop := seedOwnerAndShop(t, s)

	ratings := []int{5, 4, 3}
	for i, r := range ratings {
		u, err := s.CreateUser(fmt.Sprintf("eater%d", i), "", "eater-password", false)
		require.NoError(t, err)
		_, err = s.CreateReview(u.ID, models.CreateReviewRequest{
			ShopID: shop.ID, Rating: ratingPtr(r), Content: "review",
		}, nil)
		require.NoError(t, err)
	}

	got, _ := s.GetShop(shop.ID)
	assert.Equal(t, 3, got.ReviewCount)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)
	// Bayesian pull toward the prior mean of 3.5 with weight 5
	assert.InDelta(t, (12.0+5.0*3.5)/(3.0+5.0), got.WeightedRating, 1e-9)
	assert.Less(t, got.WeightedRating, got.AverageRating)
}

func TestWeightedRatingDampensSingleReview(t *testing.T) {
	s := NewStore()
	owner, shopA := seedOwnerAndShop(t, s)
	shopB, err := s.CreateShop(owner.ID, models.ShopRequest{Name: "Bun Cha Corner", Address: "1 Hang Bac"})
	require.NoError(t, err)

	// one 5-star on A, many 4-stars on B
	u, err := s.CreateUser("eater0", "", "eater-password", false)
	require.NoError(t, err)
	_, err = s.CreateReview(u.ID, models.CreateReviewRequest{
		ShopID: shopA.ID, Rating: ratingPtr(5), Content: "wow",
	}, nil)
	require.NoError(t, err)

	for i := 1; i <= 10; i++ {
		u, err := s.CreateUser(fmt.Sprintf("eater%d", i), "", "eater-password", false)
		require.NoError(t, err)
		_, err = s.CreateReview(u.ID, models.CreateReviewRequest{
			ShopID: shopB.ID, Rating: ratingPtr(4), Content: "solid",
		}, nil)
		require.NoError(t, err)
	}

	a, _ := s.GetShop(shopA.ID)
	b, _ := s.GetShop(shopB.ID)
	assert.Greater(t, a.AverageRating, b.AverageRating)
	assert.Greater(t, b.WeightedRating, a.WeightedRating,
		"a well-reviewed shop must outrank a single perfect score")
}

func TestListShopReviewsExcludesReplies(t *testing.T) {
	s := NewStore()
	owner, shop := seedOwnerAndShop(t, s)
	eater, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	review, err := s.CreateReview(eater.ID, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: ratingPtr(3), Content: "average",
	}, nil)
	require.NoError(t, err)
	pid := review.ID
	_, err = s.CreateReview(owner.ID, models.CreateReviewRequest{
		ShopID: shop.ID, ParentReviewID: &pid, Content: "thanks",
	}, nil)
	require.NoError(t, err)

	page := s.ListShopReviews(shop.ID, 0, 10, models.DefaultSort)
	require.Len(t, page.Content, 1)
	assert.Equal(t, review.ID, page.Content[0].ID)
	assert.Equal(t, 1, page.Content[0].ReplyCount)

	replies, err := s.ListReplies(review.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 1)

	_, err = s.ListReplies(999999)
	assert.ErrorIs(t, err, models.ErrReviewNotFound)
}

func TestReviewSortByRating(t *testing.T) {
	s := NewStore()
	_, shop := seedOwnerAndShop(t, s)

	for i, r := range []int{2, 5, 3} {
		u, err := s.CreateUser(fmt.Sprintf("eater%d", i), "", "eater-password", false)
		require.NoError(t, err)
		_, err = s.CreateReview(u.ID, models.CreateReviewRequest{
			ShopID: shop.ID, Rating: ratingPtr(r), Content: "review",
		}, nil)
		require.NoError(t, err)
	}

	page := s.ListShopReviews(shop.ID, 0, 10, models.SortSpec{By: models.SortByRating, Dir: models.SortDesc})
	require.Len(t, page.Content, 3)
	assert.Equal(t, 5, *page.Content[0].Rating)
	assert.Equal(t, 2, *page.Content[2].Rating)

	page = s.ListShopReviews(shop.ID, 0, 10, models.SortSpec{By: models.SortByRating, Dir: models.SortAsc})
	assert.Equal(t, 2, *page.Content[0].Rating)
}

func TestShopsInBoundsCap(t *testing.T) {
	s := NewStore()
	owner, _ := seedOwnerAndShop(t, s)

	for i := 0; i < boundsResultCap+10; i++ {
		_, err := s.CreateShop(owner.ID, models.ShopRequest{
			Name:      fmt.Sprintf("Shop %d", i),
			Address:   "cluster",
			Latitude:  50.0,
			Longitude: 8.0,
		})
		require.NoError(t, err)
	}

	out := s.ShopsInBounds(models.Bounds{MinLat: 49, MaxLat: 51, MinLng: 7, MaxLng: 9})
	assert.Len(t, out, boundsResultCap)
}

func TestTokenIssueAndVerify(t *testing.T) {
	s := NewStore()
	u, err := s.CreateUser("eater", "", "eater-password", false)
	require.NoError(t, err)

	issuer := newTokenIssuer("test-secret", "test", time.Hour)
	token, expiresIn, err := issuer.Issue(u)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, 3600, expiresIn, 5)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	other := newTokenIssuer("different-secret", "test", time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	expired := newTokenIssuer("test-secret", "test", -time.Minute)
	token, _, err = expired.Issue(u)
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
