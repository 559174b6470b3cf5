package api

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noodlemap/internal/devserver"
	"noodlemap/pkg/models"
)

// tokenHolder is a mutable TokenSource for tests.
type tokenHolder struct {
	token string
}

func (h *tokenHolder) Token() string { return h.token }

type testEnv struct {
	client *Client
	tokens *tokenHolder
}

// newTestEnv boots the reference server on httptest and points a client at
// it. Each test gets a fresh store, so user and shop ids start from scratch.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := devserver.NewServer(devserver.DefaultConfig())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	tokens := &tokenHolder{}
	client := NewClient(ts.URL+"/api", tokens)
	return &testEnv{client: client, tokens: tokens}
}

// registerAs registers a user and leaves the client authenticated as them.
func (e *testEnv) registerAs(t *testing.T, username string, shopOwner bool) *models.LoginResponse {
	t.Helper()
	resp, err := e.client.Register(context.Background(), models.RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  username + "-password",
		ShopOwner: shopOwner,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	e.tokens.token = resp.Token
	return resp
}

func (e *testEnv) createShop(t *testing.T, name string, lat, lng float64) *models.Shop {
	t.Helper()
	shop, err := e.client.CreateShop(context.Background(), models.ShopRequest{
		Name:      name,
		Address:   "12 Nguyen Hue",
		City:      "Ho Chi Minh City",
		Latitude:  lat,
		Longitude: lng,
	})
	require.NoError(t, err)
	return shop
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "firstuser", false)

	env.tokens.token = ""
	resp, err := env.client.Login(context.Background(), "firstuser", "firstuser-password")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Greater(t, resp.ExpiresIn, 0)

	_, err = env.client.Login(context.Background(), "firstuser", "wrong-password")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.NotEmpty(t, MessageOf(err))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "firstuser", false)

	_, err := env.client.Register(context.Background(), models.RegisterRequest{
		Username: "firstuser",
		Password: "another-password",
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.client.Register(context.Background(), models.RegisterRequest{
		Username: "ab",
		Password: "long-enough-password",
	})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.client.Register(context.Background(), models.RegisterRequest{
		Username: "validname",
		Password: "short",
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestShopLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)

	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)
	assert.Equal(t, "Pho 88", shop.Name)
	require.NotNil(t, shop.Owner)
	assert.Equal(t, "chef", shop.Owner.Username)

	got, err := env.client.GetShop(context.Background(), shop.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)

	updated, err := env.client.UpdateShop(context.Background(), shop.ID, models.ShopRequest{
		Name:      "Pho 88 Deluxe",
		Address:   "12 Nguyen Hue",
		City:      "Ho Chi Minh City",
		Latitude:  10.7769,
		Longitude: 106.7009,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pho 88 Deluxe", updated.Name)

	require.NoError(t, env.client.DeleteShop(context.Background(), shop.ID))

	_, err = env.client.GetShop(context.Background(), shop.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestShopListingPaginationAndCityFilter(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)

	for i := 0; i < 5; i++ {
		env.createShop(t, "Shop "+string(rune('A'+i)), 10.77, 106.70)
	}
	hanoi, err := env.client.CreateShop(context.Background(), models.ShopRequest{
		Name:      "Bun Cha Corner",
		Address:   "1 Hang Bac",
		City:      "Hanoi",
		Latitude:  21.0333,
		Longitude: 105.8500,
	})
	require.NoError(t, err)

	page, err := env.client.ListShops(context.Background(), ShopListQuery{Page: 0, Size: 4})
	require.NoError(t, err)
	assert.Len(t, page.Content, 4)
	assert.Equal(t, 6, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext())

	page, err = env.client.ListShops(context.Background(), ShopListQuery{Page: 1, Size: 4})
	require.NoError(t, err)
	assert.Len(t, page.Content, 2)

	page, err = env.client.ListShops(context.Background(), ShopListQuery{Page: 0, Size: 10, City: "Hanoi"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, hanoi.ID, page.Content[0].ID)
}

func TestShopsInBounds(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)

	inside := env.createShop(t, "Inside", 10.78, 106.70)
	env.createShop(t, "Outside", 21.03, 105.85)

	shops, err := env.client.ShopsInBounds(context.Background(), models.Bounds{
		MinLat: 10.70, MaxLat: 10.85,
		MinLng: 106.62, MaxLng: 106.77,
	})
	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, inside.ID, shops[0].ID)
}

func TestCreateShopAuthorization(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "eater", false)

	_, err := env.client.CreateShop(context.Background(), models.ShopRequest{
		Name:    "Nope",
		Address: "nowhere",
	})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	env.tokens.token = ""
	_, err = env.client.CreateShop(context.Background(), models.ShopRequest{
		Name:    "Nope",
		Address: "nowhere",
	})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestUnauthorizedHookFires(t *testing.T) {
	env := newTestEnv(t)
	fired := 0
	env.client.SetOnUnauthorized(func() { fired++ })

	env.tokens.token = "bogus-token"
	_, err := env.client.ListUsers(context.Background(), 0, 10)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 1, fired)
}

func TestReviewThreadFlow(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	chef := env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)

	env.registerAs(t, "eater", false)
	rating := 4
	review, err := env.client.CreateReview(context.Background(), models.CreateReviewRequest{
		ShopID:  shop.ID,
		Rating:  &rating,
		Content: "Great broth",
	})
	require.NoError(t, err)
	require.NotNil(t, review.Rating)
	assert.Equal(t, 4, *review.Rating)
	assert.Equal(t, "eater", review.User.Username)

	// the shop's aggregates move with the review
	got, err := env.client.GetShop(context.Background(), shop.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.InDelta(t, 4.0, got.AverageRating, 1e-9)

	// owner replies
	env.tokens.token = chef.Token
	parentID := review.ID
	reply, err := env.client.CreateReview(context.Background(), models.CreateReviewRequest{
		ShopID:         shop.ID,
		ParentReviewID: &parentID,
		Content:        "Thank you!",
	})
	require.NoError(t, err)
	assert.Nil(t, reply.Rating)
	require.NotNil(t, reply.ParentReviewID)
	assert.Equal(t, review.ID, *reply.ParentReviewID)

	page, err := env.client.ListShopReviews(context.Background(), shop.ID, 0, 5, models.DefaultSort)
	require.NoError(t, err)
	require.Len(t, page.Content, 1, "replies must not appear in the top-level listing")
	assert.Equal(t, 1, page.Content[0].ReplyCount)

	replies, err := env.client.ListReplies(context.Background(), review.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "Thank you!", replies[0].Content)

	// author edits their review
	env.tokens.token = ""
	login, err := env.client.Login(context.Background(), "eater", "eater-password")
	require.NoError(t, err)
	env.tokens.token = login.Token

	newRating := 5
	updated, err := env.client.UpdateReview(context.Background(), review.ID, models.UpdateReviewRequest{
		Rating:  &newRating,
		Content: "Even better the second time",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)

	// deleting the parent cascades to its replies
	require.NoError(t, env.client.DeleteReview(context.Background(), review.ID))
	replies, err = env.client.ListReplies(context.Background(), review.ID)
	if err == nil {
		assert.Empty(t, replies)
	} else {
		assert.True(t, IsNotFound(err))
	}
}

func TestOwnerCannotReviewOwnShop(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)

	rating := 5
	_, err := env.client.CreateReview(context.Background(), models.CreateReviewRequest{
		ShopID:  shop.ID,
		Rating:  &rating,
		Content: "Best shop ever, trust me",
	})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)
	env.registerAs(t, "eater", false)

	ctx := context.Background()

	rating := 6
	_, err := env.client.CreateReview(ctx, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: &rating, Content: "off the scale",
	})
	assert.Equal(t, KindValidation, KindOf(err))

	rating = 3
	_, err = env.client.CreateReview(ctx, models.CreateReviewRequest{
		ShopID: shop.ID, Rating: &rating,
	})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.client.CreateReview(ctx, models.CreateReviewRequest{
		ShopID: shop.ID, Content: "no rating on a top-level review",
	})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = env.client.CreateReview(ctx, models.CreateReviewRequest{
		ShopID: 99999, Rating: &rating, Content: "ghost shop",
	})
	assert.True(t, IsNotFound(err))
}

func TestEditCannotBreachOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)

	eater := env.registerAs(t, "eater", false)
	rating := 4
	review, err := env.client.CreateReview(context.Background(), models.CreateReviewRequest{
		ShopID: shop.ID, Rating: &rating, Content: "Good",
	})
	require.NoError(t, err)

	env.registerAs(t, "rival", false)
	_, err = env.client.UpdateReview(context.Background(), review.ID, models.UpdateReviewRequest{
		Content: "Terrible, actually",
	})
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	err = env.client.DeleteReview(context.Background(), review.ID)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	// the author still can
	env.tokens.token = eater.Token
	require.NoError(t, env.client.DeleteReview(context.Background(), review.ID))
}

func TestCreateReviewWithPhotos(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)
	env.registerAs(t, "eater", false)

	rating := 5
	review, err := env.client.CreateReviewWithPhotos(context.Background(), models.CreateReviewRequest{
		ShopID:  shop.ID,
		Rating:  &rating,
		Content: "Look at this bowl",
	}, []PhotoUpload{
		{Filename: "bowl.jpg", ContentType: "image/jpeg", Reader: bytes.NewReader([]byte("jpeg-bytes"))},
		{Filename: "noodles.png", ContentType: "image/png", Reader: bytes.NewReader([]byte("png-bytes"))},
	})
	require.NoError(t, err)
	require.Len(t, review.Media, 2)
	for _, m := range review.Media {
		assert.True(t, strings.HasPrefix(m.URL, "/media/"), "media url %q", m.URL)
		assert.Equal(t, "image", m.Type)
	}
}

func TestReviewMediaManagement(t *testing.T) {
	env := newTestEnv(t)
	env.registerAs(t, "admin", false)
	env.registerAs(t, "chef", true)
	shop := env.createShop(t, "Pho 88", 10.7769, 106.7009)
	env.registerAs(t, "eater", false)

	rating := 4
	review, err := env.client.CreateReview(context.Background(), models.CreateReviewRequest{
		ShopID: shop.ID, Rating: &rating, Content: "Photos to follow",
	})
	require.NoError(t, err)
	require.Empty(t, review.Media)

	media, err := env.client.AddReviewMedia(context.Background(), review.ID, []PhotoUpload{
		{Filename: "late.jpg", ContentType: "image/jpeg", Reader: bytes.NewReader([]byte("jpeg-bytes"))},
	})
	require.NoError(t, err)
	require.Len(t, media, 1)

	require.NoError(t, env.client.DeleteReviewMedia(context.Background(), review.ID, media[0].ID))

	err = env.client.DeleteReviewMedia(context.Background(), review.ID, media[0].ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.registerAs(t, "admin", false)
	env.registerAs(t, "eater", false)

	// a regular user is kept out
	_, err := env.client.ListUsers(context.Background(), 0, 10)
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	env.tokens.token = admin.Token
	page, err := env.client.ListUsers(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.TotalElements)

	var eaterID int64
	for _, u := range page.Content {
		if u.Username == "eater" {
			eaterID = u.ID
		}
	}
	require.NotZero(t, eaterID)

	require.NoError(t, env.client.UpdateUserRole(context.Background(), eaterID, models.RoleShopOwner))

	page, err = env.client.ListUsers(context.Background(), 0, 10)
	require.NoError(t, err)
	for _, u := range page.Content {
		if u.ID == eaterID {
			assert.Contains(t, u.Roles, models.RoleShopOwner)
		}
	}

	err = env.client.UpdateUserRole(context.Background(), 99999, models.RoleAdmin)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	err = env.client.UpdateUserRole(context.Background(), eaterID, models.Role("ROLE_WIZARD"))
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
