package devserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"noodlemap/pkg/models"
)

// listShops serves both the paged directory listing and the map viewport
// query. The presence of minLat switches to bounds mode, which returns a
// flat capped slice with no pagination.
func (s *Server) listShops(c *gin.Context) {
	if _, isBounds := c.GetQuery("minLat"); isBounds {
		b, err := parseBounds(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.Fail(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.OK(s.store.ShopsInBounds(b)))
		return
	}

	page, size := pageParams(c, 12)
	spec := sortParams(c,
		models.SortByCreatedAt,
		models.SortByWeightedRating,
		models.SortByAverageRating,
		models.SortByReviewCount,
	)
	city := c.Query("city")

	c.JSON(http.StatusOK, models.OK(s.store.ListShops(page, size, spec, city)))
}

func parseBounds(c *gin.Context) (models.Bounds, error) {
	var b models.Bounds
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"minLat", &b.MinLat},
		{"maxLat", &b.MaxLat},
		{"minLng", &b.MinLng},
		{"maxLng", &b.MaxLng},
	} {
		v, err := strconv.ParseFloat(c.Query(f.name), 64)
		if err != nil {
			return models.Bounds{}, models.ErrInvalidInput
		}
		*f.dst = v
	}
	return b, nil
}

func (s *Server) getShop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	shop, ok := s.store.GetShop(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.Fail("shop not found"))
		return
	}
	c.JSON(http.StatusOK, models.OK(shop))
}

// createShop requires the shop-owner or admin role. The creator becomes the
// owner.
func (s *Server) createShop(c *gin.Context) {
	user, _ := currentUser(c)
	if !hasRole(user, models.RoleShopOwner) && !hasRole(user, models.RoleAdmin) {
		c.JSON(http.StatusForbidden, models.Fail("shop owner role required"))
		return
	}

	req, ok := bindShopRequest(c)
	if !ok {
		return
	}

	shop, err := s.store.CreateShop(user.ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.OK(shop))
}

func (s *Server) updateShop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.canManageShop(c, id) {
		return
	}

	req, ok := bindShopRequest(c)
	if !ok {
		return
	}

	shop, err := s.store.UpdateShop(id, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OK(shop))
}

func (s *Server) deleteShop(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !s.canManageShop(c, id) {
		return
	}

	if err := s.store.DeleteShop(id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.OKMessage("shop deleted"))
}

func bindShopRequest(c *gin.Context) (models.ShopRequest, bool) {
	var req models.ShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.Fail("invalid request body"))
		return req, false
	}
	if req.Name == "" || req.Address == "" {
		c.JSON(http.StatusBadRequest, models.Fail("name and address are required"))
		return req, false
	}
	return req, true
}

// canManageShop writes the error response itself when the caller may not
// modify the shop.
func (s *Server) canManageShop(c *gin.Context, shopID int64) bool {
	user, _ := currentUser(c)
	if hasRole(user, models.RoleAdmin) {
		return true
	}
	for _, owned := range user.OwnedShopIDs {
		if owned == shopID {
			return true
		}
	}
	if _, exists := s.store.GetShop(shopID); !exists {
		c.JSON(http.StatusNotFound, models.Fail("shop not found"))
		return false
	}
	c.JSON(http.StatusForbidden, models.Fail("not the shop owner"))
	return false
}
