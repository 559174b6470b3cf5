package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"noodlemap/pkg/models"
)

func shopPath(id int64) string            { return fmt.Sprintf("/shops/%d", id) }
func shopReviewsPath(id int64) string     { return fmt.Sprintf("/reviews/shop/%d", id) }
func reviewPath(id models.ReviewID) string {
	return fmt.Sprintf("/reviews/%d", id)
}
func reviewRepliesPath(id models.ReviewID) string {
	return fmt.Sprintf("/reviews/%d/replies", id)
}
func reviewMediaPath(id models.ReviewID) string {
	return fmt.Sprintf("/reviews/%d/media", id)
}
func reviewMediaItemPath(id models.ReviewID, mediaID int64) string {
	return fmt.Sprintf("/reviews/%d/media/%d", id, mediaID)
}
func adminUserRolePath(id int64) string { return fmt.Sprintf("/admin/users/%d/role", id) }

// pageQuery builds the shared page/size/sort query parameters.
func pageQuery(page, size int, sort models.SortSpec) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sort.By != "" {
		q.Set("sortBy", sort.By)
		q.Set("sortDir", string(sort.Dir))
	}
	return q
}

// Shop endpoints

// ShopListQuery narrows a paginated shop listing.
type ShopListQuery struct {
	Page int
	Size int
	Sort models.SortSpec
	City string
}

// ListShops retrieves a sorted, optionally city-filtered page of shops.
func (c *Client) ListShops(ctx context.Context, q ShopListQuery) (*models.Page[models.Shop], error) {
	query := pageQuery(q.Page, q.Size, q.Sort)
	if q.City != "" {
		query.Set("city", q.City)
	}

	resp, err := c.doRequest(ctx, "GET", "/shops", query, nil)
	if err != nil {
		return nil, err
	}

	var result models.Page[models.Shop]
	if err := decodeEnvelope(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ShopsInBounds retrieves every shop inside a map viewport. The result is
// unpaginated and capped server-side.
func (c *Client) ShopsInBounds(ctx context.Context, b models.Bounds) ([]models.Shop, error) {
	query := url.Values{}
	query.Set("minLat", strconv.FormatFloat(b.MinLat, 'f', -1, 64))
	query.Set("maxLat", strconv.FormatFloat(b.MaxLat, 'f', -1, 64))
	query.Set("minLng", strconv.FormatFloat(b.MinLng, 'f', -1, 64))
	query.Set("maxLng", strconv.FormatFloat(b.MaxLng, 'f', -1, 64))

	resp, err := c.doRequest(ctx, "GET", "/shops", query, nil)
	if err != nil {
		return nil, err
	}

	var shops []models.Shop
	if err := decodeEnvelope(resp, &shops); err != nil {
		return nil, err
	}

	return shops, nil
}

// GetShop retrieves a single shop by ID.
func (c *Client) GetShop(ctx context.Context, id int64) (*models.Shop, error) {
	resp, err := c.doRequest(ctx, "GET", shopPath(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var shop models.Shop
	if err := decodeEnvelope(resp, &shop); err != nil {
		return nil, err
	}

	return &shop, nil
}

// CreateShop registers a new shop owned by the caller.
func (c *Client) CreateShop(ctx context.Context, req models.ShopRequest) (*models.Shop, error) {
	resp, err := c.doRequest(ctx, "POST", "/shops", nil, req)
	if err != nil {
		return nil, err
	}

	var shop models.Shop
	if err := decodeEnvelope(resp, &shop); err != nil {
		return nil, err
	}

	return &shop, nil
}

// UpdateShop edits an existing shop. Owner or admin only.
func (c *Client) UpdateShop(ctx context.Context, id int64, req models.ShopRequest) (*models.Shop, error) {
	resp, err := c.doRequest(ctx, "PUT", shopPath(id), nil, req)
	if err != nil {
		return nil, err
	}

	var shop models.Shop
	if err := decodeEnvelope(resp, &shop); err != nil {
		return nil, err
	}

	return &shop, nil
}

// DeleteShop removes a shop. Owner or admin only.
func (c *Client) DeleteShop(ctx context.Context, id int64) error {
	resp, err := c.doRequest(ctx, "DELETE", shopPath(id), nil, nil)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil)
}
