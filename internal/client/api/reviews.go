package api

import (
	"context"

	"noodlemap/pkg/models"
)

// Review endpoints

// ListShopReviews retrieves one page of top-level reviews for a shop.
func (c *Client) ListShopReviews(ctx context.Context, shopID int64, page, size int, sort models.SortSpec) (*models.Page[models.Review], error) {
	query := pageQuery(page, size, sort)

	resp, err := c.doRequest(ctx, "GET", shopReviewsPath(shopID), query, nil)
	if err != nil {
		return nil, err
	}

	var result models.Page[models.Review]
	if err := decodeEnvelope(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListReplies retrieves every reply under a top-level review.
func (c *Client) ListReplies(ctx context.Context, parentID models.ReviewID) ([]models.Review, error) {
	resp, err := c.doRequest(ctx, "GET", reviewRepliesPath(parentID), nil, nil)
	if err != nil {
		return nil, err
	}

	var replies []models.Review
	if err := decodeEnvelope(resp, &replies); err != nil {
		return nil, err
	}

	return replies, nil
}

// CreateReview submits a new top-level review or reply as JSON.
func (c *Client) CreateReview(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", "/reviews", nil, req)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := decodeEnvelope(resp, &review); err != nil {
		return nil, err
	}

	return &review, nil
}

// CreateReviewWithPhotos submits a review plus photo attachments as
// multipart/form-data: a "review" JSON part and one "photos" part per file.
func (c *Client) CreateReviewWithPhotos(ctx context.Context, req models.CreateReviewRequest, photos []PhotoUpload) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return c.CreateReview(ctx, req)
	}

	resp, err := c.sendMultipart(ctx, "POST", "/reviews", "review", req, photos)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := decodeEnvelope(resp, &review); err != nil {
		return nil, err
	}

	return &review, nil
}

// UpdateReview edits a review and returns the server's canonical copy.
// Callers must display the returned review, not their locally-echoed fields:
// rating aggregates and timestamps are server-computed.
func (c *Client) UpdateReview(ctx context.Context, id models.ReviewID, req models.UpdateReviewRequest) (*models.Review, error) {
	resp, err := c.doRequest(ctx, "PUT", reviewPath(id), nil, req)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := decodeEnvelope(resp, &review); err != nil {
		return nil, err
	}

	return &review, nil
}

// DeleteReview removes a review. Author or admin only.
func (c *Client) DeleteReview(ctx context.Context, id models.ReviewID) error {
	resp, err := c.doRequest(ctx, "DELETE", reviewPath(id), nil, nil)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil)
}

// AddReviewMedia attaches photos to an existing review.
func (c *Client) AddReviewMedia(ctx context.Context, id models.ReviewID, photos []PhotoUpload) ([]models.MediaRef, error) {
	resp, err := c.sendMultipart(ctx, "POST", reviewMediaPath(id), "", nil, photos)
	if err != nil {
		return nil, err
	}

	var media []models.MediaRef
	if err := decodeEnvelope(resp, &media); err != nil {
		return nil, err
	}

	return media, nil
}

// DeleteReviewMedia removes one attachment from a review.
func (c *Client) DeleteReviewMedia(ctx context.Context, id models.ReviewID, mediaID int64) error {
	resp, err := c.doRequest(ctx, "DELETE", reviewMediaItemPath(id, mediaID), nil, nil)
	if err != nil {
		return err
	}

	return decodeEnvelope(resp, nil)
}
