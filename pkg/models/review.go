package models

import (
	"errors"
	"time"
)

// ReviewID is the typed key for reviews. Reply groups are keyed by ReviewID
// to avoid the stringly-typed map coercions the rest of the codebase would
// otherwise accumulate.
type ReviewID int64

// ReviewUser is the minimal author info embedded in review responses.
type ReviewUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// MediaRef points at an uploaded photo or video attached to a review or shop.
type MediaRef struct {
	ID   int64  `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"` // "image" or "video"
}

// Review is a top-level review or a reply. Rating is present only on
// top-level reviews; replies never carry one. ParentReviewID never changes
// once set.
type Review struct {
	ID             ReviewID   `json:"id"`
	ShopID         int64      `json:"shopId"`
	User           ReviewUser `json:"user"`
	ParentReviewID *ReviewID  `json:"parentReviewId,omitempty"`
	Rating         *int       `json:"rating,omitempty"` // 1..5, top-level only
	Content        string     `json:"content"`
	Media          []MediaRef `json:"media,omitempty"`
	ReplyCount     int        `json:"replyCount"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsReply reports whether the review is a reply to another review.
func (r *Review) IsReply() bool {
	return r.ParentReviewID != nil
}

const MaxReviewLength = 5000

var (
	ErrEmptyContent   = errors.New("review content is required")
	ErrContentTooLong = errors.New("review content exceeds the maximum length")
	ErrRatingRange    = errors.New("rating must be between 1 and 5")
	ErrRatingOnReply  = errors.New("replies cannot carry a rating")
	ErrRatingMissing  = errors.New("top-level reviews require a rating")
)

// CreateReviewRequest creates a top-level review (rating required) or a
// reply (parentReviewId set, rating absent).
type CreateReviewRequest struct {
	ShopID         int64     `json:"shopId" validate:"required"`
	ParentReviewID *ReviewID `json:"parentReviewId,omitempty"`
	Rating         *int      `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Content        string    `json:"content" validate:"required,min=1,max=5000"`
}

// Validate enforces the rating/parent invariant before the request goes out.
func (req *CreateReviewRequest) Validate() error {
	if req.Content == "" {
		return ErrEmptyContent
	}
	if len(req.Content) > MaxReviewLength {
		return ErrContentTooLong
	}
	if req.ParentReviewID != nil {
		if req.Rating != nil {
			return ErrRatingOnReply
		}
		return nil
	}
	if req.Rating == nil {
		return ErrRatingMissing
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		return ErrRatingRange
	}
	return nil
}

// UpdateReviewRequest edits content and, for top-level reviews, the rating.
// Newly attached photos are a create-time capability only.
type UpdateReviewRequest struct {
	Rating  *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Content string `json:"content" validate:"required,min=1,max=5000"`
}
