package devserver

import (
	"sort"
	"time"

	"noodlemap/pkg/models"
)

// CreateReview adds a top-level review or reply. The rating/parent invariant
// and shop/parent existence are validated here so both transports (JSON and
// multipart) share one path.
func (s *Store) CreateReview(authorID int64, req models.CreateReviewRequest, media []models.MediaRef) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.users[authorID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	shop, ok := s.shops[req.ShopID]
	if !ok {
		return nil, models.ErrShopNotFound
	}

	if req.ParentReviewID != nil {
		parent, ok := s.reviews[*req.ParentReviewID]
		if !ok || parent.IsReply() || parent.ShopID != req.ShopID {
			return nil, models.ErrReviewNotFound
		}
	} else if shop.Owner != nil && shop.Owner.ID == authorID {
		// owners reply to customers, they do not rate their own shop
		return nil, models.ErrForbidden
	}

	s.nextReviewID++
	now := time.Now()
	review := &models.Review{
		ID:             models.ReviewID(s.nextReviewID),
		ShopID:         req.ShopID,
		User:           models.ReviewUser{ID: author.ID, Username: author.Username},
		ParentReviewID: req.ParentReviewID,
		Rating:         req.Rating,
		Content:        req.Content,
		Media:          media,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range review.Media {
		s.nextMediaID++
		review.Media[i].ID = s.nextMediaID
	}
	s.reviews[review.ID] = review

	if req.ParentReviewID != nil {
		s.reviews[*req.ParentReviewID].ReplyCount++
	}
	s.recomputeShopLocked(req.ShopID)

	out := *review
	return &out, nil
}

// GetReview returns a review by id.
func (s *Store) GetReview(id models.ReviewID) (*models.Review, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, false
	}
	out := *r
	return &out, true
}

// UpdateReview edits content and (for top-level reviews) rating; timestamps
// are recomputed here, never taken from the client.
func (s *Store) UpdateReview(id models.ReviewID, req models.UpdateReviewRequest) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	if req.Content == "" {
		return nil, models.ErrEmptyContent
	}
	if len(req.Content) > models.MaxReviewLength {
		return nil, models.ErrContentTooLong
	}
	if r.IsReply() {
		if req.Rating != nil {
			return nil, models.ErrRatingOnReply
		}
	} else if req.Rating != nil {
		if *req.Rating < 1 || *req.Rating > 5 {
			return nil, models.ErrRatingRange
		}
		rating := *req.Rating
		r.Rating = &rating
	}
	r.Content = req.Content
	r.UpdatedAt = time.Now()
	s.recomputeShopLocked(r.ShopID)

	out := *r
	return &out, nil
}

// DeleteReview removes a review; a top-level review takes its replies with
// it.
func (s *Store) DeleteReview(id models.ReviewID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return models.ErrReviewNotFound
	}

	if r.IsReply() {
		if parent, ok := s.reviews[*r.ParentReviewID]; ok && parent.ReplyCount > 0 {
			parent.ReplyCount--
		}
	} else {
		for rid, child := range s.reviews {
			if child.ParentReviewID != nil && *child.ParentReviewID == id {
				delete(s.reviews, rid)
			}
		}
	}
	delete(s.reviews, id)
	s.recomputeShopLocked(r.ShopID)
	return nil
}

// ListShopReviews returns one page of a shop's top-level reviews.
func (s *Store) ListShopReviews(shopID int64, pageNo, pageSize int, spec models.SortSpec) models.Page[models.Review] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.Review, 0)
	for _, r := range s.reviews {
		if r.ShopID == shopID && !r.IsReply() {
			all = append(all, *r)
		}
	}
	sortReviews(all, spec)
	return models.NewPage(all, pageNo, pageSize)
}

// ListReplies returns every reply under a parent, oldest first.
func (s *Store) ListReplies(parentID models.ReviewID) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if parent, ok := s.reviews[parentID]; !ok || parent.IsReply() {
		return nil, models.ErrReviewNotFound
	}

	out := make([]models.Review, 0)
	for _, r := range s.reviews {
		if r.ParentReviewID != nil && *r.ParentReviewID == parentID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AddReviewMedia attaches media refs to a review.
func (s *Store) AddReviewMedia(id models.ReviewID, media []models.MediaRef) ([]models.MediaRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, models.ErrReviewNotFound
	}
	added := make([]models.MediaRef, 0, len(media))
	for _, m := range media {
		s.nextMediaID++
		m.ID = s.nextMediaID
		r.Media = append(r.Media, m)
		added = append(added, m)
	}
	return added, nil
}

// DeleteReviewMedia removes one attachment.
func (s *Store) DeleteReviewMedia(id models.ReviewID, mediaID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[id]
	if !ok {
		return models.ErrReviewNotFound
	}
	for i, m := range r.Media {
		if m.ID == mediaID {
			r.Media = append(r.Media[:i], r.Media[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

// recomputeShopLocked refreshes a shop's rating aggregates from its
// top-level reviews. Weighted rating is a Bayesian average pulled toward the
// global prior so one 5-star review does not top the listing. Caller holds
// s.mu.
func (s *Store) recomputeShopLocked(shopID int64) {
	shop, ok := s.shops[shopID]
	if !ok {
		return
	}

	const (
		priorWeight = 5.0
		priorMean   = 3.5
	)

	count := 0
	sum := 0
	for _, r := range s.reviews {
		if r.ShopID == shopID && !r.IsReply() && r.Rating != nil {
			count++
			sum += *r.Rating
		}
	}

	shop.ReviewCount = count
	if count == 0 {
		shop.AverageRating = 0
		shop.WeightedRating = 0
		return
	}
	shop.AverageRating = float64(sum) / float64(count)
	shop.WeightedRating = (float64(sum) + priorWeight*priorMean) / (float64(count) + priorWeight)
}

func sortReviews(reviews []models.Review, spec models.SortSpec) {
	less := func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) }
	if spec.By == models.SortByRating {
		less = func(i, j int) bool {
			ri, rj := 0, 0
			if reviews[i].Rating != nil {
				ri = *reviews[i].Rating
			}
			if reviews[j].Rating != nil {
				rj = *reviews[j].Rating
			}
			return ri < rj
		}
	}
	if spec.Dir == models.SortDesc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(reviews, less)
}
