// Package thread maintains one page of top-level reviews for a shop plus
// lazily loaded reply groups, and applies add/edit/delete mutations without
// corrupting pagination counts.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"noodlemap/internal/client/api"
	"noodlemap/pkg/models"
)

// ErrUnknownReview is returned when a delete targets a review that is in
// neither the current top-level page nor any loaded reply group: its parent
// is unknown, so the controller cannot fix up counts. Callers must treat it
// as a precondition failure, not retry it.
var ErrUnknownReview = errors.New("review is not part of the loaded thread")

// ReviewAPI is the slice of the API client the controller depends on.
type ReviewAPI interface {
	ListShopReviews(ctx context.Context, shopID int64, page, size int, sort models.SortSpec) (*models.Page[models.Review], error)
	ListReplies(ctx context.Context, parentID models.ReviewID) ([]models.Review, error)
	CreateReview(ctx context.Context, req models.CreateReviewRequest) (*models.Review, error)
	CreateReviewWithPhotos(ctx context.Context, req models.CreateReviewRequest, photos []api.PhotoUpload) (*models.Review, error)
	UpdateReview(ctx context.Context, id models.ReviewID, req models.UpdateReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, id models.ReviewID) error
}

// ReplyGroup is the cached, lazily loaded set of replies for one parent.
type ReplyGroup struct {
	Loaded   bool
	Loading  bool
	Expanded bool
	Items    []models.Review
}

// Snapshot is a consistent copy of the controller state for rendering.
// LoadErr is set alongside previously loaded data, never instead of it.
type Snapshot struct {
	Reviews       []models.Review
	PageNo        int
	PageSize      int
	TotalPages    int
	TotalElements int
	Sort          models.SortSpec
	Loading       bool
	Replies       map[models.ReviewID]ReplyGroup
	LoadErr       error
}

// Controller orchestrates the threaded review state for one shop.
//
// Page loads and reply fetches are last-write-wins: each logical target (the
// top-level page, each reply group) carries a monotonically increasing
// request sequence number, and a response is applied only if it belongs to
// the most recently issued request for that target. Superseded responses are
// discarded on arrival; there is no transport-level abort.
//
// Mutations are serialized relative to their own success: local state moves
// only after the server confirms.
type Controller struct {
	client   ReviewAPI
	shopID   int64
	pageSize int

	mu       sync.Mutex
	sort     models.SortSpec
	page     models.Page[models.Review]
	loading  bool
	loadErr  error
	replies  map[models.ReviewID]*ReplyGroup
	pageSeq  uint64
	replySeq map[models.ReviewID]uint64

	// single-flight per parent so concurrent expands share one fetch
	flight singleflight.Group

	// serializes add/edit/delete round trips
	mutMu sync.Mutex
}

// NewController creates a controller for one shop's review thread.
func NewController(client ReviewAPI, shopID int64, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Controller{
		client:   client,
		shopID:   shopID,
		pageSize: pageSize,
		sort:     models.DefaultSort,
		replies:  make(map[models.ReviewID]*ReplyGroup),
		replySeq: make(map[models.ReviewID]uint64),
	}
}

// ShopID returns the subject shop.
func (c *Controller) ShopID() int64 { return c.shopID }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Reviews:       append([]models.Review(nil), c.page.Content...),
		PageNo:        c.page.PageNo,
		PageSize:      c.pageSize,
		TotalPages:    c.page.TotalPages,
		TotalElements: c.page.TotalElements,
		Sort:          c.sort,
		Loading:       c.loading,
		LoadErr:       c.loadErr,
		Replies:       make(map[models.ReviewID]ReplyGroup, len(c.replies)),
	}
	for id, g := range c.replies {
		snap.Replies[id] = ReplyGroup{
			Loaded:   g.Loaded,
			Loading:  g.Loading,
			Expanded: g.Expanded,
			Items:    append([]models.Review(nil), g.Items...),
		}
	}
	return snap
}

// LoadPage fetches one page of top-level reviews under the current sort and
// replaces the list and pagination metadata atomically. A response that was
// superseded by a newer LoadPage call is discarded on arrival. Errors leave
// the previously displayed page in place.
func (c *Controller) LoadPage(ctx context.Context, pageIndex int) error {
	if pageIndex < 0 {
		pageIndex = 0
	}

	c.mu.Lock()
	c.pageSeq++
	seq := c.pageSeq
	c.loading = true
	sort := c.sort
	c.mu.Unlock()

	page, err := c.client.ListShopReviews(ctx, c.shopID, pageIndex, c.pageSize, sort)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.pageSeq {
		// a newer request owns the target now
		return nil
	}
	c.loading = false

	if err != nil {
		c.loadErr = err
		return err
	}

	c.page = *page
	c.loadErr = nil
	return nil
}

// SetSortSpec updates the ordering and, if it changed, reloads from page 0.
func (c *Controller) SetSortSpec(ctx context.Context, spec models.SortSpec) error {
	c.mu.Lock()
	if c.sort == spec {
		c.mu.Unlock()
		return nil
	}
	c.sort = spec
	c.mu.Unlock()
	return c.LoadPage(ctx, 0)
}

// ToggleReplies flips the expanded flag for one parent's reply group,
// fetching the replies on first expand. Concurrent toggles while a fetch is
// in flight share that fetch instead of issuing a duplicate.
func (c *Controller) ToggleReplies(ctx context.Context, parentID models.ReviewID) error {
	c.mu.Lock()
	g := c.groupLocked(parentID)
	g.Expanded = !g.Expanded
	if !g.Expanded || g.Loaded || g.Loading {
		c.mu.Unlock()
		return nil
	}
	g.Loading = true
	c.replySeq[parentID]++
	seq := c.replySeq[parentID]
	c.mu.Unlock()

	return c.fetchReplies(ctx, parentID, seq)
}

func replyKey(parentID models.ReviewID) string {
	return fmt.Sprintf("replies/%d", parentID)
}

// fetchReplies runs the shared reply fetch for parentID and applies the
// result if seq is still the latest issued for that group.
func (c *Controller) fetchReplies(ctx context.Context, parentID models.ReviewID, seq uint64) error {
	result, err, _ := c.flight.Do(replyKey(parentID), func() (interface{}, error) {
		return c.client.ListReplies(ctx, parentID)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.groupLocked(parentID)
	g.Loading = false

	if seq != c.replySeq[parentID] {
		return nil
	}

	if err != nil {
		c.loadErr = err
		return err
	}

	g.Items = result.([]models.Review)
	g.Loaded = true
	return nil
}

// AddReview submits a new top-level review or reply, with optional photo
// attachments. On success a top-level review reloads page 0 (counts and
// ordering changed); a reply evicts the parent's cached group, forces it
// expanded, bumps the parent's displayed reply count immediately, and
// re-fetches the group in the background. A failed submission changes
// nothing.
func (c *Controller) AddReview(ctx context.Context, req models.CreateReviewRequest, photos []api.PhotoUpload) (*models.Review, error) {
	c.mutMu.Lock()
	defer c.mutMu.Unlock()

	req.ShopID = c.shopID

	var created *models.Review
	var err error
	if len(photos) > 0 {
		created, err = c.client.CreateReviewWithPhotos(ctx, req, photos)
	} else {
		created, err = c.client.CreateReview(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if req.ParentReviewID == nil {
		// a new top-level review changes totals and ordering
		if err := c.LoadPage(ctx, 0); err != nil {
			return created, err
		}
		return created, nil
	}

	parentID := *req.ParentReviewID

	c.mu.Lock()
	g := c.groupLocked(parentID)
	g.Loaded = false
	g.Items = nil
	g.Expanded = true
	g.Loading = true
	c.adjustReplyCountLocked(parentID, +1)
	c.replySeq[parentID]++
	seq := c.replySeq[parentID]
	c.mu.Unlock()

	// an expand fetch still on the wire predates the new reply; the
	// refetch must not join it, it needs a fresh round trip
	c.flight.Forget(replyKey(parentID))

	go func() {
		if err := c.fetchReplies(ctx, parentID, seq); err != nil {
			// snapshot already carries the error state; nothing else to do
			_ = err
		}
	}()

	return created, nil
}

// EditReview submits an update and, on success, replaces the edited review
// in place with the server's canonical representation, wherever it lives.
// Locally echoed field values are never reused: rating aggregates and
// timestamps are server-computed.
func (c *Controller) EditReview(ctx context.Context, id models.ReviewID, req models.UpdateReviewRequest) (*models.Review, error) {
	c.mutMu.Lock()
	defer c.mutMu.Unlock()

	updated, err := c.client.UpdateReview(ctx, id, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.page.Content {
		if c.page.Content[i].ID == id {
			c.page.Content[i] = *updated
			return updated, nil
		}
	}
	for _, g := range c.replies {
		for i := range g.Items {
			if g.Items[i].ID == id {
				g.Items[i] = *updated
				return updated, nil
			}
		}
	}
	return updated, nil
}

// DeleteReview removes a review. Whether id is a top-level review or a reply
// is decided by local lookup, never a server round trip; an id found in
// neither place fails with ErrUnknownReview before anything is sent.
//
// Deleting a top-level review drops its reply group, recomputes the totals,
// and reloads the current page, stepping back one page when the current
// index fell out of range. Deleting a reply removes it from its group and
// decrements the parent's reply count, floored at zero.
func (c *Controller) DeleteReview(ctx context.Context, id models.ReviewID) error {
	c.mutMu.Lock()
	defer c.mutMu.Unlock()

	c.mu.Lock()
	isTopLevel := false
	var parentID models.ReviewID
	found := false

	for i := range c.page.Content {
		if c.page.Content[i].ID == id {
			isTopLevel = true
			found = true
			break
		}
	}
	if !found {
		for pid, g := range c.replies {
			for i := range g.Items {
				if g.Items[i].ID == id {
					parentID = pid
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}
	pageNo := c.page.PageNo
	totalElements := c.page.TotalElements
	c.mu.Unlock()

	if !found {
		return fmt.Errorf("%w: id %d", ErrUnknownReview, id)
	}

	if err := c.client.DeleteReview(ctx, id); err != nil {
		return err
	}

	if isTopLevel {
		c.mu.Lock()
		delete(c.replies, id)
		delete(c.replySeq, id)
		newTotal := totalElements - 1
		if newTotal < 0 {
			newTotal = 0
		}
		newTotalPages := models.TotalPagesFor(newTotal, c.pageSize)
		c.mu.Unlock()

		target := pageNo
		if target > 0 && target >= newTotalPages {
			target = newTotalPages - 1
		}
		return c.LoadPage(ctx, target)
	}

	c.mu.Lock()
	g := c.groupLocked(parentID)
	kept := g.Items[:0]
	for _, item := range g.Items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	g.Items = kept
	c.adjustReplyCountLocked(parentID, -1)
	c.mu.Unlock()
	return nil
}

// groupLocked returns the reply group for parentID, creating it lazily.
// Caller holds c.mu.
func (c *Controller) groupLocked(parentID models.ReviewID) *ReplyGroup {
	g, ok := c.replies[parentID]
	if !ok {
		g = &ReplyGroup{}
		c.replies[parentID] = g
	}
	return g
}

// adjustReplyCountLocked shifts the locally held reply count on the parent
// review in the current page, floored at zero. Caller holds c.mu.
func (c *Controller) adjustReplyCountLocked(parentID models.ReviewID, delta int) {
	for i := range c.page.Content {
		if c.page.Content[i].ID == parentID {
			n := c.page.Content[i].ReplyCount + delta
			if n < 0 {
				n = 0
			}
			c.page.Content[i].ReplyCount = n
			return
		}
	}
}
