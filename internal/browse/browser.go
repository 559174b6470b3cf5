// Package browse fetches sortable, filterable, paginated shop listings,
// independent of any single shop's review thread.
package browse

import (
	"context"
	"sync"

	"noodlemap/internal/client/api"
	"noodlemap/pkg/models"
)

// ShopAPI is the slice of the API client the browsers depend on.
type ShopAPI interface {
	ListShops(ctx context.Context, q api.ShopListQuery) (*models.Page[models.Shop], error)
	ShopsInBounds(ctx context.Context, b models.Bounds) ([]models.Shop, error)
}

// Snapshot is a consistent copy of the listing state for rendering.
type Snapshot struct {
	Shops         []models.Shop
	PageNo        int
	PageSize      int
	TotalPages    int
	TotalElements int
	Sort          models.SortSpec
	City          string
	Loading       bool
	LoadErr       error
}

// Browser pages through the shop listing. Page loads are last-write-wins:
// only the response for the most recently issued request is applied, so an
// out-of-order arrival cannot clobber a newer page.
type Browser struct {
	client   ShopAPI
	pageSize int

	mu      sync.Mutex
	sort    models.SortSpec
	city    string
	page    models.Page[models.Shop]
	loading bool
	loadErr error
	seq     uint64
}

// NewBrowser creates a listing browser.
func NewBrowser(client ShopAPI, pageSize int) *Browser {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Browser{
		client:   client,
		pageSize: pageSize,
		sort:     models.DefaultSort,
	}
}

// Snapshot returns a copy of the current state.
func (b *Browser) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Shops:         append([]models.Shop(nil), b.page.Content...),
		PageNo:        b.page.PageNo,
		PageSize:      b.pageSize,
		TotalPages:    b.page.TotalPages,
		TotalElements: b.page.TotalElements,
		Sort:          b.sort,
		City:          b.city,
		Loading:       b.loading,
		LoadErr:       b.loadErr,
	}
}

// LoadPage fetches a page of shops under the current sort and filter.
// Superseded responses are discarded on arrival; errors leave the previous
// listing in place.
func (b *Browser) LoadPage(ctx context.Context, pageIndex int) error {
	if pageIndex < 0 {
		pageIndex = 0
	}

	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.loading = true
	q := api.ShopListQuery{
		Page: pageIndex,
		Size: b.pageSize,
		Sort: b.sort,
		City: b.city,
	}
	b.mu.Unlock()

	page, err := b.client.ListShops(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		return nil
	}
	b.loading = false

	if err != nil {
		b.loadErr = err
		return err
	}

	b.page = *page
	b.loadErr = nil
	return nil
}

// SetSort updates the ordering and, if it changed, reloads from page 0.
func (b *Browser) SetSort(ctx context.Context, spec models.SortSpec) error {
	b.mu.Lock()
	if b.sort == spec {
		b.mu.Unlock()
		return nil
	}
	b.sort = spec
	b.mu.Unlock()
	return b.LoadPage(ctx, 0)
}

// SetCityFilter updates the city filter and, if it changed, reloads from
// page 0. An empty city clears the filter.
func (b *Browser) SetCityFilter(ctx context.Context, city string) error {
	b.mu.Lock()
	if b.city == city {
		b.mu.Unlock()
		return nil
	}
	b.city = city
	b.mu.Unlock()
	return b.LoadPage(ctx, 0)
}
