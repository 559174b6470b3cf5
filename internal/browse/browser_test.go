package browse

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noodlemap/internal/client/api"
	"noodlemap/pkg/models"
)

type fakeShopAPI struct {
	mu    sync.Mutex
	shops []models.Shop

	listStarted int32
	listCalls   int32
	boundsCalls int32
	lastQuery   api.ShopListQuery
	lastBounds  models.Bounds
	gateList    chan struct{}
	failList    error
	failBounds  error
}

func newFakeShopAPI(n int) *fakeShopAPI {
	f := &fakeShopAPI{}
	for i := 0; i < n; i++ {
		f.shops = append(f.shops, models.Shop{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("Shop %d", i+1),
			Address:   "somewhere",
			City:      "Saigon",
			Latitude:  10.70 + float64(i)*0.01,
			Longitude: 106.60 + float64(i)*0.01,
		})
	}
	return f
}

func (f *fakeShopAPI) ListShops(ctx context.Context, q api.ShopListQuery) (*models.Page[models.Shop], error) {
	atomic.AddInt32(&f.listStarted, 1)
	f.mu.Lock()
	gate := f.gateList
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	atomic.AddInt32(&f.listCalls, 1)
	f.lastQuery = q
	if f.failList != nil {
		return nil, f.failList
	}
	matched := make([]models.Shop, 0, len(f.shops))
	for _, s := range f.shops {
		if q.City == "" || s.City == q.City {
			matched = append(matched, s)
		}
	}
	page := models.NewPage(matched, q.Page, q.Size)
	return &page, nil
}

func (f *fakeShopAPI) ShopsInBounds(ctx context.Context, b models.Bounds) ([]models.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	atomic.AddInt32(&f.boundsCalls, 1)
	f.lastBounds = b
	if f.failBounds != nil {
		return nil, f.failBounds
	}
	var matched []models.Shop
	for _, s := range f.shops {
		if b.Contains(s.Latitude, s.Longitude) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func TestBrowserPaging(t *testing.T) {
	fake := newFakeShopAPI(30)
	b := NewBrowser(fake, 12)

	require.NoError(t, b.LoadPage(context.Background(), 0))
	snap := b.Snapshot()
	assert.Len(t, snap.Shops, 12)
	assert.Equal(t, 0, snap.PageNo)
	assert.Equal(t, 3, snap.TotalPages)
	assert.Equal(t, 30, snap.TotalElements)

	require.NoError(t, b.LoadPage(context.Background(), 2))
	snap = b.Snapshot()
	assert.Len(t, snap.Shops, 6)
	assert.Equal(t, 2, snap.PageNo)
}

func TestBrowserSortChangeResetsToFirstPage(t *testing.T) {
	fake := newFakeShopAPI(30)
	b := NewBrowser(fake, 12)
	require.NoError(t, b.LoadPage(context.Background(), 2))

	spec := models.SortSpec{By: models.SortByWeightedRating, Dir: models.SortDesc}
	require.NoError(t, b.SetSort(context.Background(), spec))

	snap := b.Snapshot()
	assert.Equal(t, 0, snap.PageNo)
	assert.Equal(t, spec, snap.Sort)
	assert.Equal(t, spec, fake.lastQuery.Sort)

	calls := atomic.LoadInt32(&fake.listCalls)
	require.NoError(t, b.SetSort(context.Background(), spec))
	assert.Equal(t, calls, atomic.LoadInt32(&fake.listCalls), "unchanged sort must not reload")
}

func TestBrowserCityFilter(t *testing.T) {
	fake := newFakeShopAPI(5)
	fake.shops[4].City = "Hanoi"
	b := NewBrowser(fake, 12)
	require.NoError(t, b.LoadPage(context.Background(), 0))

	require.NoError(t, b.SetCityFilter(context.Background(), "Hanoi"))
	snap := b.Snapshot()
	assert.Equal(t, "Hanoi", snap.City)
	assert.Len(t, snap.Shops, 1)
	assert.Equal(t, 0, snap.PageNo)

	// clearing the filter is a change too
	require.NoError(t, b.SetCityFilter(context.Background(), ""))
	snap = b.Snapshot()
	assert.Len(t, snap.Shops, 5)

	calls := atomic.LoadInt32(&fake.listCalls)
	require.NoError(t, b.SetCityFilter(context.Background(), ""))
	assert.Equal(t, calls, atomic.LoadInt32(&fake.listCalls))
}

func TestBrowserStaleResponseDiscarded(t *testing.T) {
	fake := newFakeShopAPI(30)
	b := NewBrowser(fake, 12)

	gate := make(chan struct{})
	fake.mu.Lock()
	fake.gateList = gate
	fake.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.LoadPage(context.Background(), 0)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fake.listStarted) == 1
	}, time.Second, time.Millisecond)

	fake.mu.Lock()
	fake.gateList = nil
	fake.mu.Unlock()
	require.NoError(t, b.LoadPage(context.Background(), 2))

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, 2, b.Snapshot().PageNo)
}

func TestBrowserErrorKeepsPreviousListing(t *testing.T) {
	fake := newFakeShopAPI(5)
	b := NewBrowser(fake, 12)
	require.NoError(t, b.LoadPage(context.Background(), 0))

	fake.mu.Lock()
	fake.failList = fmt.Errorf("backend down")
	fake.mu.Unlock()

	require.Error(t, b.LoadPage(context.Background(), 0))
	snap := b.Snapshot()
	assert.Error(t, snap.LoadErr)
	assert.Len(t, snap.Shops, 5)
}

func TestViewportDebounceCoalescesMoves(t *testing.T) {
	fake := newFakeShopAPI(10)
	var notified int32
	v := NewViewportBrowser(fake, 30*time.Millisecond, func() {
		atomic.AddInt32(&notified, 1)
	})

	// three quick moves; only the last should be fetched
	for i := 0; i < 3; i++ {
		v.SetViewport(context.Background(), models.Bounds{
			MinLat: 10.70, MaxLat: 10.72 + float64(i)*0.01,
			MinLng: 106.60, MaxLng: 106.80,
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&notified) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.boundsCalls))
	fake.mu.Lock()
	settled := fake.lastBounds
	fake.mu.Unlock()
	assert.InDelta(t, 10.74, settled.MaxLat, 1e-9)

	snap := v.Snapshot()
	assert.False(t, snap.Loading)
	assert.NotEmpty(t, snap.Shops)
}

func TestViewportRefreshSkipsDebounce(t *testing.T) {
	fake := newFakeShopAPI(10)
	v := NewViewportBrowser(fake, time.Hour, nil)

	v.SetViewport(context.Background(), models.Bounds{
		MinLat: 10.70, MaxLat: 10.85, MinLng: 106.60, MaxLng: 106.80,
	})

	// the settle timer will not fire for an hour; Refresh must not wait
	require.NoError(t, v.Refresh(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.boundsCalls))

	snap := v.Snapshot()
	assert.NotEmpty(t, snap.Shops)
	assert.False(t, snap.Loading)
}

func TestViewportErrorKeepsShops(t *testing.T) {
	fake := newFakeShopAPI(4)
	v := NewViewportBrowser(fake, time.Hour, nil)

	v.SetViewport(context.Background(), models.Bounds{
		MinLat: 10.60, MaxLat: 10.90, MinLng: 106.50, MaxLng: 106.90,
	})
	require.NoError(t, v.Refresh(context.Background()))
	require.NotEmpty(t, v.Snapshot().Shops)

	fake.mu.Lock()
	fake.failBounds = fmt.Errorf("backend down")
	fake.mu.Unlock()

	require.Error(t, v.Refresh(context.Background()))
	snap := v.Snapshot()
	assert.Error(t, snap.LoadErr)
	assert.Len(t, snap.Shops, 4)
}
