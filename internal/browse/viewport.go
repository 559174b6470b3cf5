package browse

import (
	"context"
	"sync"
	"time"

	"noodlemap/pkg/models"
)

// ViewportSnapshot is the state of a bounds-driven listing.
type ViewportSnapshot struct {
	Shops   []models.Shop
	Bounds  models.Bounds
	Loading bool
	LoadErr error
}

// ViewportBrowser is the map variant of the listing: loads are triggered by
// viewport-settle events instead of explicit pagination. Viewport moves are
// debounced, so a fetch only goes out once the viewport stops changing, and
// the result set is simply everything in bounds, capped server-side.
type ViewportBrowser struct {
	client   ShopAPI
	debounce time.Duration
	notify   func() // fires after a load result is applied; may be nil

	mu      sync.Mutex
	bounds  models.Bounds
	shops   []models.Shop
	loading bool
	loadErr error
	seq     uint64
	timer   *time.Timer
}

// NewViewportBrowser creates a bounds-driven browser. notify is called after
// every applied result so an event-loop view can re-render; it may be nil.
func NewViewportBrowser(client ShopAPI, debounce time.Duration, notify func()) *ViewportBrowser {
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}
	return &ViewportBrowser{
		client:   client,
		debounce: debounce,
		notify:   notify,
	}
}

// Snapshot returns a copy of the current state.
func (v *ViewportBrowser) Snapshot() ViewportSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ViewportSnapshot{
		Shops:   append([]models.Shop(nil), v.shops...),
		Bounds:  v.bounds,
		Loading: v.loading,
		LoadErr: v.loadErr,
	}
}

// SetViewport records a viewport move and restarts the settle timer. Only
// the bounds in effect when the timer fires are fetched.
func (v *ViewportBrowser) SetViewport(ctx context.Context, b models.Bounds) {
	v.mu.Lock()
	v.bounds = b
	v.loading = true
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.debounce, func() {
		v.mu.Lock()
		settled := v.bounds
		v.mu.Unlock()
		v.load(ctx, settled)
	})
	v.mu.Unlock()
}

// Refresh re-fetches the current viewport immediately, skipping the
// debounce.
func (v *ViewportBrowser) Refresh(ctx context.Context) error {
	v.mu.Lock()
	b := v.bounds
	v.mu.Unlock()
	return v.load(ctx, b)
}

// load fetches everything in bounds, applying the result only if no newer
// load was issued meanwhile.
func (v *ViewportBrowser) load(ctx context.Context, b models.Bounds) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	shops, err := v.client.ShopsInBounds(ctx, b)

	v.mu.Lock()
	if seq != v.seq {
		v.mu.Unlock()
		return nil
	}
	v.loading = false
	if err != nil {
		v.loadErr = err
	} else {
		v.shops = shops
		v.loadErr = nil
	}
	notify := v.notify
	v.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}
