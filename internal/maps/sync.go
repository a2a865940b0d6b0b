package maps

import (
	"context"
	"sync"
	"time"

	"rtx-client/internal/domain/geo"
	"rtx-client/internal/domain/restaurant"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecenterZoom is the fixed zoom applied by a manual re-center.
const RecenterZoom = 13

// flyDuration is the nominal viewport animation length; re-center requests
// inside this window (plus a little slack) are suppressed.
const (
	flyDuration = 600 * time.Millisecond
	flySlack    = 100 * time.Millisecond
)

// RestaurantLister provides the restaurant list. The advisory string is
// non-empty when fallback data was substituted.
type RestaurantLister interface {
	List(ctx context.Context) ([]restaurant.Restaurant, string, error)
}

// PositionSource resolves the user position, nil when unavailable.
type PositionSource interface {
	Locate(ctx context.Context) *geo.Point
}

// CityNamer names the city at a coordinate.
type CityNamer interface {
	ReverseGeocode(ctx context.Context, p geo.Point) string
}

// Snapshot is the render-ready state of the map view. Points holds the
// ordered fit set: the user position first when known, then the restaurants
// in fetch order.
type Snapshot struct {
	Revision    uint64                  `json:"revision"`
	Center      geo.Point               `json:"center"`
	UserPos     *geo.Point              `json:"userPos,omitempty"`
	City        string                  `json:"city,omitempty"`
	Restaurants []restaurant.Restaurant `json:"restaurants"`
	Points      []geo.Point             `json:"points"`
	FitBounds   *geo.Bounds             `json:"fitBounds,omitempty"`
	Advisory    string                  `json:"advisory,omitempty"`
}

// Synchronizer combines the user position and the restaurant list into the
// point set the viewer renders, and owns viewport fitting. A new Refresh
// cancels the in-flight one so only the last-issued fetch is ever applied.
type Synchronizer struct {
	restaurants   RestaurantLister
	locator       PositionSource
	cities        CityNamer
	defaultCenter geo.Point
	logger        *zap.Logger

	mu          sync.Mutex
	snap        Snapshot
	userPos     *geo.Point
	city        string
	located     bool
	generation  uint64
	cancel      context.CancelFunc
	recentering bool
	subs        map[chan Snapshot]struct{}
}

// NewSynchronizer creates the synchronizer around a default center.
func NewSynchronizer(restaurants RestaurantLister, locator PositionSource, cities CityNamer, defaultCenter geo.Point, logger *zap.Logger) *Synchronizer {
	s := &Synchronizer{
		restaurants:   restaurants,
		locator:       locator,
		cities:        cities,
		defaultCenter: defaultCenter,
		logger:        logger,
		subs:          make(map[chan Snapshot]struct{}),
	}
	s.snap = Snapshot{Center: defaultCenter}
	return s
}

// Refresh reloads the data sources and publishes a new snapshot. The user
// position is queried once per synchronizer lifetime; the restaurant list
// every time. A refresh superseded by a newer one returns context.Canceled
// and leaves the snapshot to the winner.
func (s *Synchronizer) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	locate := !s.located
	s.located = true
	s.mu.Unlock()

	var (
		pos      *geo.Point
		city     string
		list     []restaurant.Restaurant
		advisory string
	)

	g, gctx := errgroup.WithContext(ctx)
	if locate {
		g.Go(func() error {
			pos = s.locator.Locate(gctx)
			if pos != nil && s.cities != nil {
				city = s.cities.ReverseGeocode(gctx, *pos)
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		list, advisory, err = s.restaurants.List(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A newer refresh owns the state; this result is stale.
		return s.snap, context.Canceled
	}
	if err != nil {
		return s.snap, err
	}
	if ctx.Err() != nil {
		return s.snap, ctx.Err()
	}

	if locate {
		s.userPos = pos
		s.city = city
	}
	s.publishLocked(list, advisory)
	return s.snap, nil
}

// publishLocked rebuilds the snapshot and notifies subscribers. Bounds are
// set only when at least one finite point exists, so an empty point set
// makes the viewport fit a no-op.
func (s *Synchronizer) publishLocked(list []restaurant.Restaurant, advisory string) {
	points := make([]geo.Point, 0, len(list)+1)
	if s.userPos != nil {
		points = append(points, *s.userPos)
	}
	for _, r := range list {
		if !r.MapEligible() {
			continue
		}
		points = append(points, geo.Point{Lat: *r.Lat, Lng: *r.Lng})
	}

	snap := Snapshot{
		Revision:    s.snap.Revision + 1,
		Center:      s.centerLocked(),
		UserPos:     s.userPos,
		City:        s.city,
		Restaurants: list,
		Points:      points,
		Advisory:    advisory,
	}
	if b, ok := geo.BoundsOf(points); ok {
		snap.FitBounds = &b
	}
	s.snap = snap

	s.logger.Debug("map snapshot published",
		zap.Uint64("revision", snap.Revision),
		zap.Int("points", len(points)),
	)
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: drop this revision, it will catch up on the next.
		}
	}
}

// Snapshot returns the current render-ready state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Center returns the active map center: the user position when known, else
// the configured default.
func (s *Synchronizer) Center() geo.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.centerLocked()
}

func (s *Synchronizer) centerLocked() geo.Point {
	if s.userPos != nil {
		return *s.userPos
	}
	return s.defaultCenter
}

// Recenter requests a viewport animation to the active center at
// RecenterZoom. It reports false while a previous re-center is still
// animating; the guard releases itself after the animation's nominal
// duration.
func (s *Synchronizer) Recenter() (geo.Point, bool) {
	s.mu.Lock()
	if s.recentering {
		s.mu.Unlock()
		return geo.Point{}, false
	}
	s.recentering = true
	center := s.centerLocked()
	s.mu.Unlock()

	time.AfterFunc(flyDuration+flySlack, func() {
		s.mu.Lock()
		s.recentering = false
		s.mu.Unlock()
	})
	return center, true
}

// Subscribe registers a listener for snapshot changes and returns the
// channel plus a cancel function. The current snapshot is not replayed;
// read Snapshot first.
func (s *Synchronizer) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}
