package weather

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/store"
)

// Request describes what the viewer asked for. City is an explicit search;
// Coords is the host's geolocation fix, if any.
type Request struct {
	City     string
	Coords   *Coordinates
	GeoError bool // geolocation unavailable or denied

	// ViewerZone is the viewer's own zone, if the host reported one.
	ViewerZone *time.Location
}

// Target is the resolved thing to fetch: either a city or coordinates.
type Target struct {
	City   string       `json:"city,omitempty"`
	Coords *Coordinates `json:"coords,omitempty"`

	// ViewerZone does not take part in request keys: it only changes how
	// fetched data is split into days.
	ViewerZone *time.Location `json:"-"`
}

func (t Target) key(endpoint string) string {
	if t.Coords != nil {
		return query.CoordsKey(endpoint, t.Coords.Lat, t.Coords.Lon)
	}
	return query.CityKey(endpoint, t.City)
}

func (t Target) String() string {
	if t.Coords != nil {
		return strconv.FormatFloat(t.Coords.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(t.Coords.Lon, 'f', 4, 64)
	}
	return t.City
}

// Snapshot is the last applied background refresh of the default city.
type Snapshot struct {
	Target    Target         `json:"target"`
	Current   CurrentWeather `json:"current"`
	Forecast  Forecast       `json:"forecast"`
	Days      []DailySummary `json:"days"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// ServiceConfig holds the service's tunables.
type ServiceConfig struct {
	// DefaultCity is used until the viewer saves one.
	DefaultCity string
	// Zone selects the day boundary used by AggregateByDay.
	Zone ZoneMode
	// SnapshotTTL bounds how long a background refresh may be served
	// (<= 0 means snapshots are never served).
	SnapshotTTL time.Duration
}

// Service resolves what to show, fetches it through the request-keyed query
// client and derives daily summaries.
type Service struct {
	gateway Gateway
	prefs   Preferences
	queries *query.Client
	cfg     ServiceConfig

	tracker query.Tracker

	mu        sync.RWMutex
	latest    Snapshot
	hasLatest bool

	now func() time.Time
}

// NewService creates a new Service.
func NewService(gateway Gateway, prefs Preferences, queries *query.Client, cfg ServiceConfig) *Service {
	if strings.TrimSpace(cfg.DefaultCity) == "" {
		cfg.DefaultCity = store.DefaultCity
	}
	if cfg.Zone == "" {
		cfg.Zone = ZoneLocal
	}
	return &Service{
		gateway: gateway,
		prefs:   prefs,
		queries: queries,
		cfg:     cfg,
		now:     time.Now,
	}
}

// DefaultCity returns the persisted default city.
func (s *Service) DefaultCity(ctx context.Context) (string, error) {
	return s.prefs.Get(ctx, store.KeyDefaultCity, s.cfg.DefaultCity)
}

// Settings returns the persisted preferences.
func (s *Service) Settings(ctx context.Context) (store.Settings, error) {
	return store.LoadSettings(ctx, s.prefs, s.cfg.DefaultCity)
}

// SetDefaultCity persists city and discards any in-flight refresh of the old one.
func (s *Service) SetDefaultCity(ctx context.Context, city string) (string, error) {
	saved, err := store.SaveDefaultCity(ctx, s.prefs, city)
	if err != nil {
		return "", err
	}

	s.tracker.Invalidate()

	s.mu.Lock()
	if s.hasLatest && !strings.EqualFold(s.latest.Target.City, saved) {
		s.latest = Snapshot{}
		s.hasLatest = false
	}
	s.mu.Unlock()

	log.Printf("INFO: default city set to %q", saved)
	return saved, nil
}

// SetTheme persists the theme preference.
func (s *Service) SetTheme(ctx context.Context, theme string) (store.Theme, error) {
	return store.SaveTheme(ctx, s.prefs, theme)
}

// Resolve picks the fetch target: an explicit search wins, then the
// geolocation fix (unless it failed), then the persisted default city.
func (s *Service) Resolve(ctx context.Context, req Request) (Target, error) {
	if city := strings.TrimSpace(req.City); city != "" {
		return Target{City: city, ViewerZone: req.ViewerZone}, nil
	}

	if req.Coords != nil && !req.GeoError {
		c := *req.Coords
		return Target{Coords: &c, ViewerZone: req.ViewerZone}, nil
	}

	city, err := s.DefaultCity(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("read default city: %w", err)
	}
	if strings.TrimSpace(city) == "" {
		return Target{}, ErrNoTarget
	}
	return Target{City: city, ViewerZone: req.ViewerZone}, nil
}

// Current returns current conditions for t.
func (s *Service) Current(ctx context.Context, t Target) (CurrentWeather, error) {
	return query.Do(ctx, s.queries, t.key("weather"), func(ctx context.Context) (CurrentWeather, error) {
		log.Printf("DEBUG: fetching current weather for %s", t)
		if t.Coords != nil {
			return s.gateway.FetchCurrentByCoordinates(ctx, t.Coords.Lat, t.Coords.Lon)
		}
		return s.gateway.FetchCurrent(ctx, t.City)
	})
}

// Forecast returns the raw forecast list for t.
func (s *Service) Forecast(ctx context.Context, t Target) (Forecast, error) {
	return query.Do(ctx, s.queries, t.key("forecast"), func(ctx context.Context) (Forecast, error) {
		log.Printf("DEBUG: fetching forecast for %s", t)
		if t.Coords != nil {
			return s.gateway.FetchForecastByCoordinates(ctx, t.Coords.Lat, t.Coords.Lon)
		}
		return s.gateway.FetchForecast(ctx, t.City)
	})
}

// Daily fetches the forecast for t and folds it into at most MaxDays summaries.
func (s *Service) Daily(ctx context.Context, t Target) (Forecast, []DailySummary, error) {
	fc, err := s.Forecast(ctx, t)
	if err != nil {
		return Forecast{}, nil, err
	}
	return fc, AggregateByDay(fc.Samples, s.Zone(t, fc.Location)), nil
}

// Zone returns the day-boundary zone for data fetched for t. In local mode the
// viewer's zone wins; the process zone is only used when the viewer sent none.
func (s *Service) Zone(t Target, l Location) *time.Location {
	if s.cfg.Zone == ZoneLocal && t.ViewerZone != nil {
		return t.ViewerZone
	}
	return ZoneFor(s.cfg.Zone, l)
}

// Refresh refetches the default city, bypassing the cache. The result is only
// applied if no newer refresh started and the default city did not change while
// it was in flight.
func (s *Service) Refresh(ctx context.Context) error {
	// The ticket is taken before the city is read, so a SetDefaultCity that
	// lands in between always supersedes it.
	tk := s.tracker.Begin("refresh|default")

	city, err := s.DefaultCity(ctx)
	if err != nil {
		return fmt.Errorf("read default city: %w", err)
	}
	t := Target{City: city}

	s.queries.Invalidate(t.key("weather"))
	s.queries.Invalidate(t.key("forecast"))

	cur, err := s.Current(ctx, t)
	if err != nil {
		return fmt.Errorf("refresh current weather for %s: %w", t, err)
	}
	fc, days, err := s.Daily(ctx, t)
	if err != nil {
		return fmt.Errorf("refresh forecast for %s: %w", t, err)
	}

	if !s.tracker.Current(tk) {
		log.Printf("DEBUG: discarding stale refresh for %s (generation %d)", t, tk.Generation)
		return nil
	}

	s.mu.Lock()
	s.latest = Snapshot{
		Target:    t,
		Current:   cur,
		Forecast:  fc,
		Days:      days,
		FetchedAt: s.now().UTC(),
	}
	s.hasLatest = true
	s.mu.Unlock()

	log.Printf("INFO: refreshed %s: %d samples, %d days", t, len(fc.Samples), len(days))
	return nil
}

// Latest returns the last applied refresh if it is younger than SnapshotTTL.
func (s *Service) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasLatest || s.cfg.SnapshotTTL <= 0 {
		return Snapshot{}, false
	}
	if s.now().Sub(s.latest.FetchedAt) > s.cfg.SnapshotTTL {
		return Snapshot{}, false
	}
	return s.latest, true
}
