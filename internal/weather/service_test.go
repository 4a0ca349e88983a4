package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/store"
)

type fakeGateway struct {
	currentCalls  atomic.Int32
	forecastCalls atomic.Int32

	// gate, when set, blocks forecast fetches until closed.
	gate    chan struct{}
	started chan struct{}

	err error
}

func (g *fakeGateway) current(name string) CurrentWeather {
	return CurrentWeather{
		Location:    Location{Name: name},
		Temperature: 21,
		Condition:   Condition{Main: "Clear", Description: "clear sky", Icon: "01d"},
	}
}

func (g *fakeGateway) forecast(name string) (Forecast, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.gate != nil {
		<-g.gate
	}
	if g.err != nil {
		return Forecast{}, g.err
	}
	return Forecast{
		Location: Location{Name: name},
		Samples:  series(time.UTC, 2024, time.March, 10, 10, 11, 13, 16, 18, 17, 14, 12),
	}, nil
}

func (g *fakeGateway) FetchCurrent(_ context.Context, city string) (CurrentWeather, error) {
	g.currentCalls.Add(1)
	if g.err != nil {
		return CurrentWeather{}, g.err
	}
	return g.current(city), nil
}

func (g *fakeGateway) FetchCurrentByCoordinates(_ context.Context, _, _ float64) (CurrentWeather, error) {
	g.currentCalls.Add(1)
	if g.err != nil {
		return CurrentWeather{}, g.err
	}
	return g.current("here"), nil
}

func (g *fakeGateway) FetchForecast(_ context.Context, city string) (Forecast, error) {
	g.forecastCalls.Add(1)
	return g.forecast(city)
}

func (g *fakeGateway) FetchForecastByCoordinates(_ context.Context, _, _ float64) (Forecast, error) {
	g.forecastCalls.Add(1)
	return g.forecast("here")
}

func newTestService(g Gateway) *Service {
	return NewService(g, store.NewMemoryStore(), query.NewClient(time.Minute, 0), ServiceConfig{
		DefaultCity: "London",
		Zone:        ZoneUTC,
		SnapshotTTL: time.Minute,
	})
}

// hookedPrefs runs afterCityRead once, right after the default city is read.
type hookedPrefs struct {
	Preferences
	once          sync.Once
	afterCityRead func()
}

func (p *hookedPrefs) Get(ctx context.Context, key, def string) (string, error) {
	v, err := p.Preferences.Get(ctx, key, def)
	if key == store.KeyDefaultCity && p.afterCityRead != nil {
		p.once.Do(p.afterCityRead)
	}
	return v, err
}

func TestResolvePriority(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeGateway{})
	here := &Coordinates{Lat: 48.85, Lon: 2.35}

	cases := []struct {
		name string
		req  Request
		want string
	}{
		{name: "search wins", req: Request{City: "  Oslo ", Coords: here}, want: "Oslo"},
		{name: "coordinates", req: Request{Coords: here}, want: "48.8500,2.3500"},
		{name: "geolocation failed", req: Request{Coords: here, GeoError: true}, want: "London"},
		{name: "nothing", req: Request{}, want: "London"},
	}

	for _, tc := range cases {
		got, err := svc.Resolve(ctx, tc.req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.String() != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got.String())
		}
	}

	if _, err := svc.SetDefaultCity(ctx, "Madrid"); err != nil {
		t.Fatalf("set default city: %v", err)
	}
	got, err := svc.Resolve(ctx, Request{})
	if err != nil || got.City != "Madrid" {
		t.Fatalf("expected saved default city Madrid, got %q (%v)", got.City, err)
	}
}

func TestCurrentIsCachedPerCity(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{}
	svc := newTestService(g)

	for _, city := range []string{"Paris", "paris", " PARIS "} {
		cw, err := svc.Current(ctx, Target{City: city})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cw.Temperature != 21 {
			t.Fatalf("expected 21, got %v", cw.Temperature)
		}
	}
	if n := g.currentCalls.Load(); n != 1 {
		t.Fatalf("expected 1 provider call, got %d", n)
	}

	if _, err := svc.Current(ctx, Target{City: "Rome"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := g.currentCalls.Load(); n != 2 {
		t.Fatalf("expected 2 provider calls, got %d", n)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{err: &RequestError{Op: "current weather", Status: 404, Err: errors.New("city not found")}}
	svc := newTestService(g)

	for i := 0; i < 2; i++ {
		_, err := svc.Current(ctx, Target{City: "Atlantis"})
		if Kind(err) != "not_found" {
			t.Fatalf("expected not_found, got %v", err)
		}
	}
	if n := g.currentCalls.Load(); n != 2 {
		t.Fatalf("expected every retry to reach the provider, got %d calls", n)
	}
}

func TestConcurrentForecastsAreCoalesced(t *testing.T) {
	g := &fakeGateway{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := newTestService(g)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Forecast(context.Background(), Target{City: "Berlin"})
			errs <- err
		}()
	}

	<-g.started
	// Give the other callers time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(g.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := g.forecastCalls.Load(); n != 1 {
		t.Fatalf("expected 1 provider call, got %d", n)
	}
}

func TestDailyAggregatesForecast(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	fc, days, err := svc.Daily(context.Background(), Target{City: "London"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fc.Samples) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(fc.Samples))
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].MinTemperature != 10 || days[0].MaxTemperature != 18 {
		t.Fatalf("expected 10/18, got %v/%v", days[0].MinTemperature, days[0].MaxTemperature)
	}
}

func TestRefreshStoresLatest(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{}
	svc := newTestService(g)

	if _, ok := svc.Latest(); ok {
		t.Fatalf("expected no snapshot before the first refresh")
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap, ok := svc.Latest()
	if !ok {
		t.Fatalf("expected a snapshot")
	}
	if snap.Target.City != "London" || snap.Current.Location.Name != "London" || len(snap.Days) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// A refresh bypasses the cache.
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if n := g.currentCalls.Load(); n != 2 {
		t.Fatalf("expected 2 provider calls, got %d", n)
	}
}

func TestRefreshDiscardedWhenDefaultCityChanges(t *testing.T) {
	ctx := context.Background()
	g := &fakeGateway{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := newTestService(g)

	done := make(chan error, 1)
	go func() { done <- svc.Refresh(ctx) }()

	<-g.started
	if _, err := svc.SetDefaultCity(ctx, "Paris"); err != nil {
		t.Fatalf("set default city: %v", err)
	}
	close(g.gate)

	if err := <-done; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if snap, ok := svc.Latest(); ok {
		t.Fatalf("expected stale refresh to be discarded, got snapshot for %s", snap.Target)
	}
}

func TestSetDefaultCityRejectsBlank(t *testing.T) {
	svc := newTestService(&fakeGateway{})

	if _, err := svc.SetDefaultCity(context.Background(), "   "); !errors.Is(err, store.ErrInvalidCity) {
		t.Fatalf("expected ErrInvalidCity, got %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeGateway{})

	s, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.DefaultCity != "London" || s.Theme != store.ThemeSystem {
		t.Fatalf("unexpected defaults: %+v", s)
	}

	if _, err := svc.SetTheme(ctx, "dark"); err != nil {
		t.Fatalf("set theme: %v", err)
	}
	if _, err := svc.SetTheme(ctx, "neon"); !errors.Is(err, store.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}

	s, err = svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if s.Theme != store.ThemeDark {
		t.Fatalf("expected dark theme, got %s", s.Theme)
	}
}

func TestRefreshDiscardedWhenDefaultCityChangesAfterRead(t *testing.T) {
	ctx := context.Background()
	prefs := &hookedPrefs{Preferences: store.NewMemoryStore()}
	svc := NewService(&fakeGateway{}, prefs, query.NewClient(time.Minute, 0), ServiceConfig{
		DefaultCity: "London",
		Zone:        ZoneUTC,
		SnapshotTTL: time.Minute,
	})
	prefs.afterCityRead = func() {
		if _, err := svc.SetDefaultCity(ctx, "Paris"); err != nil {
			t.Errorf("set default city: %v", err)
		}
	}

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if city, _ := svc.DefaultCity(ctx); city != "Paris" {
		t.Fatalf("expected default city Paris, got %q", city)
	}
	if snap, ok := svc.Latest(); ok {
		t.Fatalf("expected refresh of the old city to be discarded, got snapshot for %s", snap.Target)
	}
}

func TestLatestExpiresAfterSnapshotTTL(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeGateway{})

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, ok := svc.Latest(); !ok {
		t.Fatalf("expected a fresh snapshot")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := svc.Latest(); ok {
		t.Fatalf("expected an expired snapshot to be skipped")
	}
}

func TestLatestDisabledWithoutSnapshotTTL(t *testing.T) {
	svc := NewService(&fakeGateway{}, store.NewMemoryStore(), query.NewClient(0, 0), ServiceConfig{})

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, ok := svc.Latest(); ok {
		t.Fatalf("expected snapshots to be disabled")
	}
}

func TestZonePrefersViewerZoneInLocalMode(t *testing.T) {
	tokyo := time.FixedZone("Tokyo", 9*60*60)
	l := Location{Name: "Paris", TimezoneOffset: 3600}

	local := NewService(&fakeGateway{}, store.NewMemoryStore(), query.NewClient(0, 0), ServiceConfig{Zone: ZoneLocal})
	if got := local.Zone(Target{City: "Paris", ViewerZone: tokyo}, l); got != tokyo {
		t.Errorf("expected viewer zone, got %v", got)
	}
	if got := local.Zone(Target{City: "Paris"}, l); got != time.Local {
		t.Errorf("expected process zone without a viewer zone, got %v", got)
	}

	utc := NewService(&fakeGateway{}, store.NewMemoryStore(), query.NewClient(0, 0), ServiceConfig{Zone: ZoneUTC})
	if got := utc.Zone(Target{City: "Paris", ViewerZone: tokyo}, l); got != time.UTC {
		t.Errorf("expected UTC to override the viewer zone, got %v", got)
	}
}

func TestResolveCarriesViewerZone(t *testing.T) {
	tokyo := time.FixedZone("Tokyo", 9*60*60)
	svc := newTestService(&fakeGateway{})

	for _, req := range []Request{
		{City: "Tokyo", ViewerZone: tokyo},
		{Coords: &Coordinates{Lat: 35.68, Lon: 139.69}, ViewerZone: tokyo},
		{ViewerZone: tokyo},
	} {
		got, err := svc.Resolve(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ViewerZone != tokyo {
			t.Errorf("%s: viewer zone was dropped", got)
		}
	}
}
