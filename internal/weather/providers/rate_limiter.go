package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// RateLimitedGateway wraps a weather.Gateway with a client-side rate limit, so a
// burst of cache misses cannot exhaust the provider's free-tier quota.
type RateLimitedGateway struct {
	gateway weather.Gateway
	limiter *rate.Limiter
}

var _ weather.Gateway = (*RateLimitedGateway)(nil)

// NewRateLimited creates a rate limited gateway.
// rps is the maximum requests per second allowed (can be fractional);
// burst is the maximum burst size allowed.
func NewRateLimited(gateway weather.Gateway, rps float64, burst int) *RateLimitedGateway {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGateway{
		gateway: gateway,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// configChecker is implemented by gateways that can fail without a request.
type configChecker interface {
	Configured() error
}

func (r *RateLimitedGateway) wait(ctx context.Context, op string) error {
	// A misconfigured gateway must not queue for tokens it will never use.
	if c, ok := r.gateway.(configChecker); ok {
		if err := c.Configured(); err != nil {
			return err
		}
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return &weather.RequestError{Op: op, Err: fmt.Errorf("rate limit wait canceled: %w", err)}
	}
	return nil
}

func (r *RateLimitedGateway) FetchCurrent(ctx context.Context, city string) (weather.CurrentWeather, error) {
	if err := r.wait(ctx, "current weather"); err != nil {
		return weather.CurrentWeather{}, err
	}
	return r.gateway.FetchCurrent(ctx, city)
}

func (r *RateLimitedGateway) FetchCurrentByCoordinates(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	if err := r.wait(ctx, "current weather by coordinates"); err != nil {
		return weather.CurrentWeather{}, err
	}
	return r.gateway.FetchCurrentByCoordinates(ctx, lat, lon)
}

func (r *RateLimitedGateway) FetchForecast(ctx context.Context, city string) (weather.Forecast, error) {
	if err := r.wait(ctx, "forecast"); err != nil {
		return weather.Forecast{}, err
	}
	return r.gateway.FetchForecast(ctx, city)
}

func (r *RateLimitedGateway) FetchForecastByCoordinates(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	if err := r.wait(ctx, "forecast by coordinates"); err != nil {
		return weather.Forecast{}, err
	}
	return r.gateway.FetchForecastByCoordinates(ctx, lat, lon)
}
