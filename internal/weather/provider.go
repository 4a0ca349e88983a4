package weather

import (
	"context"
)

// Gateway is the read surface of a weather data provider.
type Gateway interface {
	FetchCurrent(ctx context.Context, city string) (CurrentWeather, error)
	FetchCurrentByCoordinates(ctx context.Context, lat, lon float64) (CurrentWeather, error)
	FetchForecast(ctx context.Context, city string) (Forecast, error)
	FetchForecastByCoordinates(ctx context.Context, lat, lon float64) (Forecast, error)
}

// Preferences is the durable key-value store holding user settings.
type Preferences interface {
	Get(ctx context.Context, key, def string) (string, error)
	Set(ctx context.Context, key, value string) error
}
