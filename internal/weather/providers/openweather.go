package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements weather.Gateway for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Gateway = (*OpenWeatherProvider)(nil)

// Option customizes an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at a different API root.
func WithBaseURL(u string) Option {
	return func(p *OpenWeatherProvider) {
		if u != "" {
			p.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithBackoff overrides the retry policy.
func WithBackoff(b BackoffConfig) Option {
	return func(p *OpenWeatherProvider) {
		p.httpCfg.Backoff = b
	}
}

// NewOpenWeatherProvider creates the provider. An empty apiKey is accepted here
// and reported as a configuration error on every fetch.
func NewOpenWeatherProvider(client *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	p := &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultOpenWeatherBaseURL,
		httpCfg: HTTPClientConfig{
			Client: client,
			// One automatic retry on transient failures; the user retries the rest.
			Backoff: BackoffConfig{
				MaxRetries:      1,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     2 * time.Second,
			},
		},
		circuit: cb,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, city string) (weather.CurrentWeather, error) {
	if err := p.Configured(); err != nil {
		return weather.CurrentWeather{}, err
	}
	q, err := cityQuery(city)
	if err != nil {
		return weather.CurrentWeather{}, err
	}
	return p.fetchCurrent(ctx, "current weather", q)
}

func (p *OpenWeatherProvider) FetchCurrentByCoordinates(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	if err := p.Configured(); err != nil {
		return weather.CurrentWeather{}, err
	}
	q, err := coordsQuery(lat, lon)
	if err != nil {
		return weather.CurrentWeather{}, err
	}
	return p.fetchCurrent(ctx, "current weather by coordinates", q)
}

func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, city string) (weather.Forecast, error) {
	if err := p.Configured(); err != nil {
		return weather.Forecast{}, err
	}
	q, err := cityQuery(city)
	if err != nil {
		return weather.Forecast{}, err
	}
	return p.fetchForecast(ctx, "forecast", q)
}

func (p *OpenWeatherProvider) FetchForecastByCoordinates(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	if err := p.Configured(); err != nil {
		return weather.Forecast{}, err
	}
	q, err := coordsQuery(lat, lon)
	if err != nil {
		return weather.Forecast{}, err
	}
	return p.fetchForecast(ctx, "forecast by coordinates", q)
}

// Configured fails before any network call when the credential is missing.
func (p *OpenWeatherProvider) Configured() error {
	if p.apiKey == "" {
		return &weather.ConfigurationError{Reason: "OPENWEATHER_API_KEY is not set"}
	}
	return nil
}

func cityQuery(city string) (url.Values, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, weather.ErrNoTarget
	}
	values := url.Values{}
	values.Set("q", city)
	return values, nil
}

func coordsQuery(lat, lon float64) (url.Values, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("%w: latitude out of range: %f", weather.ErrInvalidCoordinates, lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: longitude out of range: %f", weather.ErrInvalidCoordinates, lon)
	}
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return values, nil
}

// get performs GET {baseURL}/{endpoint} with the credential and metric units
// added to values, and decodes the JSON body into out.
func (p *OpenWeatherProvider) get(ctx context.Context, op, endpoint string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		v := url.Values{}
		for k, vals := range values {
			v[k] = vals
		}
		v.Set("appid", p.apiKey)
		v.Set("units", "metric")

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, v.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, op, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &weather.DecodeError{Op: op, Err: err}
	}
	return nil
}

type owmCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

type owmCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type owmCurrent struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Coord      owmCoord       `json:"coord"`
	Weather    []owmCondition `json:"weather"`
	Main       *owmMain       `json:"main"`
	Wind       owmWind        `json:"wind"`
	Visibility float64        `json:"visibility"`
	Dt         int64          `json:"dt"`
	Timezone   int            `json:"timezone"`
	Sys        struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

type owmForecast struct {
	List *[]struct {
		Dt      int64          `json:"dt"`
		Main    owmMain        `json:"main"`
		Weather []owmCondition `json:"weather"`
		Wind    owmWind        `json:"wind"`
		DtTxt   string         `json:"dt_txt"`
	} `json:"list"`
	City struct {
		ID       int64    `json:"id"`
		Name     string   `json:"name"`
		Country  string   `json:"country"`
		Coord    owmCoord `json:"coord"`
		Timezone int      `json:"timezone"`
	} `json:"city"`
}

func (p *OpenWeatherProvider) fetchCurrent(ctx context.Context, op string, q url.Values) (weather.CurrentWeather, error) {
	var payload owmCurrent
	if err := p.get(ctx, op, "weather", q, &payload); err != nil {
		return weather.CurrentWeather{}, err
	}
	if payload.Main == nil {
		return weather.CurrentWeather{}, &weather.DecodeError{Op: op, Err: errors.New(`missing "main" block`)}
	}

	return weather.CurrentWeather{
		Location: weather.Location{
			ID:             payload.ID,
			Name:           payload.Name,
			Country:        payload.Sys.Country,
			Coord:          weather.Coordinates{Lat: payload.Coord.Lat, Lon: payload.Coord.Lon},
			TimezoneOffset: payload.Timezone,
		},
		Timestamp:   payload.Dt,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		WindDeg:     payload.Wind.Deg,
		Visibility:  payload.Visibility,
		Condition:   firstCondition(payload.Weather),
		Sunrise:     payload.Sys.Sunrise,
		Sunset:      payload.Sys.Sunset,
	}, nil
}

func (p *OpenWeatherProvider) fetchForecast(ctx context.Context, op string, q url.Values) (weather.Forecast, error) {
	var payload owmForecast
	if err := p.get(ctx, op, "forecast", q, &payload); err != nil {
		return weather.Forecast{}, err
	}
	if payload.List == nil {
		return weather.Forecast{}, &weather.DecodeError{Op: op, Err: errors.New(`missing "list" array`)}
	}

	items := *payload.List
	samples := make([]weather.ForecastSample, 0, len(items))
	for _, item := range items {
		samples = append(samples, weather.ForecastSample{
			Timestamp:      item.Dt,
			Temperature:    item.Main.Temp,
			TemperatureMin: item.Main.TempMin,
			TemperatureMax: item.Main.TempMax,
			FeelsLike:      item.Main.FeelsLike,
			Humidity:       item.Main.Humidity,
			Pressure:       item.Main.Pressure,
			WindSpeed:      item.Wind.Speed,
			WindDeg:        item.Wind.Deg,
			Condition:      firstCondition(item.Weather),
		})
	}

	return weather.Forecast{
		Location: weather.Location{
			ID:             payload.City.ID,
			Name:           payload.City.Name,
			Country:        payload.City.Country,
			Coord:          weather.Coordinates{Lat: payload.City.Coord.Lat, Lon: payload.City.Coord.Lon},
			TimezoneOffset: payload.City.Timezone,
		},
		Samples: samples,
	}, nil
}

func firstCondition(items []owmCondition) weather.Condition {
	if len(items) == 0 {
		return weather.Condition{}
	}
	return weather.Condition{
		Main:        items[0].Main,
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}
