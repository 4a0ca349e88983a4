package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// Condition is the provider's short condition tag for a sample.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Category returns the normalized category for this condition.
func (c Condition) Category() Category {
	return ParseCategory(c.Main, c.Description)
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is the metadata the provider attaches to every response.
type Location struct {
	ID      int64       `json:"id,omitempty"`
	Name    string      `json:"name"`
	Country string      `json:"country"`
	Coord   Coordinates `json:"coord"`

	// TimezoneOffset is the location's offset from UTC in seconds.
	TimezoneOffset int `json:"timezoneOffset"`
}

// ForecastSample is a single forecast point. Samples arrive at ~3 hour steps.
type ForecastSample struct {
	Timestamp      int64     `json:"timestamp"` // unix seconds
	Temperature    float64   `json:"temperatureC"`
	TemperatureMin float64   `json:"temperatureMinC"`
	TemperatureMax float64   `json:"temperatureMaxC"`
	FeelsLike      float64   `json:"feelsLikeC"`
	Humidity       float64   `json:"humidityPercent"`
	Pressure       float64   `json:"pressureHpa"`
	WindSpeed      float64   `json:"windSpeed"`
	WindDeg        float64   `json:"windDeg"`
	Condition      Condition `json:"condition"`
}

// Time returns the sampling instant.
func (s ForecastSample) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// Forecast is the provider's forecast list together with its location.
// Samples are expected to be ordered by Timestamp ascending.
type Forecast struct {
	Location Location         `json:"location"`
	Samples  []ForecastSample `json:"samples"`
}

// CurrentWeather is a snapshot of current conditions for a location.
type CurrentWeather struct {
	Location    Location  `json:"location"`
	Timestamp   int64     `json:"timestamp"`
	Temperature float64   `json:"temperatureC"`
	FeelsLike   float64   `json:"feelsLikeC"`
	TempMin     float64   `json:"temperatureMinC"`
	TempMax     float64   `json:"temperatureMaxC"`
	Humidity    float64   `json:"humidityPercent"`
	Pressure    float64   `json:"pressureHpa"`
	WindSpeed   float64   `json:"windSpeed"`
	WindDeg     float64   `json:"windDeg"`
	Visibility  float64   `json:"visibilityM"`
	Condition   Condition `json:"condition"`
	Sunrise     int64     `json:"sunrise"`
	Sunset      int64     `json:"sunset"`
}

// Date is a calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = DateOf(t)
	return nil
}

// DailySummary folds all samples that share a calendar date.
type DailySummary struct {
	Date           Date             `json:"date"`
	Representative ForecastSample   `json:"representative"`
	MinTemperature float64          `json:"minTemperatureC"`
	MaxTemperature float64          `json:"maxTemperatureC"`
	Samples        []ForecastSample `json:"samples"`
}
