package view

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestFormatters(t *testing.T) {
	cases := map[float64]string{
		21.4: "21°C",
		21.5: "22°C",
		-0.4: "0°C",
		-3.6: "-4°C",
	}
	for in, want := range cases {
		if got := FormatTemperature(in); got != want {
			t.Errorf("FormatTemperature(%v) = %q, want %q", in, got, want)
		}
	}

	ts := time.Date(2024, time.March, 10, 15, 4, 0, 0, time.UTC)
	if got := FormatDate(ts); got != "Sunday, Mar 10" {
		t.Errorf("FormatDate = %q", got)
	}
	if got := FormatTime(ts); got != "03:04 PM" {
		t.Errorf("FormatTime = %q", got)
	}

	if got := IconURL("10d"); got != "https://openweathermap.org/img/wn/10d@2x.png" {
		t.Errorf("IconURL = %q", got)
	}
	if got := IconURL(""); got != "" {
		t.Errorf("expected empty icon URL, got %q", got)
	}
}

func TestNewDayCard(t *testing.T) {
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	var samples []weather.ForecastSample
	for i, temp := range []float64{10, 11, 13, 16, 18.4, 17, 14, 12} {
		samples = append(samples, weather.ForecastSample{
			Timestamp:   start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature: temp,
			Humidity:    70,
			WindSpeed:   3.25,
			Pressure:    1013,
			Condition:   weather.Condition{Main: "Clear", Description: "clear sky", Icon: "01d"},
		})
	}

	days := weather.AggregateByDay(samples, time.UTC)
	cards := NewDayCards(days, time.UTC)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}

	c := cards[0]
	if c.Date != "2024-03-10" || c.Label != "Sunday, Mar 10" {
		t.Errorf("unexpected date/label: %q %q", c.Date, c.Label)
	}
	if c.Temperature != "18°C" || c.Range != "10°C / 18°C" {
		t.Errorf("unexpected temperatures: %q %q", c.Temperature, c.Range)
	}
	if c.Description != "Clear sky" || c.Theme != weather.ThemeSunny {
		t.Errorf("unexpected condition: %q %s", c.Description, c.Theme)
	}
	if c.Humidity != "70%" || c.Pressure != "1013 hPa" {
		t.Errorf("unexpected details: %q %q", c.Humidity, c.Pressure)
	}

	if len(c.Hourly) != HourlyPreviewSize {
		t.Fatalf("expected %d hourly cells, got %d", HourlyPreviewSize, len(c.Hourly))
	}
	for i, want := range []string{"0:00", "3:00", "6:00", "9:00"} {
		if c.Hourly[i].Hour != want {
			t.Errorf("hour %d: expected %q, got %q", i, want, c.Hourly[i].Hour)
		}
	}
	if c.Hourly[0].Temperature != "10°" {
		t.Errorf("unexpected hourly temperature %q", c.Hourly[0].Temperature)
	}
}

func TestNewCurrentCard(t *testing.T) {
	cw := weather.CurrentWeather{
		Location:    weather.Location{Name: "London", Country: "GB"},
		Timestamp:   time.Date(2024, time.March, 10, 9, 30, 0, 0, time.UTC).Unix(),
		Temperature: 12.6,
		FeelsLike:   11.2,
		Humidity:    81,
		WindSpeed:   4.1,
		Pressure:    1012,
		Visibility:  9500,
		Condition:   weather.Condition{Main: "Rain", Description: "light rain", Icon: "10d"},
	}

	c := NewCurrentCard(cw, time.UTC)
	if c.Location != "London, GB" || c.Time != "09:30 AM" {
		t.Errorf("unexpected header: %q %q", c.Location, c.Time)
	}
	if c.Temperature != "13°C" || c.FeelsLike != "11°C" {
		t.Errorf("unexpected temperatures: %q %q", c.Temperature, c.FeelsLike)
	}
	if c.Theme != weather.ThemeRainy || c.Description != "Light rain" {
		t.Errorf("unexpected condition: %s %q", c.Theme, c.Description)
	}
	if c.Wind != "4.1 m/s" || c.Visibility != "9.5 km" {
		t.Errorf("unexpected details: %q %q", c.Wind, c.Visibility)
	}
}

func TestNewUpcomingCards(t *testing.T) {
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	var samples []weather.ForecastSample
	for i := 0; i < 40; i++ {
		samples = append(samples, weather.ForecastSample{
			Timestamp:   start.Add(time.Duration(i) * 3 * time.Hour).Unix(),
			Temperature: float64(i),
		})
	}

	cards := NewUpcomingCards(samples, time.UTC)
	if len(cards) != UpcomingDaysSize {
		t.Fatalf("expected %d cards, got %d", UpcomingDaysSize, len(cards))
	}
	for i, want := range []string{"Mon, Mar 11", "Tue, Mar 12", "Wed, Mar 13"} {
		if cards[i].Label != want {
			t.Errorf("card %d: expected %q, got %q", i, want, cards[i].Label)
		}
	}
	if cards[0].Theme != weather.ThemeSky {
		t.Errorf("expected default theme for unknown condition, got %s", cards[0].Theme)
	}

	if got := NewUpcomingCards(nil, time.UTC); len(got) != 0 {
		t.Errorf("expected no cards, got %d", len(got))
	}
}

func TestNewErrorView(t *testing.T) {
	cases := []struct {
		err   error
		kind  string
		retry bool
	}{
		{&weather.ConfigurationError{Reason: "no key"}, "configuration", false},
		{&weather.RequestError{Op: "forecast", Status: 404, Err: errors.New("city not found")}, "not_found", true},
		{&weather.RequestError{Op: "forecast", Err: errors.New("dial tcp")}, "request", true},
		{&weather.DecodeError{Op: "forecast", Err: errors.New("eof")}, "decode", true},
		{weather.ErrNoTarget, "invalid_input", false},
		{errors.New("boom"), "internal", false},
	}

	for _, tc := range cases {
		v := NewErrorView(tc.err)
		if !v.Error || v.Kind != tc.kind || v.Retry != tc.retry {
			t.Errorf("%v: got %+v, want kind %s retry %v", tc.err, v, tc.kind, tc.retry)
		}
		if v.Message == "" {
			t.Errorf("%v: empty message", tc.err)
		}
	}
}
