// Package view turns weather data into presentation-ready card models.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// HourlyPreviewSize is how many intraday samples a day card previews.
const HourlyPreviewSize = 4

// UpcomingDaysSize is how many days the dashboard's "next days" strip shows.
const UpcomingDaysSize = 3

// CurrentCard is the dashboard's headline card.
type CurrentCard struct {
	Location    string             `json:"location"`
	Time        string             `json:"time"`
	Temperature string             `json:"temperature"`
	FeelsLike   string             `json:"feelsLike"`
	Description string             `json:"description"`
	Condition   string             `json:"condition"`
	IconURL     string             `json:"iconUrl"`
	Theme       weather.ThemeToken `json:"theme"`
	Humidity    string             `json:"humidity"`
	Wind        string             `json:"wind"`
	Pressure    string             `json:"pressure"`
	Visibility  string             `json:"visibility"`
	Sunrise     string             `json:"sunrise"`
	Sunset      string             `json:"sunset"`
}

// DayCard renders one DailySummary.
type DayCard struct {
	Date        string             `json:"date"`
	Label       string             `json:"label"`
	Temperature string             `json:"temperature"`
	Range       string             `json:"range"`
	Description string             `json:"description"`
	Condition   string             `json:"condition"`
	IconURL     string             `json:"iconUrl"`
	Theme       weather.ThemeToken `json:"theme"`
	Humidity    string             `json:"humidity"`
	Wind        string             `json:"wind"`
	Pressure    string             `json:"pressure"`
	Hourly      []HourCell         `json:"hourly"`
}

// HourCell is one entry of a day card's hourly preview.
type HourCell struct {
	Hour        string `json:"hour"`
	Temperature string `json:"temperature"`
}

// UpcomingCard is a compact entry of the dashboard's next-days strip.
type UpcomingCard struct {
	Label       string             `json:"label"`
	Temperature string             `json:"temperature"`
	Description string             `json:"description"`
	IconURL     string             `json:"iconUrl"`
	Theme       weather.ThemeToken `json:"theme"`
}

// FormatTemperature renders a Celsius value rounded to whole degrees.
func FormatTemperature(c float64) string {
	return fmt.Sprintf("%d°C", int(math.Round(c)))
}

// FormatDate renders t like "Monday, Jan 2".
func FormatDate(t time.Time) string {
	return t.Format("Monday, Jan 2")
}

// FormatTime renders t like "03:04 PM".
func FormatTime(t time.Time) string {
	return t.Format("03:04 PM")
}

// IconURL returns the provider's image URL for an icon code.
func IconURL(code string) string {
	if code == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", code)
}

func locationLabel(l weather.Location) string {
	if l.Country == "" {
		return l.Name
	}
	return l.Name + ", " + l.Country
}

// NewCurrentCard builds the headline card. Times are shown in loc.
func NewCurrentCard(cw weather.CurrentWeather, loc *time.Location) CurrentCard {
	return CurrentCard{
		Location:    locationLabel(cw.Location),
		Time:        FormatTime(time.Unix(cw.Timestamp, 0).In(loc)),
		Temperature: FormatTemperature(cw.Temperature),
		FeelsLike:   FormatTemperature(cw.FeelsLike),
		Description: common.CapitalizeFirst(cw.Condition.Description),
		Condition:   cw.Condition.Main,
		IconURL:     IconURL(cw.Condition.Icon),
		Theme:       cw.Condition.Category().Theme(),
		Humidity:    fmt.Sprintf("%.0f%%", cw.Humidity),
		Wind:        fmt.Sprintf("%.1f m/s", cw.WindSpeed),
		Pressure:    fmt.Sprintf("%.0f hPa", cw.Pressure),
		Visibility:  fmt.Sprintf("%.1f km", cw.Visibility/1000),
		Sunrise:     FormatTime(time.Unix(cw.Sunrise, 0).In(loc)),
		Sunset:      FormatTime(time.Unix(cw.Sunset, 0).In(loc)),
	}
}

// NewDayCard builds a forecast card from a summary. The hourly preview shows
// the first HourlyPreviewSize samples of the day in loc.
func NewDayCard(d weather.DailySummary, loc *time.Location) DayCard {
	rep := d.Representative

	n := len(d.Samples)
	if n > HourlyPreviewSize {
		n = HourlyPreviewSize
	}
	hourly := make([]HourCell, 0, n)
	for _, s := range d.Samples[:n] {
		hourly = append(hourly, HourCell{
			Hour:        fmt.Sprintf("%d:00", s.Time().In(loc).Hour()),
			Temperature: fmt.Sprintf("%d°", int(math.Round(s.Temperature))),
		})
	}

	return DayCard{
		Date:        d.Date.String(),
		Label:       FormatDate(rep.Time().In(loc)),
		Temperature: FormatTemperature(rep.Temperature),
		Range:       FormatTemperature(d.MinTemperature) + " / " + FormatTemperature(d.MaxTemperature),
		Description: common.CapitalizeFirst(rep.Condition.Description),
		Condition:   rep.Condition.Main,
		IconURL:     IconURL(rep.Condition.Icon),
		Theme:       rep.Condition.Category().Theme(),
		Humidity:    fmt.Sprintf("%.0f%%", rep.Humidity),
		Wind:        fmt.Sprintf("%.1f m/s", rep.WindSpeed),
		Pressure:    fmt.Sprintf("%.0f hPa", rep.Pressure),
		Hourly:      hourly,
	}
}

// NewDayCards renders every summary.
func NewDayCards(days []weather.DailySummary, loc *time.Location) []DayCard {
	out := make([]DayCard, 0, len(days))
	for _, d := range days {
		out = append(out, NewDayCard(d, loc))
	}
	return out
}

// NewUpcomingCards renders the dashboard's next-days strip.
func NewUpcomingCards(samples []weather.ForecastSample, loc *time.Location) []UpcomingCard {
	picked := weather.UpcomingDays(samples, UpcomingDaysSize)
	out := make([]UpcomingCard, 0, len(picked))
	for _, s := range picked {
		out = append(out, UpcomingCard{
			Label:       s.Time().In(loc).Format("Mon, Jan 2"),
			Temperature: FormatTemperature(s.Temperature),
			Description: common.CapitalizeFirst(s.Condition.Description),
			IconURL:     IconURL(s.Condition.Icon),
			Theme:       s.Condition.Category().Theme(),
		})
	}
	return out
}
