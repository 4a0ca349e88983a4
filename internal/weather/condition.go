package weather

import (
	"strings"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Category is a normalized high-level weather condition.
type Category string

const (
	CategoryUnknown      Category = "unknown"
	CategoryClear        Category = "clear"
	CategoryClouds       Category = "clouds"
	CategoryRain         Category = "rain"
	CategoryDrizzle      Category = "drizzle"
	CategoryThunderstorm Category = "thunderstorm"
	CategorySnow         Category = "snow"
	CategoryAtmosphere   Category = "atmosphere"
)

// ThemeToken names the visual scheme a card is rendered with.
type ThemeToken string

const (
	ThemeSunny    ThemeToken = "sunny"
	ThemeOvercast ThemeToken = "overcast"
	ThemeRainy    ThemeToken = "rainy"
	ThemeSnowy    ThemeToken = "snowy"
	ThemeStormy   ThemeToken = "stormy"
	ThemeSky      ThemeToken = "sky"
)

// ParseCategory maps the provider's main group (e.g. "Clouds") to a Category.
// When main is not recognized the description is searched for keywords.
func ParseCategory(main, description string) Category {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "clear":
		return CategoryClear
	case "clouds":
		return CategoryClouds
	case "rain":
		return CategoryRain
	case "drizzle":
		return CategoryDrizzle
	case "thunderstorm":
		return CategoryThunderstorm
	case "snow":
		return CategorySnow
	case "mist", "smoke", "haze", "dust", "fog", "sand", "ash", "squall", "tornado":
		return CategoryAtmosphere
	}

	d := strings.ToLower(description)
	switch {
	case d == "":
		return CategoryUnknown
	case common.HasAny(d, "thunder", "storm"):
		return CategoryThunderstorm
	case common.HasAny(d, "drizzle"):
		return CategoryDrizzle
	case common.HasAny(d, "rain", "shower"):
		return CategoryRain
	case common.HasAny(d, "snow", "sleet", "blizzard"):
		return CategorySnow
	case common.HasAny(d, "mist", "fog", "haze", "smoke", "dust"):
		return CategoryAtmosphere
	case common.HasAny(d, "cloud", "overcast"):
		return CategoryClouds
	case common.HasAny(d, "clear", "sunny"):
		return CategoryClear
	default:
		return CategoryUnknown
	}
}

// Theme returns the card theme for c. Every category, including ones added
// later, maps to a token.
func (c Category) Theme() ThemeToken {
	switch c {
	case CategoryClear:
		return ThemeSunny
	case CategoryClouds:
		return ThemeOvercast
	case CategoryRain:
		return ThemeRainy
	case CategorySnow:
		return ThemeSnowy
	case CategoryThunderstorm:
		return ThemeStormy
	default:
		return ThemeSky
	}
}
