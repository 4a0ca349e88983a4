package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Preference keys.
const (
	KeyDefaultCity = "defaultCity"
	KeyTheme       = "theme"
)

// Default preference values.
const (
	DefaultCity  = "London"
	DefaultTheme = ThemeSystem
)

// Theme is the UI color scheme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var (
	// ErrInvalidTheme is returned for theme values outside light/dark/system.
	ErrInvalidTheme = errors.New("invalid theme")
	// ErrInvalidCity is returned for blank city names.
	ErrInvalidCity = errors.New("city must not be empty")
)

// ParseTheme validates a theme value.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
}

// KV is the minimal key-value contract both stores satisfy.
type KV interface {
	Get(ctx context.Context, key, def string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Settings is the typed view over the preference keys.
type Settings struct {
	DefaultCity string `json:"defaultCity"`
	Theme       Theme  `json:"theme"`
}

// LoadSettings reads all preferences, falling back to defaults. defaultCity
// overrides DefaultCity when non-empty.
func LoadSettings(ctx context.Context, kv KV, defaultCity string) (Settings, error) {
	if strings.TrimSpace(defaultCity) == "" {
		defaultCity = DefaultCity
	}

	city, err := kv.Get(ctx, KeyDefaultCity, defaultCity)
	if err != nil {
		return Settings{}, fmt.Errorf("read %s: %w", KeyDefaultCity, err)
	}
	rawTheme, err := kv.Get(ctx, KeyTheme, string(DefaultTheme))
	if err != nil {
		return Settings{}, fmt.Errorf("read %s: %w", KeyTheme, err)
	}

	theme, err := ParseTheme(rawTheme)
	if err != nil {
		// A stored value from an older build should not break the settings page.
		theme = DefaultTheme
	}

	return Settings{DefaultCity: city, Theme: theme}, nil
}

// SaveTheme validates and persists the theme.
func SaveTheme(ctx context.Context, kv KV, raw string) (Theme, error) {
	theme, err := ParseTheme(raw)
	if err != nil {
		return "", err
	}
	if err := kv.Set(ctx, KeyTheme, string(theme)); err != nil {
		return "", fmt.Errorf("write %s: %w", KeyTheme, err)
	}
	return theme, nil
}

// SaveDefaultCity trims and persists the default city.
func SaveDefaultCity(ctx context.Context, kv KV, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", ErrInvalidCity
	}
	if err := kv.Set(ctx, KeyDefaultCity, city); err != nil {
		return "", fmt.Errorf("write %s: %w", KeyDefaultCity, err)
	}
	return city, nil
}
