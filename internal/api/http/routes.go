package httpapi

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names resolve without system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// NavItem is one entry of the navigation shell.
type NavItem struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

var pages = []NavItem{
	{Name: "Dashboard", Path: "/api/v1/pages/dashboard"},
	{Name: "Forecast", Path: "/api/v1/pages/forecast"},
	{Name: "Settings", Path: "/api/v1/pages/settings"},
}

func navFor(active string) []NavItem {
	out := make([]NavItem, len(pages))
	copy(out, pages)
	for i := range out {
		out[i].Active = out[i].Name == active
	}
	return out
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/pages/dashboard", func(c *fiber.Ctx) error {
		req, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err)
		}

		settings, err := service.Settings(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}

		target, err := service.Resolve(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}

		var (
			cur weather.CurrentWeather
			fc  weather.Forecast
		)
		if snap, ok := service.Latest(); ok && sameTarget(snap.Target, target) {
			cur, fc = snap.Current, snap.Forecast
		} else {
			cur, err = service.Current(c.UserContext(), target)
			if err != nil {
				return respondError(c, err)
			}
			// The upcoming strip is best effort; the page still renders without it.
			fc, err = service.Forecast(c.UserContext(), target)
			if err != nil {
				log.Printf("ERROR: forecast for dashboard %s failed: %v", target, err)
			}
		}

		loc := service.Zone(target, cur.Location)
		return c.JSON(fiber.Map{
			"nav":      navFor("Dashboard"),
			"theme":    settings.Theme,
			"target":   target,
			"current":  view.NewCurrentCard(cur, loc),
			"upcoming": view.NewUpcomingCards(fc.Samples, loc),
		})
	})

	v1.Get("/pages/forecast", func(c *fiber.Ctx) error {
		req, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err)
		}

		settings, err := service.Settings(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}

		target, err := service.Resolve(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}

		fc, days, err := service.Daily(c.UserContext(), target)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"nav":      navFor("Forecast"),
			"theme":    settings.Theme,
			"target":   target,
			"location": fc.Location,
			"days":     view.NewDayCards(days, service.Zone(target, fc.Location)),
		})
	})

	v1.Get("/pages/settings", func(c *fiber.Ctx) error {
		settings, err := service.Settings(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"nav":      navFor("Settings"),
			"settings": settings,
			"themes":   []store.Theme{store.ThemeLight, store.ThemeDark, store.ThemeSystem},
		})
	})

	v1.Put("/pages/settings", func(c *fiber.Ctx) error {
		var req settingsUpdate
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		if req.DefaultCity == nil && req.Theme == nil {
			return badRequest(c, errors.New("nothing to update"))
		}

		ctx := c.UserContext()
		if req.DefaultCity != nil {
			if _, err := service.SetDefaultCity(ctx, *req.DefaultCity); err != nil {
				return respondError(c, err)
			}
		}
		if req.Theme != nil {
			if _, err := service.SetTheme(ctx, *req.Theme); err != nil {
				return respondError(c, err)
			}
		}

		settings, err := service.Settings(ctx)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"nav":      navFor("Settings"),
			"settings": settings,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		req, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err)
		}
		target, err := service.Resolve(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		cur, err := service.Current(c.UserContext(), target)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(cur)
	})

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		req, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err)
		}
		target, err := service.Resolve(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		fc, err := service.Forecast(c.UserContext(), target)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fc)
	})
}

func sameTarget(a, b weather.Target) bool {
	if a.Coords != nil || b.Coords != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.City), strings.TrimSpace(b.City))
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City      string  `validate:"omitempty,max=100"`
	Lat       float64 `validate:"gte=-90,lte=90"`
	Lon       float64 `validate:"gte=-180,lte=180"`
	HasCoords bool
	GeoError  bool
	TZ        string `validate:"omitempty,max=64"`
	Zone      *time.Location
}

func (l locationQuery) toRequest() weather.Request {
	req := weather.Request{
		City:       l.City,
		GeoError:   l.GeoError,
		ViewerZone: l.Zone,
	}
	if l.HasCoords {
		req.Coords = &weather.Coordinates{Lat: l.Lat, Lon: l.Lon}
	}
	return req
}

func parseLocationQuery(c *fiber.Ctx) (weather.Request, error) {
	var q locationQuery

	q.City = strings.TrimSpace(c.Query("city"))

	lat, err := parseOptionalFloat(c.Query("lat"), "lat")
	if err != nil {
		return weather.Request{}, err
	}
	lon, err := parseOptionalFloat(c.Query("lon"), "lon")
	if err != nil {
		return weather.Request{}, err
	}
	if (lat == nil) != (lon == nil) {
		return weather.Request{}, errors.New("lat and lon must be provided together")
	}
	if lat != nil {
		q.Lat, q.Lon, q.HasCoords = *lat, *lon, true
	}

	if s := c.Query("geo_error"); s != "" {
		q.GeoError, err = strconv.ParseBool(s)
		if err != nil {
			return weather.Request{}, errors.New("geo_error must be a boolean")
		}
	}

	q.TZ = strings.TrimSpace(c.Query("tz"))

	if err := validate.Struct(q); err != nil {
		return weather.Request{}, err
	}

	// tz is the viewer's IANA zone, e.g. "Asia/Tokyo".
	if q.TZ != "" {
		q.Zone, err = time.LoadLocation(q.TZ)
		if err != nil {
			return weather.Request{}, errors.New("invalid tz; use an IANA zone name such as Europe/London")
		}
	}

	return q.toRequest(), nil
}

func parseOptionalFloat(s, name string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("invalid " + name + "; use decimal degrees")
	}
	return &v, nil
}

// settingsUpdate is the body of PUT /pages/settings. Absent fields are unchanged.
type settingsUpdate struct {
	DefaultCity *string `json:"defaultCity" validate:"omitempty,min=1,max=100"`
	Theme       *string `json:"theme" validate:"omitempty,oneof=light dark system"`
}
