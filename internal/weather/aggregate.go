package weather

import (
	"fmt"
	"strings"
	"time"
)

// MaxDays caps the number of daily summaries returned by AggregateByDay.
const MaxDays = 7

// Midday window used to pick a day's representative sample (inclusive hours).
const (
	middayFromHour = 11
	middayToHour   = 13
)

// AggregateByDay groups samples by calendar date in loc and folds each group
// into a DailySummary. Groups keep the order in which their date was first seen
// in the input, and at most MaxDays groups are returned. A nil loc means the
// process' local zone.
//
// The input slice is never modified; every summary owns a fresh Samples slice.
func AggregateByDay(samples []ForecastSample, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.Local
	}

	var (
		order  []Date
		groups = make(map[Date][]ForecastSample)
	)

	for _, s := range samples {
		d := DateOf(s.Time().In(loc))
		if _, seen := groups[d]; !seen {
			order = append(order, d)
		}
		groups[d] = append(groups[d], s)
	}

	if len(order) > MaxDays {
		order = order[:MaxDays]
	}

	out := make([]DailySummary, 0, len(order))
	for _, d := range order {
		out = append(out, summarize(d, groups[d], loc))
	}
	return out
}

// summarize folds a non-empty group of samples.
func summarize(d Date, group []ForecastSample, loc *time.Location) DailySummary {
	minT, maxT := group[0].Temperature, group[0].Temperature
	for _, s := range group[1:] {
		if s.Temperature < minT {
			minT = s.Temperature
		}
		if s.Temperature > maxT {
			maxT = s.Temperature
		}
	}

	return DailySummary{
		Date:           d,
		Representative: representative(group, loc),
		MinTemperature: minT,
		MaxTemperature: maxT,
		Samples:        group,
	}
}

// representative picks the first midday sample, or the middle one when the
// group has none.
func representative(group []ForecastSample, loc *time.Location) ForecastSample {
	for _, s := range group {
		h := s.Time().In(loc).Hour()
		if h >= middayFromHour && h <= middayToHour {
			return s
		}
	}
	return group[len(group)/2]
}

// UpcomingDays returns one sample per provider day (every 8th sample of a 3-hour
// series), skipping the first, limited to n entries.
func UpcomingDays(samples []ForecastSample, n int) []ForecastSample {
	const perDay = 8

	out := make([]ForecastSample, 0, n)
	for i := perDay; i < len(samples) && len(out) < n; i += perDay {
		out = append(out, samples[i])
	}
	return out
}

// ZoneMode selects which zone defines a "day" for aggregation.
type ZoneMode string

const (
	// ZoneLocal uses the zone of the running process (the viewer's zone).
	ZoneLocal ZoneMode = "local"
	// ZoneUTC uses UTC day boundaries.
	ZoneUTC ZoneMode = "utc"
	// ZoneCity uses the forecast location's own UTC offset.
	ZoneCity ZoneMode = "city"
)

// ParseZoneMode parses a DAY_BOUNDARY value. Empty means ZoneLocal.
func ParseZoneMode(s string) (ZoneMode, error) {
	switch m := ZoneMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ZoneLocal, nil
	case ZoneLocal, ZoneUTC, ZoneCity:
		return m, nil
	default:
		return "", fmt.Errorf("unknown day boundary mode %q", s)
	}
}

// ZoneFor resolves the aggregation zone for a forecast location.
func ZoneFor(mode ZoneMode, l Location) *time.Location {
	switch mode {
	case ZoneUTC:
		return time.UTC
	case ZoneCity:
		return time.FixedZone(cityZoneName(l), l.TimezoneOffset)
	default:
		return time.Local
	}
}

func cityZoneName(l Location) string {
	if l.Name == "" {
		return "city"
	}
	return l.Name
}
