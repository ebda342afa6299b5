package usage

import (
	"sort"
	"time"
)

// Period selects the reporting window and bucket width.
type Period string

const (
	PeriodHourly  Period = "hourly"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod normalizes a period string, falling back to daily.
// This is a PURE function.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return Period(s)
	default:
		return PeriodDaily
	}
}

// Buckets returns the number of time-series buckets for a period.
// This is a PURE function.
func (p Period) Buckets() int {
	switch p {
	case PeriodHourly:
		return 24
	case PeriodWeekly:
		return 12
	case PeriodMonthly:
		return 12
	case PeriodYearly:
		return 5
	default: // daily
		return 30
	}
}

// BucketStart truncates t to the start of its bucket.
// This is a PURE function.
func (p Period) BucketStart(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodHourly:
		return t.Truncate(time.Hour)
	case PeriodWeekly:
		// ISO-ish weeks anchored on Monday.
		day := t.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case PeriodYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t.Truncate(24 * time.Hour)
	}
}

// Next advances a bucket start to the following bucket.
// This is a PURE function.
func (p Period) Next(t time.Time) time.Time {
	switch p {
	case PeriodHourly:
		return t.Add(time.Hour)
	case PeriodWeekly:
		return t.AddDate(0, 0, 7)
	case PeriodMonthly:
		return t.AddDate(0, 1, 0)
	case PeriodYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Label formats a bucket start for charting.
// This is a PURE function.
func (p Period) Label(t time.Time) string {
	switch p {
	case PeriodHourly:
		return t.UTC().Format("2006-01-02 15:00")
	case PeriodMonthly:
		return t.UTC().Format("2006-01")
	case PeriodYearly:
		return t.UTC().Format("2006")
	default:
		return t.UTC().Format("2006-01-02")
	}
}

// WindowStart returns the inclusive start of the lookback window ending at
// now: the earliest bucket that still appears in the time series.
// This is a PURE function.
func (p Period) WindowStart(now time.Time) time.Time {
	end := p.BucketStart(now)
	for i := 1; i < p.Buckets(); i++ {
		end = previous(p, end)
	}
	return end
}

func previous(p Period, t time.Time) time.Time {
	switch p {
	case PeriodHourly:
		return t.Add(-time.Hour)
	case PeriodWeekly:
		return t.AddDate(0, 0, -7)
	case PeriodMonthly:
		return t.AddDate(0, -1, 0)
	case PeriodYearly:
		return t.AddDate(-1, 0, 0)
	default:
		return t.AddDate(0, 0, -1)
	}
}

// ServiceBreakdown is per-service aggregated usage (value type).
type ServiceBreakdown struct {
	ServiceID   string
	ServiceName string
	Calls       int64
	TotalTokens int64
	Cost        float64
}

// Stats is aggregated usage for one user over one period (value type).
type Stats struct {
	Period      Period
	Calls       int64
	TotalTokens int64
	Cost        float64
	ByService   []ServiceBreakdown
}

// Point is one dense time-series bucket (value type).
type Point struct {
	Date        string
	Calls       int64
	TotalTokens int64
	Cost        float64
}

// Aggregate folds events into Stats with a per-service breakdown ordered by
// calls descending (ties broken by service ID for determinism).
// This is a PURE function.
func Aggregate(events []Event, period Period, names map[string]string) Stats {
	stats := Stats{Period: period}
	byService := make(map[string]*ServiceBreakdown)

	for _, e := range events {
		stats.Calls++
		stats.TotalTokens += e.TotalTokens
		stats.Cost += e.Cost

		b, ok := byService[e.ServiceID]
		if !ok {
			b = &ServiceBreakdown{ServiceID: e.ServiceID, ServiceName: names[e.ServiceID]}
			byService[e.ServiceID] = b
		}
		b.Calls++
		b.TotalTokens += e.TotalTokens
		b.Cost += e.Cost
	}

	for _, b := range byService {
		stats.ByService = append(stats.ByService, *b)
	}
	sort.Slice(stats.ByService, func(i, j int) bool {
		if stats.ByService[i].Calls != stats.ByService[j].Calls {
			return stats.ByService[i].Calls > stats.ByService[j].Calls
		}
		return stats.ByService[i].ServiceID < stats.ByService[j].ServiceID
	})
	return stats
}

// FillSeries produces one Point per bucket of the period's lookback window
// ending at now. Buckets without activity appear with zero values so charts
// can assume a dense, contiguous sequence. sparse maps bucket labels to
// partially aggregated points (Date may be unset).
// This is a PURE function.
func FillSeries(period Period, now time.Time, sparse map[string]Point) []Point {
	points := make([]Point, 0, period.Buckets())
	t := period.WindowStart(now)
	for i := 0; i < period.Buckets(); i++ {
		label := period.Label(t)
		p := sparse[label]
		p.Date = label
		points = append(points, p)
		t = period.Next(t)
	}
	return points
}

// SeriesFromEvents buckets events and fills the gaps in one step.
// This is a PURE function.
func SeriesFromEvents(events []Event, period Period, now time.Time) []Point {
	sparse := make(map[string]Point)
	start := period.WindowStart(now)
	for _, e := range events {
		if e.Timestamp.Before(start) {
			continue
		}
		label := period.Label(period.BucketStart(e.Timestamp))
		p := sparse[label]
		p.Calls++
		p.TotalTokens += e.TotalTokens
		p.Cost += e.Cost
		sparse[label] = p
	}
	return FillSeries(period, now, sparse)
}
