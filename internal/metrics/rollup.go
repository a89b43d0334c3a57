package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TargetKind is the granularity a rollup is evaluated at.
type TargetKind string

const (
	TargetMonth   TargetKind = "month"
	TargetQuarter TargetKind = "quarter"
	TargetYear    TargetKind = "year"
)

// Target is the period a scorecard is computed for. A year target means
// "year so far".
type Target struct {
	Kind    TargetKind `json:"kind"`
	Year    int        `json:"year"`
	Quarter int        `json:"quarter,omitempty"`
	Month   int        `json:"month,omitempty"`
}

// ParseTarget accepts "2024", "2024-Q2" and "2024-03".
func ParseTarget(s string) (Target, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Target{}, fmt.Errorf("target period is required")
	}
	yearPart, rest, hasRest := strings.Cut(s, "-")
	year, err := strconv.Atoi(yearPart)
	if err != nil || year < 1 {
		return Target{}, fmt.Errorf("invalid target year %q", yearPart)
	}
	if !hasRest {
		return Target{Kind: TargetYear, Year: year}, nil
	}
	if strings.HasPrefix(rest, "Q") {
		q, err := strconv.Atoi(rest[1:])
		if err != nil || q < 1 || q > 4 {
			return Target{}, fmt.Errorf("invalid target quarter %q", rest)
		}
		return Target{Kind: TargetQuarter, Year: year, Quarter: q}, nil
	}
	m, err := strconv.Atoi(rest)
	if err != nil || m < 1 || m > 12 {
		return Target{}, fmt.Errorf("invalid target month %q", rest)
	}
	return Target{Kind: TargetMonth, Year: year, Quarter: QuarterOf(m), Month: m}, nil
}

// YearToDate is the default target: the year containing now.
func YearToDate(now time.Time) Target {
	return Target{Kind: TargetYear, Year: now.Year()}
}

// Period is the period results for this target are reported under.
func (t Target) Period() Period {
	switch t.Kind {
	case TargetMonth:
		return MonthPeriod(t.Year, t.Month)
	case TargetQuarter:
		return Period{Year: t.Year, Quarter: t.Quarter}
	default:
		return Period{Year: t.Year}
	}
}

func (t Target) String() string {
	return t.Period().String()
}

// Validate rejects targets that were not built by ParseTarget or the
// constructors above.
func (t Target) Validate() error {
	if t.Year < 1 {
		return fmt.Errorf("target year must be positive")
	}
	switch t.Kind {
	case TargetYear:
		return nil
	case TargetQuarter:
		if t.Quarter < 1 || t.Quarter > 4 {
			return fmt.Errorf("target quarter %d out of range", t.Quarter)
		}
		return nil
	case TargetMonth:
		if t.Month < 1 || t.Month > 12 {
			return fmt.Errorf("target month %d out of range", t.Month)
		}
		return nil
	}
	return fmt.Errorf("unknown target kind %q", t.Kind)
}

func (t Target) endMonth() int {
	return t.Period().EndMonth()
}

func (t Target) contains(p Period) bool {
	if p.Year != t.Year {
		return false
	}
	switch t.Kind {
	case TargetQuarter:
		q := p.Quarter
		if q == 0 && p.Month > 0 {
			q = QuarterOf(p.Month)
		}
		return q == t.Quarter
	case TargetMonth:
		return p.Month == t.Month
	}
	return true
}

// Rollup evaluates a series for a target. Month targets look up the record
// for that exact month and evaluate it as a point; a missing month yields no
// value rather than zero. Quarter and year targets apply the series mode to
// the records inside the range.
func Rollup(series *IndicatorSeries, target Target) AttainmentResult {
	period := target.Period()
	if series == nil {
		return AttainmentResult{Period: period}
	}
	if target.Kind == TargetMonth {
		for _, rec := range series.Records {
			if rec.Period.Year == target.Year && rec.Period.Month == target.Month {
				res := Point(rec)
				res.Period = period
				return res
			}
		}
		return AttainmentResult{Basis: series.Mode, Period: period}
	}

	var inRange []MetricRecord
	for _, rec := range series.Records {
		if target.contains(rec.Period) {
			inRange = append(inRange, rec)
		}
	}
	switch series.Mode {
	case ModeAccumulated:
		return Accumulated(inRange, series.Trend, period)
	case ModeEvolution, ModeAverage:
		return LatestAgainstFinal(inRange, series.Trend, series.Mode, period, target.endMonth())
	}
	return AttainmentResult{Basis: series.Mode, Period: period}
}

// RollupAll evaluates every series for target, in reporting order.
func RollupAll(series map[SeriesKey]*IndicatorSeries, target Target) []IndicatorResult {
	keys := SortedKeys(series)
	out := make([]IndicatorResult, 0, len(keys))
	for _, key := range keys {
		s := series[key]
		out = append(out, IndicatorResult{
			Key:           key,
			IndicatorName: s.IndicatorName,
			Result:        Rollup(s, target),
		})
	}
	return out
}

// Timeline is the drill-down view of one indicator across a year.
type Timeline struct {
	Key      SeriesKey          `json:"key"`
	Months   []AttainmentResult `json:"months"`
	Quarters []AttainmentResult `json:"quarters"`
	Year     AttainmentResult   `json:"year"`
}

// YearTimeline evaluates a series for every month and quarter of year plus
// the year itself.
func YearTimeline(series *IndicatorSeries, year int) Timeline {
	tl := Timeline{
		Months:   make([]AttainmentResult, 0, 12),
		Quarters: make([]AttainmentResult, 0, 4),
	}
	if series != nil {
		tl.Key = series.Key
	}
	for m := 1; m <= 12; m++ {
		tl.Months = append(tl.Months, Rollup(series, Target{Kind: TargetMonth, Year: year, Quarter: QuarterOf(m), Month: m}))
	}
	for q := 1; q <= 4; q++ {
		tl.Quarters = append(tl.Quarters, Rollup(series, Target{Kind: TargetQuarter, Year: year, Quarter: q}))
	}
	tl.Year = Rollup(series, Target{Kind: TargetYear, Year: year})
	return tl
}
