package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Source identifies which feed a record came from.
type Source string

const (
	SourceKPI     Source = "kpi"
	SourceOKR     Source = "okr"
	SourceProject Source = "project"
)

// Sources lists every feed in reporting order.
var Sources = []Source{SourceKPI, SourceOKR, SourceProject}

// ParseSource accepts the lower-case feed tag.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceKPI:
		return SourceKPI, nil
	case SourceOKR:
		return SourceOKR, nil
	case SourceProject:
		return SourceProject, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// MeasureKind is the unit a record's meta and result are expressed in.
type MeasureKind string

const (
	MeasureCurrency MeasureKind = "CURRENCY"
	MeasurePercent  MeasureKind = "PERCENT"
	MeasureInteger  MeasureKind = "INTEGER"
)

// Trend tells whether a bigger result is an improvement.
type Trend string

const (
	HigherBetter Trend = "HIGHER_BETTER"
	LowerBetter  Trend = "LOWER_BETTER"
)

// Mode selects the attainment formula for an indicator.
type Mode string

const (
	ModeAccumulated Mode = "ACCUMULATED"
	ModeEvolution   Mode = "EVOLUTION"
	ModeAverage     Mode = "AVERAGE"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeAccumulated, ModeEvolution, ModeAverage:
		return true
	}
	return false
}

// Period locates a record in time. Month and Quarter are zero when unknown.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter,omitempty"`
	Month   int `json:"month,omitempty"`
}

// MonthPeriod builds a fully populated month period.
func MonthPeriod(year, month int) Period {
	return Period{Year: year, Quarter: QuarterOf(month), Month: month}
}

// PeriodFromDate derives month, quarter and year from a calendar date.
func PeriodFromDate(t time.Time) Period {
	return MonthPeriod(t.Year(), int(t.Month()))
}

// QuarterOf returns ceil(month/3).
func QuarterOf(month int) int {
	if month <= 0 {
		return 0
	}
	return (month + 2) / 3
}

// IsZero reports whether the period was never set.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Quarter == 0 && p.Month == 0
}

// EndMonth is the last calendar month the period covers.
func (p Period) EndMonth() int {
	switch {
	case p.Month > 0:
		return p.Month
	case p.Quarter > 0:
		return p.Quarter * 3
	default:
		return 12
	}
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.EndMonth() < o.EndMonth()
}

// Granularity names the resolution of the period.
func (p Period) Granularity() string {
	switch {
	case p.Month > 0:
		return "month"
	case p.Quarter > 0:
		return "quarter"
	default:
		return "year"
	}
}

func (p Period) String() string {
	switch {
	case p.Month > 0:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	case p.Quarter > 0:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// MetricRecord is one normalised row. Meta and Result are nil when the
// source cell was blank, which is not the same as a parsed zero.
type MetricRecord struct {
	Source         Source      `json:"source"`
	SourceTeamName string      `json:"source_team"`
	CanonicalTeam  string      `json:"team,omitempty"`
	Objective      string      `json:"objective,omitempty"`
	IndicatorName  string      `json:"indicator"`
	IndicatorKey   string      `json:"indicator_key,omitempty"`
	Period         Period      `json:"period"`
	Date           *time.Time  `json:"date,omitempty"`
	MeasureKind    MeasureKind `json:"measure_kind"`
	Meta           *float64    `json:"meta"`
	Result         *float64    `json:"result"`
	Trend          Trend       `json:"trend"`
	Mode           Mode        `json:"mode"`
	// Seq is the position the row was read at; later rows win ties.
	Seq int `json:"-"`
}

// SeriesKey identifies one indicator of one team in one feed.
type SeriesKey struct {
	Source       Source `json:"source"`
	Team         string `json:"team"`
	IndicatorKey string `json:"indicator_key"`
	Granularity  string `json:"granularity"`
}

func (k SeriesKey) String() string {
	return string(k.Source) + "/" + k.Team + "/" + k.IndicatorKey + "/" + k.Granularity
}

func (k SeriesKey) less(o SeriesKey) bool {
	if k.Source != o.Source {
		return sourceRank(k.Source) < sourceRank(o.Source)
	}
	if k.Team != o.Team {
		return k.Team < o.Team
	}
	if k.IndicatorKey != o.IndicatorKey {
		return k.IndicatorKey < o.IndicatorKey
	}
	return k.Granularity < o.Granularity
}

func sourceRank(s Source) int {
	for i, src := range Sources {
		if src == s {
			return i
		}
	}
	return len(Sources)
}

// IndicatorSeries is a chronologically ordered run of records with one
// record per period.
type IndicatorSeries struct {
	Key           SeriesKey      `json:"key"`
	IndicatorName string         `json:"indicator"`
	Mode          Mode           `json:"mode"`
	Trend         Trend          `json:"trend"`
	Records       []MetricRecord `json:"records"`
}

// AttainmentResult is a direction-adjusted percentage. Value is nil when the
// series carries no signal for the period.
type AttainmentResult struct {
	Value  *float64 `json:"value"`
	Basis  Mode     `json:"basis"`
	Period Period   `json:"period"`
}

// HasValue reports whether the result carries a signal.
func (r AttainmentResult) HasValue() bool {
	return r.Value != nil
}

// IndicatorResult pairs a series identity with its attainment for a target.
type IndicatorResult struct {
	Key           SeriesKey        `json:"key"`
	IndicatorName string           `json:"indicator"`
	Result        AttainmentResult `json:"result"`
}

// SortIndicatorResults orders results by source, team and indicator.
func SortIndicatorResults(results []IndicatorResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Key.less(results[j].Key)
	})
}

func ptr(v float64) *float64 {
	return &v
}
