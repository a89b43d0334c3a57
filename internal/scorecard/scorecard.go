package scorecard

import (
	"sort"

	"github.com/shopspring/decimal"

	"perfscore/internal/metrics"
)

// DefaultBar is the overall attainment a team needs to meet the bar.
const DefaultBar = 80.0

// Options controls aggregation.
type Options struct {
	Bar float64
	// Clamp caps per-source attainment before it enters an average. A
	// missing or non-positive entry leaves that source unclamped.
	Clamp map[metrics.Source]float64
}

// DefaultOptions reproduces the portal's behaviour: OKR attainment is capped
// at 100 while KPI and project attainment are not.
func DefaultOptions() Options {
	return Options{
		Bar:   DefaultBar,
		Clamp: map[metrics.Source]float64{metrics.SourceOKR: 100},
	}
}

// TeamDirectory tells configured teams apart from unknown-bucket names.
type TeamDirectory interface {
	IsCanonical(id string) bool
}

// TeamScorecard is one team's combined attainment for a period.
type TeamScorecard struct {
	Rank           int      `json:"rank"`
	Team           string   `json:"team"`
	KPIAvg         *float64 `json:"kpi_avg"`
	OKRAvg         *float64 `json:"okr_avg"`
	ProjectAvg     *float64 `json:"project_avg"`
	OverallAvg     float64  `json:"overall_avg"`
	IndicatorCount int      `json:"indicator_count"`
	MeetsBar       bool     `json:"meets_bar"`
	HasSignal      bool     `json:"has_signal"`
	Unmapped       bool     `json:"unmapped,omitempty"`
}

// Set is the scorecard of every team plus the headline numbers.
type Set struct {
	Period            metrics.Period  `json:"period"`
	Bar               float64         `json:"bar"`
	Scorecards        []TeamScorecard `json:"scorecards"`
	TeamsWithSignal   int             `json:"teams_with_signal"`
	TeamsMeetingBar   int             `json:"teams_meeting_bar"`
	PercentMeetingBar float64         `json:"percent_meeting_bar"`
}

// Aggregate averages indicator results per team and source, combines the
// source averages with equal weight, and ranks the teams. Results without a
// value are left out of every average.
func Aggregate(period metrics.Period, results []metrics.IndicatorResult, opts Options, dir TeamDirectory) Set {
	type acc struct {
		values map[metrics.Source][]decimal.Decimal
		count  int
	}
	byTeam := make(map[string]*acc)
	for _, r := range results {
		a, ok := byTeam[r.Key.Team]
		if !ok {
			a = &acc{values: make(map[metrics.Source][]decimal.Decimal)}
			byTeam[r.Key.Team] = a
		}
		v := r.Result.Value
		if v == nil {
			continue
		}
		v = metrics.Clamp(v, opts.Clamp[r.Key.Source])
		a.values[r.Key.Source] = append(a.values[r.Key.Source], decimal.NewFromFloat(*v))
		a.count++
	}

	set := Set{Period: period, Bar: opts.Bar, Scorecards: make([]TeamScorecard, 0, len(byTeam))}
	for team, a := range byTeam {
		card := TeamScorecard{
			Team:           team,
			KPIAvg:         mean(a.values[metrics.SourceKPI]),
			OKRAvg:         mean(a.values[metrics.SourceOKR]),
			ProjectAvg:     mean(a.values[metrics.SourceProject]),
			IndicatorCount: a.count,
			Unmapped:       dir != nil && !dir.IsCanonical(team),
		}
		var available []decimal.Decimal
		for _, avg := range []*float64{card.KPIAvg, card.OKRAvg, card.ProjectAvg} {
			if avg != nil {
				available = append(available, decimal.NewFromFloat(*avg))
			}
		}
		if overall := mean(available); overall != nil {
			card.OverallAvg = *overall
			card.HasSignal = true
			card.MeetsBar = card.OverallAvg >= opts.Bar
		}
		set.Scorecards = append(set.Scorecards, card)
	}

	sort.Slice(set.Scorecards, func(i, j int) bool {
		a, b := set.Scorecards[i], set.Scorecards[j]
		if a.HasSignal != b.HasSignal {
			return a.HasSignal
		}
		if a.OverallAvg != b.OverallAvg {
			return a.OverallAvg > b.OverallAvg
		}
		return a.Team < b.Team
	})
	for i := range set.Scorecards {
		card := &set.Scorecards[i]
		card.Rank = i + 1
		if card.HasSignal {
			set.TeamsWithSignal++
			if card.MeetsBar {
				set.TeamsMeetingBar++
			}
		}
	}
	if set.TeamsWithSignal > 0 {
		set.PercentMeetingBar = float64(set.TeamsMeetingBar) * 100 / float64(set.TeamsWithSignal)
	}
	return set
}

// Below returns the teams with signal that miss the bar, worst first.
func (s Set) Below() []TeamScorecard {
	var out []TeamScorecard
	for _, card := range s.Scorecards {
		if card.HasSignal && !card.MeetsBar {
			out = append(out, card)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OverallAvg != out[j].OverallAvg {
			return out[i].OverallAvg < out[j].OverallAvg
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// Team returns the scorecard for id, if present.
func (s Set) Team(id string) (TeamScorecard, bool) {
	for _, card := range s.Scorecards {
		if card.Team == id {
			return card, true
		}
	}
	return TeamScorecard{}, false
}

func mean(values []decimal.Decimal) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(len(values)))).Float64()
	return &f
}
