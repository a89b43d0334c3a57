package report

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"perfscore/internal/scorecard"
)

// TeamChange is the movement of one team's overall attainment between two
// reports. Before or After is nil when the team is missing on that side.
type TeamChange struct {
	Team   string   `json:"team"`
	Before *float64 `json:"before"`
	After  *float64 `json:"after"`
	Delta  float64  `json:"delta"`
}

// Changes lists teams whose overall average or presence differs.
func Changes(a, b *Report) []TeamChange {
	before := overallByTeam(a)
	after := overallByTeam(b)

	names := make(map[string]struct{}, len(before)+len(after))
	for name := range before {
		names[name] = struct{}{}
	}
	for name := range after {
		names[name] = struct{}{}
	}

	var out []TeamChange
	for name := range names {
		bv, bok := before[name]
		av, aok := after[name]
		if bok && aok && bv == av {
			continue
		}
		ch := TeamChange{Team: name}
		if bok {
			ch.Before = &bv
		}
		if aok {
			ch.After = &av
		}
		if bok && aok {
			ch.Delta = av - bv
		}
		out = append(out, ch)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := math.Abs(out[i].Delta), math.Abs(out[j].Delta)
		if di != dj {
			return di > dj
		}
		return out[i].Team < out[j].Team
	})
	return out
}

func overallByTeam(r *Report) map[string]float64 {
	out := make(map[string]float64)
	if r == nil || r.Result == nil {
		return out
	}
	for _, sc := range r.Result.Scorecards.Scorecards {
		out[sc.Team] = sc.OverallAvg
	}
	return out
}

// UnifiedDiff renders the scorecard sets of two reports as a unified diff.
// Equal scorecards give an empty string.
func UnifiedDiff(a, b *Report, fromName, toName string) (string, error) {
	left, err := scorecardLines(a)
	if err != nil {
		return "", err
	}
	right, err := scorecardLines(b)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        left,
		B:        right,
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
}

func scorecardLines(r *Report) ([]string, error) {
	var set scorecard.Set
	if r != nil && r.Result != nil {
		set = r.Result.Scorecards
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scorecards: %w", err)
	}
	return difflib.SplitLines(string(data) + "\n"), nil
}
