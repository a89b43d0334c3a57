package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"perfscore/internal/feeds"
	"perfscore/internal/metrics"
	"perfscore/internal/scorecard"
	"perfscore/internal/teams"
)

// Options is the full engine configuration. It is passed by value so the
// same engine code can run against different configurations side by side.
type Options struct {
	Normalize feeds.Options
	Scorecard scorecard.Options
	// Timelines adds a per-indicator month/quarter/year breakdown for the
	// target year to the result.
	Timelines bool
}

// DefaultOptions returns the production configuration.
func DefaultOptions() Options {
	return Options{
		Normalize: feeds.Options{ModeDefaults: feeds.DefaultModes()},
		Scorecard: scorecard.DefaultOptions(),
	}
}

// Diagnostics collects the per-stage counters of one run.
type Diagnostics struct {
	Normalize feeds.Diagnostics  `json:"normalize"`
	Resolve   teams.ResolveStats `json:"resolve"`
	Group     metrics.GroupStats `json:"group"`
	Series    int                `json:"series"`
}

// Result is everything one refresh produces. Treat it as read-only; cached
// results are shared between callers.
type Result struct {
	Target      metrics.Target            `json:"target"`
	RowHash     string                    `json:"row_hash"`
	Scorecards  scorecard.Set             `json:"scorecards"`
	Indicators  []metrics.IndicatorResult `json:"indicators"`
	Timelines   []metrics.Timeline        `json:"timelines,omitempty"`
	Diagnostics Diagnostics               `json:"diagnostics"`
}

// Run takes raw rows from all three feeds to team scorecards for target.
// It has no side effects: identical inputs give identical results.
func Run(rows []feeds.RawRow, reg *teams.Registry, target metrics.Target, opts Options) (*Result, error) {
	if reg == nil {
		return nil, fmt.Errorf("alias registry is required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	records, normDiag := feeds.NormalizeAll(rows, opts.Normalize)
	resolved, resolveStats := teams.ResolveRecords(records, reg)
	series, groupStats := metrics.Group(resolved)
	indicators := metrics.RollupAll(series, target)

	res := &Result{
		Target:     target,
		RowHash:    HashRows(rows),
		Scorecards: scorecard.Aggregate(target.Period(), indicators, opts.Scorecard, reg),
		Indicators: indicators,
		Diagnostics: Diagnostics{
			Normalize: normDiag,
			Resolve:   resolveStats,
			Group:     groupStats,
			Series:    len(series),
		},
	}
	if opts.Timelines {
		for _, key := range metrics.SortedKeys(series) {
			res.Timelines = append(res.Timelines, metrics.YearTimeline(series[key], target.Year))
		}
	}
	return res, nil
}

// HashRows fingerprints the input rows in order.
func HashRows(rows []feeds.RawRow) string {
	h := sha256.New()
	for _, row := range rows {
		h.Write([]byte(row.Source))
		for _, cell := range row.Cells {
			h.Write([]byte{0x1f})
			h.Write([]byte(cell))
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}
