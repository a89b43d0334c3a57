package teams

import (
	"sort"

	"perfscore/internal/metrics"
)

// ResolveStats summarises a resolution pass.
type ResolveStats struct {
	Mapped   int                         `json:"mapped"`
	FanOut   int                         `json:"fan_out"`
	Excluded int                         `json:"excluded"`
	Unknown  map[metrics.Source][]string `json:"unknown,omitempty"`
}

// ResolveRecords assigns a canonical team to every record. A record whose
// source team fans out to several canonical teams is copied once per team;
// records of excluded source teams are dropped. The input is not modified.
func ResolveRecords(records []metrics.MetricRecord, reg *Registry) ([]metrics.MetricRecord, ResolveStats) {
	var stats ResolveStats
	unknown := make(map[metrics.Source]map[string]struct{})
	out := make([]metrics.MetricRecord, 0, len(records))

	for _, rec := range records {
		res := reg.Resolve(rec.Source, rec.SourceTeamName)
		switch res.Status {
		case StatusExcluded:
			stats.Excluded++
			continue
		case StatusUnknown:
			if unknown[rec.Source] == nil {
				unknown[rec.Source] = make(map[string]struct{})
			}
			unknown[rec.Source][res.Teams[0]] = struct{}{}
		default:
			stats.Mapped++
			if len(res.Teams) > 1 {
				stats.FanOut += len(res.Teams) - 1
			}
		}
		for _, team := range res.Teams {
			copied := rec
			copied.CanonicalTeam = team
			out = append(out, copied)
		}
	}

	if len(unknown) > 0 {
		stats.Unknown = make(map[metrics.Source][]string, len(unknown))
		for src, names := range unknown {
			list := make([]string, 0, len(names))
			for name := range names {
				list = append(list, name)
			}
			sort.Strings(list)
			stats.Unknown[src] = list
		}
	}
	return out, stats
}
