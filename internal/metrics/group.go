package metrics

import (
	"sort"
	"strings"
)

// GroupStats counts records the grouper could not place.
type GroupStats struct {
	Records    int `json:"records"`
	NoPeriod   int `json:"no_period"`
	NoTeam     int `json:"no_team"`
	Superseded int `json:"superseded"`
}

// IndicatorKeyFor returns the record's stable indicator identity. A key
// supplied by the feed wins; otherwise one is synthesised from objective and
// indicator name so repeated runs agree.
func IndicatorKeyFor(rec MetricRecord) string {
	if key := strings.TrimSpace(rec.IndicatorKey); key != "" {
		return key
	}
	objective := normalizeKeyPart(rec.Objective)
	name := normalizeKeyPart(rec.IndicatorName)
	if objective == "" {
		return name
	}
	return objective + "::" + name
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// Group buckets resolved records into indicator series keyed by
// (source, canonical team, indicator, granularity). Records without an
// explicit period have it inferred from their date. Within a period the
// record read last wins.
func Group(records []MetricRecord) (map[SeriesKey]*IndicatorSeries, GroupStats) {
	stats := GroupStats{Records: len(records)}
	type slot struct {
		rec MetricRecord
		idx int
	}
	byKey := make(map[SeriesKey]map[Period]slot)

	for idx, rec := range records {
		if rec.CanonicalTeam == "" {
			stats.NoTeam++
			continue
		}
		if rec.Period.IsZero() || rec.Period.Year == 0 {
			if rec.Date == nil {
				stats.NoPeriod++
				continue
			}
			rec.Period = PeriodFromDate(*rec.Date)
		}
		if rec.Period.Month > 0 && rec.Period.Quarter == 0 {
			rec.Period.Quarter = QuarterOf(rec.Period.Month)
		}
		rec.IndicatorKey = IndicatorKeyFor(rec)

		key := SeriesKey{
			Source:       rec.Source,
			Team:         rec.CanonicalTeam,
			IndicatorKey: rec.IndicatorKey,
			Granularity:  rec.Period.Granularity(),
		}
		periods, ok := byKey[key]
		if !ok {
			periods = make(map[Period]slot)
			byKey[key] = periods
		}
		if prev, exists := periods[rec.Period]; exists {
			stats.Superseded++
			if later(prev.rec, prev.idx, rec, idx) {
				continue
			}
		}
		periods[rec.Period] = slot{rec: rec, idx: idx}
	}

	out := make(map[SeriesKey]*IndicatorSeries, len(byKey))
	for key, periods := range byKey {
		recs := make([]MetricRecord, 0, len(periods))
		for _, s := range periods {
			recs = append(recs, s.rec)
		}
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Period.Before(recs[j].Period)
		})
		last := recs[len(recs)-1]
		out[key] = &IndicatorSeries{
			Key:           key,
			IndicatorName: last.IndicatorName,
			Mode:          last.Mode,
			Trend:         last.Trend,
			Records:       recs,
		}
	}
	return out, stats
}

// later reports whether the existing record should be kept over the
// candidate. Seq is the feed read order; the slice index breaks ties for
// records fanned out from the same row.
func later(existing MetricRecord, existingIdx int, candidate MetricRecord, candidateIdx int) bool {
	if existing.Seq != candidate.Seq {
		return existing.Seq > candidate.Seq
	}
	return existingIdx > candidateIdx
}

// SortedKeys returns series keys in reporting order.
func SortedKeys(series map[SeriesKey]*IndicatorSeries) []SeriesKey {
	keys := make([]SeriesKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}
