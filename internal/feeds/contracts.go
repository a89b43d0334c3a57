package feeds

import "perfscore/internal/metrics"

// layout is the column-index contract of one feed. -1 marks a column the
// feed does not have.
type layout struct {
	team       int
	objective  int
	indicator  int
	key        int
	kind       int
	trend      int
	date       int
	meta       int
	result     int
	mode       int
	competency int

	fixedKind  metrics.MeasureKind
	fixedTrend metrics.Trend
}

var layouts = map[metrics.Source]layout{
	// team | indicator | key | unit | trend | date | meta | result | objective | mode
	metrics.SourceKPI: {
		team: 0, indicator: 1, key: 2, kind: 3, trend: 4, date: 5,
		meta: 6, result: 7, objective: 8, mode: 9, competency: -1,
	},
	// team | objective | key result | kr id | unit | trend | meta | result | date | mode | competency
	metrics.SourceOKR: {
		team: 0, objective: 1, indicator: 2, key: 3, kind: 4, trend: 5,
		meta: 6, result: 7, date: 8, mode: 9, competency: 10,
	},
	// team | project | project id | date | planned % | realized % | mode
	metrics.SourceProject: {
		team: 0, indicator: 1, key: 2, date: 3, meta: 4, result: 5, mode: 6,
		objective: -1, kind: -1, trend: -1, competency: -1,
		fixedKind:  metrics.MeasurePercent,
		fixedTrend: metrics.HigherBetter,
	},
}
