// Package scorecard combines per-indicator attainment into per-team
// scorecards and the headline share of teams meeting the bar.
//
// Averages are taken over results that carry a value only. A source with no
// valued result leaves that average nil, and the overall average is the
// equal-weight mean of whichever source averages exist.
package scorecard
