package feeds

import (
	"strings"

	"perfscore/internal/metrics"
)

// RawRow is one spreadsheet row exactly as read, header rows already
// stripped by the caller.
type RawRow struct {
	Source metrics.Source `json:"source"`
	Cells  []string       `json:"cells"`
}

// Options carries the configuration the normaliser depends on.
type Options struct {
	// ModeDefaults fills the measurement mode when a row's tag is blank or
	// unrecognised.
	ModeDefaults map[metrics.Source]metrics.Mode
}

// DefaultModes are the per-feed modes used by the reporting portal.
func DefaultModes() map[metrics.Source]metrics.Mode {
	return map[metrics.Source]metrics.Mode{
		metrics.SourceKPI:     metrics.ModeAccumulated,
		metrics.SourceOKR:     metrics.ModeEvolution,
		metrics.SourceProject: metrics.ModeEvolution,
	}
}

// DropReason explains why a row produced no record.
type DropReason string

const (
	DropUnknownSource    DropReason = "unknown_source"
	DropMissingTeam      DropReason = "missing_team"
	DropMissingIndicator DropReason = "missing_indicator"
	DropBadDate          DropReason = "bad_date"
	DropBadCompetency    DropReason = "bad_competency"
)

// Diagnostics summarises one normalisation pass.
type Diagnostics struct {
	Rows         int                `json:"rows"`
	Kept         int                `json:"kept"`
	Dropped      map[DropReason]int `json:"dropped,omitempty"`
	ModeFallback int                `json:"mode_fallback"`

	// PercentUnsigned counts PERCENT meta/result cells written without "%",
	// which are read as fractions already.
	PercentUnsigned int `json:"percent_unsigned"`
}

// rowNotes are the non-fatal findings on a kept row.
type rowNotes struct {
	modeFallback    bool
	percentUnsigned int
}

func (d *Diagnostics) drop(reason DropReason) {
	if d.Dropped == nil {
		d.Dropped = make(map[DropReason]int)
	}
	d.Dropped[reason]++
}

// NormalizeAll converts rows in order. Each record's Seq is the index of the
// row it came from, so later rows win period ties downstream.
func NormalizeAll(rows []RawRow, opts Options) ([]metrics.MetricRecord, Diagnostics) {
	diag := Diagnostics{Rows: len(rows)}
	out := make([]metrics.MetricRecord, 0, len(rows))
	for i, row := range rows {
		rec, reason, notes := normalize(row, opts)
		if reason != "" {
			diag.drop(reason)
			continue
		}
		if notes.modeFallback {
			diag.ModeFallback++
		}
		diag.PercentUnsigned += notes.percentUnsigned
		rec.Seq = i
		out = append(out, rec)
	}
	diag.Kept = len(out)
	return out, diag
}

// Normalize converts a single row. ok is false when the row was dropped.
func Normalize(row RawRow, opts Options) (metrics.MetricRecord, bool) {
	rec, reason, _ := normalize(row, opts)
	return rec, reason == ""
}

func normalize(row RawRow, opts Options) (metrics.MetricRecord, DropReason, rowNotes) {
	l, ok := layouts[row.Source]
	if !ok {
		return metrics.MetricRecord{}, DropUnknownSource, rowNotes{}
	}
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[idx])
	}

	rec := metrics.MetricRecord{
		Source:         row.Source,
		SourceTeamName: cell(l.team),
		Objective:      cell(l.objective),
		IndicatorName:  cell(l.indicator),
		IndicatorKey:   cell(l.key),
	}
	if rec.SourceTeamName == "" {
		return rec, DropMissingTeam, rowNotes{}
	}
	if rec.IndicatorName == "" {
		return rec, DropMissingIndicator, rowNotes{}
	}

	date, err := ParseDate(cell(l.date))
	if err != nil {
		return rec, DropBadDate, rowNotes{}
	}
	rec.Date = date
	period, err := ParseCompetency(cell(l.competency))
	if err != nil {
		return rec, DropBadCompetency, rowNotes{}
	}
	rec.Period = period

	rec.MeasureKind = l.fixedKind
	if rec.MeasureKind == "" {
		rec.MeasureKind = ParseMeasureKind(cell(l.kind))
	}
	rec.Trend = l.fixedTrend
	if rec.Trend == "" {
		rec.Trend = ParseTrend(cell(l.trend))
	}
	var notes rowNotes
	for _, c := range []string{cell(l.meta), cell(l.result)} {
		if rec.MeasureKind == metrics.MeasurePercent && unsignedPercent(c) {
			notes.percentUnsigned++
		}
	}
	rec.Meta = ParseNumber(cell(l.meta), rec.MeasureKind)
	rec.Result = ParseNumber(cell(l.result), rec.MeasureKind)

	tag := cell(l.mode)
	mode, known := ParseMode(tag)
	if !known {
		mode = opts.ModeDefaults[row.Source]
		if !mode.Valid() {
			mode = DefaultModes()[row.Source]
		}
	}
	rec.Mode = mode
	// Only a tag that was written but not understood counts as a fallback.
	notes.modeFallback = !known && tag != ""
	return rec, "", notes
}
