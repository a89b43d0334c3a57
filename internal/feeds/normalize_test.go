package feeds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfscore/internal/metrics"
)

func defaultOpts() Options {
	return Options{ModeDefaults: DefaultModes()}
}

func TestNormalizeKPIRow(t *testing.T) {
	row := RawRow{Source: metrics.SourceKPI, Cells: []string{
		" CONSULTORIA PERFORMANCE ", "Receita", "", "R$", "MAIOR MELHOR", "15/01/2024",
		"R$ 1.000,00", "R$ 900,00", "Crescer", "ACUMULADO",
	}}
	rec, ok := Normalize(row, defaultOpts())
	require.True(t, ok)

	assert.Equal(t, metrics.SourceKPI, rec.Source)
	assert.Equal(t, "CONSULTORIA PERFORMANCE", rec.SourceTeamName)
	assert.Equal(t, "Receita", rec.IndicatorName)
	assert.Equal(t, "Crescer", rec.Objective)
	assert.Equal(t, metrics.MeasureCurrency, rec.MeasureKind)
	assert.Equal(t, metrics.HigherBetter, rec.Trend)
	assert.Equal(t, metrics.ModeAccumulated, rec.Mode)
	require.NotNil(t, rec.Date)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), *rec.Date)
	assert.True(t, rec.Period.IsZero(), "kpi rows carry no competency")
	require.NotNil(t, rec.Meta)
	require.NotNil(t, rec.Result)
	assert.InDelta(t, 1000, *rec.Meta, 1e-9)
	assert.InDelta(t, 900, *rec.Result, 1e-9)
}

func TestNormalizeOKRRowUsesCompetency(t *testing.T) {
	row := RawRow{Source: metrics.SourceOKR, Cells: []string{
		"CONSULTORIA", "Crescer", "Novos clientes", "KR1", "%", "MENOR MELHOR",
		"40%", "", "31/01/2024", "", "02/2024",
	}}
	rec, ok := Normalize(row, defaultOpts())
	require.True(t, ok)

	assert.Equal(t, "KR1", rec.IndicatorKey)
	assert.Equal(t, metrics.MeasurePercent, rec.MeasureKind)
	assert.Equal(t, metrics.LowerBetter, rec.Trend)
	assert.Equal(t, metrics.ModeEvolution, rec.Mode, "blank tag takes the feed default")
	assert.Equal(t, metrics.MonthPeriod(2024, 2), rec.Period)
	require.NotNil(t, rec.Meta)
	assert.InDelta(t, 0.4, *rec.Meta, 1e-9)
	assert.Nil(t, rec.Result, "blank result stays null")
}

func TestNormalizeProjectRowFixedKind(t *testing.T) {
	row := RawRow{Source: metrics.SourceProject, Cells: []string{"COMERCIAL", "Novo CRM", "P-1", "28/02/2024", "80%", "60%"}}
	rec, ok := Normalize(row, defaultOpts())
	require.True(t, ok)

	assert.Equal(t, metrics.MeasurePercent, rec.MeasureKind)
	assert.Equal(t, metrics.HigherBetter, rec.Trend)
	assert.Equal(t, metrics.ModeEvolution, rec.Mode)
	assert.InDelta(t, 0.8, *rec.Meta, 1e-9)
	assert.InDelta(t, 0.6, *rec.Result, 1e-9)
}

func TestNormalizeAllDiagnostics(t *testing.T) {
	rows := []RawRow{
		{Source: metrics.SourceKPI, Cells: []string{"A", "I", "", "", "", "01/01/2024", "1", "1", "", "TRIMESTRAL"}},
		{Source: metrics.SourceKPI, Cells: []string{"", "I"}},
		{Source: metrics.SourceKPI, Cells: []string{"A", ""}},
		{Source: metrics.SourceKPI, Cells: []string{"A", "I", "", "", "", "31/02/2024"}},
		{Source: metrics.SourceOKR, Cells: []string{"A", "O", "KR", "", "", "", "1", "1", "", "", "13/2024"}},
		{Source: metrics.Source("budget"), Cells: []string{"A"}},
		{Source: metrics.SourceProject, Cells: []string{"B", "P"}},
	}
	opts := Options{ModeDefaults: map[metrics.Source]metrics.Mode{metrics.SourceKPI: metrics.ModeAverage}}
	records, diag := NormalizeAll(rows, opts)

	require.Len(t, records, 2)
	assert.Equal(t, 7, diag.Rows)
	assert.Equal(t, 2, diag.Kept)
	assert.Equal(t, 1, diag.ModeFallback)
	assert.Equal(t, map[DropReason]int{
		DropMissingTeam:      1,
		DropMissingIndicator: 1,
		DropBadDate:          1,
		DropBadCompetency:    1,
		DropUnknownSource:    1,
	}, diag.Dropped)

	assert.Equal(t, metrics.ModeAverage, records[0].Mode, "configured default wins")
	assert.Equal(t, 0, records[0].Seq)
	assert.Equal(t, metrics.ModeEvolution, records[1].Mode, "missing default falls back to built-in")
	assert.Equal(t, 6, records[1].Seq)
	assert.Nil(t, records[1].Meta)
}

func TestNormalizeAllCountsUnsignedPercentCells(t *testing.T) {
	rows := []RawRow{
		{Source: metrics.SourceProject, Cells: []string{"COMERCIAL", "Novo CRM", "", "28/02/2024", "80%", "60"}},
		{Source: metrics.SourceProject, Cells: []string{"COMERCIAL", "Portal", "", "28/02/2024", "0,8", "-"}},
		{Source: metrics.SourceOKR, Cells: []string{"A", "O", "KR", "", "R$", "", "100", "90", "", "", "01/2024"}},
		{Source: metrics.SourceKPI, Cells: []string{"A", "Margem", "", "%", "", "01/01/2024", "40%", "35%"}},
	}
	records, diag := NormalizeAll(rows, defaultOpts())
	require.Len(t, records, 4)
	assert.Equal(t, 2, diag.PercentUnsigned, "only PERCENT cells with a value and no sign count")

	assert.InDelta(t, 0.8, *records[0].Meta, 1e-9)
	assert.InDelta(t, 60, *records[0].Result, 1e-9, "the unsigned cell is taken as written")
	assert.Nil(t, records[1].Result)
}
