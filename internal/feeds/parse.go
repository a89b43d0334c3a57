package feeds

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perfscore/internal/metrics"
)

// ParseNumber reads a Brazilian-formatted number ("R$ 1.234,56", "12,5%",
// "1.234"). It returns nil for a blank cell or "-". Any other text that does
// not parse yields 0. For PERCENT cells written with a trailing "%" the
// fraction is returned ("50%" is 0.5).
func ParseNumber(cell string, kind metrics.MeasureKind) *float64 {
	s := strings.TrimSpace(strings.ReplaceAll(cell, "\u00a0", " "))
	if isBlank(s) {
		return nil
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, " ", "")
	if isBlank(s) {
		return nil
	}

	d, err := decimal.NewFromString(canonicalNumber(s))
	if err != nil {
		zero := 0.0
		return &zero
	}
	if percent && kind == metrics.MeasurePercent {
		d = d.Div(decimal.NewFromInt(100))
	}
	v, _ := d.Float64()
	return &v
}

// unsignedPercent reports a non-blank cell that lacks a trailing "%".
func unsignedPercent(cell string) bool {
	s := strings.TrimSpace(strings.ReplaceAll(cell, "\u00a0", " "))
	return !isBlank(s) && !strings.HasSuffix(s, "%")
}

func isBlank(s string) bool {
	return s == "" || s == "-"
}

// canonicalNumber rewrites s into the dot-decimal form decimal accepts.
// With both separators present the dot groups thousands and the comma is
// decimal. A lone dot is decimal only when it is the single dot and exactly
// two digits follow it.
func canonicalNumber(s string) string {
	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case hasComma:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case hasDot:
		tail := s[strings.LastIndex(s, ".")+1:]
		if strings.Count(s, ".") > 1 || len(tail) != 2 || !allDigits(tail) {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseDate reads a DD/MM/YYYY date. A blank cell returns (nil, nil).
func ParseDate(cell string) (*time.Time, error) {
	s := strings.TrimSpace(cell)
	if isBlank(s) {
		return nil, nil
	}
	t, err := time.ParseInLocation("2/1/2006", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", cell, err)
	}
	return &t, nil
}

// ParseCompetency reads an "MM/YYYY" competency cell. A blank cell returns
// a zero period.
func ParseCompetency(cell string) (metrics.Period, error) {
	s := strings.TrimSpace(cell)
	if isBlank(s) {
		return metrics.Period{}, nil
	}
	monthPart, yearPart, ok := strings.Cut(s, "/")
	if !ok {
		return metrics.Period{}, fmt.Errorf("competency %q is not MM/YYYY", cell)
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthPart))
	if err != nil || month < 1 || month > 12 {
		return metrics.Period{}, fmt.Errorf("competency %q has invalid month", cell)
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearPart))
	if err != nil || year < 1 {
		return metrics.Period{}, fmt.Errorf("competency %q has invalid year", cell)
	}
	return metrics.MonthPeriod(year, month), nil
}

// ParseMeasureKind maps the unit column onto a measure kind.
func ParseMeasureKind(cell string) metrics.MeasureKind {
	switch fold(cell) {
	case "R$", "MOEDA", "CURRENCY", "REAIS":
		return metrics.MeasureCurrency
	case "%", "PERCENTUAL", "PERCENT", "PORCENTAGEM":
		return metrics.MeasurePercent
	}
	return metrics.MeasureInteger
}

// ParseTrend maps the direction column onto a trend; higher-is-better is the
// default.
func ParseTrend(cell string) metrics.Trend {
	switch fold(cell) {
	case "MENOR MELHOR", "MENOR E MELHOR", "LOWER_BETTER", "LOWER IS BETTER", "<", "↓":
		return metrics.LowerBetter
	}
	return metrics.HigherBetter
}

// ParseMode maps a mode tag onto a measurement mode. ok is false when the
// tag is blank or unrecognised.
func ParseMode(cell string) (metrics.Mode, bool) {
	switch fold(cell) {
	case "ACUMULADO", "ACCUMULATED":
		return metrics.ModeAccumulated, true
	case "EVOLUCAO", "EVOLUTION":
		return metrics.ModeEvolution, true
	case "MEDIA", "AVERAGE", "MEDIA NO ANO", "AVERAGE-IN-YEAR":
		return metrics.ModeAverage, true
	}
	return "", false
}

var accentFolds = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A",
	"É", "E", "Ê", "E",
	"Í", "I",
	"Ó", "O", "Ô", "O", "Õ", "O",
	"Ú", "U",
	"Ç", "C",
)

func fold(s string) string {
	s = strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	return accentFolds.Replace(s)
}
