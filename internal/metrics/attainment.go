package metrics

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Point evaluates a single cell: result/meta for higher-is-better, the
// inverse otherwise. A cell whose meta and result are both blank or zero is
// unmeasured and yields no value; a present meta with a zero result is a
// real 0%.
func Point(rec MetricRecord) AttainmentResult {
	res := AttainmentResult{Basis: rec.Mode, Period: rec.Period}
	meta, result := toDecimal(rec.Meta), toDecimal(rec.Result)
	if meta.IsZero() && result.IsZero() {
		return res
	}
	res.Value = directedRatio(meta, result, rec.Trend, false)
	return res
}

// Accumulated sums meta and result over every record up to and including
// the last one with a result. Later records are targets not yet realised and
// are left out of both sums.
func Accumulated(recs []MetricRecord, trend Trend, period Period) AttainmentResult {
	res := AttainmentResult{Basis: ModeAccumulated, Period: period}
	last := lastWithResult(recs)
	if last < 0 {
		return res
	}
	sumMeta, sumResult := decimal.Zero, decimal.Zero
	for _, rec := range recs[:last+1] {
		sumMeta = sumMeta.Add(toDecimal(rec.Meta))
		sumResult = sumResult.Add(toDecimal(rec.Result))
	}
	res.Value = directedRatio(sumMeta, sumResult, trend, true)
	return res
}

// LatestAgainstFinal compares the last realised result with the meta of the
// final period of the comparison range (endMonth). When the final period has
// no meta, the latest meta present in recs stands in for it. Inverted, only a
// zero result voids the ratio; a zero final meta is a real 0%.
func LatestAgainstFinal(recs []MetricRecord, trend Trend, mode Mode, period Period, endMonth int) AttainmentResult {
	res := AttainmentResult{Basis: mode, Period: period}
	last := lastWithResult(recs)
	if last < 0 {
		return res
	}
	finalMeta := finalPeriodMeta(recs, endMonth)
	if finalMeta == nil {
		return res
	}
	res.Value = directedRatio(*finalMeta, toDecimal(recs[last].Result), trend, false)
	return res
}

// Clamp caps v at limit. A nil value or a non-positive limit passes through.
func Clamp(v *float64, limit float64) *float64 {
	if v == nil || limit <= 0 || *v <= limit {
		return v
	}
	return ptr(limit)
}

// directedRatio returns result/meta×100 (higher is better) or meta/result×100.
// With strict set, a zero meta also voids an inverted ratio.
func directedRatio(meta, result decimal.Decimal, trend Trend, strict bool) *float64 {
	num, den := result, meta
	if trend == LowerBetter {
		num, den = meta, result
		if strict && meta.IsZero() {
			return nil
		}
	}
	if den.IsZero() {
		return nil
	}
	v, _ := num.Mul(hundred).Div(den).Float64()
	return &v
}

func finalPeriodMeta(recs []MetricRecord, endMonth int) *decimal.Decimal {
	for _, rec := range recs {
		if rec.Period.EndMonth() == endMonth && rec.Meta != nil {
			d := decimal.NewFromFloat(*rec.Meta)
			return &d
		}
	}
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Meta != nil {
			d := decimal.NewFromFloat(*recs[i].Meta)
			return &d
		}
	}
	return nil
}

func lastWithResult(recs []MetricRecord) int {
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Result != nil {
			return i
		}
	}
	return -1
}

func toDecimal(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
