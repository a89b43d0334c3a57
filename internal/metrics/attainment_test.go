package metrics

import (
	"math"
	"testing"
)

func f(v float64) *float64 { return &v }

func rec(month int, meta, result *float64) MetricRecord {
	return MetricRecord{
		Source:        SourceKPI,
		CanonicalTeam: "T",
		IndicatorName: "I",
		Period:        MonthPeriod(2024, month),
		Meta:          meta,
		Result:        result,
		Trend:         HigherBetter,
		Mode:          ModeAccumulated,
	}
}

func assertValue(t *testing.T, got *float64, want *float64) {
	t.Helper()
	switch {
	case want == nil && got == nil:
		return
	case want == nil:
		t.Fatalf("value = %v, want null", *got)
	case got == nil:
		t.Fatalf("value = null, want %v", *want)
	case math.Abs(*got-*want) > 1e-9:
		t.Fatalf("value = %v, want %v", *got, *want)
	}
}

func TestPoint(t *testing.T) {
	cases := []struct {
		name   string
		meta   *float64
		result *float64
		trend  Trend
		want   *float64
	}{
		{"higher", f(100), f(90), HigherBetter, f(90)},
		{"lower inverts", f(5), f(3), LowerBetter, f(500.0 / 3.0)},
		{"both zero is unmeasured", f(0), f(0), HigherBetter, nil},
		{"both blank is unmeasured", nil, nil, HigherBetter, nil},
		{"meta with zero result is zero", f(10), f(0), HigherBetter, f(0)},
		{"meta with blank result is zero", f(10), nil, HigherBetter, f(0)},
		{"zero meta guards division", f(0), f(5), HigherBetter, nil},
		{"lower with zero result guards division", f(5), f(0), LowerBetter, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := rec(1, tc.meta, tc.result)
			r.Trend = tc.trend
			got := Point(r)
			assertValue(t, got.Value, tc.want)
			if got.Period != r.Period {
				t.Fatalf("period = %v, want %v", got.Period, r.Period)
			}
		})
	}
}

func TestAccumulatedStopsAtLastResult(t *testing.T) {
	recs := []MetricRecord{
		rec(1, f(100), f(80)),
		rec(2, f(100), nil),
	}
	got := Accumulated(recs, HigherBetter, Period{Year: 2024})
	assertValue(t, got.Value, f(80))
	if got.Basis != ModeAccumulated {
		t.Fatalf("basis = %s, want %s", got.Basis, ModeAccumulated)
	}

	recs = append(recs, rec(3, f(100), f(110)))
	got = Accumulated(recs, HigherBetter, Period{Year: 2024})
	// (100+100+100) meta, (80+0+110) result
	assertValue(t, got.Value, f(190.0*100/300.0))
}

func TestAccumulatedNoResults(t *testing.T) {
	recs := []MetricRecord{rec(1, f(100), nil), rec(2, f(100), nil)}
	got := Accumulated(recs, HigherBetter, Period{Year: 2024})
	assertValue(t, got.Value, nil)
	assertValue(t, Accumulated(nil, HigherBetter, Period{Year: 2024}).Value, nil)
}

func TestAccumulatedLowerBetter(t *testing.T) {
	recs := []MetricRecord{rec(1, f(10), f(5)), rec(2, f(10), f(15))}
	assertValue(t, Accumulated(recs, LowerBetter, Period{Year: 2024}).Value, f(100))

	zeroMeta := []MetricRecord{rec(1, f(0), f(5))}
	assertValue(t, Accumulated(zeroMeta, LowerBetter, Period{Year: 2024}).Value, nil)
}

func TestAccumulatedDecimalSums(t *testing.T) {
	recs := []MetricRecord{
		rec(1, f(0.1), f(0.1)),
		rec(2, f(0.2), f(0.2)),
	}
	got := Accumulated(recs, HigherBetter, Period{Year: 2024})
	if got.Value == nil || *got.Value != 100 {
		t.Fatalf("value = %v, want exactly 100", got.Value)
	}
}

func TestLatestAgainstFinal(t *testing.T) {
	recs := []MetricRecord{
		rec(1, f(100), f(50)),
		rec(6, f(200), f(150)),
		rec(12, f(300), nil),
	}
	got := LatestAgainstFinal(recs, HigherBetter, ModeEvolution, Period{Year: 2024}, 12)
	assertValue(t, got.Value, f(50))
	if got.Basis != ModeEvolution {
		t.Fatalf("basis = %s, want %s", got.Basis, ModeEvolution)
	}

	// No record for the final month: the latest meta stands in.
	got = LatestAgainstFinal(recs[:2], HigherBetter, ModeAverage, Period{Year: 2024}, 12)
	assertValue(t, got.Value, f(75))
	if got.Basis != ModeAverage {
		t.Fatalf("basis = %s, want %s", got.Basis, ModeAverage)
	}
}

func TestLatestAgainstFinalNoSignal(t *testing.T) {
	noResult := []MetricRecord{rec(1, f(100), nil)}
	assertValue(t, LatestAgainstFinal(noResult, HigherBetter, ModeEvolution, Period{Year: 2024}, 12).Value, nil)

	noMeta := []MetricRecord{rec(1, nil, f(10))}
	assertValue(t, LatestAgainstFinal(noMeta, HigherBetter, ModeEvolution, Period{Year: 2024}, 12).Value, nil)
}

func TestLatestAgainstFinalLowerBetter(t *testing.T) {
	cases := []struct {
		name string
		recs []MetricRecord
		want *float64
	}{
		{
			name: "inverted ratio",
			recs: []MetricRecord{rec(12, f(10), f(5))},
			want: f(200),
		},
		{
			name: "final meta against latest result",
			recs: []MetricRecord{rec(3, f(4), f(8)), rec(12, f(6), nil)},
			want: f(75),
		},
		{
			name: "zero last result has no ratio",
			recs: []MetricRecord{rec(1, f(10), f(4)), rec(6, f(10), f(0))},
			want: nil,
		},
		{
			name: "zero final meta is a real zero",
			recs: []MetricRecord{rec(1, f(5), f(3)), rec(12, f(0), nil)},
			want: f(0),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, mode := range []Mode{ModeEvolution, ModeAverage} {
				got := LatestAgainstFinal(tc.recs, LowerBetter, mode, Period{Year: 2024}, 12)
				assertValue(t, got.Value, tc.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	assertValue(t, Clamp(f(150), 100), f(100))
	assertValue(t, Clamp(f(80), 100), f(80))
	assertValue(t, Clamp(f(150), 0), f(150))
	assertValue(t, Clamp(nil, 100), nil)

	v := f(150)
	Clamp(v, 100)
	if *v != 150 {
		t.Fatalf("Clamp modified its input: %v", *v)
	}
}
