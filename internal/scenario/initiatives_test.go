package scenario

import (
	"math"
	"testing"
	"time"
)

func TestBaselineSeries(t *testing.T) {
	series := BaselineSeries()
	if len(series) != 10 {
		t.Fatalf("expected 10 points got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Fatalf("dates not increasing at %d", i)
		}
	}
	first, last := series[0].Values, series[len(series)-1].Values
	if first[TrackSales] != 100 || last[TrackSales] != 120 {
		t.Fatalf("sales endpoints %v..%v", first[TrackSales], last[TrackSales])
	}
	if first[TrackChurn] != 8 || last[TrackChurn] != 6 {
		t.Fatalf("churn endpoints %v..%v", first[TrackChurn], last[TrackChurn])
	}
}

func TestApplyInitiatives(t *testing.T) {
	base := BaselineSeries()
	day := func(d int) time.Time { return time.Date(2024, time.July, d, 0, 0, 0, 0, time.UTC) }
	initiatives := []Initiative{
		{Name: "Launch Product A", KPI: TrackSales, Impact: 6, EffectiveDate: day(6), Complete: true},
		{Name: "Upsell", KPI: TrackSales, Impact: 2, EffectiveDate: day(9), Complete: true},
		{Name: "Retention", KPI: TrackChurn, Impact: 1.5, EffectiveDate: day(3), Complete: true},
		{Name: "Not yet", KPI: TrackNPS, Impact: 10, EffectiveDate: day(1)},
	}
	out, applied := ApplyInitiatives(base, initiatives)

	if len(applied) != 3 {
		t.Fatalf("expected 3 applied labels got %v", applied)
	}
	if applied[0] != "Launch Product A (Sales +6) on 2024-07-06" {
		t.Fatalf("unexpected label %q", applied[0])
	}
	for i, pt := range out {
		delta := pt.Values[TrackSales] - base[i].Values[TrackSales]
		want := 0.0
		if pt.Date.Day() >= 6 {
			want += 6
		}
		if pt.Date.Day() >= 9 {
			want += 2
		}
		if math.Abs(delta-want) > 1e-9 {
			t.Fatalf("%s: sales delta %v want %v", pt.Date.Format(DateLayout), delta, want)
		}
		churnDelta := pt.Values[TrackChurn] - base[i].Values[TrackChurn]
		if pt.Date.Day() >= 3 && math.Abs(churnDelta+1.5) > 1e-9 {
			t.Fatalf("churn should fall by 1.5, got %v", churnDelta)
		}
		if pt.Values[TrackNPS] != base[i].Values[TrackNPS] {
			t.Fatalf("incomplete initiative applied")
		}
	}
	if base[9].Values[TrackSales] != 120 {
		t.Fatalf("input series was modified")
	}
}

func TestInitiativeValidate(t *testing.T) {
	valid := Initiative{Name: "Pricing", KPI: TrackMargin, Impact: 1, EffectiveDate: TrackerStart}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	tests := []struct {
		name string
		in   Initiative
	}{
		{"blank name", Initiative{Name: " ", KPI: TrackSales, EffectiveDate: TrackerStart}},
		{"unknown kpi", Initiative{Name: "X", KPI: "Revenue", EffectiveDate: TrackerStart}},
		{"nan impact", Initiative{Name: "X", KPI: TrackSales, Impact: math.NaN(), EffectiveDate: TrackerStart}},
		{"no date", Initiative{Name: "X", KPI: TrackSales}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.in.Validate(); !IsValidation(err) {
				t.Fatalf("expected validation error got %v", err)
			}
		})
	}
	if _, err := ParseDate("07/06/2024"); !IsValidation(err) {
		t.Fatalf("expected date parse error, got %v", err)
	}
}

func TestSummarizeTracker(t *testing.T) {
	initiatives := DefaultInitiatives()
	initiatives[0].Complete = true
	s, err := SummarizeTracker(initiatives, nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(s.Recent) != 3 || len(s.KPIs) != 2 {
		t.Fatalf("unexpected summary shape %+v", s)
	}
	if got := s.Recent[2].Values[TrackSales]; got != 126 {
		t.Fatalf("expected last sales point 126 got %v", got)
	}
	if len(s.Applied) != 1 {
		t.Fatalf("expected one applied initiative got %v", s.Applied)
	}
	if _, err := SummarizeTracker(nil, []string{"Headcount"}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
