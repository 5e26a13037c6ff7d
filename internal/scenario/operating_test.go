package scenario

import (
	"math"
	"testing"

	"pe-scenario-lab/backend/internal/montecarlo"
)

func projected(t *testing.T, p OperatingProjection) map[string]float64 {
	t.Helper()
	out := make(map[string]float64, len(p.Rows))
	for _, r := range p.Rows {
		out[r.KPI] = r.Simulated
	}
	return out
}

func TestProjectOperatingDefaults(t *testing.T) {
	proj, err := ProjectOperating(DefaultOperatingLevers())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	for _, r := range proj.Rows {
		if r.Simulated != r.Current {
			t.Fatalf("%s moved without levers: %v -> %v", r.KPI, r.Current, r.Simulated)
		}
	}
	if len(proj.Effects) != 0 {
		t.Fatalf("unexpected effects %v", proj.Effects)
	}
}

func TestProjectOperatingLevers(t *testing.T) {
	tests := []struct {
		name    string
		levers  OperatingLevers
		want    map[string]float64
		effects []Rule
	}{
		{
			name:    "pricing push",
			levers:  OperatingLevers{Pricing: 10},
			want:    map[string]float64{KPIRevenue: 132, KPIChurn: 7.5},
			effects: []Rule{RuleOpsPricingChurn},
		},
		{
			name:    "cost and automation",
			levers:  OperatingLevers{CostTakeout: 10, Automation: 5},
			want:    map[string]float64{KPIEBITDA: 27.6, KPINPS: 65},
			effects: nil,
		},
		{
			name:   "customer success floors churn",
			levers: OperatingLevers{CustomerSuccess: 10},
			want:   map[string]float64{KPIChurn: 3},
		},
		{
			name:    "severe with management",
			levers:  OperatingLevers{MgmtAggressive: true, Market: MacroSevereRecession},
			want:    map[string]float64{KPIRevenue: 114, KPIEBITDA: 22.46, KPIChurn: 8.2},
			effects: []Rule{RuleOpsStressCostBump, RuleOpsSevereRecession},
		},
		{
			name:    "mild without management",
			levers:  OperatingLevers{Market: MacroMildRecession, WorkingCapital: 10},
			want:    map[string]float64{KPIRevenue: 117.6, KPIEBITDA: 23.04, KPICashConversion: 79.2},
			effects: []Rule{RuleOpsMildRecession},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proj, err := ProjectOperating(tc.levers)
			if err != nil {
				t.Fatalf("project: %v", err)
			}
			got := projected(t, proj)
			for kpi, want := range tc.want {
				if math.Abs(got[kpi]-want) > 1e-9 {
					t.Fatalf("%s: expected %v got %v", kpi, want, got[kpi])
				}
			}
			if len(proj.Effects) != len(tc.effects) {
				t.Fatalf("expected effects %v got %v", tc.effects, proj.Effects)
			}
			for i := range tc.effects {
				if proj.Effects[i] != tc.effects[i] {
					t.Fatalf("effect %d: expected %v got %v", i, tc.effects[i], proj.Effects[i])
				}
			}
		})
	}
}

func TestOperatingRejectsExpansion(t *testing.T) {
	if _, err := ProjectOperating(OperatingLevers{Market: MacroExpansion}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ProjectOperating(OperatingLevers{Pricing: 16}); !IsValidation(err) {
		t.Fatalf("expected pricing bound error, got %v", err)
	}
}

func TestNewOperatingModelNoise(t *testing.T) {
	tests := []struct {
		name   string
		levers OperatingLevers
		kpi    string
		sd     float64
	}{
		{"revenue normal", OperatingLevers{}, KPIRevenue, 2.4},
		{"churn floor", OperatingLevers{}, KPIChurn, 0.5},
		{"revenue severe", OperatingLevers{Market: MacroSevereRecession}, KPIRevenue, 0.02 * 114 * 1.7},
		{"revenue mild", OperatingLevers{Market: MacroMildRecession}, KPIRevenue, 0.02 * 117.6 * 1.3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proj, err := ProjectOperating(tc.levers)
			if err != nil {
				t.Fatalf("project: %v", err)
			}
			m, err := NewOperatingModel(proj, tc.kpi)
			if err != nil {
				t.Fatalf("model: %v", err)
			}
			if math.Abs(m.StdDev-tc.sd) > 1e-9 {
				t.Fatalf("expected sd %v got %v", tc.sd, m.StdDev)
			}
		})
	}
}

func TestRunOperating(t *testing.T) {
	res, err := RunOperating(OperatingLevers{Pricing: 8}, KPIRevenue, 1000, montecarlo.NewSource(seeded(21)))
	if err != nil {
		t.Fatalf("run operating: %v", err)
	}
	s := res.Summary
	if math.Abs(s.Value-129.6) > 1e-9 {
		t.Fatalf("projected revenue %v", s.Value)
	}
	if !(s.Band.P25 <= s.Band.P50 && s.Band.P50 <= s.Band.P75) {
		t.Fatalf("band out of order %+v", s.Band)
	}
	if math.Abs(s.Band.P50-129.6) > 1 {
		t.Fatalf("median %.2f far from projection", s.Band.P50)
	}
	if len(s.FiredRules) != 1 || s.FiredRules[0] != RuleOpsPricingChurn {
		t.Fatalf("unexpected rules %v", s.FiredRules)
	}
	if _, err := RunOperating(OperatingLevers{}, "Headcount", 500, nil); !IsValidation(err) {
		t.Fatalf("expected unknown kpi error, got %v", err)
	}
}
