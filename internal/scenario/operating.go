package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"pe-scenario-lab/backend/internal/montecarlo"
)

// KPI names shared by the operating partner and CxO dashboards.
const (
	KPIRevenue        = "Revenue"
	KPIEBITDA         = "EBITDA"
	KPIChurn          = "Churn"
	KPINPS            = "NPS"
	KPICashConversion = "Cash Conversion"
)

var (
	OperatingPricingBounds    = Bounds{0, 15}
	OperatingCostBounds       = Bounds{0, 20}
	OperatingSuccessBounds    = Bounds{0, 10}
	OperatingAutomationBounds = Bounds{0, 10}
	OperatingWCBounds         = Bounds{0, 10}
	OperatingRunBounds        = Bounds{100, 2000}
)

// KPIRow is one line of a current / target / simulated dashboard.
type KPIRow struct {
	KPI       string  `json:"kpi" yaml:"kpi"`
	Current   float64 `json:"current" yaml:"current"`
	Target    float64 `json:"target" yaml:"target"`
	Simulated float64 `json:"simulated" yaml:"simulated"`
}

type kpiBaseline struct {
	name            string
	current, target float64
}

var operatingBaseline = []kpiBaseline{
	{KPIRevenue, 120, 140},
	{KPIEBITDA, 24, 31},
	{KPIChurn, 7, 5},
	{KPINPS, 60, 70},
	{KPICashConversion, 72, 80},
}

// OperatingLevers are the value-creation sliders in percent.
type OperatingLevers struct {
	Pricing         float64 `json:"pricing" yaml:"pricing"`
	CostTakeout     float64 `json:"cost_takeout" yaml:"cost_takeout"`
	CustomerSuccess float64 `json:"customer_success" yaml:"customer_success"`
	Automation      float64 `json:"automation" yaml:"automation"`
	WorkingCapital  float64 `json:"working_capital" yaml:"working_capital"`
	MgmtAggressive  bool    `json:"mgmt_aggressive" yaml:"mgmt_aggressive"`
	CXAggressive    bool    `json:"cx_aggressive" yaml:"cx_aggressive"`
	Market          Macro   `json:"market" yaml:"market"`
}

// DefaultOperatingLevers is the untouched dashboard: no levers, both behaviours on.
func DefaultOperatingLevers() OperatingLevers {
	return OperatingLevers{MgmtAggressive: true, CXAggressive: true, Market: MacroNone}
}

func (l OperatingLevers) Validate() error {
	return errors.Join(
		checkRange("pricing", l.Pricing, OperatingPricingBounds),
		checkRange("cost_takeout", l.CostTakeout, OperatingCostBounds),
		checkRange("customer_success", l.CustomerSuccess, OperatingSuccessBounds),
		checkRange("automation", l.Automation, OperatingAutomationBounds),
		checkRange("working_capital", l.WorkingCapital, OperatingWCBounds),
		checkMacro(l.Market, MacroNone, MacroMildRecession, MacroSevereRecession),
	)
}

// OperatingProjection is the lever-adjusted KPI dashboard.
type OperatingProjection struct {
	Levers  OperatingLevers `json:"levers" yaml:"levers"`
	Rows    []KPIRow        `json:"rows" yaml:"rows"`
	Effects []Rule          `json:"effects" yaml:"effects"`

	future map[string]float64
}

// Value returns the unrounded simulated value of kpi.
func (p OperatingProjection) Value(kpi string) (float64, bool) {
	v, ok := p.future[kpi]
	return v, ok
}

// ProjectOperating applies levers, behaviours and the market scenario to the
// baseline KPIs in a fixed order: pricing, cost, churn, NPS and cash, then macro.
func ProjectOperating(l OperatingLevers) (OperatingProjection, error) {
	if err := l.Validate(); err != nil {
		return OperatingProjection{}, err
	}
	f := make(map[string]float64, len(operatingBaseline))
	for _, b := range operatingBaseline {
		f[b.name] = b.current
	}
	var effects []Rule

	f[KPIRevenue] *= 1 + l.Pricing/100
	if l.Pricing > 5 {
		f[KPIChurn] += 0.5
		effects = append(effects, RuleOpsPricingChurn)
	}

	f[KPIEBITDA] *= 1 + (l.CostTakeout+l.Automation)/100
	if l.MgmtAggressive && l.Market != MacroNone {
		f[KPIEBITDA] *= 1.04
		effects = append(effects, RuleOpsStressCostBump)
	}

	f[KPIChurn] = math.Max(f[KPIChurn]-l.CustomerSuccess, 3)
	if l.CXAggressive && f[KPIChurn] > 8 {
		f[KPIChurn] = math.Max(f[KPIChurn]-1.2, 2)
		effects = append(effects, RuleOpsCustomerSuccess)
	}

	f[KPINPS] += l.Automation
	f[KPICashConversion] *= 1 + l.WorkingCapital/100

	switch l.Market {
	case MacroMildRecession:
		f[KPIRevenue] *= 0.98
		f[KPIEBITDA] *= 0.96
		f[KPIChurn] += 0.5
		effects = append(effects, RuleOpsMildRecession)
	case MacroSevereRecession:
		f[KPIRevenue] *= 0.95
		f[KPIEBITDA] *= 0.90
		f[KPIChurn] += 1.2
		effects = append(effects, RuleOpsSevereRecession)
	}

	rows := make([]KPIRow, 0, len(operatingBaseline))
	for _, b := range operatingBaseline {
		rows = append(rows, KPIRow{KPI: b.name, Current: b.current, Target: b.target, Simulated: round(f[b.name], 2)})
	}
	return OperatingProjection{Levers: l, Rows: rows, Effects: effects, future: f}, nil
}

// OperatingModel draws a 12-month band around one projected KPI.
type OperatingModel struct {
	Value, StdDev float64
	Effects       []Rule
}

// NewOperatingModel sets the noise at 2% of the value (at least 0.5), widened
// by 1.3x in a mild and 1.7x in a severe recession.
func NewOperatingModel(proj OperatingProjection, kpi string) (OperatingModel, error) {
	v, ok := proj.Value(kpi)
	if !ok {
		return OperatingModel{}, &ValidationError{Field: "kpi", Reason: fmt.Sprintf("unknown kpi %q", kpi)}
	}
	sd := math.Max(0.02*v, 0.5)
	switch proj.Levers.Market {
	case MacroSevereRecession:
		sd *= 1.7
	case MacroMildRecession:
		sd *= 1.3
	}
	return OperatingModel{Value: v, StdDev: sd, Effects: proj.Effects}, nil
}

func (OperatingModel) Metrics() []string { return []string{MetricKPI} }

func (m OperatingModel) Sample(d *montecarlo.Draw) montecarlo.Run[Rule] {
	return montecarlo.Run[Rule]{
		Inputs:  map[string]float64{"value": m.Value, "std": m.StdDev},
		Outputs: map[string]float64{MetricKPI: d.Normal(m.Value, m.StdDev)},
		Fired:   m.Effects,
	}
}

// OperatingSummary is the projection plus the band for the chosen KPI.
type OperatingSummary struct {
	Projection OperatingProjection    `json:"projection" yaml:"projection"`
	KPI        string                 `json:"kpi" yaml:"kpi"`
	Value      float64                `json:"value" yaml:"value"`
	Requested  int                    `json:"requested" yaml:"requested"`
	Retained   int                    `json:"retained" yaml:"retained"`
	Band       montecarlo.Percentiles `json:"band" yaml:"band"`
	FiredRules []Rule                 `json:"fired_rules" yaml:"fired_rules"`
	Histogram  []montecarlo.Bin       `json:"histogram,omitempty" yaml:"-"`
}

// OperatingResult pairs the batch with its summary.
type OperatingResult struct {
	Batch   *montecarlo.Batch[Rule]
	Summary OperatingSummary
}

// RunOperating projects the levers and simulates the chosen KPI band.
func RunOperating(l OperatingLevers, kpi string, runs int, src rand.Source) (*OperatingResult, error) {
	if err := CheckRuns(runs, OperatingRunBounds); err != nil {
		return nil, err
	}
	proj, err := ProjectOperating(l)
	if err != nil {
		return nil, err
	}
	model, err := NewOperatingModel(proj, kpi)
	if err != nil {
		return nil, err
	}
	batch, err := montecarlo.Simulate[Rule](model, runs, src)
	if err != nil {
		return nil, err
	}
	return &OperatingResult{
		Batch: batch,
		Summary: OperatingSummary{
			Projection: proj,
			KPI:        kpi,
			Value:      model.Value,
			Requested:  batch.Requested,
			Retained:   batch.Retained(),
			Band:       batch.Summary[MetricKPI],
			FiredRules: batch.Fired.Sorted(),
			Histogram:  montecarlo.Histogram(batch.Series[MetricKPI], 20),
		},
	}, nil
}
