package scenario

import (
	"errors"
	"fmt"
	"math"
)

// Functions in budget order.
const (
	FuncSales     = "Sales"
	FuncMarketing = "Marketing"
	FuncProduct   = "Product"
	FuncOps       = "Ops"
	FuncService   = "Service"
)

type functionBaseline struct {
	name                        string
	currentBudget, targetBudget float64
	currentOutput, targetOutput float64
}

var cxoFunctions = []functionBaseline{
	{FuncSales, 500, 600, 80, 100},
	{FuncMarketing, 300, 340, 40, 60},
	{FuncProduct, 200, 250, 30, 50},
	{FuncOps, 180, 220, 35, 50},
	{FuncService, 120, 150, 33, 44},
}

var cxoKPIs = []kpiBaseline{
	{KPIRevenue, 12.5, 15},
	{KPIEBITDA, 3.1, 3.8},
	{KPINPS, 65, 72},
	{KPIChurn, 6.5, 5},
	{KPICashConversion, 74, 82},
}

// CxOTotalBudget is the sum of current function budgets.
var CxOTotalBudget = func() float64 {
	total := 0.0
	for _, f := range cxoFunctions {
		total += f.currentBudget
	}
	return total
}()

// CxOAllocationBounds limits each function slider.
var CxOAllocationBounds = Bounds{0, CxOTotalBudget}

// Light is a KPI traffic light.
type Light string

const (
	LightGreen  Light = "green"
	LightOrange Light = "orange"
	LightRed    Light = "red"
)

// KPIStatus is the control-tower view of one KPI.
type KPIStatus struct {
	KPI     string  `json:"kpi" yaml:"kpi"`
	Current float64 `json:"current" yaml:"current"`
	Target  float64 `json:"target" yaml:"target"`
	Percent int     `json:"percent" yaml:"percent"`
	Light   Light   `json:"light" yaml:"light"`
}

// TrafficLights scores every KPI against target: green at or above 100%,
// orange from 90%, red below. Every KPI, churn included, is scored as
// current over target.
func TrafficLights() []KPIStatus {
	out := make([]KPIStatus, 0, len(cxoKPIs))
	for _, k := range cxoKPIs {
		pct := int(k.current / k.target * 100)
		light := LightRed
		switch {
		case pct >= 100:
			light = LightGreen
		case pct >= 90:
			light = LightOrange
		}
		out = append(out, KPIStatus{KPI: k.name, Current: k.current, Target: k.target, Percent: pct, Light: light})
	}
	return out
}

// CxOParams are the allocation sliders and scenario behaviours.
type CxOParams struct {
	Macro            Macro              `json:"macro" yaml:"macro"`
	CostControl      bool               `json:"cost_control" yaml:"cost_control"`
	GrowthInvestment bool               `json:"growth_investment" yaml:"growth_investment"`
	Allocation       map[string]float64 `json:"allocation" yaml:"allocation"`
}

// DefaultCxOParams allocates every function its current budget with cost control on.
func DefaultCxOParams() CxOParams {
	p := CxOParams{CostControl: true, Allocation: make(map[string]float64, len(cxoFunctions))}
	for _, f := range cxoFunctions {
		p.Allocation[f.name] = f.currentBudget
	}
	return p
}

func (p CxOParams) Validate() error {
	errs := []error{checkMacro(p.Macro, MacroNone, MacroMildRecession, MacroSevereRecession)}
	for name, v := range p.Allocation {
		if !isCxOFunction(name) {
			errs = append(errs, &ValidationError{Field: "allocation", Reason: fmt.Sprintf("unknown function %q", name)})
			continue
		}
		errs = append(errs, checkRange("allocation."+name, v, CxOAllocationBounds))
	}
	return errors.Join(errs...)
}

func isCxOFunction(name string) bool {
	for _, f := range cxoFunctions {
		if f.name == name {
			return true
		}
	}
	return false
}

// FunctionProjection is the forecast output of one function.
type FunctionProjection struct {
	Function  string  `json:"function" yaml:"function"`
	Allocated float64 `json:"allocated" yaml:"allocated"`
	Projected float64 `json:"projected" yaml:"projected"`
	Target    float64 `json:"target" yaml:"target"`
}

// CxOProjection is the full resource-allocation result.
type CxOProjection struct {
	Params        CxOParams            `json:"params" yaml:"params"`
	TotalBudget   float64              `json:"total_budget" yaml:"total_budget"`
	Allocated     float64              `json:"allocated" yaml:"allocated"`
	OverBudget    bool                 `json:"over_budget" yaml:"over_budget"`
	TrafficLights []KPIStatus          `json:"traffic_lights" yaml:"traffic_lights"`
	Functions     []FunctionProjection `json:"functions" yaml:"functions"`
	KPIs          []KPIRow             `json:"kpis" yaml:"kpis"`
	Effects       []Rule               `json:"effects" yaml:"effects"`
}

// ProjectCxO forecasts function output from the allocation and maps it onto
// KPIs. Exceeding the total budget is flagged, not rejected.
func ProjectCxO(p CxOParams) (CxOProjection, error) {
	if err := p.Validate(); err != nil {
		return CxOProjection{}, err
	}
	alloc := make(map[string]float64, len(cxoFunctions))
	out := make(map[string]float64, len(cxoFunctions))
	base := make(map[string]float64, len(cxoFunctions))
	total := 0.0
	funcs := make([]FunctionProjection, 0, len(cxoFunctions))
	for _, f := range cxoFunctions {
		budget, ok := p.Allocation[f.name]
		if !ok {
			budget = f.currentBudget
		}
		alloc[f.name] = budget
		total += budget

		scale := 0.0
		if f.currentBudget > 0 {
			scale = budget / f.currentBudget
		}
		projected := math.Min(f.currentOutput+(f.targetOutput-f.currentOutput)*scale, f.targetOutput*1.25)
		out[f.name] = round(projected, 1)
		base[f.name] = f.currentOutput
		funcs = append(funcs, FunctionProjection{Function: f.name, Allocated: budget, Projected: out[f.name], Target: f.targetOutput})
	}

	k := make(map[string]float64, len(cxoKPIs))
	for _, b := range cxoKPIs {
		k[b.name] = b.current
	}
	delta := func(name string) float64 { return out[name] - base[name] }
	k[KPIRevenue] += 0.07 * (delta(FuncSales) + delta(FuncMarketing))
	k[KPIEBITDA] += 0.04 * delta(FuncOps)
	k[KPINPS] += 0.10*delta(FuncProduct) + 0.04*delta(FuncService)
	k[KPIChurn] -= 0.02 * delta(FuncService)
	k[KPICashConversion] += 0.03 * (delta(FuncOps) + delta(FuncProduct))

	var effects []Rule
	switch p.Macro {
	case MacroMildRecession:
		k[KPIRevenue] *= 0.97
		k[KPIEBITDA] *= 0.97
		k[KPIChurn] += 0.7
		effects = append(effects, RuleCxOMildRecession)
	case MacroSevereRecession:
		k[KPIRevenue] *= 0.94
		k[KPIEBITDA] *= 0.93
		k[KPIChurn] += 1.8
		effects = append(effects, RuleCxOSevereRecession)
	}
	if p.CostControl {
		k[KPIEBITDA] *= 1.03
		k[KPICashConversion] *= 1.01
		effects = append(effects, RuleCxOCostControl)
	}
	if p.GrowthInvestment {
		k[KPIRevenue] *= 1.03
		k[KPINPS] += 0.7
		effects = append(effects, RuleCxOGrowthInvestment)
	}

	rows := make([]KPIRow, 0, len(cxoKPIs))
	for _, b := range cxoKPIs {
		rows = append(rows, KPIRow{KPI: b.name, Current: b.current, Target: b.target, Simulated: round(k[b.name], 2)})
	}
	p.Allocation = alloc
	return CxOProjection{
		Params:        p,
		TotalBudget:   CxOTotalBudget,
		Allocated:     total,
		OverBudget:    total > CxOTotalBudget,
		TrafficLights: TrafficLights(),
		Functions:     funcs,
		KPIs:          rows,
		Effects:       effects,
	}, nil
}
