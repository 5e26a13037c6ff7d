package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"pe-scenario-lab/backend/internal/finance"
	"pe-scenario-lab/backend/internal/montecarlo"
)

const (
	dealRevenue0     = 100.0
	dealYears        = 5
	dealPurchase     = 200.0
	dealIRRBar       = 20.0
	dealHistogramBin = 30
)

// Deal metric names; irr is the headline.
const (
	MetricIRR       = "irr"
	MetricMOIC      = "moic"
	MetricExitValue = "exit_value"
)

var (
	DealGrowthBounds   = Bounds{0, 20}
	DealMarginBounds   = Bounds{10, 40}
	DealMultipleBounds = Bounds{5, 20}
	DealPricingBounds  = Bounds{0, 10}
	DealChurnBounds    = Bounds{0, 20}
	DealRunBounds      = Bounds{100, 3000}
)

// DealParams are the deal partner's value levers, all in percent except the
// exit multiple.
type DealParams struct {
	Preset             string  `json:"preset,omitempty" yaml:"preset,omitempty"`
	Growth             float64 `json:"growth" yaml:"growth"`
	Margin             float64 `json:"margin" yaml:"margin"`
	Multiple           float64 `json:"multiple" yaml:"multiple"`
	Pricing            float64 `json:"pricing" yaml:"pricing"`
	Churn              float64 `json:"churn" yaml:"churn"`
	Macro              Macro   `json:"macro" yaml:"macro"`
	ManagementResponse bool    `json:"management_response" yaml:"management_response"`
	RetentionAction    bool    `json:"retention_action" yaml:"retention_action"`
	PricingBacklash    bool    `json:"pricing_backlash" yaml:"pricing_backlash"`
}

var dealPresets = map[string]DealParams{
	"Base":     {Growth: 8, Margin: 18, Multiple: 9, Pricing: 2, Churn: 5, Macro: MacroNone},
	"Upside":   {Growth: 12, Margin: 21, Multiple: 10, Pricing: 4, Churn: 3, Macro: MacroExpansion},
	"Downside": {Growth: 3, Margin: 15, Multiple: 7, Pricing: 0, Churn: 8, Macro: MacroMildRecession},
	"Custom":   {Growth: 8, Margin: 18, Multiple: 9, Pricing: 2, Churn: 5, Macro: MacroNone},
}

// DealPresetNames lists the presets in sidebar order.
var DealPresetNames = []string{"Base", "Upside", "Downside", "Custom"}

// DealPreset returns the named preset with every behaviour toggle enabled,
// matching the sidebar defaults.
func DealPreset(name string) (DealParams, error) {
	p, ok := dealPresets[name]
	if !ok {
		return DealParams{}, &ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
	}
	p.Preset = name
	p.ManagementResponse = true
	p.RetentionAction = true
	p.PricingBacklash = true
	return p, nil
}

// Validate checks every lever against its slider range.
func (p DealParams) Validate() error {
	return errors.Join(
		checkRange("growth", p.Growth, DealGrowthBounds),
		checkRange("margin", p.Margin, DealMarginBounds),
		checkRange("multiple", p.Multiple, DealMultipleBounds),
		checkRange("pricing", p.Pricing, DealPricingBounds),
		checkRange("churn", p.Churn, DealChurnBounds),
		checkMacro(p.Macro, MacroNone, MacroExpansion, MacroMildRecession, MacroSevereRecession),
	)
}

// DealModel samples five-year returns for one set of deal levers.
type DealModel struct {
	Params DealParams
}

func (DealModel) Metrics() []string {
	return []string{MetricIRR, MetricMOIC, MetricExitValue}
}

// Sample draws one deal outcome. A failed IRR solve leaves irr as NaN so the
// run is dropped by the engine.
func (m DealModel) Sample(d *montecarlo.Draw) montecarlo.Run[Rule] {
	p := m.Params
	g := d.Normal(p.Growth, 1.5)
	margin := d.Normal(p.Margin, 1.2)
	mult := d.Normal(p.Multiple, 0.5)
	pricing := d.Normal(p.Pricing, 0.5)
	churn := d.Normal(p.Churn, 1)

	var fired []Rule
	switch p.Macro {
	case MacroExpansion:
		g += d.Uniform(2, 4)
		margin += d.Uniform(0.5, 1)
		fired = append(fired, RuleExpansionTailwind)
	case MacroMildRecession:
		g -= d.Uniform(3, 5)
		margin -= d.Uniform(1, 2)
		fired = append(fired, RuleMildRecession)
		if p.ManagementResponse {
			margin += 1.0
			fired = append(fired, RuleMgmtCostTakeout)
		}
	case MacroSevereRecession:
		g -= d.Uniform(5, 8)
		margin -= d.Uniform(2, 4)
		churn += d.Uniform(2, 4)
		fired = append(fired, RuleSevereRecession)
		if p.ManagementResponse {
			margin += 1.5
			fired = append(fired, RuleMgmtAggressiveCuts)
		}
	}

	churnEffect := 1 - churn/100
	if churn > 10 && p.RetentionAction {
		churnEffect += 0.04
		margin -= 0.3
		fired = append(fired, RuleRetentionInitiative)
	}
	if pricing > 5 && p.PricingBacklash {
		churnEffect -= 0.02
		fired = append(fired, RulePricingBacklash)
	}

	cashflows := make([]float64, 0, dealYears)
	revenue := dealRevenue0
	ebitda := 0.0
	for t := 0; t < dealYears; t++ {
		revenue = revenue * (1 + g/100) * (1 + pricing/100) * churnEffect
		ebitda = revenue * (margin / 100)
		cashflows = append(cashflows, ebitda)
	}
	exit := ebitda * mult

	flows := make([]float64, 0, dealYears+1)
	flows = append(flows, -dealPurchase)
	flows = append(flows, cashflows...)
	flows[len(flows)-1] += exit

	irr := math.NaN()
	if rate, err := finance.IRR(flows); err == nil {
		irr = rate * 100
	}

	return montecarlo.Run[Rule]{
		Inputs: map[string]float64{
			"growth":       g,
			"margin":       margin,
			"multiple":     mult,
			"pricing":      pricing,
			"churn":        churn,
			"churn_effect": churnEffect,
		},
		Outputs: map[string]float64{
			MetricIRR:       irr,
			MetricMOIC:      finance.MOIC(cashflows, exit, dealPurchase),
			MetricExitValue: exit,
		},
		Fired: fired,
	}
}

// DealSummary is the aggregated view handed to the dashboard and the narrative builder.
type DealSummary struct {
	Params          DealParams             `json:"params" yaml:"params"`
	Requested       int                    `json:"requested" yaml:"requested"`
	Retained        int                    `json:"retained" yaml:"retained"`
	IRR             montecarlo.Percentiles `json:"irr" yaml:"irr"`
	MOIC            montecarlo.Percentiles `json:"moic" yaml:"moic"`
	ExitValue       montecarlo.Percentiles `json:"exit_value" yaml:"exit_value"`
	ProbIRRAboveBar int                    `json:"prob_irr_above_bar" yaml:"prob_irr_above_bar"`
	IRRBar          float64                `json:"irr_bar" yaml:"irr_bar"`
	FiredRules      []Rule                 `json:"fired_rules" yaml:"fired_rules"`
	Histogram       []montecarlo.Bin       `json:"histogram,omitempty" yaml:"-"`
}

// DealResult keeps the batch next to its summary for export.
type DealResult struct {
	Batch   *montecarlo.Batch[Rule]
	Summary DealSummary
}

// RunDeal validates p and runs the deal Monte Carlo.
func RunDeal(p DealParams, runs int, src rand.Source) (*DealResult, error) {
	if err := errors.Join(p.Validate(), CheckRuns(runs, DealRunBounds)); err != nil {
		return nil, err
	}
	batch, err := montecarlo.Simulate[Rule](DealModel{Params: p}, runs, src)
	if err != nil {
		return nil, err
	}
	prob, err := batch.ProbabilityAtLeast(MetricIRR, dealIRRBar)
	if err != nil {
		return nil, err
	}
	return &DealResult{
		Batch: batch,
		Summary: DealSummary{
			Params:          p,
			Requested:       batch.Requested,
			Retained:        batch.Retained(),
			IRR:             batch.Summary[MetricIRR],
			MOIC:            batch.Summary[MetricMOIC],
			ExitValue:       batch.Summary[MetricExitValue],
			ProbIRRAboveBar: prob,
			IRRBar:          dealIRRBar,
			FiredRules:      batch.Fired.Sorted(),
			Histogram:       montecarlo.Histogram(batch.Series[MetricIRR], dealHistogramBin),
		},
	}, nil
}

// SortRules orders rules by enumeration and removes duplicates. Summaries
// echoed back by clients go through it before prompting.
func SortRules(rules []Rule) []Rule {
	set := montecarlo.NewRuleSet[Rule]()
	set.Add(rules...)
	return set.Sorted()
}
