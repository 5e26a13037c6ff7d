package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"pe-scenario-lab/backend/internal/montecarlo"
)

// Valuation metric names; enterprise_value is the headline.
const (
	MetricEnterpriseValue = "enterprise_value"
	MetricMultiple        = "multiple"
	MetricEBITDA          = "ebitda"
	MetricGrowth          = "growth"
)

var (
	ValuationMultipleBounds = Bounds{5, 12}
	ValuationEBITDABounds   = Bounds{10, 40}
	ValuationGrowthBounds   = Bounds{0, 20}
	ValuationRunBounds      = Bounds{100, 2000}
)

// ValuationParams drive the VP bid-range model. EBITDA is in $M.
type ValuationParams struct {
	Preset           string  `json:"preset,omitempty" yaml:"preset,omitempty"`
	Multiple         float64 `json:"multiple" yaml:"multiple"`
	EBITDA           float64 `json:"ebitda" yaml:"ebitda"`
	Growth           float64 `json:"growth" yaml:"growth"`
	Macro            Macro   `json:"macro" yaml:"macro"`
	ConsultantGrowth bool    `json:"consultant_growth" yaml:"consultant_growth"`
	SupplierLock     bool    `json:"supplier_lock" yaml:"supplier_lock"`
	ChurnRisk        bool    `json:"churn_risk" yaml:"churn_risk"`
}

var valuationPresets = map[string]ValuationParams{
	"Base":     {Multiple: 8.6, EBITDA: 25, Growth: 8, Macro: MacroNone},
	"Upside":   {Multiple: 9.5, EBITDA: 28, Growth: 10, Macro: MacroExpansion},
	"Downside": {Multiple: 7.5, EBITDA: 21, Growth: 4, Macro: MacroMildRecession},
	"Custom":   {Multiple: 8.6, EBITDA: 25, Growth: 8, Macro: MacroNone},
}

// ValuationPresetNames lists the presets in sidebar order.
var ValuationPresetNames = []string{"Base", "Upside", "Downside", "Custom"}

// ValuationPreset returns a preset with the default diligence toggles
// (consultant forecast and supplier lock on, churn risk off).
func ValuationPreset(name string) (ValuationParams, error) {
	p, ok := valuationPresets[name]
	if !ok {
		return ValuationParams{}, &ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
	}
	p.Preset = name
	p.ConsultantGrowth = true
	p.SupplierLock = true
	return p, nil
}

// Validate checks the sliders and regime.
func (p ValuationParams) Validate() error {
	return errors.Join(
		checkRange("multiple", p.Multiple, ValuationMultipleBounds),
		checkRange("ebitda", p.EBITDA, ValuationEBITDABounds),
		checkRange("growth", p.Growth, ValuationGrowthBounds),
		checkMacro(p.Macro, MacroNone, MacroExpansion, MacroMildRecession, MacroSevereRecession),
	)
}

// Adjusted applies the diligence findings and the macro shift, which are
// deterministic and happen before any draw.
func (p ValuationParams) Adjusted() (multiple, growth float64, rules []Rule) {
	multiple, growth = p.Multiple, p.Growth
	if p.ConsultantGrowth {
		growth += 2
		rules = append(rules, RuleConsultantGrowth)
	}
	if p.SupplierLock {
		multiple -= 0.5
		rules = append(rules, RuleSupplierPriceLock)
	}
	if p.ChurnRisk {
		multiple -= 0.5
		rules = append(rules, RuleCustomerChurnRisk)
	}
	switch p.Macro {
	case MacroExpansion:
		multiple += 0.5
		growth += 1
	case MacroMildRecession:
		multiple -= 0.7
		growth -= 2
	case MacroSevereRecession:
		multiple -= 1.0
		growth -= 4
	}
	return multiple, growth, rules
}

// ValuationModel samples implied enterprise value.
type ValuationModel struct {
	Params ValuationParams

	multiple, growth float64
	rules            []Rule
}

// NewValuationModel precomputes the adjusted levers.
func NewValuationModel(p ValuationParams) ValuationModel {
	m := ValuationModel{Params: p}
	m.multiple, m.growth, m.rules = p.Adjusted()
	return m
}

func (ValuationModel) Metrics() []string {
	return []string{MetricEnterpriseValue, MetricMultiple, MetricEBITDA, MetricGrowth}
}

func (m ValuationModel) Sample(d *montecarlo.Draw) montecarlo.Run[Rule] {
	mult := d.Normal(m.multiple, 0.3)
	eb := d.Normal(m.Params.EBITDA, 2)
	g := d.Normal(m.growth, 1.2)
	fired := append([]Rule(nil), m.rules...)
	if m.Params.Macro == MacroSevereRecession {
		mult -= math.Abs(d.Normal(0.3, 0.2))
		g -= math.Abs(d.Normal(1, 0.5))
		fired = append(fired, RuleValuationSevereStress)
	}
	ev := eb * mult
	return montecarlo.Run[Rule]{
		Inputs: map[string]float64{"multiple": mult, "ebitda": eb, "growth": g},
		Outputs: map[string]float64{
			MetricEnterpriseValue: ev,
			MetricMultiple:        mult,
			MetricEBITDA:          eb,
			MetricGrowth:          g,
		},
		Fired: fired,
	}
}

// ValuationSummary is the bid-range view.
type ValuationSummary struct {
	Params           ValuationParams        `json:"params" yaml:"params"`
	AdjustedMultiple float64                `json:"adjusted_multiple" yaml:"adjusted_multiple"`
	AdjustedGrowth   float64                `json:"adjusted_growth" yaml:"adjusted_growth"`
	Requested        int                    `json:"requested" yaml:"requested"`
	Retained         int                    `json:"retained" yaml:"retained"`
	EnterpriseValue  montecarlo.Percentiles `json:"enterprise_value" yaml:"enterprise_value"`
	Multiple         montecarlo.Percentiles `json:"multiple" yaml:"multiple"`
	FiredRules       []Rule                 `json:"fired_rules" yaml:"fired_rules"`
	Histogram        []montecarlo.Bin       `json:"histogram,omitempty" yaml:"-"`
}

// ValuationResult pairs the batch with its summary.
type ValuationResult struct {
	Batch   *montecarlo.Batch[Rule]
	Summary ValuationSummary
}

// RunValuation validates p and simulates the bid range.
func RunValuation(p ValuationParams, runs int, src rand.Source) (*ValuationResult, error) {
	if err := errors.Join(p.Validate(), CheckRuns(runs, ValuationRunBounds)); err != nil {
		return nil, err
	}
	model := NewValuationModel(p)
	batch, err := montecarlo.Simulate[Rule](model, runs, src)
	if err != nil {
		return nil, err
	}
	return &ValuationResult{
		Batch: batch,
		Summary: ValuationSummary{
			Params:           p,
			AdjustedMultiple: model.multiple,
			AdjustedGrowth:   model.growth,
			Requested:        batch.Requested,
			Retained:         batch.Retained(),
			EnterpriseValue:  batch.Summary[MetricEnterpriseValue],
			Multiple:         batch.Summary[MetricMultiple],
			FiredRules:       batch.Fired.Sorted(),
			Histogram:        montecarlo.Histogram(batch.Series[MetricEnterpriseValue], 25),
		},
	}, nil
}
