package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"

	"pe-scenario-lab/backend/internal/montecarlo"
)

// Associate pack constants.
const (
	TargetCompany   = "Target"
	outlierRevenue  = 250.0
	MetricKPI       = "kpi"
	sensitivityStep = 0.10
)

var AssociateRunBounds = Bounds{100, 2000}

// Financial is one row of the raw data pack.
type Financial struct {
	Company   string  `json:"company" yaml:"company"`
	Revenue   float64 `json:"revenue" yaml:"revenue"`
	EBITDA    float64 `json:"ebitda" yaml:"ebitda"`
	Employees float64 `json:"employees" yaml:"employees"`
}

// Comp is a peer company reference record.
type Comp struct {
	Company        string  `json:"company" yaml:"company"`
	EBITDAMultiple float64 `json:"ebitda_multiple" yaml:"ebitda_multiple"`
	Growth         float64 `json:"growth" yaml:"growth"`
	Margin         float64 `json:"margin,omitempty" yaml:"margin,omitempty"`
	IsTarget       bool    `json:"is_target" yaml:"is_target"`
}

// PackMetric selects the sensitivity column.
type PackMetric string

const (
	PackRevenue   PackMetric = "Revenue"
	PackEBITDA    PackMetric = "EBITDA"
	PackEmployees PackMetric = "Employees"
)

func (m PackMetric) valid() bool {
	return m == PackRevenue || m == PackEBITDA || m == PackEmployees
}

func (m PackMetric) of(f Financial) float64 {
	switch m {
	case PackEBITDA:
		return f.EBITDA
	case PackEmployees:
		return f.Employees
	}
	return f.Revenue
}

// CompKPI selects the benchmarked comps column.
type CompKPI string

const (
	KPIEBITDAMultiple CompKPI = "EBITDA_Multiple"
	KPIRevenueGrowth  CompKPI = "RevenueGrowth"
)

func (k CompKPI) valid() bool {
	return k == KPIEBITDAMultiple || k == KPIRevenueGrowth
}

func (k CompKPI) of(c Comp) float64 {
	if k == KPIRevenueGrowth {
		return c.Growth
	}
	return c.EBITDAMultiple
}

// CleanFinancials drops outlier rows (revenue at or above 250) and reports how many were removed.
func CleanFinancials(rows []Financial) ([]Financial, int) {
	clean := make([]Financial, 0, len(rows))
	for _, r := range rows {
		if r.Revenue < outlierRevenue {
			clean = append(clean, r)
		}
	}
	return clean, len(rows) - len(clean)
}

// Sensitivity is the ±10% table for one metric of the target.
type Sensitivity struct {
	Metric  PackMetric `json:"metric" yaml:"metric"`
	Minus10 float64    `json:"minus_10" yaml:"minus_10"`
	Base    float64    `json:"base" yaml:"base"`
	Plus10  float64    `json:"plus_10" yaml:"plus_10"`
}

// SensitivityFor builds the table from the cleaned pack.
func SensitivityFor(clean []Financial, metric PackMetric) (Sensitivity, error) {
	if !metric.valid() {
		return Sensitivity{}, &ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metric)}
	}
	idx := slices.IndexFunc(clean, func(f Financial) bool { return f.Company == TargetCompany })
	if idx < 0 {
		return Sensitivity{}, errors.New("target company missing from cleaned data pack")
	}
	base := metric.of(clean[idx])
	return Sensitivity{
		Metric:  metric,
		Minus10: round(base*(1-sensitivityStep), 1),
		Base:    base,
		Plus10:  round(base*(1+sensitivityStep), 1),
	}, nil
}

// AssociateParams choose the comps set, KPI and sensitivity metric.
type AssociateParams struct {
	Comps  []string   `json:"comps" yaml:"comps"`
	KPI    CompKPI    `json:"kpi" yaml:"kpi"`
	Metric PackMetric `json:"metric" yaml:"metric"`
}

// DefaultAssociateParams selects every non-target comp.
func DefaultAssociateParams(comps []Comp) AssociateParams {
	p := AssociateParams{KPI: KPIEBITDAMultiple, Metric: PackRevenue}
	for _, c := range comps {
		if !c.IsTarget {
			p.Comps = append(p.Comps, c.Company)
		}
	}
	return p
}

// Validate checks the enumerations and that every selected comp exists.
func (p AssociateParams) Validate(comps []Comp) error {
	var errs []error
	if !p.KPI.valid() {
		errs = append(errs, &ValidationError{Field: "kpi", Reason: fmt.Sprintf("unknown kpi %q", p.KPI)})
	}
	if !p.Metric.valid() {
		errs = append(errs, &ValidationError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", p.Metric)})
	}
	for _, name := range p.Comps {
		if !slices.ContainsFunc(comps, func(c Comp) bool { return c.Company == name }) {
			errs = append(errs, &ValidationError{Field: "comps", Reason: fmt.Sprintf("unknown company %q", name)})
		}
	}
	return errors.Join(errs...)
}

// CuratedComps returns the selected peers plus the target, in reference order.
func CuratedComps(comps []Comp, selected []string) []Comp {
	out := make([]Comp, 0, len(selected)+1)
	for _, c := range comps {
		if c.IsTarget || slices.Contains(selected, c.Company) {
			out = append(out, c)
		}
	}
	return out
}

// AssociateModel draws the KPI from a normal fitted to the peer set. With
// fewer than two peers the sample deviation is NaN and every draw is dropped.
type AssociateModel struct {
	Mean, StdDev float64
}

// NewAssociateModel fits mean and sample standard deviation of the peers' KPI.
func NewAssociateModel(peers []Comp, kpi CompKPI) AssociateModel {
	values := make([]float64, 0, len(peers))
	for _, c := range peers {
		if !c.IsTarget {
			values = append(values, kpi.of(c))
		}
	}
	return AssociateModel{Mean: stat.Mean(values, nil), StdDev: stat.StdDev(values, nil)}
}

func (AssociateModel) Metrics() []string { return []string{MetricKPI} }

func (m AssociateModel) Sample(d *montecarlo.Draw) montecarlo.Run[Rule] {
	return montecarlo.Run[Rule]{
		Inputs:  map[string]float64{"mean": m.Mean, "std": m.StdDev},
		Outputs: map[string]float64{MetricKPI: d.Normal(m.Mean, m.StdDev)},
	}
}

// AssociatePack is the fetched and cleaned data plus curated comps.
type AssociatePack struct {
	Raw      []Financial `json:"raw" yaml:"raw"`
	Clean    []Financial `json:"clean" yaml:"clean"`
	Outliers int         `json:"outliers_removed" yaml:"outliers_removed"`
	Comps    []Comp      `json:"comps" yaml:"comps"`
}

// BuildPack cleans the financials and curates comps for p.
func BuildPack(financials []Financial, comps []Comp, p AssociateParams) AssociatePack {
	clean, removed := CleanFinancials(financials)
	return AssociatePack{Raw: financials, Clean: clean, Outliers: removed, Comps: CuratedComps(comps, p.Comps)}
}

// AssociateSummary is the benchmarking result.
type AssociateSummary struct {
	Params      AssociateParams        `json:"params" yaml:"params"`
	Target      Financial              `json:"target" yaml:"target"`
	TargetKPI   float64                `json:"target_kpi" yaml:"target_kpi"`
	Sensitivity Sensitivity            `json:"sensitivity" yaml:"sensitivity"`
	Requested   int                    `json:"requested" yaml:"requested"`
	Retained    int                    `json:"retained" yaml:"retained"`
	Band        montecarlo.Percentiles `json:"band" yaml:"band"`
	Histogram   []montecarlo.Bin       `json:"histogram,omitempty" yaml:"-"`
}

// AssociateResult pairs the batch with its summary.
type AssociateResult struct {
	Pack    AssociatePack
	Batch   *montecarlo.Batch[Rule]
	Summary AssociateSummary
}

// RunAssociate benchmarks the target against the curated comps.
func RunAssociate(financials []Financial, comps []Comp, p AssociateParams, runs int, src rand.Source) (*AssociateResult, error) {
	if err := errors.Join(p.Validate(comps), CheckRuns(runs, AssociateRunBounds)); err != nil {
		return nil, err
	}
	pack := BuildPack(financials, comps, p)
	sens, err := SensitivityFor(pack.Clean, p.Metric)
	if err != nil {
		return nil, err
	}
	targetIdx := slices.IndexFunc(pack.Comps, func(c Comp) bool { return c.IsTarget })
	if targetIdx < 0 {
		return nil, errors.New("target company missing from comps")
	}
	financialIdx := slices.IndexFunc(pack.Clean, func(f Financial) bool { return f.Company == TargetCompany })

	batch, err := montecarlo.Simulate[Rule](NewAssociateModel(pack.Comps, p.KPI), runs, src)
	if err != nil {
		return nil, err
	}
	return &AssociateResult{
		Pack:  pack,
		Batch: batch,
		Summary: AssociateSummary{
			Params:      p,
			Target:      pack.Clean[financialIdx],
			TargetKPI:   p.KPI.of(pack.Comps[targetIdx]),
			Sensitivity: sens,
			Requested:   batch.Requested,
			Retained:    batch.Retained(),
			Band:        batch.Summary[MetricKPI],
			Histogram:   montecarlo.Histogram(batch.Series[MetricKPI], 20),
		},
	}, nil
}
