package api

import (
	"strings"
	"time"

	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/store"
)

const defaultRuns = 500

// DealRequest selects a preset or explicit levers for the deal simulation.
// Explicit params win over the preset.
type DealRequest struct {
	Preset string               `json:"preset"`
	Params *scenario.DealParams `json:"params"`
	Runs   int                  `json:"runs"`
	Seed   *uint64              `json:"seed"`
}

func (r DealRequest) resolve() (scenario.DealParams, error) {
	if r.Params != nil {
		p := *r.Params
		if p.Preset == "" {
			p.Preset = strings.TrimSpace(r.Preset)
		}
		return p, nil
	}
	return scenario.DealPreset(firstNonEmpty(r.Preset, "Base"))
}

// ValuationRequest selects a preset or explicit levers for the bid range.
type ValuationRequest struct {
	Preset string                    `json:"preset"`
	Params *scenario.ValuationParams `json:"params"`
	Runs   int                       `json:"runs"`
	Seed   *uint64                   `json:"seed"`
}

func (r ValuationRequest) resolve() (scenario.ValuationParams, error) {
	if r.Params != nil {
		p := *r.Params
		if p.Preset == "" {
			p.Preset = strings.TrimSpace(r.Preset)
		}
		return p, nil
	}
	return scenario.ValuationPreset(firstNonEmpty(r.Preset, "Base"))
}

// AssociateRequest chooses comps and the KPI to benchmark. A nil comps list
// selects every peer.
type AssociateRequest struct {
	Comps  []string            `json:"comps"`
	KPI    scenario.CompKPI    `json:"kpi"`
	Metric scenario.PackMetric `json:"metric"`
	Runs   int                 `json:"runs"`
	Seed   *uint64             `json:"seed"`
}

func (r AssociateRequest) resolve(comps []scenario.Comp) scenario.AssociateParams {
	p := scenario.DefaultAssociateParams(comps)
	if r.Comps != nil {
		p.Comps = r.Comps
	}
	if r.KPI != "" {
		p.KPI = r.KPI
	}
	if r.Metric != "" {
		p.Metric = r.Metric
	}
	return p
}

// OperatingRequest carries the levers and the KPI to band.
type OperatingRequest struct {
	Levers *scenario.OperatingLevers `json:"levers"`
	KPI    string                    `json:"kpi"`
	Runs   int                       `json:"runs"`
	Seed   *uint64                   `json:"seed"`
}

func (r OperatingRequest) levers() scenario.OperatingLevers {
	if r.Levers != nil {
		return *r.Levers
	}
	return scenario.DefaultOperatingLevers()
}

// CxORequest carries the allocation sliders.
type CxORequest struct {
	Params *scenario.CxOParams `json:"params"`
}

func (r CxORequest) params() scenario.CxOParams {
	if r.Params != nil {
		return *r.Params
	}
	return scenario.DefaultCxOParams()
}

func runsOrDefault(runs int) int {
	if runs == 0 {
		return defaultRuns
	}
	return runs
}

// SimulationResponse wraps one tool's summary.
type SimulationResponse[T any] struct {
	Tool      scenario.Tool `json:"tool"`
	Summary   T             `json:"summary"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// DealNarrativeRequest echoes a deal summary back for review.
type DealNarrativeRequest struct {
	Persona string               `json:"persona"`
	Summary scenario.DealSummary `json:"summary"`
}

// ValuationNarrativeRequest echoes a valuation summary back for review.
type ValuationNarrativeRequest struct {
	Persona string                    `json:"persona"`
	Summary scenario.ValuationSummary `json:"summary"`
}

// AssociateNarrativeRequest echoes an associate summary back for review.
type AssociateNarrativeRequest struct {
	Persona string                    `json:"persona"`
	Summary scenario.AssociateSummary `json:"summary"`
}

// OperatingNarrativeRequest echoes the dashboard and, optionally, a KPI band.
type OperatingNarrativeRequest struct {
	Persona    string                       `json:"persona"`
	Projection scenario.OperatingProjection `json:"projection"`
	Simulation *scenario.OperatingSummary   `json:"simulation"`
}

// CxONarrativeRequest echoes a resource allocation projection.
type CxONarrativeRequest struct {
	Persona    string                 `json:"persona"`
	Projection scenario.CxOProjection `json:"projection"`
}

// ManagementNarrativeRequest names the session whose tracker is reviewed.
type ManagementNarrativeRequest struct {
	Persona   string   `json:"persona"`
	SessionID string   `json:"session_id"`
	KPIs      []string `json:"kpis"`
}

// NarrativeResponse carries the generated text unmodified.
type NarrativeResponse struct {
	Tool      scenario.Tool `json:"tool"`
	Persona   string        `json:"persona"`
	Narrative string        `json:"narrative"`
	ElapsedMs int64         `json:"elapsed_ms"`
}

// ToolDTO describes one dashboard for clients building their sidebar.
type ToolDTO struct {
	Tool       scenario.Tool    `json:"tool"`
	MonteCarlo bool             `json:"monte_carlo"`
	Runs       *scenario.Bounds `json:"runs,omitempty"`
	Presets    []string         `json:"presets,omitempty"`
	Personas   []string         `json:"personas"`
}

// InitiativeDTO is the API representation of a persisted initiative.
type InitiativeDTO struct {
	ID            uint      `json:"id"`
	Position      int       `json:"position"`
	Name          string    `json:"name"`
	KPI           string    `json:"kpi"`
	Impact        float64   `json:"impact"`
	EffectiveDate string    `json:"effective_date"`
	Complete      bool      `json:"complete"`
	Label         string    `json:"label"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromInitiative converts a store record into its DTO.
func FromInitiative(r store.InitiativeRecord) InitiativeDTO {
	in := r.Initiative()
	return InitiativeDTO{
		ID:            r.ID,
		Position:      r.Position,
		Name:          r.Name,
		KPI:           r.KPI,
		Impact:        r.Impact,
		EffectiveDate: in.EffectiveDate.Format(scenario.DateLayout),
		Complete:      r.Complete,
		Label:         in.Label(),
		CreatedAt:     r.CreatedAt,
	}
}

func fromInitiatives(records []store.InitiativeRecord) []InitiativeDTO {
	out := make([]InitiativeDTO, 0, len(records))
	for _, r := range records {
		out = append(out, FromInitiative(r))
	}
	return out
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID   string          `json:"session_id"`
	CreatedAt   time.Time       `json:"created_at"`
	Initiatives []InitiativeDTO `json:"initiatives"`
}

// CreateInitiativeRequest appends an initiative to a session.
type CreateInitiativeRequest struct {
	Name          string  `json:"name"`
	KPI           string  `json:"kpi"`
	Impact        float64 `json:"impact"`
	EffectiveDate string  `json:"effective_date"`
	Complete      bool    `json:"complete"`
}

func (r CreateInitiativeRequest) initiative() (scenario.Initiative, error) {
	date, err := scenario.ParseDate(r.EffectiveDate)
	if err != nil {
		return scenario.Initiative{}, err
	}
	return scenario.Initiative{
		Name:          strings.TrimSpace(r.Name),
		KPI:           strings.TrimSpace(r.KPI),
		Impact:        r.Impact,
		EffectiveDate: date,
		Complete:      r.Complete,
	}, nil
}

// UpdateInitiativeRequest toggles completion.
type UpdateInitiativeRequest struct {
	Complete *bool `json:"complete"`
}

// SeriesPointDTO is one day of the tracker series.
type SeriesPointDTO struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// KPISeriesResponse is the tracker chart with initiative overlays.
type KPISeriesResponse struct {
	SessionID string           `json:"session_id"`
	KPIs      []string         `json:"kpis"`
	Series    []SeriesPointDTO `json:"series"`
	Applied   []string         `json:"applied"`
}

func fromSeries(points []scenario.SeriesPoint, kpis []string) []SeriesPointDTO {
	out := make([]SeriesPointDTO, 0, len(points))
	for _, pt := range points {
		values := make(map[string]float64, len(kpis))
		for _, k := range kpis {
			values[k] = pt.Values[k]
		}
		out = append(out, SeriesPointDTO{Date: pt.Date.Format(scenario.DateLayout), Values: values})
	}
	return out
}
