package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"pe-scenario-lab/backend/internal/scenario"
)

// Request is one narrative call: the persona framing goes out as the system
// instruction and Prompt as the user message.
type Request struct {
	Tool    scenario.Tool `json:"tool"`
	Persona Persona       `json:"persona"`
	System  string        `json:"system"`
	Prompt  string        `json:"prompt"`
}

func compose(tool scenario.Tool, persona Persona, summary string) (Request, error) {
	b, persona, err := resolve(tool, persona)
	if err != nil {
		return Request{}, err
	}
	system := b.systems[persona]

	builder := &strings.Builder{}
	builder.WriteString(system + "\n")
	builder.WriteString(b.lead + "\n")
	builder.WriteString(strings.TrimRight(summary, "\n") + "\n")
	for i, q := range b.questions {
		fmt.Fprintf(builder, "%d. %s\n", i+1, q)
	}
	builder.WriteString(b.style)
	return Request{Tool: tool, Persona: persona, System: system, Prompt: builder.String()}, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ruleList renders rule texts in enumeration order, or "None".
func ruleList(rules []scenario.Rule) string {
	rules = scenario.SortRules(rules)
	if len(rules) == 0 {
		return "None"
	}
	texts := make([]string, 0, len(rules))
	for _, r := range rules {
		texts = append(texts, r.String())
	}
	return strings.Join(texts, "; ")
}

func presetName(p string) string {
	if strings.TrimSpace(p) == "" {
		return "Custom"
	}
	return p
}

// Deal builds the deal partner review prompt.
func Deal(s scenario.DealSummary, persona Persona) (Request, error) {
	p := s.Params
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Scenario preset: %s\n", presetName(p.Preset))
	fmt.Fprintf(builder, "Growth: %s%%, Margin: %s%%, Multiple: %sx, Pricing Power: %s%%, Churn: %s%%, Macro: %s\n",
		num(p.Growth), num(p.Margin), num(p.Multiple), num(p.Pricing), num(p.Churn), p.Macro)
	fmt.Fprintf(builder, "Behavior rules enabled: Cost Takeout: %s, Retention Initiative: %s, Pricing Backlash: %s\n",
		yesNo(p.ManagementResponse), yesNo(p.RetentionAction), yesNo(p.PricingBacklash))
	fmt.Fprintf(builder, "Monte Carlo Results (%d of %d runs): Median IRR: %.1f%%, P25-P75 IRR: %.1f%%-%.1f%%, Median MOIC: %.2fx, P25-P75 MOIC: %.2fx-%.2fx, Probability of >%s%% IRR: %d%%\n",
		s.Retained, s.Requested, s.IRR.P50, s.IRR.P25, s.IRR.P75, s.MOIC.P50, s.MOIC.P25, s.MOIC.P75, num(s.IRRBar), s.ProbIRRAboveBar)
	fmt.Fprintf(builder, "Median exit value: $%.0fM\n", s.ExitValue.P50)
	fmt.Fprintf(builder, "Key persona rules that impacted outcomes: %s.", ruleList(s.FiredRules))
	return compose(scenario.ToolDeal, persona, builder.String())
}

// Valuation builds the VP bid-range review prompt.
func Valuation(s scenario.ValuationSummary, persona Persona) (Request, error) {
	p := s.Params
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Preset: %s\n", presetName(p.Preset))
	fmt.Fprintf(builder, "Base EBITDA: $%sM, Entry Multiple: %sx, Growth: %s%%\n", num(p.EBITDA), num(p.Multiple), num(p.Growth))
	fmt.Fprintf(builder, "Adjusted Multiple: %.2fx, Adjusted Growth: %.1f%%, Macro: %s\n", s.AdjustedMultiple, s.AdjustedGrowth, p.Macro.Label("Normal"))
	fmt.Fprintf(builder, "Persona rules on: %s\n", ruleList(s.FiredRules))
	fmt.Fprintf(builder, "Monte Carlo Bid Range (%d of %d runs): P25-P75 $%.0fM-$%.0fM (P50: $%.0fM)",
		s.Retained, s.Requested, s.EnterpriseValue.P25, s.EnterpriseValue.P75, s.EnterpriseValue.P50)
	return compose(scenario.ToolValuation, persona, builder.String())
}

// AssociatePack builds the data pack commentary prompt.
func AssociatePack(s scenario.AssociateSummary, persona Persona) (Request, error) {
	t := s.Target
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Target company %s: revenue %s, EBITDA %s, employees %s\n", t.Company, num(t.Revenue), num(t.EBITDA), num(t.Employees))
	comps := "None"
	if len(s.Params.Comps) > 0 {
		comps = strings.Join(s.Params.Comps, ", ")
	}
	fmt.Fprintf(builder, "Included comps: %s\n", comps)
	fmt.Fprintf(builder, "Comps %s P50: %.2f, P25-P75: %.2f-%.2f (Target: %.2f)\n", s.Params.KPI, s.Band.P50, s.Band.P25, s.Band.P75, s.TargetKPI)
	fmt.Fprintf(builder, "Sensitivity on %s: base %s, -10%%: %.1f, +10%%: %.1f",
		s.Sensitivity.Metric, num(s.Sensitivity.Base), s.Sensitivity.Minus10, s.Sensitivity.Plus10)
	return compose(scenario.ToolAssociate, persona, builder.String())
}

func dashboard(builder *strings.Builder, rows []scenario.KPIRow) {
	builder.WriteString("Dashboard:\n")
	for _, r := range rows {
		fmt.Fprintf(builder, "- %s: current %s, target %s, simulated %.2f\n", r.KPI, num(r.Current), num(r.Target), r.Simulated)
	}
}

// Operating builds the operating partner review prompt. sim is optional and
// adds the simulated band for the chosen KPI.
func Operating(proj scenario.OperatingProjection, sim *scenario.OperatingSummary, persona Persona) (Request, error) {
	l := proj.Levers
	builder := &strings.Builder{}
	dashboard(builder, proj.Rows)
	fmt.Fprintf(builder, "Market scenario: %s. Value levers: pricing %s, cost takeout %s, customer success %s, automation %s, working capital %s\n",
		l.Market.Label("Normal"), num(l.Pricing), num(l.CostTakeout), num(l.CustomerSuccess), num(l.Automation), num(l.WorkingCapital))
	fmt.Fprintf(builder, "Persona logic: Mgmt aggressive: %s, CX push: %s\n", yesNo(l.MgmtAggressive), yesNo(l.CXAggressive))
	if sim != nil {
		fmt.Fprintf(builder, "Simulated %s: P50 %.1f, Band: %.1f-%.1f\n", sim.KPI, sim.Band.P50, sim.Band.P25, sim.Band.P75)
	}
	fmt.Fprintf(builder, "Special effects: %s", ruleList(proj.Effects))
	return compose(scenario.ToolOperating, persona, builder.String())
}

// CxO builds the executive resource allocation review prompt.
func CxO(proj scenario.CxOProjection, persona Persona) (Request, error) {
	p := proj.Params
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "Scenario: Macro: %s, Cost Control: %s, Incremental Invest: %s\n",
		p.Macro.Label("Normal"), yesNo(p.CostControl), yesNo(p.GrowthInvestment))
	budget := "within"
	if proj.OverBudget {
		budget = "over"
	}
	fmt.Fprintf(builder, "Allocated budget: $%sk of $%sk (%s total budget)\n", num(proj.Allocated), num(proj.TotalBudget), budget)
	builder.WriteString("Projected functional outputs:\n")
	for _, f := range proj.Functions {
		fmt.Fprintf(builder, "- %s: budget %s, projected %s (target %s)\n", f.Function, num(f.Allocated), num(f.Projected), num(f.Target))
	}
	builder.WriteString("Current KPI status:\n")
	for _, k := range proj.TrafficLights {
		fmt.Fprintf(builder, "- %s: %d%% of target (%s)\n", k.KPI, k.Percent, k.Light)
	}
	dashboard(builder, proj.KPIs)
	fmt.Fprintf(builder, "Scenario effects: %s", ruleList(proj.Effects))
	return compose(scenario.ToolCxO, persona, builder.String())
}

// Management builds the initiative tracker review prompt.
func Management(s scenario.TrackerSummary, persona Persona) (Request, error) {
	builder := &strings.Builder{}
	builder.WriteString("KPI trends (last 3 days):\n")
	for _, pt := range s.Recent {
		parts := make([]string, 0, len(s.KPIs))
		for _, k := range s.KPIs {
			parts = append(parts, fmt.Sprintf("%s %.1f", k, pt.Values[k]))
		}
		fmt.Fprintf(builder, "- %s: %s\n", pt.Date.Format(scenario.DateLayout), strings.Join(parts, ", "))
	}
	applied := "None"
	if len(s.Applied) > 0 {
		applied = strings.Join(s.Applied, "; ")
	}
	fmt.Fprintf(builder, "Completed initiatives: %s\n", applied)
	builder.WriteString("All initiatives:")
	if len(s.Initiatives) == 0 {
		builder.WriteString(" None")
	}
	for _, in := range s.Initiatives {
		status := "open"
		if in.Complete {
			status = "complete"
		}
		fmt.Fprintf(builder, "\n- %s [%s]", in.Label(), status)
	}
	return compose(scenario.ToolManagement, persona, builder.String())
}
