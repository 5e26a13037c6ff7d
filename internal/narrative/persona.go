// Package narrative turns a tool's simulation summary into the system
// instruction and user prompt sent to a text generator.
package narrative

import (
	"fmt"
	"strings"

	"pe-scenario-lab/backend/internal/scenario"
)

// Persona is the reviewer voice requested for a narrative.
type Persona int

const (
	DealPartner Persona = iota + 1
	VP
	Associate
	OperatingPartner
	CFO
	COO
	CEO
	CRO
)

var personaNames = map[Persona]string{
	DealPartner:      "Deal Partner",
	VP:               "VP",
	Associate:        "Associate",
	OperatingPartner: "Operating Partner",
	CFO:              "CFO",
	COO:              "COO",
	CEO:              "CEO",
	CRO:              "CRO",
}

func (p Persona) String() string {
	if name, ok := personaNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Persona(%d)", int(p))
}

func foldName(s string) string {
	r := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// ParsePersona accepts display names in any case, with or without separators.
func ParsePersona(s string) (Persona, error) {
	want := foldName(s)
	for p, name := range personaNames {
		if foldName(name) == want {
			return p, nil
		}
	}
	return 0, &scenario.ValidationError{Field: "persona", Reason: fmt.Sprintf("unknown persona %q", s)}
}

func (p Persona) MarshalText() ([]byte, error) {
	if _, ok := personaNames[p]; !ok {
		return nil, fmt.Errorf("persona %d has no name", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Persona) UnmarshalText(text []byte) error {
	parsed, err := ParsePersona(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type brief struct {
	personas  []Persona
	systems   map[Persona]string
	lead      string
	questions [3]string
	style     string
}

var briefs = map[scenario.Tool]brief{
	scenario.ToolDeal: {
		personas: []Persona{DealPartner, CFO, OperatingPartner},
		systems: map[Persona]string{
			DealPartner:      "You are a senior private equity deal partner evaluating a scenario simulation.",
			CFO:              "You are the CFO of a private equity-backed company, reviewing a forward-looking scenario simulation.",
			OperatingPartner: "You are an operating partner advising on post-acquisition value creation and risk management.",
		},
		lead: "Given the following scenario and outcomes:",
		questions: [3]string{
			"Identify the main risk and upside drivers.",
			"Suggest two or three concrete actions for deal structuring or post-close value creation.",
			"Would you recommend proceeding, and why?",
		},
		style: "Respond in a practical, board-ready style.",
	},
	scenario.ToolValuation: {
		personas: []Persona{VP, CFO, OperatingPartner},
		systems: map[Persona]string{
			VP:               "You are a private equity VP evaluating a valuation scenario.",
			CFO:              "You are the CFO of a target company, reviewing private equity bid scenarios.",
			OperatingPartner: "You are an operating partner advising on valuation, risk, and upside scenarios.",
		},
		lead: "Given the scenario and results below, comment on:",
		questions: [3]string{
			"Main risk/upside drivers.",
			"2-3 concrete actions for negotiation, bid, or post-close planning.",
			"Should the sponsor bid at P50 or take more/less risk?",
		},
		style: "Write for investment committee context.",
	},
	scenario.ToolAssociate: {
		personas: []Persona{Associate, VP, OperatingPartner},
		systems: map[Persona]string{
			Associate:        "You are a private equity associate writing an analysis pack summary.",
			VP:               "You are a PE VP reviewing the associate's data pack and analysis.",
			OperatingPartner: "You are an operating partner, reviewing the data pack for operational insights.",
		},
		lead: "Given the pack below, summarize:",
		questions: [3]string{
			"How does the target stack up on the selected KPI?",
			"Any red/green flags in the data or comps?",
			"What next questions or analyses should go in the IC deck?",
		},
		style: "Write in a crisp, action-oriented way for a PE audience.",
	},
	scenario.ToolOperating: {
		personas: []Persona{OperatingPartner, CFO, COO},
		systems: map[Persona]string{
			OperatingPartner: "You are a PE operating partner. Review the simulated dashboard, levers, and bands. Recommend 2-3 next moves and flag any risk.",
			CFO:              "You are a portfolio company CFO reviewing OP simulation and recommending actions.",
			COO:              "You are a COO, reviewing dashboard and simulation to prioritize ops actions.",
		},
		lead: "Given the simulation and dashboard, answer:",
		questions: [3]string{
			"What KPIs are on/off track? What stands out?",
			"Suggest 2-3 practical operating moves or board recommendations.",
			"Where are the biggest risks if macro worsens?",
		},
		style: "Be clear, board-oriented, and concise.",
	},
	scenario.ToolCxO: {
		personas: []Persona{CEO, CFO, COO},
		systems: map[Persona]string{
			CEO: "You are the CEO of a portfolio company, reviewing scenario simulation and resource allocation.",
			CFO: "You are the CFO, prioritizing financial discipline and risk.",
			COO: "You are the COO, focusing on execution and ops levers.",
		},
		lead: "Given the scenario and dashboard below, answer:",
		questions: [3]string{
			"What KPIs are at risk/off-track, and what stands out?",
			"Suggest 2-3 practical moves for the exec team or board.",
			"Any risks or additional analyses needed if macro worsens?",
		},
		style: "Be practical, board-oriented, and concise.",
	},
	scenario.ToolManagement: {
		personas: []Persona{CEO, COO, CRO},
		systems: map[Persona]string{
			CEO: "You are the CEO, reviewing the initiative tracker and KPI trends for board.",
			COO: "You are the COO, prioritizing execution and next steps.",
			CRO: "You are the CRO, focusing on revenue, growth, and pipeline.",
		},
		lead: "Given the data and initiatives below, answer:",
		questions: [3]string{
			"What KPIs are tracking/not tracking?",
			"Which initiatives are driving results?",
			"Suggest 2-3 next management or board actions.",
		},
		style: "Write in a concise, board-oriented style.",
	},
}

// Personas lists the reviewers a tool offers, default first.
func Personas(tool scenario.Tool) []Persona {
	return append([]Persona(nil), briefs[tool].personas...)
}

// resolve returns the tool's brief and checks persona against it. The zero
// persona selects the tool's default.
func resolve(tool scenario.Tool, persona Persona) (brief, Persona, error) {
	b, ok := briefs[tool]
	if !ok {
		return brief{}, 0, &scenario.ValidationError{Field: "tool", Reason: fmt.Sprintf("unknown tool %q", tool)}
	}
	if persona == 0 {
		return b, b.personas[0], nil
	}
	if _, ok := b.systems[persona]; !ok {
		return brief{}, 0, &scenario.ValidationError{Field: "persona", Reason: fmt.Sprintf("%s is not offered for %s", persona, tool)}
	}
	return b, persona, nil
}
