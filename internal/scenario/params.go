// Package scenario holds the formula sets of the six dashboard tools: deal
// returns, VP valuation, associate data pack, operating partner levers, CxO
// resource allocation and the management initiative tracker.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Tool names one dashboard.
type Tool string

const (
	ToolDeal       Tool = "deal"
	ToolValuation  Tool = "valuation"
	ToolAssociate  Tool = "associate"
	ToolOperating  Tool = "operating"
	ToolCxO        Tool = "cxo"
	ToolManagement Tool = "management"
)

// Tools lists every dashboard in sidebar order.
var Tools = []Tool{ToolDeal, ToolValuation, ToolAssociate, ToolOperating, ToolCxO, ToolManagement}

// ParseTool resolves a route segment to a Tool.
func ParseTool(s string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tools {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", s)
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in the closed range.
func (b Bounds) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= b.Min && v <= b.Max
}

// ValidationError reports a field outside its declared range or enumeration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func checkRange(field string, v float64, b Bounds) error {
	if b.Contains(v) {
		return nil
	}
	return &ValidationError{Field: field, Reason: fmt.Sprintf("%g outside [%g, %g]", v, b.Min, b.Max)}
}

// CheckRuns validates a requested Monte Carlo run count.
func CheckRuns(runs int, b Bounds) error {
	return checkRange("runs", float64(runs), b)
}

// Macro is the categorical market regime selector.
type Macro int

const (
	MacroNone Macro = iota
	MacroExpansion
	MacroMildRecession
	MacroSevereRecession
)

var macroNames = map[Macro]string{
	MacroNone:            "None",
	MacroExpansion:       "Expansion",
	MacroMildRecession:   "Mild Recession",
	MacroSevereRecession: "Severe Recession",
}

func (m Macro) String() string {
	if name, ok := macroNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Macro(%d)", int(m))
}

// Label renders the regime using the tool's name for the baseline regime,
// which the valuation and operating screens call "Normal".
func (m Macro) Label(baseline string) string {
	if m == MacroNone && baseline != "" {
		return baseline
	}
	return m.String()
}

// Downturn reports whether the regime is a recession.
func (m Macro) Downturn() bool {
	return m == MacroMildRecession || m == MacroSevereRecession
}

// ParseMacro accepts the display names; "Normal" and the empty string map to MacroNone.
func ParseMacro(s string) (Macro, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "normal":
		return MacroNone, nil
	case "expansion":
		return MacroExpansion, nil
	case "mild recession", "mild_recession":
		return MacroMildRecession, nil
	case "severe recession", "severe_recession":
		return MacroSevereRecession, nil
	}
	return MacroNone, &ValidationError{Field: "macro", Reason: fmt.Sprintf("unknown regime %q", s)}
}

func (m Macro) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Macro) UnmarshalText(text []byte) error {
	parsed, err := ParseMacro(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func checkMacro(m Macro, allowed ...Macro) error {
	for _, a := range allowed {
		if m == a {
			return nil
		}
	}
	return &ValidationError{Field: "macro", Reason: fmt.Sprintf("%s not offered by this tool", m)}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
