package scenario

import "fmt"

// Rule identifies a conditional adjustment that can fire during a run.
type Rule int

const (
	RuleExpansionTailwind Rule = iota + 1
	RuleMildRecession
	RuleMgmtCostTakeout
	RuleSevereRecession
	RuleMgmtAggressiveCuts
	RuleRetentionInitiative
	RulePricingBacklash

	RuleConsultantGrowth
	RuleSupplierPriceLock
	RuleCustomerChurnRisk
	RuleValuationSevereStress

	RuleOpsPricingChurn
	RuleOpsStressCostBump
	RuleOpsCustomerSuccess
	RuleOpsMildRecession
	RuleOpsSevereRecession

	RuleCxOMildRecession
	RuleCxOSevereRecession
	RuleCxOCostControl
	RuleCxOGrowthInvestment
)

type ruleInfo struct {
	key  string
	text string
}

var ruleTable = map[Rule]ruleInfo{
	RuleExpansionTailwind:   {"expansion_tailwind", "Expansion: market tailwind boosts growth and margin."},
	RuleMildRecession:       {"mild_recession", "Mild Recession: growth and margin hit."},
	RuleMgmtCostTakeout:     {"mgmt_cost_takeout", "Mgmt: Cost takeout adds +1 margin in downturn."},
	RuleSevereRecession:     {"severe_recession", "Severe Recession: bigger hits to growth/margin, churn rises."},
	RuleMgmtAggressiveCuts:  {"mgmt_aggressive_cuts", "Mgmt: Aggressive cost cutting in severe downturn."},
	RuleRetentionInitiative: {"retention_initiative", "Mgmt: Retention initiative deployed, wins back some customers (lower churn), slight margin cost."},
	RulePricingBacklash:     {"pricing_backlash", "Customers: Backlash to high pricing, churn ticks up."},

	RuleConsultantGrowth:      {"consultant_growth", "Consultant Growth Forecast (+2% growth)"},
	RuleSupplierPriceLock:     {"supplier_price_lock", "Supplier Price Lock (-0.5x multiple)"},
	RuleCustomerChurnRisk:     {"customer_churn_risk", "Customer Churn Risk (-0.5x multiple)"},
	RuleValuationSevereStress: {"valuation_severe_stress", "Severe Recession: extra multiple and growth compression in every draw."},

	RuleOpsPricingChurn:    {"ops_pricing_churn", "Some churn backlash from higher pricing."},
	RuleOpsStressCostBump:  {"ops_stress_cost_bump", "Mgmt: aggressive cost stance adds 4% EBITDA under market stress."},
	RuleOpsCustomerSuccess: {"ops_customer_success", "Customer success initiative reduced churn in stress."},
	RuleOpsMildRecession:   {"ops_mild_recession", "Revenue/EBITDA drag and churn up in mild recession."},
	RuleOpsSevereRecession: {"ops_severe_recession", "Severe recession hits revenue/EBITDA, churn spikes."},

	RuleCxOMildRecession:    {"cxo_mild_recession", "Mild recession: revenue and EBITDA down 3%, churn up 0.7."},
	RuleCxOSevereRecession:  {"cxo_severe_recession", "Severe recession: revenue down 6%, EBITDA down 7%, churn up 1.8."},
	RuleCxOCostControl:      {"cxo_cost_control", "Aggressive cost control lifts EBITDA 3% and cash conversion 1%."},
	RuleCxOGrowthInvestment: {"cxo_growth_investment", "Incremental growth investment lifts revenue 3% and NPS 0.7."},
}

var ruleByKey = func() map[string]Rule {
	out := make(map[string]Rule, len(ruleTable))
	for r, info := range ruleTable {
		out[info.key] = r
	}
	return out
}()

// String returns the display text shown on the dashboard.
func (r Rule) String() string {
	if info, ok := ruleTable[r]; ok {
		return info.text
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Key returns the stable identifier used on the wire.
func (r Rule) Key() string {
	if info, ok := ruleTable[r]; ok {
		return info.key
	}
	return ""
}

// ParseRule resolves a wire identifier.
func ParseRule(key string) (Rule, error) {
	if r, ok := ruleByKey[key]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unknown rule %q", key)
}

func (r Rule) MarshalText() ([]byte, error) {
	key := r.Key()
	if key == "" {
		return nil, fmt.Errorf("rule %d has no identifier", int(r))
	}
	return []byte(key), nil
}

func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := ParseRule(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
