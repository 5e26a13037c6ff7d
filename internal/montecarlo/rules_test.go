package montecarlo

import (
	"encoding/json"
	"testing"
)

func TestRuleSetSortedEmptyEncodesAsArray(t *testing.T) {
	var unset *RuleSet[testRule]
	for name, set := range map[string]*RuleSet[testRule]{"nil": unset, "empty": NewRuleSet[testRule]()} {
		t.Run(name, func(t *testing.T) {
			got := set.Sorted()
			if got == nil {
				t.Fatalf("expected non-nil slice")
			}
			raw, err := json.Marshal(struct {
				FiredRules []testRule `json:"fired_rules"`
			}{got})
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(raw) != `{"fired_rules":[]}` {
				t.Fatalf("unexpected encoding %s", raw)
			}
		})
	}
}

func TestRuleSetSortedEnumerationOrder(t *testing.T) {
	set := NewRuleSet[testRule]()
	set.Add(ruleHigh, ruleLow, ruleHigh)
	got := set.Sorted()
	if len(got) != 2 || got[0] != ruleLow || got[1] != ruleHigh {
		t.Fatalf("unexpected order %v", got)
	}
}
