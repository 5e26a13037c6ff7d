package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pe-scenario-lab/backend/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "ref.db"), true)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db)
}

func TestCompsAndFinancials(t *testing.T) {
	svc := newTestService(t)
	comps, err := svc.Comps(store.DatasetValuation)
	if err != nil {
		t.Fatalf("comps: %v", err)
	}
	if len(comps) != 6 || comps[3].Company != "Delta" || comps[3].EBITDAMultiple != 10.1 {
		t.Fatalf("unexpected valuation comps %+v", comps)
	}
	comps[0].Company = "mutated"
	again, _ := svc.Comps(store.DatasetValuation)
	if again[0].Company != "Alpha" {
		t.Fatalf("cache leaked a caller mutation")
	}

	fin, err := svc.Financials()
	if err != nil {
		t.Fatalf("financials: %v", err)
	}
	if len(fin) != 5 || fin[0].Company != "Target" {
		t.Fatalf("unexpected financials %+v", fin)
	}
	if _, err := svc.Comps("unknown"); err == nil {
		t.Fatalf("expected error for empty dataset")
	}
}

func TestLoadFromCSV(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Comps(store.DatasetAssociate); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	path := filepath.Join(t.TempDir(), "comps.csv")
	body := strings.Join([]string{
		"dataset,company,ebitda_multiple,growth,margin,is_target",
		"associate,North,9.5,11,,",
		"associate,South,7.5,6,,false",
		"associate,Target,8.2,7,,true",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	n, err := svc.LoadFromCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows loaded got %d", n)
	}
	comps, err := svc.Comps(store.DatasetAssociate)
	if err != nil {
		t.Fatalf("comps: %v", err)
	}
	if len(comps) != 3 || comps[0].Company != "North" || !comps[2].IsTarget {
		t.Fatalf("cache not refreshed: %+v", comps)
	}
	valuation, _ := svc.Comps(store.DatasetValuation)
	if len(valuation) != 6 {
		t.Fatalf("untouched dataset changed: %d rows", len(valuation))
	}
}

func TestParseCompsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown dataset", "deal,Alpha,8,9,,\n"},
		{"bad number", "valuation,Alpha,eight,9,,\nvaluation,Target,8,9,,true\n"},
		{"short row", "valuation,Alpha,8\n"},
		{"no target", "valuation,Alpha,8,9,18,\n"},
		{"empty company", "valuation, ,8,9,18,\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseComps(strings.NewReader(tc.body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
