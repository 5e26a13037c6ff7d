package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/scenario"
)

func TestNumber(t *testing.T) {
	tests := map[float64]string{
		1:         "1.00",
		2.345:     "2.35",
		-2.345:    "-2.35",
		17.894:    "17.89",
		0.005:     "0.01",
		1234567.8: "1234567.80",
	}
	for in, want := range tests {
		if got := Number(in); got != want {
			t.Fatalf("Number(%v) = %q, want %q", in, got, want)
		}
	}
	if Number(math.NaN()) != "" || Number(math.Inf(1)) != "" {
		t.Fatalf("infinite values should be empty")
	}
}

func readBack(t *testing.T, table Table) [][]string {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, table); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	return records
}

func TestRunsTable(t *testing.T) {
	seed := uint64(6)
	p := scenario.DealParams{Growth: 8, Margin: 18, Multiple: 9, Pricing: 2, Churn: 5}
	res, err := scenario.RunDeal(p, 100, montecarlo.NewSource(&seed))
	if err != nil {
		t.Fatalf("run deal: %v", err)
	}
	records := readBack(t, Runs(res.Batch))
	if len(records) != res.Batch.Retained()+1 {
		t.Fatalf("expected %d lines got %d", res.Batch.Retained()+1, len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "run,input_churn,input_churn_effect,input_growth,input_margin,input_multiple,input_pricing,irr,moic,exit_value" {
		t.Fatalf("unexpected header %s", header)
	}
	first := res.Batch.Runs[0]
	if records[1][0] != "1" || records[1][7] != Number(first.Outputs[scenario.MetricIRR]) {
		t.Fatalf("unexpected first row %v", records[1])
	}
}

func TestKPIAndSeriesTables(t *testing.T) {
	proj, err := scenario.ProjectOperating(scenario.OperatingLevers{Pricing: 10})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	records := readBack(t, KPIs(proj.Rows))
	if records[1][0] != "Revenue" || records[1][3] != "132.00" {
		t.Fatalf("unexpected revenue row %v", records[1])
	}

	series := readBack(t, Series(scenario.BaselineSeries(), []string{scenario.TrackSales, scenario.TrackChurn}, nil))
	if len(series) != 11 || series[0][1] != "Sales" || series[0][3] != "applied_initiatives" {
		t.Fatalf("unexpected series table %v", series[0])
	}
	if series[1][0] != "2024-07-01" || series[1][1] != "100.00" || series[10][2] != "6.00" || series[1][3] != "" {
		t.Fatalf("unexpected series rows %v / %v", series[1], series[10])
	}
}

func TestSeriesCarriesAppliedInitiatives(t *testing.T) {
	applied := []string{"Launch Product A (Sales +6) on 2024-07-06", "Retention Campaign (Churn +1) on 2024-07-08"}
	records := readBack(t, Series(scenario.BaselineSeries(), []string{scenario.TrackSales}, applied))
	want := "Launch Product A (Sales +6) on 2024-07-06, Retention Campaign (Churn +1) on 2024-07-08"
	for i, row := range records[1:] {
		if row[len(row)-1] != want {
			t.Fatalf("row %d: expected applied cell %q got %q", i+1, want, row[len(row)-1])
		}
	}
}

func TestWriteRejectsRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Table{Header: []string{"a", "b"}, Rows: [][]string{{"1"}}})
	if err == nil {
		t.Fatalf("expected error for ragged row")
	}
}

func TestFinancialsAndFunctions(t *testing.T) {
	records := readBack(t, Financials([]scenario.Financial{{Company: "Target, Inc", Revenue: 120, EBITDA: 25, Employees: 200}}))
	if records[1][0] != "Target, Inc" || records[1][1] != "120.00" {
		t.Fatalf("quoted company did not round trip: %v", records[1])
	}
	proj, err := scenario.ProjectCxO(scenario.DefaultCxOParams())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	fn := readBack(t, Functions(proj.Functions))
	if len(fn) != 6 || fn[1][0] != "Sales" || fn[1][2] != "100.00" {
		t.Fatalf("unexpected functions table %v", fn)
	}
}
