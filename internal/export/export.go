// Package export renders result tables as CSV at display precision.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/scenario"
)

// Places is the number of decimals written for every numeric cell.
const Places = 2

// Table is a header plus string rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Number formats v rounded half away from zero to Places decimals.
// Non-finite values are written as empty cells.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(Places).StringFixed(Places)
}

// Write encodes t as CSV.
func Write(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(t.Header))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Runs lays out every retained run: inputs in name order, then the batch metrics.
func Runs[R montecarlo.Label](batch *montecarlo.Batch[R]) Table {
	if batch == nil {
		return Table{Header: []string{"run"}}
	}
	var inputs []string
	seen := make(map[string]struct{})
	for _, run := range batch.Runs {
		for name := range run.Inputs {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				inputs = append(inputs, name)
			}
		}
	}
	slices.Sort(inputs)

	header := make([]string, 0, 1+len(inputs)+len(batch.Metrics))
	header = append(header, "run")
	for _, name := range inputs {
		header = append(header, "input_"+name)
	}
	header = append(header, batch.Metrics...)

	rows := make([][]string, 0, len(batch.Runs))
	for i, run := range batch.Runs {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(i+1))
		for _, name := range inputs {
			v, ok := run.Inputs[name]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, Number(v))
		}
		for _, m := range batch.Metrics {
			row = append(row, Number(run.Outputs[m]))
		}
		rows = append(rows, row)
	}
	return Table{Header: header, Rows: rows}
}

// KPIs lays out a current / target / simulated dashboard.
func KPIs(rows []scenario.KPIRow) Table {
	t := Table{Header: []string{"kpi", "current", "target", "simulated"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.KPI, Number(r.Current), Number(r.Target), Number(r.Simulated)})
	}
	return t
}

// Functions lays out the CxO budget allocation.
func Functions(rows []scenario.FunctionProjection) Table {
	t := Table{Header: []string{"function", "allocated", "projected", "target"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Function, Number(r.Allocated), Number(r.Projected), Number(r.Target)})
	}
	return t
}

// Financials lays out a data pack.
func Financials(rows []scenario.Financial) Table {
	t := Table{Header: []string{"company", "revenue", "ebitda", "employees"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Company, Number(r.Revenue), Number(r.EBITDA), Number(r.Employees)})
	}
	return t
}

// Series lays out the tracker time series with one column per KPI. The last
// column repeats the applied initiative labels on every row.
func Series(points []scenario.SeriesPoint, kpis []string, applied []string) Table {
	header := make([]string, 0, len(kpis)+2)
	header = append(header, "date")
	header = append(header, kpis...)
	header = append(header, "applied_initiatives")
	joined := strings.Join(applied, ", ")
	t := Table{Header: header}
	for _, pt := range points {
		row := make([]string, 0, len(header))
		row = append(row, pt.Date.Format(scenario.DateLayout))
		for _, k := range kpis {
			row = append(row, Number(pt.Values[k]))
		}
		row = append(row, joined)
		t.Rows = append(t.Rows, row)
	}
	return t
}
