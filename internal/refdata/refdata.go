// Package refdata serves the read-only comps and financials tables behind the
// valuation and associate tools.
package refdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/store"
)

// Service reads reference tables from the store and caches them in memory.
type Service struct {
	db *store.Database

	cacheMu    sync.RWMutex
	comps      map[string][]scenario.Comp
	financials []scenario.Financial
}

func NewService(db *store.Database) *Service {
	return &Service{
		db:    db,
		comps: make(map[string][]scenario.Comp),
	}
}

// Comps returns a copy of the named dataset.
func (s *Service) Comps(dataset string) ([]scenario.Comp, error) {
	s.cacheMu.RLock()
	cached, ok := s.comps[dataset]
	s.cacheMu.RUnlock()
	if ok {
		return append([]scenario.Comp(nil), cached...), nil
	}

	records, err := s.db.Comps(dataset)
	if err != nil {
		return nil, fmt.Errorf("load %s comps: %w", dataset, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("comps dataset %q is empty", dataset)
	}
	out := make([]scenario.Comp, 0, len(records))
	for _, r := range records {
		out = append(out, r.Comp())
	}
	s.cacheMu.Lock()
	s.comps[dataset] = out
	s.cacheMu.Unlock()
	return append([]scenario.Comp(nil), out...), nil
}

// Financials returns a copy of the raw data pack.
func (s *Service) Financials() ([]scenario.Financial, error) {
	s.cacheMu.RLock()
	cached := s.financials
	s.cacheMu.RUnlock()
	if cached != nil {
		return append([]scenario.Financial(nil), cached...), nil
	}

	records, err := s.db.Financials()
	if err != nil {
		return nil, fmt.Errorf("load financials: %w", err)
	}
	out := make([]scenario.Financial, 0, len(records))
	for _, r := range records {
		out = append(out, r.Financial())
	}
	s.cacheMu.Lock()
	s.financials = out
	s.cacheMu.Unlock()
	return append([]scenario.Financial(nil), out...), nil
}

// LoadFromCSV replaces every dataset present in the file. Columns are
// dataset, company, ebitda_multiple, growth, margin, is_target; a header row
// is skipped and margin and is_target may be left blank.
func (s *Service) LoadFromCSV(path string) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, errors.New("comps path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open comps file: %w", err)
	}
	defer file.Close()

	byDataset, err := parseComps(bufio.NewReader(file))
	if err != nil {
		return 0, err
	}

	total := 0
	for dataset, rows := range byDataset {
		if err := s.db.ReplaceComps(dataset, rows); err != nil {
			return 0, fmt.Errorf("replace %s comps: %w", dataset, err)
		}
		total += len(rows)
	}

	s.cacheMu.Lock()
	s.comps = make(map[string][]scenario.Comp)
	s.cacheMu.Unlock()

	return total, nil
}

func parseComps(r io.Reader) (map[string][]store.CompRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	out := make(map[string][]store.CompRecord)
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read comps row: %w", err)
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		dataset := strings.ToLower(strings.TrimSpace(row[0]))
		if line == 1 && dataset == "dataset" {
			continue
		}
		if dataset != store.DatasetValuation && dataset != store.DatasetAssociate {
			return nil, fmt.Errorf("line %d: unknown dataset %q", line, row[0])
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("line %d: expected at least 4 columns, got %d", line, len(row))
		}
		rec := store.CompRecord{Company: strings.TrimSpace(row[1])}
		if rec.Company == "" {
			return nil, fmt.Errorf("line %d: company is empty", line)
		}
		if rec.EBITDAMultiple, err = parseNumber(row[2]); err != nil {
			return nil, fmt.Errorf("line %d: ebitda_multiple: %w", line, err)
		}
		if rec.Growth, err = parseNumber(row[3]); err != nil {
			return nil, fmt.Errorf("line %d: growth: %w", line, err)
		}
		if len(row) > 4 && strings.TrimSpace(row[4]) != "" {
			if rec.Margin, err = parseNumber(row[4]); err != nil {
				return nil, fmt.Errorf("line %d: margin: %w", line, err)
			}
		}
		if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
			if rec.IsTarget, err = strconv.ParseBool(strings.TrimSpace(row[5])); err != nil {
				return nil, fmt.Errorf("line %d: is_target: %w", line, err)
			}
		}
		if rec.Company == scenario.TargetCompany {
			rec.IsTarget = true
		}
		out[dataset] = append(out[dataset], rec)
	}
	for dataset, rows := range out {
		if !hasTarget(rows) {
			return nil, fmt.Errorf("dataset %s has no target row", dataset)
		}
	}
	return out, nil
}

func parseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(raw), 64)
}

func hasTarget(rows []store.CompRecord) bool {
	for _, r := range rows {
		if r.IsTarget {
			return true
		}
	}
	return false
}
