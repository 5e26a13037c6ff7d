package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pe-scenario-lab/backend/internal/export"
	"pe-scenario-lab/backend/internal/montecarlo"
	"pe-scenario-lab/backend/internal/refdata"
	"pe-scenario-lab/backend/internal/scenario"
	"pe-scenario-lab/backend/internal/store"
	"pe-scenario-lab/backend/internal/util"
)

var dealCmd = &cobra.Command{
	Use:   "deal",
	Short: "Simulate deal IRR and MOIC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := scenario.DealPreset(preset)
		if err != nil {
			return err
		}
		if err := loadParams(&p); err != nil {
			return err
		}
		timer := util.StartTimer()
		result, err := scenario.RunDeal(p, runs, source())
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), scenario.ToolDeal, result.Batch, result.Summary, timer)
	},
}

var valuationCmd = &cobra.Command{
	Use:   "valuation",
	Short: "Simulate the enterprise value bid range",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := scenario.ValuationPreset(preset)
		if err != nil {
			return err
		}
		if err := loadParams(&p); err != nil {
			return err
		}
		timer := util.StartTimer()
		result, err := scenario.RunValuation(p, runs, source())
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), scenario.ToolValuation, result.Batch, result.Summary, timer)
	},
}

var associateCmd = &cobra.Command{
	Use:   "associate",
	Short: "Clean the data pack and benchmark the target against comps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		db, err := store.Open(dbPath, true)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("close database")
			}
		}()
		ref := refdata.NewService(db)
		comps, err := ref.Comps(store.DatasetAssociate)
		if err != nil {
			return err
		}
		financials, err := ref.Financials()
		if err != nil {
			return err
		}
		p := scenario.DefaultAssociateParams(comps)
		if compsFilter != nil {
			p.Comps = compsFilter
		}
		if err := loadParams(&p); err != nil {
			return err
		}
		timer := util.StartTimer()
		result, err := scenario.RunAssociate(financials, comps, p, runs, source())
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), scenario.ToolAssociate, result.Batch, result.Summary, timer)
	},
}

var operatingCmd = &cobra.Command{
	Use:   "operating",
	Short: "Project the KPI dashboard and simulate one KPI band",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := scenario.DefaultOperatingLevers()
		if err := loadParams(&l); err != nil {
			return err
		}
		timer := util.StartTimer()
		result, err := scenario.RunOperating(l, kpi, runs, source())
		if err != nil {
			return err
		}
		return finish(cmd.OutOrStdout(), scenario.ToolOperating, result.Batch, result.Summary, timer)
	},
}

var cxoCmd = &cobra.Command{
	Use:   "cxo",
	Short: "Project function outputs and KPIs from a budget allocation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := scenario.DefaultCxOParams()
		if err := loadParams(&p); err != nil {
			return err
		}
		proj, err := scenario.ProjectCxO(p)
		if err != nil {
			return err
		}
		if csvPath != "" {
			if err := writeTable(csvPath, export.KPIs(proj.KPIs)); err != nil {
				return err
			}
		}
		return render(cmd.OutOrStdout(), proj)
	},
}

func source() rand.Source {
	if !seedSet {
		return montecarlo.NewSource(nil)
	}
	return montecarlo.NewSource(&seed)
}

// loadParams overlays the --params file onto dst. JSON files are decoded
// with encoding/json, anything else as YAML.
func loadParams(dst any) error {
	if paramsPath == "" {
		return nil
	}
	data, err := os.ReadFile(paramsPath)
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}
	if strings.EqualFold(filepath.Ext(paramsPath), ".json") {
		err = json.Unmarshal(data, dst)
	} else {
		err = yaml.Unmarshal(data, dst)
	}
	if err != nil {
		return fmt.Errorf("decode params %s: %w", paramsPath, err)
	}
	return nil
}

func finish(w io.Writer, tool scenario.Tool, batch *montecarlo.Batch[scenario.Rule], summary any, timer util.Timer) error {
	logrus.WithFields(timer.Fields(logrus.Fields{
		"tool":      tool,
		"requested": batch.Requested,
		"retained":  batch.Retained(),
	})).Debug("simulation complete")
	if csvPath != "" {
		if err := writeTable(csvPath, export.Runs(batch)); err != nil {
			return err
		}
	}
	return render(w, summary)
}

func writeTable(path string, table export.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(f, table); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func render(w io.Writer, v any) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want yaml or json", format)
	}
}
