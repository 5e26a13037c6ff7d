// Command scenario runs the dashboard simulations from the terminal and
// prints the summary as YAML or JSON.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runs        int
	seed        uint64
	seedSet     bool
	preset      string
	paramsPath  string
	format      string
	csvPath     string
	dbPath      string
	kpi         string
	compsFilter []string
)

var rootCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Run private equity scenario simulations",
	Long: `Run the scenario lab simulations without the HTTP server.

Available subcommands:
  deal      - Deal partner IRR / MOIC Monte Carlo
  valuation - VP bid range Monte Carlo
  associate - Associate data pack and comps benchmarking
  operating - Operating partner KPI dashboard and band
  cxo       - CxO resource allocation projection`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		seedSet = cmd.Flags().Changed("seed")
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	pf.StringVarP(&paramsPath, "params", "p", "", "YAML or JSON file with explicit parameters")
	pf.IntVarP(&runs, "runs", "n", 500, "Number of Monte Carlo runs")
	pf.Uint64Var(&seed, "seed", 0, "Seed for reproducible runs")
	pf.StringVar(&csvPath, "csv", "", "Write every retained run to this CSV file")

	dealCmd.Flags().StringVar(&preset, "preset", "Base", "Deal preset")
	valuationCmd.Flags().StringVar(&preset, "preset", "Base", "Valuation preset")
	associateCmd.Flags().StringVar(&dbPath, "db", "data/pe-lab.db", "Path to SQLite database with the reference data")
	associateCmd.Flags().StringSliceVar(&compsFilter, "comps", nil, "Peer companies to benchmark against (default all)")
	operatingCmd.Flags().StringVar(&kpi, "kpi", "Revenue", "KPI to simulate")

	rootCmd.AddCommand(dealCmd, valuationCmd, associateCmd, operatingCmd, cxoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("scenario failed")
		os.Exit(1)
	}
}
