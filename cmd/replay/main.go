// Command replay runs a recorded face position scenario through the zone
// classifier offline.
//
//	go run ./cmd/replay testdata/drift.yaml --tolerance 3
package main

import (
	"fmt"
	"os"

	"KYCCapture/pkg/facezone"

	"github.com/spf13/cobra"
)

var (
	toleranceFlag int
	onlyChanges   bool
)

var rootCmd = &cobra.Command{
	Use:   "replay <scenario.yaml|->",
	Short: "Replay a face position scenario through the zone classifier",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,

	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntVarP(&toleranceFlag, "tolerance", "t", 0, "override the scenario tolerance (1-5)")
	rootCmd.Flags().BoolVar(&onlyChanges, "only-changes", false, "print zone changes only")
}

func runReplay(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}

	tolerance := facezone.Tolerance(sc.Tolerance)
	if cmd.Flags().Changed("tolerance") {
		tolerance = facezone.Tolerance(toleranceFlag)
		if !tolerance.Valid() {
			return fmt.Errorf("tolerance %d out of range %d..%d", toleranceFlag, facezone.MinTolerance, facezone.MaxTolerance)
		}
	}

	if sc.Name != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "scenario: %s\n", sc.Name)
	}

	_, err = replay(cmd.OutOrStdout(), sc, tolerance, onlyChanges)
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
