package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/logging"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/review"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a graph definition file synchronously",
	Long: `Loads a graph definition from a YAML file, executes it against the
built-in toolset and prints each step followed by the final state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		stateJSON, _ := cmd.Flags().GetString("state")
		limit, _ := cmd.Flags().GetInt("limit")
		verbose, _ := cmd.Flags().GetBool("verbose")

		def, err := loadGraphFile(file)
		if err != nil {
			return err
		}

		initial := domain.State{}
		if stateJSON != "" {
			if err := json.Unmarshal([]byte(stateJSON), &initial); err != nil {
				return fmt.Errorf("parse --state: %w", err)
			}
		}

		logger := logging.NewNop()
		if verbose {
			logger = logging.New(logging.ParseLevel("debug"))
		}

		engine := rill.New(
			rill.WithLogger(logger),
			rill.WithIterationLimit(limit),
		)
		if err := review.Register(engine.Registry()); err != nil {
			return err
		}

		graphID, err := engine.CreateGraph(def)
		if err != nil {
			return err
		}

		run, err := engine.RunGraph(cmd.Context(), graphID, initial)
		if run == nil {
			return err
		}

		for _, step := range run.Log {
			fmt.Printf("%3d  %-24s %s\n", step.Seq, step.NodeID, step.Outcome)
		}
		fmt.Printf("status: %s\n", run.Status)
		if run.Error != "" {
			fmt.Printf("error: %s\n", run.Error)
		}

		final, mErr := json.MarshalIndent(run.State, "", "  ")
		if mErr != nil {
			return mErr
		}
		fmt.Println(string(final))

		if run.Status == domain.StatusFailed {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("file", "f", "graph.yaml", "Graph definition file")
	runCmd.Flags().String("state", "", "Initial state as JSON")
	runCmd.Flags().Int("limit", 0, "Iteration limit (0 = default)")
	runCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}
