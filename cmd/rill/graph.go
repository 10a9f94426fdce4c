package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/rill/internal/presentation/dot"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Render a graph definition file as Graphviz DOT",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		def, err := loadGraphFile(file)
		if err != nil {
			return err
		}

		out, err := dot.Export(def)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("file", "f", "graph.yaml", "Graph definition file")
}
