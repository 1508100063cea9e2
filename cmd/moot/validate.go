package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/internal/adapters/graphfile"
)

var validateCmd = &cobra.Command{
	Use:   "validate <graph.yaml>...",
	Short: "Check graph files for consistency",
	Long:  `Parses each graph file and reports structural problems: duplicate IDs, missing initial or final nodes, dangling edge targets, unreachable nodes.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		failed := false
		for _, path := range args {
			if err := runValidate(path); err != nil {
				fmt.Printf("%s: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Printf("%s: ok\n", path)
		}
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	g, err := graphfile.Load(path)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	return moot.ValidateGraph(g)
}
