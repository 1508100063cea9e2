package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/internal/adapters/memory"
	mcpAdapter "github.com/mootlab/moot/internal/adapters/mcp"
	"github.com/mootlab/moot/internal/logging"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the trial engine as an MCP server over stdio.
This lets AI agents drive and inspect trial sessions as tools.`,
	Run: func(cmd *cobra.Command, args []string) {
		graphDir, _ := cmd.Flags().GetString("graphs")
		if !cmd.Flags().Changed("graphs") && len(args) > 0 {
			graphDir = args[0]
		}
		level, _ := cmd.Flags().GetString("log-level")

		// Logs must stay off Stdout so they don't corrupt JSON-RPC.
		log.SetOutput(os.Stderr)
		logger := logging.New(parseLevel(level))

		graphs, err := loadGraphDir(graphDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading graphs: %v\n", err)
			os.Exit(1)
		}

		engine, err := moot.New(graphs, memory.NewSessionStore(), memory.NewDecisionStore(), moot.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		srv := mcpAdapter.NewServer(engine)

		logger.Info("starting moot MCP server (stdio)")
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("graphs", envOr("MOOT_GRAPH_DIR", "."), "Directory containing graph YAML files")
}
