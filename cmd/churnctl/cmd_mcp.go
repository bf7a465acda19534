package main

import (
	"fmt"

	"churn-predictor-api/internal/mcptool"
	"churn-predictor-api/pkg/session"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the predict_churn tool over MCP (stdio)",
	Long: `Starts an MCP server on stdin/stdout exposing the predict_churn tool.
Logs go to stderr so they never interfere with the protocol.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPredictor()
		if err != nil {
			return err
		}
		s := mcptool.NewServer(func() *session.Controller { return newController(p) })

		logger.Info("serving MCP on stdio")
		if err := server.ServeStdio(s); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}
