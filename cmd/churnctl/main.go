// Command churnctl scores customers from the terminal: one-off predictions,
// spreadsheet batches, an interactive form and an MCP tool server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	config "churn-predictor-api/configs"
	"churn-predictor-api/pkg/services"
	"churn-predictor-api/pkg/session"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose   bool
	backend   string
	modelPath string
	remoteURL string
	timeout   time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "churnctl",
	Short: "Customer churn prediction from the command line",
	Long: `churnctl predicts how likely a streaming customer is to cancel, from six
usage metrics: weekly viewing hours, average viewing duration, monthly
downloads, account age, monthly charges and total charges.

Settings come from the environment (and a .env file when present); flags
override them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.LoadConfig()

		flags := cmd.Flags()
		if flags.Changed("backend") {
			cfg.PredictorBackend = backend
		}
		if flags.Changed("model") {
			cfg.ModelConfigPath = modelPath
		}
		if flags.Changed("remote-url") {
			cfg.PredictionServiceURL = remoteURL
		}
		if flags.Changed("timeout") {
			cfg.PredictionTimeout = timeout
		}

		// The interactive form owns the terminal.
		if cmd.Name() == "tui" {
			logger = zap.NewNop()
			return nil
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Predictor backend: model, remote or mock (default from PREDICTOR_BACKEND)")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "YAML file with model coefficients (default built-in)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote-url", "", "Base URL of the remote scoring service")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout of a single prediction")

	rootCmd.AddCommand(predictCmd, batchCmd, tuiCmd, mcpCmd)
}

// newPredictor builds the configured backend. Unlike the server, a missing
// model is a hard error here.
func newPredictor() (session.Predictor, error) {
	p, err := services.NewPredictor(cfg, logger)
	if err != nil {
		if errors.Is(err, services.ErrModelUnavailable) {
			return nil, fmt.Errorf("cannot load scoring model: %w", err)
		}
		return nil, err
	}
	return p, nil
}

func newController(p session.Predictor) *session.Controller {
	return session.NewController(p,
		session.WithTimeout(cfg.PredictionTimeout),
		session.WithLogger(logger),
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
