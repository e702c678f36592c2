package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/internal/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quiz solver gateway.",
	Long: `Starts the HTTP gateway and the headless browser pool. Quiz requests
posted to /quiz are validated, acknowledged with 202, and solved in the
background within the configured time budget.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := observability.GetLogger()

		components, err := NewComponents(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize components: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- components.Server.Start()
		}()

		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
		case err := <-errCh:
			if err != nil {
				logger.Error("Gateway stopped unexpectedly", zap.Error(err))
				components.Shutdown()
				return err
			}
		}

		components.Shutdown()
		return nil
	},
}
