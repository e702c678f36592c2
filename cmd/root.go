package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/23f3002873/llm-analysis-quiz/internal/config"
	"github.com/23f3002873/llm-analysis-quiz/internal/observability"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "quiz-solver",
	Short:   "quiz-solver renders, answers and submits browser-based quizzes.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. Initialize configuration loading (Viper).
		if err := initializeConfig(); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		// 2. Unmarshal into the config singleton.
		if err := config.Load(viper.GetViper()); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg := config.Get()

		// 3. Validate before anything else touches it.
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// 4. Initialize the logger.
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting quiz-solver", zap.String("version", Version))

		return nil
	},
}

// Execute runs the root command with a context from main for graceful shutdown.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			// Skip logging cancellations triggered by shutdown signals.
			if ctx.Err() == nil {
				logger.Error("Command execution failed", zap.Error(err))
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("QUIZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials are usually injected through the environment rather than
	// written into the config file, so bind them explicitly.
	_ = viper.BindEnv("server.email", "QUIZ_SERVER_EMAIL")
	_ = viper.BindEnv("server.secret", "QUIZ_SERVER_SECRET")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, parse failures are not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
