package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alanmeadows/prwright/internal/config"
	"github.com/alanmeadows/prwright/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	logFormat  string
	configPath string
	appConfig  *config.Config

	rootCmd = &cobra.Command{
		Use:   "prwright",
		Short: "Turn natural-language change requests into Azure DevOps pull requests",
		Long: `prwright reads an Azure DevOps repository with a Gemini model, plans the
change you describe, pushes it as a single commit and opens a pull request.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "Log format: auto, text or json")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file merged over the user config")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, logging.Format(logFormat))
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		appConfig = cfg
		return nil
	}

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command. An interrupt cancels the running request.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
