package main

import (
	"context"
	"fmt"
	"os"

	"camionetas/pkg/config"
	"camionetas/pkg/registro"
	"camionetas/pkg/storage"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	backend string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "camionetas",
	Short: "Manage the pickup truck usage log",
	Long: `camionetas works directly on the usage log behind the web form.
It lists entries, writes the consolidated workbook and copies rows between storage backends.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "camionetas.toml", "config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "storage backend override (sheets, xlsx or sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// loadConfig reads the config file and applies the --backend override.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Could not read .env: %v", err)
	}
	if backend != "" {
		os.Setenv("STORAGE_BACKEND", backend)
	}
	return config.Load(cfgFile)
}

// openService opens the configured store and wraps it with the form rules.
func openService(ctx context.Context, cfg *config.Config) (*registro.Service, func() error, error) {
	store, closeFn, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	return registro.NewService(store, cfg.Rules()), closeFn, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
