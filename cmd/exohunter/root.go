package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/logging"
	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// cliOptions are the persistent flags shared by every subcommand.
type cliOptions struct {
	envFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "exohunter",
		Short: "Transit light curve tools.",
		Long: `exohunter synthesizes transit light curves, runs the transit detector over
observation files and looks planets up in the NASA Exoplanet Archive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(opts.envFile)
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before configuration, missing files are ignored")
	root.PersistentFlags().StringVarP(&opts.logLevel, "loglevel", "l", "warn", "log level: debug, info, warn, error")

	root.AddCommand(
		newSimulateCmd(opts),
		newFoldCmd(opts),
		newAnalyzeCmd(opts),
		newLookupCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("invalid env file path: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", expanded, err)
	}
	return nil
}

func (o *cliOptions) logger() *logrus.Logger {
	logger := logging.NewLogrus(o.logLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

// lightCurveService runs without persistence, notifications or a classifier.
func (o *cliOptions) lightCurveService() *services.LightCurveService {
	cfg := config.LightCurveConfig{MaxSamples: lightcurve.MaxSamples, SmoothWindow: 5}
	return services.NewLightCurveService(cfg, nil, nil, nil, o.logger())
}

// expandPath resolves a leading ~ in user supplied paths.
func expandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	return expanded, nil
}
