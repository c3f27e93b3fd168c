package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/pkg/lightcurve"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

func addParamsFlags(cmd *cobra.Command, p *lightcurve.Params, seed *uint64) {
	def := lightcurve.DefaultParams()
	f := cmd.Flags()
	f.Float64Var(&p.Period, "period", def.Period, "orbital period in days")
	f.Float64Var(&p.Duration, "duration", def.Duration, "transit duration in hours")
	f.Float64Var(&p.Depth, "depth", def.Depth, "transit depth in ppm")
	f.Float64Var(&p.NoiseLevel, "noise", def.NoiseLevel, "fractional noise level")
	f.IntVar(&p.TransitCount, "transits", def.TransitCount, "number of orbital cycles")
	f.StringVar(&p.StarName, "star", def.StarName, "star name recorded in the metadata")
	f.Uint64Var(seed, "seed", 0, "random seed, 0 draws one from the clock")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSimulateCmd(opts *cliOptions) *cobra.Command {
	var params lightcurve.Params
	var seed uint64
	var output string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Synthesize a transit light curve and export it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			export, err := opts.lightCurveService().ExportCSV(cmd.Context(), params, seed)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), export.Content)
				return err
			}

			path := output
			if path == "" {
				path = export.FileName
			}
			path, err = expandPath(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(export.Content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Wrote "+path))
			return nil
		},
	}
	addParamsFlags(cmd, &params, &seed)
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default light-curve-data-<star>.csv)`)
	return cmd
}

func newFoldCmd(opts *cliOptions) *cobra.Command {
	var params lightcurve.Params
	var seed uint64
	var window int
	var raw bool

	cmd := &cobra.Command{
		Use:   "fold",
		Short: "Synthesize a light curve and print it folded on its period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := opts.lightCurveService().Fold(cmd.Context(), params, seed, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintln(out, "phase,flux"); err != nil {
				return err
			}
			if raw {
				for _, p := range result.Points {
					fmt.Fprintf(out, "%.6f,%.8f\n", p.Phase, p.Flux)
				}
				return nil
			}
			for _, p := range result.Smoothed {
				fmt.Fprintf(out, "%.6f,%.8f\n", p.Phase, p.Flux)
			}
			return nil
		},
	}
	addParamsFlags(cmd, &params, &seed)
	cmd.Flags().IntVarP(&window, "window", "w", 0, "moving average window, 0 uses the default")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the unsmoothed folded samples")
	return cmd
}

func newAnalyzeCmd(opts *cliOptions) *cobra.Command {
	var analysis lightcurve.AnalysisOptions
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run transit detection over a .csv, .txt or .dat light curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := expandPath(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open light curve: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()

			result, err := opts.lightCurveService().Analyze(cmd.Context(), services.AnalyzeRequest{
				FileName: filepath.Base(path),
				Content:  f,
				Options:  analysis,
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Report)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderReport(result.Report))
			return err
		},
	}

	def := lightcurve.DefaultAnalysisOptions()
	f := cmd.Flags()
	f.StringVar(&analysis.Detrending, "detrending", def.Detrending, "detrending method: auto, linear, polynomial, spline, none")
	f.Float64Var(&analysis.MinPeriod, "min-period", def.MinPeriod, "lower bound of the period search range in days")
	f.Float64Var(&analysis.MaxPeriod, "max-period", def.MaxPeriod, "upper bound of the period search range in days")
	f.Float64Var(&analysis.Threshold, "threshold", def.Threshold, "significance threshold")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func newLookupCmd(opts *cliOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <planet name>",
		Short: "Look a planet up in the NASA Exoplanet Archive",
		Example: `  exohunter lookup Kepler-452 b
  exohunter lookup "TRAPPIST-1 e" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := opts.logger()
			svc := services.NewExoplanetService(nasa.NewClient(cfg.NASA.ClientOptions(), logger), nil, logger)

			lookup, err := svc.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), lookup)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderPlanet(lookup))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the lookup as JSON")
	return cmd
}

func newTokenCmd(_ *cliOptions) *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a report access token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Security.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if ttl == 0 {
				ttl = cfg.Security.GetJWTExpiry()
			}

			token, err := middleware.NewAuthMiddleware(cfg.Security.JWTSecret).GenerateToken(userID, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id the token grants report access for")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default security.jwt_expiry)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
