package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/report"
	"github.com/IanaraFer/dataSite-sub000/internal/services/forecast"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	logLevel string
	disabled []string
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "forecastctl",
		Short:         "Run daily sales forecasts from CSV or JSON files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().StringSliceVar(&disabled, "disable", nil, "Backends to hide (decomposition, boosted, forest)")

	rootCmd.AddCommand(runCmd(out))
	rootCmd.AddCommand(backendsCmd(out))
	return rootCmd
}

type runOptions struct {
	input     string
	dateCol   string
	targetCol string
	horizon   int
	model     string
	xlsx      string
	timeout   time.Duration
}

// runCmd forecasts one input file and prints the record as JSON
func runCmd(out io.Writer) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forecast a table read from --input",
		Long: `Reads rows from a CSV file with a header line or a JSON array of objects,
trains the selected backend and prints the forecast record as JSON.
An error record is printed too, and the command exits non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(opts.input)
			if err != nil {
				return err
			}
			engine, err := newEngine()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
			defer cancel()
			rec := engine.GenerateForecast(ctx, models.ForecastInput{
				Rows:      rows,
				DateCol:   opts.dateCol,
				TargetCol: opts.targetCol,
				Horizon:   opts.horizon,
				Choice:    models.ModelChoice(opts.model),
			})

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode forecast: %w", err)
			}
			if rec.Failed() {
				return fmt.Errorf("forecast failed: %s", rec.Error)
			}
			if opts.xlsx != "" {
				if err := writeReport(opts.xlsx, rec); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input file (.csv or .json)")
	cmd.Flags().StringVar(&opts.dateCol, "date-col", "date", "Date column name")
	cmd.Flags().StringVar(&opts.targetCol, "target-col", "value", "Target column name")
	cmd.Flags().IntVar(&opts.horizon, "horizon", forecast.DefaultHorizon, "Days to forecast")
	cmd.Flags().StringVar(&opts.model, "model", string(models.ChoiceAuto), "auto, decomposition, boosted, forest or ensemble")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "Also write an .xlsx report to this path")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Give up after this long")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// backendsCmd prints which backends this build can run
func backendsCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Show available forecasting backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			avail := engine.Availability()
			for _, tag := range models.BackendOrder {
				state := "unavailable"
				if avail.Has(tag) {
					state = "available"
				}
				fmt.Fprintf(out, "%-14s %-12s %s\n", tag, state, forecast.DisplayName(tag))
			}
			return nil
		},
	}
}

func newEngine() (*forecast.Engine, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   logLevel,
		Format:  "console",
		Output:  "stderr",
		Service: "forecastctl",
	})
	if err != nil {
		return nil, err
	}
	tags := make([]models.BackendTag, 0, len(disabled))
	for _, d := range disabled {
		tags = append(tags, models.BackendTag(d))
	}
	return forecast.NewEngine(
		forecast.WithLogger(l),
		forecast.WithDisabledBackends(tags...),
	), nil
}

func writeReport(path string, rec *models.Forecast) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteWorkbook(f, rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}
