package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/experiments"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/export"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/ports"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp"},
	Short:   "Manage experiments",
	Long:    `Create, list, test, start, pause, stop and export A/B test definitions.`,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create or update an experiment from a YAML or JSON file",
	Long: `Create an experiment from a definition file. The experiment starts as a
draft; its audience estimate and sample size are derived on save. A file that
carries an id updates that experiment instead.

Examples:
  kairos experiment create checkout-cta.yaml
  kairos experiment create checkout-cta.yaml --manual-sample-size`,
	Args: cobra.ExactArgs(1),
	RunE: runExperimentCreate,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments",
	Long: `List experiments, newest first.

Examples:
  kairos experiment list
  kairos experiment list --status active`,
	Args: cobra.NoArgs,
	RunE: runExperimentList,
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show an experiment and what blocks it from starting",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentShow,
}

var experimentTestCmd = &cobra.Command{
	Use:   "test <id|name>",
	Short: "Move a draft experiment into QA testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentTransition(cmd, args[0], (*experiments.Service).Test)
	},
}

var experimentStartCmd = &cobra.Command{
	Use:   "start <id|name>",
	Short: "Start or resume an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentTransition(cmd, args[0], (*experiments.Service).Start)
	},
}

var experimentPauseCmd = &cobra.Command{
	Use:   "pause <id|name>",
	Short: "Pause an active experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentTransition(cmd, args[0], (*experiments.Service).Pause)
	},
}

var experimentStopCmd = &cobra.Command{
	Use:   "stop <id|name>",
	Short: "Complete an experiment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperimentTransition(cmd, args[0], (*experiments.Service).Stop)
	},
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id|name>",
	Short: "Delete an experiment",
	Long:  `Delete an experiment. Active experiments must be paused or stopped first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentDelete,
}

var experimentExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export experiments as CSV or JSON",
	Long: `Export experiments for analysis in external tools.

Examples:
  kairos experiment export                          # JSON to stdout
  kairos experiment export --format csv -o experiments.csv
  kairos experiment export --status completed --limit 50`,
	Args: cobra.NoArgs,
	RunE: runExperimentExport,
}

// Flags
var (
	expManualSampleSize bool
	expListStatus       string
	expListLimit        int
	expExportStatus     string
	expExportLimit      int
	expFormat           string
	expOutput           string
)

func init() {
	rootCmd.AddCommand(experimentCmd)

	experimentCmd.AddCommand(experimentCreateCmd)
	experimentCmd.AddCommand(experimentListCmd)
	experimentCmd.AddCommand(experimentShowCmd)
	experimentCmd.AddCommand(experimentTestCmd)
	experimentCmd.AddCommand(experimentStartCmd)
	experimentCmd.AddCommand(experimentPauseCmd)
	experimentCmd.AddCommand(experimentStopCmd)
	experimentCmd.AddCommand(experimentDeleteCmd)
	experimentCmd.AddCommand(experimentExportCmd)

	experimentCreateCmd.Flags().BoolVar(&expManualSampleSize, "manual-sample-size", false, "Keep the sample size from the file instead of recomputing it")

	experimentListCmd.Flags().StringVarP(&expListStatus, "status", "s", "", "Filter by status (draft, testing, active, paused, completed)")
	experimentListCmd.Flags().IntVarP(&expListLimit, "limit", "n", 100, "Maximum number of experiments")

	experimentExportCmd.Flags().StringVarP(&expFormat, "format", "f", "json", "Output format (json, csv)")
	experimentExportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "Output file (default: stdout)")
	experimentExportCmd.Flags().StringVarP(&expExportStatus, "status", "s", "", "Filter by status")
	experimentExportCmd.Flags().IntVarP(&expExportLimit, "limit", "n", 1000, "Maximum number of experiments")
}

func experimentFilter(status string, limit int) (ports.ExperimentFilter, error) {
	filter := ports.ExperimentFilter{Limit: limit}
	if status != "" {
		parsed, err := domain.ParseExperimentStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = &parsed
	}
	return filter, nil
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	var e domain.ExperimentConfig
	if err := readDocument(args[0], &e); err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		saved, err := app.Experiments.Save(ctx, &e, experiments.SaveOptions{ManualSampleSize: expManualSampleSize})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Saved experiment: %s\n", saved.Name)
		fmt.Fprintf(out, "  ID: %s\n", saved.ID)
		fmt.Fprintf(out, "  Status: %s\n", saved.Status)
		fmt.Fprintf(out, "  Audience: %s\n", util.FormatNumber(saved.Audience.EstimatedSize))
		fmt.Fprintf(out, "  Sample size: %d per variant\n", saved.Statistics.SampleSize)
		if issues := saved.Validate(); len(issues) > 0 {
			fmt.Fprintf(out, "  %d issue(s) must be fixed before it can start\n", len(issues))
		}
		return nil
	})
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	filter, err := experimentFilter(expListStatus, expListLimit)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		list, err := app.Experiments.List(ctx, filter)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No experiments found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTATUS\tVARIANTS\tAUDIENCE\tSAMPLE\tSTARTED\tENDED")
		fmt.Fprintln(w, "----\t------\t--------\t--------\t------\t-------\t-----")
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
				e.Name,
				e.Status,
				len(e.Variants),
				util.FormatNumber(e.Audience.EstimatedSize),
				util.FormatNumber(int64(e.Statistics.SampleSize)),
				util.FormatDate(e.StartedAt),
				util.FormatDate(e.EndedAt),
			)
		}
		return w.Flush()
	})
}

func runExperimentShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		e, err := app.Experiments.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		printExperiment(cmd.OutOrStdout(), e)
		return nil
	})
}

func printExperiment(w io.Writer, e *domain.ExperimentConfig) {
	fmt.Fprintf(w, "Experiment: %s\n", e.Name)
	fmt.Fprintf(w, "ID:         %s\n", e.ID)
	fmt.Fprintf(w, "Status:     %s\n", e.Status)
	if e.Hypothesis != "" {
		fmt.Fprintf(w, "Hypothesis: %s\n", e.Hypothesis)
	}
	fmt.Fprintf(w, "Started:    %s\n", util.FormatDate(e.StartedAt))
	fmt.Fprintf(w, "Ended:      %s\n", util.FormatDate(e.EndedAt))

	fmt.Fprintln(w, "\nVariants:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, v := range e.Variants {
		control := ""
		if v.IsControl {
			control = "control"
		}
		fmt.Fprintf(tw, "  %s\t%d%%\t%s\n", v.Name, v.TrafficPercent, control)
	}
	_ = tw.Flush()

	fmt.Fprintln(w, "\nGoals:")
	for _, g := range e.Goals {
		primary := ""
		if g.IsPrimary {
			primary = " (primary)"
		}
		fmt.Fprintf(w, "  %s [%s]%s\n", g.Name, g.Type, primary)
	}

	s := e.Statistics
	fmt.Fprintln(w, "\nStatistics:")
	fmt.Fprintf(w, "  %d%% confidence, %d%% power, %.2f%% lift on %.2f%% baseline\n",
		s.ConfidenceLevel, s.StatisticalPower, s.MinimumDetectableEffect, s.BaselineConversionRate)
	fmt.Fprintf(w, "  Sample size: %d per variant\n", s.SampleSize)
	if days := domain.EstimateDuration(s.SampleSize, e.Traffic.DailyTrafficPerVariant); days > 0 {
		fmt.Fprintf(w, "  Duration:    %s\n", util.FormatDays(days))
	}
	fmt.Fprintf(w, "  Audience:    %s\n", util.FormatNumber(e.Audience.EstimatedSize))

	if issues := e.Validate(); len(issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for _, issue := range issues {
			fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
}

func runExperimentTransition(cmd *cobra.Command, ref string, action func(*experiments.Service, context.Context, string) (*domain.ExperimentConfig, error)) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		e, err := app.Experiments.Resolve(ctx, ref)
		if err != nil {
			return err
		}
		updated, err := action(app.Experiments, ctx, e.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Experiment %s is now %s\n", updated.Name, updated.Status)
		return nil
	})
}

func runExperimentDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		e, err := app.Experiments.Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.Experiments.Delete(ctx, e.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted experiment: %s\n", e.Name)
		return nil
	})
}

func runExperimentExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(expFormat)
	if err != nil {
		return err
	}
	filter, err := experimentFilter(expExportStatus, expExportLimit)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		list, err := app.Experiments.List(ctx, filter)
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if expOutput != "" {
			f, err := os.Create(expOutput)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := export.Write(out, format, list); err != nil {
			return err
		}

		logger.Debug("exported experiments", zap.Int("count", len(list)), zap.String("format", string(format)))
		if expOutput != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d experiments to %s\n", len(list), expOutput)
		}
		return nil
	})
}
