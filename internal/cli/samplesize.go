package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/designer"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

var sampleSizeCmd = &cobra.Command{
	Use:   "samplesize",
	Short: "Estimate the sample size of an A/B test",
	Long: `Estimate the per-variant sample size needed to detect a relative lift
over a baseline conversion rate, and how long collecting it takes.

Examples:
  kairos samplesize                                   # 95% confidence, 80% power, 5% lift on 5%
  kairos samplesize --mde 10 --baseline 12 --daily-traffic 2500
  kairos samplesize --confidence 99 --power 90 --current 20000`,
	Args: cobra.NoArgs,
	RunE: runSampleSize,
}

var (
	ssConfidence   int
	ssPower        int
	ssMDE          float64
	ssBaseline     float64
	ssDailyTraffic int
	ssCurrent      int
)

func init() {
	rootCmd.AddCommand(sampleSizeCmd)

	defaults := domain.DefaultStatisticalConfig()
	sampleSizeCmd.Flags().IntVar(&ssConfidence, "confidence", defaults.ConfidenceLevel, "Confidence level in percent (90, 95, 99)")
	sampleSizeCmd.Flags().IntVar(&ssPower, "power", defaults.StatisticalPower, "Statistical power in percent (70, 80, 90, 95)")
	sampleSizeCmd.Flags().Float64Var(&ssMDE, "mde", defaults.MinimumDetectableEffect, "Minimum detectable effect as relative lift in percent")
	sampleSizeCmd.Flags().Float64Var(&ssBaseline, "baseline", defaults.BaselineConversionRate, "Baseline conversion rate in percent")
	sampleSizeCmd.Flags().IntVar(&ssDailyTraffic, "daily-traffic", 1000, "Daily traffic per variant")
	sampleSizeCmd.Flags().IntVar(&ssCurrent, "current", 0, "Planned sample size to compare against the recommendation")
}

func runSampleSize(cmd *cobra.Command, args []string) error {
	cfg := domain.DefaultStatisticalConfig()
	cfg.ConfidenceLevel = ssConfidence
	cfg.StatisticalPower = ssPower
	cfg.MinimumDetectableEffect = ssMDE
	cfg.BaselineConversionRate = ssBaseline

	d := designer.New(cfg, ssDailyTraffic)
	if err := d.Err(); err != nil {
		return err
	}
	if ssCurrent > 0 {
		d.SetSampleSize(ssCurrent)
	}

	summary := d.Summary()
	logger.Debug("estimated sample size",
		zap.Int("recommended", summary.Recommended),
		zap.Int("duration_days", summary.DurationDays),
	)
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func printSummary(w io.Writer, s designer.Summary) {
	fmt.Fprintf(w, "Confidence:        %d%%\n", s.Config.ConfidenceLevel)
	fmt.Fprintf(w, "Power:             %d%%\n", s.Config.StatisticalPower)
	fmt.Fprintf(w, "Baseline:          %.2f%%\n", s.Config.BaselineConversionRate)
	fmt.Fprintf(w, "Detectable lift:   %.2f%%\n", s.Config.MinimumDetectableEffect)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Recommended:       %d per variant (%s)\n", s.Recommended, util.FormatNumber(int64(s.Recommended)))
	if s.Overridden {
		fmt.Fprintf(w, "Planned:           %d per variant\n", s.Config.SampleSize)
	}
	fmt.Fprintf(w, "Daily traffic:     %d per variant\n", s.DailyTraffic)
	fmt.Fprintf(w, "Duration:          %s\n", util.FormatDays(s.DurationDays))

	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recommendations:")
		for _, r := range s.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r.Message)
		}
	}
}
