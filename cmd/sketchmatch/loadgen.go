package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sketchmatch/internal/loadgen"
	"github.com/okian/sketchmatch/pkg/logger"
)

func newLoadgenCmd() *cobra.Command {
	cfg := &loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running service with synthetic attempts",
		Long: "Fetch the service's prompts, submit jittered copies of them as attempts from many\n" +
			"players, wait for scoring, then verify every leaderboard and rank.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				_ = logger.SetLevelString("debug")
			}
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d, accepted %d, scored %d, boards %d, rank checks %d in %s\n",
				stats.AttemptsSent, stats.Accepted, stats.Scored, stats.Boards, stats.RankChecks,
				stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	f.IntVar(&cfg.Attempts, "attempts", 1000, "Number of attempts to submit")
	f.IntVar(&cfg.Players, "players", 50, "Number of distinct players")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "Number of concurrent submitters")
	f.IntVar(&cfg.TopN, "top", 50, "Leaderboard entries fetched per prompt")
	f.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	f.DurationVar(&cfg.Wait, "wait", time.Minute, "How long to wait for scoring to finish")
	f.Float64Var(&cfg.Jitter, "jitter", 0.03, "Point noise as a fraction of the drawing size")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed; 0 picks one from the clock")
	f.StringVar(&cfg.Output, "output", "", "Save the generated attempts to this file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "Log every failure")
	return cmd
}
