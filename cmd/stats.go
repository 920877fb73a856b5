package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var statsDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print analytics for the last days",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "number of days to summarize")
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, _ []string) {
	summary, err := recorder.Summarize(context.Background(), statsDays)
	if err != nil {
		logrus.Fatalf("failed to summarize analytics: %v", err)
	}

	fmt.Printf("Last %d day(s): %d post(s), %d replies, avg text length %.1f\n",
		summary.Days, summary.PostsSent, summary.RepliesSent, summary.AvgTextLen)
	for _, day := range summary.Daily {
		fmt.Printf("  %s  posts=%d replies=%d\n", day.Date, day.PostsSent, day.RepliesSent)
	}
	StopApp()
}
