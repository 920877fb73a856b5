package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-postr/agent/domain"
	"github.com/AzielCF/az-postr/agent/domain/common"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	queueStatus string
	queueKind   string
	queueDate   string
	queueLimit  int
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List posts in the store",
	Run:   runQueue,
}

func init() {
	queueCmd.Flags().StringVar(&queueStatus, "status", "", "filter by status (pending, publishing, published, failed, cancelled)")
	queueCmd.Flags().StringVar(&queueKind, "kind", "", "filter by kind (scheduled, manual, thread)")
	queueCmd.Flags().StringVar(&queueDate, "date", "", "filter by target day (YYYY-MM-DD)")
	queueCmd.Flags().IntVar(&queueLimit, "limit", 50, "maximum rows to print")
	rootCmd.AddCommand(queueCmd)
}

func runQueue(_ *cobra.Command, _ []string) {
	filter := domain.PostFilter{
		Status: common.PostStatus(queueStatus),
		Kind:   common.PostKind(queueKind),
		Date:   queueDate,
		Limit:  queueLimit,
	}

	posts, err := postService.Queue(context.Background(), filter)
	if err != nil {
		logrus.Fatalf("failed to list posts: %v", err)
	}

	for _, p := range posts {
		text := p.Text
		if len(text) > 60 {
			text = text[:57] + "..."
		}
		fmt.Printf("%s  %-10s  %-9s  %s (%s)  %s\n",
			p.ID, p.Status, p.Kind, p.TargetAt.Format(time.RFC3339), humanize.Time(p.TargetAt), text)
	}
	fmt.Printf("%d post(s)\n", len(posts))
	StopApp()
}
