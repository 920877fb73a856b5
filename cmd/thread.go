package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	threadTopic   string
	threadLength  int
	threadStartAt string
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Generate and enqueue a thread",
	Long: `Generates the full thread text from the topic and enqueues one post per
segment. Segments chain onto their predecessor at publish time.`,
	Run: runThread,
}

func init() {
	threadCmd.Flags().StringVar(&threadTopic, "topic", "", "topic to generate the thread from (required)")
	threadCmd.Flags().IntVar(&threadLength, "length", 3, "number of segments")
	threadCmd.Flags().StringVar(&threadStartAt, "at", "", "RFC3339 publish time of the first segment, defaults to now")
	rootCmd.AddCommand(threadCmd)
}

func runThread(_ *cobra.Command, _ []string) {
	if threadTopic == "" {
		logrus.Fatalln("--topic is required")
	}

	var startAt time.Time
	if threadStartAt != "" {
		parsed, err := time.Parse(time.RFC3339, threadStartAt)
		if err != nil {
			logrus.Fatalf("invalid --at value: %v", err)
		}
		startAt = parsed
	}

	posts, err := postService.CreateThread(context.Background(), threadTopic, threadLength, startAt)
	if err != nil {
		logrus.Fatalf("failed to enqueue thread: %v", err)
	}
	logrus.Infof("Enqueued thread %s with %d segments", posts[0].ThreadID, len(posts))
	StopApp()
}
