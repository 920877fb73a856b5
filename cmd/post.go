package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	postText     string
	postTopic    string
	postTargetAt string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Enqueue a single post",
	Long: `Enqueues one post into the store. With --text the post publishes as
given; with only --topic the content is generated when the post is claimed.`,
	Run: runPost,
}

func init() {
	postCmd.Flags().StringVar(&postText, "text", "", "post body, publishes as-is")
	postCmd.Flags().StringVar(&postTopic, "topic", "", "topic to generate content from when --text is empty")
	postCmd.Flags().StringVar(&postTargetAt, "at", "", "RFC3339 publish time, defaults to now")
	rootCmd.AddCommand(postCmd)
}

func runPost(_ *cobra.Command, _ []string) {
	if postText == "" && postTopic == "" {
		logrus.Fatalln("either --text or --topic is required")
	}

	var targetAt time.Time
	if postTargetAt != "" {
		parsed, err := time.Parse(time.RFC3339, postTargetAt)
		if err != nil {
			logrus.Fatalf("invalid --at value: %v", err)
		}
		targetAt = parsed
	}

	created, err := postService.CreateManualPost(context.Background(), postText, postTopic, targetAt)
	if err != nil {
		logrus.Fatalf("failed to enqueue post: %v", err)
	}
	logrus.Infof("Enqueued post %s for %s", created.ID, created.TargetAt.Format(time.RFC3339))
	StopApp()
}
