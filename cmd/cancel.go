package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <post-id>",
	Short: "Cancel a pending post",
	Long:  `Cancels a pending post. Cancelling a thread segment cancels the rest of the thread too.`,
	Args:  cobra.ExactArgs(1),
	Run:   runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(_ *cobra.Command, args []string) {
	if err := postService.CancelPost(context.Background(), args[0]); err != nil {
		logrus.Fatalf("failed to cancel post %s: %v", args[0], err)
	}
	logrus.Infof("Cancelled post %s", args[0])
	StopApp()
}
