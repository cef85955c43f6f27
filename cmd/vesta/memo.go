package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
)

var memoFlags struct {
	thread string
}

var memoCmd = &cobra.Command{
	Use:   "memo",
	Short: "Manage voice memos",
	Long: `Voice memos are short recordings attached to a conversation thread. They
are transcribed and summarized during sync.`,
}

var memoAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Queue a voice memo",
	Long: `Queue a voice memo for transcription on the next sync.

Examples:
  vesta memo add note.m4a --thread field-team-3`,
	Args: cobra.ExactArgs(1),
	RunE: runMemoAdd,
}

func init() {
	rootCmd.AddCommand(memoCmd)
	memoCmd.AddCommand(memoAddCmd)

	memoAddCmd.Flags().StringVar(&memoFlags.thread, "thread", "", "thread the memo belongs to")
	_ = memoAddCmd.MarkFlagRequired("thread")
}

func runMemoAdd(cmd *cobra.Command, args []string) error {
	audio, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewCommandError("memo add", err)
	}

	a := newApp(cfg)
	defer a.Close()

	q, err := a.Queue()
	if err != nil {
		return cli.NewCommandError("memo add", err)
	}

	id, err := q.EnqueueMemo(cmd.Context(), audio, memoFlags.thread)
	if err != nil {
		return cli.NewCommandError("memo add", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued memo %s in thread %s\n", id, memoFlags.thread)
	return nil
}
