package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd(run)
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(errors.ExitCode(err))
	}
}

// runFunc executes an evaluation with parsed options.
type runFunc func(ctx context.Context, opts *options, out io.Writer) error

func newRootCmd(runner runFunc) *cobra.Command {
	opts := newOptions()

	rootCmd := &cobra.Command{
		Use:   "rice-eval",
		Short: "Evaluate retrieval strategies on TREC topics with NDCG@20",
		Long: `rice-eval runs a TREC topic against a document index and scores the
ranking with NDCG@20.

Single-query mode prints one score. With -make_table it runs every
strategy (BM25, BM25_custom, fastText, Bert) over every query type
(title, description, narration) and prints a 4x3 table.

Examples:
  rice-eval --index_name wapo_docs --topic_id 321
  rice-eval --index_name wapo_docs --topic_id 321 --query_type narration -u
  rice-eval --index_name wapo_docs --topic_id 321 --vector_name sbert
  rice-eval --index_name wapo_docs --topic_id 408 -make_table`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkRequired(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.topKSet = cmd.Flags().Changed("top_k")
			return runner(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	opts.register(rootCmd)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.ValidationError(err.Error())
	})

	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rice-eval %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
