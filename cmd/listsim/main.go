// Command listsim computes row-wise Jaccard similarity and integer sums over
// columnar files.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NerdMeNot/listsim"
)

// Exit codes
const (
	exitOK             = 0
	exitError          = 1
	exitColumnNotFound = 2
	exitTypeMismatch   = 3
)

type globalOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, listsim.ErrColumnNotFound):
		return exitColumnNotFound
	case errors.Is(err, listsim.ErrTypeMismatch):
		return exitTypeMismatch
	default:
		return exitError
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "listsim",
		Short:         "Row-wise similarity and sums over list columns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, opts.logLevel, opts.logFormat)
			if err != nil {
				return err
			}
			listsim.SetLogger(logger)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(newJaccardCmd(stdout), newSumCmd(stdout))
	return root
}

// newLogger builds a slog logger writing to w
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", format)
	}
}

func newJaccardCmd(stdout io.Writer) *cobra.Command {
	var (
		input, output string
		colA, colB    string
		workers       int
	)

	cmd := &cobra.Command{
		Use:   "jaccard",
		Short: "Compute the Jaccard similarity of two list columns, row by row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := readFrame(input)
			if err != nil {
				return err
			}

			cfg := *listsim.GetParallelConfig()
			cfg.MaxWorkers = workers
			out, err := listsim.ParallelJaccardWithConfig(df, colA, colB, &cfg)
			if err != nil {
				return err
			}
			return emit(stdout, out, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file (.parquet, .arrow, .ipc, .json, .ndjson)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the table is printed when empty")
	cmd.Flags().StringVar(&colA, "col-a", "", "first list column")
	cmd.Flags().StringVar(&colB, "col-b", "", "second list column")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "maximum concurrent partitions (0 = GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("col-a")
	_ = cmd.MarkFlagRequired("col-b")
	return cmd
}

func newSumCmd(stdout io.Writer) *cobra.Command {
	var (
		input, output string
		colA, colB    string
		name          string
	)

	cmd := &cobra.Command{
		Use:   "sum",
		Short: "Add two integer columns row by row in uint64 arithmetic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := scanFrame(input)
			if err != nil {
				return err
			}

			if name != "" {
				lf = listsim.LazySumAs(lf, colA, colB, name)
			} else {
				lf = listsim.LazySum(lf, colA, colB)
			}
			listsim.Logger().Debug("sum plan", "plan", lf.Explain())

			out, err := lf.Collect()
			if err != nil {
				return err
			}
			return emit(stdout, out, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input file (.parquet, .arrow, .ipc, .json, .ndjson)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the table is printed when empty")
	cmd.Flags().StringVar(&colA, "col-a", listsim.DefaultSumColumnA, "first integer column")
	cmd.Flags().StringVar(&colB, "col-b", listsim.DefaultSumColumnB, "second integer column")
	cmd.Flags().StringVar(&name, "name", "", "output column name (default: the first column's name)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// emit writes df to path, or prints it when path is empty
func emit(stdout io.Writer, df *listsim.DataFrame, path string) error {
	if path == "" {
		_, err := fmt.Fprintln(stdout, df.String())
		return err
	}
	return writeFrame(df, path)
}
