package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var flagDelete bool

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "List stored graphs or print one",
	Long:  "Without an ID, lists the stored graphs newest first. With an ID, prints that graph. With --delete, removes it instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&flagDelete, "delete", false, "delete the graph with the given ID")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openStore(false)
	if err != nil {
		return outputError("show", err)
	}
	defer s.Close()

	if len(args) == 0 {
		if flagDelete {
			return outputError("show", fmt.Errorf("--delete requires a graph ID"))
		}
		sums, err := s.ListGraphs(ctx)
		if err != nil {
			return outputError("show", err)
		}
		out := make([]CLIGraphSummary, 0, len(sums))
		for _, sum := range sums {
			out = append(out, summaryToCLI(sum))
		}
		total := len(out)
		return outputResult(CLIResult{Command: "show", Results: out, TotalCount: &total})
	}

	id, err := parseIDArg(args[0])
	if err != nil {
		return outputError("show", err)
	}
	if flagDelete {
		if err := s.DeleteGraph(ctx, id); err != nil {
			return outputError("show", err)
		}
		fmt.Fprintf(os.Stderr, "Deleted graph #%d\n", id)
		return nil
	}
	snap, err := s.LoadGraph(ctx, id)
	if err != nil {
		return outputError("show", err)
	}
	return outputResult(CLIResult{Command: "show", Results: snapshotToCLI(snap)})
}

// parseIDArg parses a positional graph ID with a clear error.
func parseIDArg(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid graph id %q: must be a positive integer", value)
	}
	return id, nil
}
