package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/grapht"
	"github.com/jward/grapht/internal/store"
)

var (
	resolveModule moduleFlags
	flagQualifier string
	flagNullable  bool
	flagParallel  int
	flagSimplify  bool
	flagSave      bool
	flagGraphName string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [type...]",
	Short: "Resolve a dependency graph",
	Long:  "Loads a module, resolves the given root types (or the module's declared roots) and prints the graph. With --save the graph is stored in the database.",
	RunE:  runResolve,
}

func init() {
	resolveModule.register(resolveCmd)
	resolveCmd.Flags().StringVar(&flagQualifier, "qualifier", "", `qualifier for the root types: Class=Value or @Named("x")`)
	resolveCmd.Flags().BoolVar(&flagNullable, "nullable", false, "allow the roots to resolve to null")
	resolveCmd.Flags().IntVar(&flagParallel, "parallel", 0, "resolve roots on up to N goroutines")
	resolveCmd.Flags().BoolVar(&flagSimplify, "simplify", false, "merge identical subgraphs")
	resolveCmd.Flags().BoolVar(&flagSave, "save", false, "store the graph in the database")
	resolveCmd.Flags().StringVar(&flagGraphName, "name", "", "name for the stored graph (default: the module source)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()
	logger := newLogger()
	defer logger.Sync()

	mod, label, err := resolveModule.load(ctx, logger)
	if err != nil {
		return outputError("resolve", err)
	}
	roots, err := rootDesires(args, flagQualifier, flagNullable)
	if err != nil {
		return outputError("resolve", err)
	}
	if len(roots) == 0 && len(mod.Roots) == 0 {
		return outputError("resolve", fmt.Errorf("no root types: pass type names or declare roots in %s", label))
	}

	opts := []grapht.Option{grapht.WithLogger(logger)}
	if flagParallel > 0 {
		opts = append(opts, grapht.WithParallelism(flagParallel))
	}
	g, err := mod.Solve(ctx, opts, roots...)
	if err != nil {
		return outputError("resolve", err)
	}
	if flagSimplify {
		g = g.Simplify()
	}

	name := flagGraphName
	if name == "" {
		name = label
	}
	snap := store.FromGraph(name, g)
	snap.Hash = store.ComputeGraphHash(snap)
	snap.Metadata["source"] = label
	snap.Metadata["roots"] = rootList(g)

	if flagSave {
		if err := saveSnapshot(ctx, snap); err != nil {
			return outputError("resolve", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Resolved %d nodes in %s\n", g.Len(), time.Since(start).Round(time.Millisecond))
	return outputResult(CLIResult{Command: "resolve", Results: snapshotToCLI(snap)})
}

// saveSnapshot stores snap unless an identical graph is already stored,
// in which case snap takes the existing ID.
func saveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	s, err := openStore(true)
	if err != nil {
		return err
	}
	defer s.Close()

	if id, ok, err := s.FindByHash(ctx, snap.Hash); err != nil {
		return err
	} else if ok {
		snap.ID = id
		fmt.Fprintf(os.Stderr, "Graph already stored as #%d\n", id)
		return nil
	}
	id, err := s.SaveGraph(ctx, snap)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved graph #%d\n", id)
	return nil
}

func rootList(g *grapht.Graph) string {
	var names []string
	for _, n := range g.Roots() {
		names = append(names, n.Type().String())
	}
	return strings.Join(names, ",")
}
