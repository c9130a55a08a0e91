package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/grapht"
	"github.com/jward/grapht/internal/manifest"
	"github.com/jward/grapht/internal/runtime"
	"github.com/jward/grapht/internal/srcscan"
	"github.com/jward/grapht/internal/store"
)

// moduleFlags selects where a command loads its module from.
type moduleFlags struct {
	manifest string
	script   string
	src      string
}

func (m *moduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.manifest, "manifest", "", "load types and bindings from a YAML manifest")
	cmd.Flags().StringVar(&m.script, "script", "", "load types and bindings from a Risor module script")
	cmd.Flags().StringVar(&m.src, "src", "", "scan a directory of Go sources for types and constructors")
	cmd.MarkFlagsMutuallyExclusive("manifest", "script", "src")
	cmd.MarkFlagsOneRequired("manifest", "script", "src")
}

// load builds the module and returns it with a label naming its source.
func (m *moduleFlags) load(ctx context.Context, logger *zap.Logger) (*grapht.Module, string, error) {
	switch {
	case m.manifest != "":
		mod, err := manifest.LoadModule(m.manifest)
		return mod, m.manifest, err
	case m.script != "":
		rt := runtime.NewRuntime(filepath.Dir(m.script), runtime.WithRuntimeLogger(logger))
		mod, err := rt.LoadModule(ctx, filepath.Base(m.script))
		return mod, m.script, err
	case m.src != "":
		pkg, err := srcscan.New(srcscan.WithLogger(logger)).ScanDir(ctx, m.src)
		if err != nil {
			return nil, m.src, err
		}
		mod, err := pkg.Module()
		return mod, m.src, err
	}
	return nil, "", fmt.Errorf("one of --manifest, --script or --src is required")
}

// parseRootQualifier accepts Class=Value as well as the @Class("value")
// forms ParseQualifier understands.
func parseRootQualifier(s string) (grapht.Qualifier, error) {
	if class, value, ok := strings.Cut(s, "="); ok && !strings.Contains(class, "(") {
		return grapht.Qualifier{Class: strings.TrimPrefix(class, "@"), Value: value}, nil
	}
	return grapht.ParseQualifier(s)
}

// rootDesires builds root desires for the named types.
func rootDesires(types []string, qualifier string, nullable bool) ([]grapht.Desire, error) {
	q, err := parseRootQualifier(qualifier)
	if err != nil {
		return nil, err
	}
	roots := make([]grapht.Desire, 0, len(types))
	for _, t := range types {
		roots = append(roots, grapht.RootDesire(grapht.TypeName(t), q, nullable))
	}
	return roots, nil
}

// openStore opens (and migrates) the database from the --db flag path or
// the default. When create is false a missing database is an error.
func openStore(create bool) (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if !create {
			return nil, fmt.Errorf("database not found: %s (run 'grapht resolve --save' first)", dbPath)
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
