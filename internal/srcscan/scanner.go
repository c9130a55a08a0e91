// Package srcscan builds a type universe from Go source code. It parses
// files with tree-sitter, treats interfaces as abstract types, struct
// and named types as concrete ones, New<T> functions as constructors, and
// reads //grapht: directives for qualifiers, defaults and roots.
package srcscan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scanner parses Go sources into a Package.
type Scanner struct {
	logger  *zap.Logger
	workers int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the scanner's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		logger:  zap.NewNop(),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanDir parses every non-test Go file under dir, skipping testdata,
// vendor and hidden directories below it.
func (s *Scanner) ScanDir(ctx context.Context, dir string) (*Package, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isGoSource(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("srcscan: walk %s: %w", dir, err)
	}
	return s.ScanFiles(ctx, paths...)
}

// ScanFiles parses the given files concurrently and merges them in path
// order.
func (s *Scanner) ScanFiles(ctx context.Context, paths ...string) (*Package, error) {
	paths = append([]string(nil), paths...)
	sort.Strings(paths)

	files := make([]*fileDecls, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("srcscan: read %s: %w", path, err)
			}
			fd, err := parseFile(gctx, path, src)
			if err != nil {
				return err
			}
			files[i] = fd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pkg := newPackage()
	for _, fd := range files {
		pkg.add(fd)
		s.logger.Debug("file scanned",
			zap.String("path", fd.path),
			zap.Int("types", len(fd.types)),
			zap.Int("funcs", len(fd.funcs)))
	}
	s.logger.Info("scan complete",
		zap.Int("files", len(files)),
		zap.Int("types", len(pkg.order)))
	return pkg, nil
}

// ScanSource parses a single in-memory file. name is used in positions.
func (s *Scanner) ScanSource(ctx context.Context, name string, src []byte) (*Package, error) {
	fd, err := parseFile(ctx, name, src)
	if err != nil {
		return nil, err
	}
	pkg := newPackage()
	pkg.add(fd)
	return pkg, nil
}
