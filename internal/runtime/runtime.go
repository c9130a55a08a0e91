// Package runtime evaluates Risor module scripts that declare types and
// bind rules through host functions.
package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"go.uber.org/zap"

	"github.com/jward/grapht"
)

// Runtime embeds a Risor VM and exposes the binding host functions to
// module scripts.
type Runtime struct {
	scriptsDir string
	fsys       fs.FS
	logger     *zap.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS reads module scripts, and anything they import, from fsys
// rather than the scripts directory.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the script log object.
func WithRuntimeLogger(l *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRuntime creates a Runtime that resolves script paths and imports
// relative to scriptsDir.
func NewRuntime(scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptsDir: scriptsDir,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadModule loads and executes a module script and returns the types,
// rules and roots it declared.
func (r *Runtime) LoadModule(ctx context.Context, scriptPath string) (*grapht.Module, error) {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return r.eval(ctx, src, scriptPath, nil)
}

// RunSource evaluates an inline module script. extraGlobals are added to
// the host functions and override them on name clashes.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (*grapht.Module, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (*grapht.Module, error) {
	sess := newSession(r.logger.With(zap.String("script", label)))
	globals := r.buildGlobals(sess, extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	mod, err := sess.finish()
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return mod, nil
}

// buildImporter lets module scripts import shared .risor files. It is nil
// when the Runtime has nowhere to load them from.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript returns the source of a module script. Relative paths are
// taken from the scripts directory unless an fs.FS is configured.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) && r.scriptsDir != "" {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals returns the host functions bound to sess.
func (r *Runtime) buildGlobals(sess *session, extra map[string]any) map[string]any {
	globals := map[string]any{
		"define_type":      makeDefineTypeFn(sess),
		"define_qualifier": makeDefineQualifierFn(sess),
		"exclude_default":  makeExcludeDefaultFn(sess),
		"root":             makeRootFn(sess),
		"within":           makeWithinFn(sess),
		"log":              makeLogObject(sess.logger),
	}
	for name, fn := range bindFns(sess, sess.builder) {
		globals[name] = fn
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}
