package runtime

import (
	"errors"
	"fmt"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/grapht"
)

// session collects what one script evaluation declares.
type session struct {
	logger   *zap.Logger
	universe *grapht.Universe
	builder  *grapht.Builder
	roots    []grapht.Desire
	errs     []error
}

func newSession(logger *zap.Logger) *session {
	u := grapht.NewUniverse()
	return &session{
		logger:   logger,
		universe: u,
		builder:  grapht.NewBuilder(u),
	}
}

// fail records err against the host function and returns it as a Risor
// error value.
func (s *session) fail(fn string, err error) object.Object {
	err = fmt.Errorf("%s: %w", fn, err)
	s.errs = append(s.errs, err)
	return object.NewError(err)
}

func (s *session) finish() (*grapht.Module, error) {
	if len(s.errs) > 0 {
		return nil, errors.Join(s.errs...)
	}
	cfg, err := s.builder.Build()
	if err != nil {
		return nil, err
	}
	s.logger.Debug("module loaded",
		zap.Int("types", len(s.universe.Types())),
		zap.Int("rules", cfg.Len()),
		zap.Int("roots", len(s.roots)))
	return &grapht.Module{Universe: s.universe, Config: cfg, Roots: s.roots}, nil
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *zap.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg) }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg) }
func (l *logObject) Error(msg string) { l.logger.Error(msg) }

func makeLogObject(logger *zap.Logger) object.Object {
	return mustProxy(&logObject{logger: logger})
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}

// arity fails the call unless lo <= len(args) <= hi.
func (s *session) arity(fn string, args []object.Object, lo, hi int) object.Object {
	if len(args) >= lo && len(args) <= hi {
		return nil
	}
	if lo == hi {
		return s.fail(fn, fmt.Errorf("takes %d arguments (%d given)", lo, len(args)))
	}
	return s.fail(fn, fmt.Errorf("takes %d to %d arguments (%d given)", lo, hi, len(args)))
}
