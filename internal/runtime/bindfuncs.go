package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/grapht"
)

// makeDefineTypeFn creates the "define_type" host function.
//
// define_type(name, {abstract, supertypes, constructor, setters, provides,
// default_implementation, default_provider})
//
// Points in constructor and setters are either a type name or a map with
// type, qualifier and nullable keys.
func makeDefineTypeFn(sess *session) *object.Builtin {
	return object.NewBuiltin("define_type", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("define_type", args, 1, 2); bad != nil {
			return bad
		}
		name, err := toString(args[0])
		if err != nil {
			return sess.fail("define_type", err)
		}
		opts, err := optionsArg(args, 1)
		if err != nil {
			return sess.fail("define_type", err)
		}

		spec := grapht.TypeSpec{
			Name:     grapht.TypeName(name),
			Abstract: getBool(opts, "abstract"),
			Provides: grapht.TypeName(getString(opts, "provides")),
		}
		supers, err := getStringList(opts, "supertypes")
		if err != nil {
			return sess.fail("define_type", err)
		}
		for _, st := range supers {
			spec.Supertypes = append(spec.Supertypes, grapht.TypeName(st))
		}
		if c, ok := opts["constructor"]; ok {
			points, err := toPoints(c)
			if err != nil {
				return sess.fail("define_type", fmt.Errorf("%s constructor: %w", name, err))
			}
			spec.Constructors = [][]grapht.PointSpec{points}
		}
		if s, ok := opts["setters"]; ok {
			points, err := toPoints(s)
			if err != nil {
				return sess.fail("define_type", fmt.Errorf("%s setters: %w", name, err))
			}
			spec.Setters = points
		}
		if impl := getString(opts, "default_implementation"); impl != "" {
			spec.Defaults.Implementation = grapht.TypeName(impl)
		}
		if prov := getString(opts, "default_provider"); prov != "" {
			spec.Defaults.Provider = grapht.TypeName(prov)
		}

		if err := sess.universe.Define(spec); err != nil {
			return sess.fail("define_type", err)
		}
		return object.Nil
	})
}

func toPoints(obj object.Object) ([]grapht.PointSpec, error) {
	list, ok := obj.(*object.List)
	if !ok {
		return nil, fmt.Errorf("expected list of points, got %s", obj.Type())
	}
	var out []grapht.PointSpec
	for i, item := range list.Value() {
		if s, ok := item.(*object.String); ok {
			out = append(out, grapht.PointSpec{Type: grapht.TypeName(s.Value())})
			continue
		}
		m, err := extractMap(item)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		typ := getString(m, "type")
		if typ == "" {
			return nil, fmt.Errorf("point %d: type is required", i)
		}
		q, err := grapht.ParseQualifier(getString(m, "qualifier"))
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out = append(out, grapht.PointSpec{Type: grapht.TypeName(typ), Qualifier: q, Nullable: getBool(m, "nullable")})
	}
	return out, nil
}

// makeDefineQualifierFn creates the "define_qualifier" host function.
//
// define_qualifier(class, {default, default_type, implementation})
func makeDefineQualifierFn(sess *session) *object.Builtin {
	return object.NewBuiltin("define_qualifier", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("define_qualifier", args, 1, 2); bad != nil {
			return bad
		}
		class, err := toString(args[0])
		if err != nil {
			return sess.fail("define_qualifier", err)
		}
		opts, err := optionsArg(args, 1)
		if err != nil {
			return sess.fail("define_qualifier", err)
		}

		var d grapht.Defaults
		if v, ok := opts["default"]; ok {
			d.HasValue = true
			d.Value = toGo(v)
		}
		if vt := getString(opts, "default_type"); vt != "" {
			d.ValueType = grapht.TypeName(vt)
		}
		if impl := getString(opts, "implementation"); impl != "" {
			d.Implementation = grapht.TypeName(impl)
		}
		sess.universe.DefineQualifier(class, d)
		return object.Nil
	})
}

// makeExcludeDefaultFn creates "exclude_default", which stops a type from
// receiving generated rules.
//
// exclude_default(type)
func makeExcludeDefaultFn(sess *session) *object.Builtin {
	return object.NewBuiltin("exclude_default", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("exclude_default", args, 1, 1); bad != nil {
			return bad
		}
		name, err := toString(args[0])
		if err != nil {
			return sess.fail("exclude_default", err)
		}
		sess.builder.AddDefaultExclusion(grapht.TypeName(name))
		return object.Nil
	})
}

// makeRootFn creates the "root" host function.
//
// root(type, {qualifier, nullable})
func makeRootFn(sess *session) *object.Builtin {
	return object.NewBuiltin("root", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("root", args, 1, 2); bad != nil {
			return bad
		}
		name, err := toString(args[0])
		if err != nil {
			return sess.fail("root", err)
		}
		opts, err := optionsArg(args, 1)
		if err != nil {
			return sess.fail("root", err)
		}
		q, err := grapht.ParseQualifier(getString(opts, "qualifier"))
		if err != nil {
			return sess.fail("root", err)
		}
		sess.roots = append(sess.roots, grapht.RootDesire(grapht.TypeName(name), q, getBool(opts, "nullable")))
		return object.Nil
	})
}

// makeWithinFn creates the "within" host function. It returns a map of the
// bind functions scoped to the given context elements.
//
// within(elements) → {bind, bind_instance, bind_provider, bind_null, bind_parameter}
func makeWithinFn(sess *session) *object.Builtin {
	return object.NewBuiltin("within", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("within", args, 1, 1); bad != nil {
			return bad
		}
		elems, err := toStringList(args[0])
		if err != nil {
			return sess.fail("within", err)
		}
		scoped, err := scope(sess.builder, elems)
		if err != nil {
			return sess.fail("within", err)
		}
		fns := make(map[string]object.Object)
		for name, fn := range bindFns(sess, scoped) {
			fns[name] = fn
		}
		return object.NewMap(fns)
	})
}

func scope(b *grapht.Builder, elems []string) (*grapht.Builder, error) {
	chain, err := grapht.ParseContextChain(elems)
	if err != nil {
		return nil, err
	}
	for _, e := range chain.Elements() {
		b = b.Within(e)
	}
	return b, nil
}

// bindFns returns the bind host functions over builder b. Each accepts a
// trailing options map; its "in" key scopes the rule further.
func bindFns(sess *session, b *grapht.Builder) map[string]*object.Builtin {
	return map[string]*object.Builtin{
		"bind": bindFn(sess, b, "bind", 2, func(bd *grapht.Binding, args []object.Object) error {
			target, err := toString(args[1])
			if err != nil {
				return err
			}
			bd.To(grapht.TypeName(target))
			return nil
		}),
		"bind_instance": bindFn(sess, b, "bind_instance", 2, func(bd *grapht.Binding, args []object.Object) error {
			bd.ToInstance(toGo(args[1]))
			return nil
		}),
		"bind_provider": bindFn(sess, b, "bind_provider", 2, func(bd *grapht.Binding, args []object.Object) error {
			provider, err := toString(args[1])
			if err != nil {
				return err
			}
			bd.ToProvider(grapht.TypeName(provider))
			return nil
		}),
		"bind_null": bindFn(sess, b, "bind_null", 1, func(bd *grapht.Binding, args []object.Object) error {
			bd.ToNull()
			return nil
		}),
		"bind_parameter": makeBindParameterFn(sess, b),
	}
}

// bindFn builds a host function of the form name(source, ...fixed, opts?).
// Recognized options: qualifier, in, final, generated, exclude.
func bindFn(sess *session, b *grapht.Builder, name string, fixed int, apply func(*grapht.Binding, []object.Object) error) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity(name, args, fixed, fixed+1); bad != nil {
			return bad
		}
		source, err := toString(args[0])
		if err != nil {
			return sess.fail(name, err)
		}
		opts, err := optionsArg(args, fixed)
		if err != nil {
			return sess.fail(name, err)
		}
		qm, err := grapht.ParseQualifierMatcher(getString(opts, "qualifier"))
		if err != nil {
			return sess.fail(name, err)
		}
		in, err := getStringList(opts, "in")
		if err != nil {
			return sess.fail(name, err)
		}
		scoped, err := scope(b, in)
		if err != nil {
			return sess.fail(name, err)
		}

		bd := scoped.Bind(grapht.TypeName(source)).WithQualifierMatcher(qm)
		if getBool(opts, "final") {
			bd.Final()
		}
		if gen, ok := getOptionalBool(opts, "generated"); ok && !gen {
			bd.NoGenerated()
		}
		excludes, err := getStringList(opts, "exclude")
		if err != nil {
			return sess.fail(name, err)
		}
		for _, ex := range excludes {
			bd.Exclude(grapht.TypeName(ex))
		}
		if err := apply(bd, args); err != nil {
			return sess.fail(name, err)
		}
		sess.logger.Debug("rule declared",
			zap.String("fn", name),
			zap.String("source", source),
			zap.Stringer("chain", scoped.Chain()))
		return object.Nil
	})
}

// makeBindParameterFn creates the "bind_parameter" host function.
//
// bind_parameter(class, value, {in})
func makeBindParameterFn(sess *session, b *grapht.Builder) *object.Builtin {
	return object.NewBuiltin("bind_parameter", func(ctx context.Context, args ...object.Object) object.Object {
		if bad := sess.arity("bind_parameter", args, 2, 3); bad != nil {
			return bad
		}
		class, err := toString(args[0])
		if err != nil {
			return sess.fail("bind_parameter", err)
		}
		opts, err := optionsArg(args, 2)
		if err != nil {
			return sess.fail("bind_parameter", err)
		}
		in, err := getStringList(opts, "in")
		if err != nil {
			return sess.fail("bind_parameter", err)
		}
		scoped, err := scope(b, in)
		if err != nil {
			return sess.fail("bind_parameter", err)
		}
		scoped.BindParameter(class, toGo(args[1]))
		return object.Nil
	})
}
