package manifest

import (
	"errors"
	"fmt"

	"github.com/jward/grapht"
)

// Compile registers the manifest's types and qualifiers with a new
// Universe and builds its bind rules. Every problem found is reported,
// joined into one error.
func Compile(m *Manifest) (*grapht.Module, error) {
	u := grapht.NewUniverse()
	var errs []error

	for _, q := range m.Qualifiers {
		if q.Class == "" {
			errs = append(errs, fmt.Errorf("manifest: qualifier with empty class"))
			continue
		}
		d := grapht.Defaults{HasValue: q.Default != nil, Value: q.Default}
		if q.DefaultType != "" {
			d.ValueType = grapht.TypeName(q.DefaultType)
		}
		if q.Implementation != "" {
			d.Implementation = grapht.TypeName(q.Implementation)
		}
		u.DefineQualifier(q.Class, d)
	}

	for i, td := range m.Types {
		spec, err := typeSpec(td)
		if err == nil {
			err = u.Define(spec)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("manifest: types[%d] (%s): %w", i, td.Name, err))
		}
	}

	b := grapht.NewBuilder(u)
	for _, ex := range m.Exclusions {
		b.AddDefaultExclusion(grapht.TypeName(ex))
	}
	for i, bd := range m.Bindings {
		if err := addBinding(b, bd); err != nil {
			errs = append(errs, fmt.Errorf("manifest: bindings[%d] (%s): %w", i, bd.Bind, err))
		}
	}
	for i, pd := range m.Parameters {
		scoped, err := scope(b, pd.In)
		if err != nil {
			errs = append(errs, fmt.Errorf("manifest: parameters[%d] (%s): %w", i, pd.Class, err))
			continue
		}
		scoped.BindParameter(pd.Class, pd.Value)
	}

	var roots []grapht.Desire
	for i, rd := range m.Roots {
		q, err := grapht.ParseQualifier(rd.Qualifier)
		if err != nil || rd.Type == "" {
			errs = append(errs, fmt.Errorf("manifest: roots[%d] (%s): %w", i, rd.Type, errors.Join(err, emptyName(rd.Type))))
			continue
		}
		roots = append(roots, grapht.RootDesire(grapht.TypeName(rd.Type), q, rd.Nullable))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	cfg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &grapht.Module{Universe: u, Config: cfg, Roots: roots}, nil
}

// LoadModule reads and compiles the manifest at path.
func LoadModule(path string) (*grapht.Module, error) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(m)
}

func typeSpec(td TypeDecl) (grapht.TypeSpec, error) {
	spec := grapht.TypeSpec{
		Name:     grapht.TypeName(td.Name),
		Abstract: td.Abstract,
		Provides: grapht.TypeName(td.Provides),
	}
	for _, st := range td.Supertypes {
		spec.Supertypes = append(spec.Supertypes, grapht.TypeName(st))
	}
	ctors := td.Constructors
	if len(td.Constructor) > 0 {
		ctors = append([][]PointDecl{td.Constructor}, ctors...)
	}
	for _, c := range ctors {
		points, err := pointSpecs(c)
		if err != nil {
			return grapht.TypeSpec{}, err
		}
		spec.Constructors = append(spec.Constructors, points)
	}
	setters, err := pointSpecs(td.Setters)
	if err != nil {
		return grapht.TypeSpec{}, err
	}
	spec.Setters = setters
	if td.Default.Implementation != "" {
		spec.Defaults.Implementation = grapht.TypeName(td.Default.Implementation)
	}
	if td.Default.Provider != "" {
		spec.Defaults.Provider = grapht.TypeName(td.Default.Provider)
	}
	return spec, nil
}

func pointSpecs(decls []PointDecl) ([]grapht.PointSpec, error) {
	var out []grapht.PointSpec
	for _, p := range decls {
		if p.Type == "" {
			return nil, fmt.Errorf("injection point without a type")
		}
		q, err := grapht.ParseQualifier(p.Qualifier)
		if err != nil {
			return nil, err
		}
		out = append(out, grapht.PointSpec{Type: grapht.TypeName(p.Type), Qualifier: q, Nullable: p.Nullable})
	}
	return out, nil
}

func scope(b *grapht.Builder, in []string) (*grapht.Builder, error) {
	chain, err := grapht.ParseContextChain(in)
	if err != nil {
		return nil, err
	}
	for _, e := range chain.Elements() {
		b = b.Within(e)
	}
	return b, nil
}

func addBinding(b *grapht.Builder, bd BindingDecl) error {
	if bd.Bind == "" {
		return emptyName(bd.Bind)
	}
	set := 0
	for _, ok := range []bool{bd.To != "", bd.Instance != nil, bd.Provider != "", bd.Null} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of to, instance, provider or null is required")
	}

	qm, err := grapht.ParseQualifierMatcher(bd.Qualifier)
	if err != nil {
		return err
	}
	scoped, err := scope(b, bd.In)
	if err != nil {
		return err
	}

	binding := scoped.Bind(grapht.TypeName(bd.Bind)).WithQualifierMatcher(qm)
	if bd.Final {
		binding.Final()
	}
	if bd.Generated != nil && !*bd.Generated {
		binding.NoGenerated()
	}
	for _, ex := range bd.Exclude {
		binding.Exclude(grapht.TypeName(ex))
	}

	switch {
	case bd.To != "":
		binding.To(grapht.TypeName(bd.To))
	case bd.Instance != nil:
		binding.ToInstance(bd.Instance)
	case bd.Provider != "":
		binding.ToProvider(grapht.TypeName(bd.Provider))
	default:
		binding.ToNull()
	}
	return nil
}

func emptyName(name string) error {
	if name == "" {
		return fmt.Errorf("type name is required")
	}
	return nil
}
