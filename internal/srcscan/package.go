package srcscan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jward/grapht"
)

// Package is the merged view of every scanned file.
type Package struct {
	types   map[string]*typeDecl
	order   []string
	funcs   []*funcDecl
	methods map[string][]*funcDecl
	free    []directive
	errs    []error
}

func newPackage() *Package {
	return &Package{
		types:   make(map[string]*typeDecl),
		methods: make(map[string][]*funcDecl),
	}
}

func (p *Package) add(fd *fileDecls) {
	for _, td := range fd.types {
		if prev, ok := p.types[td.name]; ok {
			p.errs = append(p.errs, fmt.Errorf("%s: %s redeclared (first declared at %s)", td.pos, td.name, prev.pos))
			continue
		}
		p.types[td.name] = td
		p.order = append(p.order, td.name)
	}
	for _, f := range fd.funcs {
		if f.recv != "" {
			p.methods[f.recv] = append(p.methods[f.recv], f)
		} else {
			p.funcs = append(p.funcs, f)
		}
	}
	p.free = append(p.free, fd.free...)
}

// Types returns the declared type names in file and source order.
func (p *Package) Types() []string {
	return append([]string(nil), p.order...)
}

// Universe registers every declared type and qualifier.
func (p *Package) Universe() (*grapht.Universe, error) {
	b, err := p.build()
	if err != nil {
		return nil, err
	}
	return b.universe, nil
}

// Builder returns a rule builder over the scanned universe with the
// //grapht:nodefault types already excluded from generated rules.
func (p *Package) Builder() (*grapht.Builder, error) {
	b, err := p.build()
	if err != nil {
		return nil, err
	}
	return b.builder(), nil
}

// Module returns the universe with an empty rule set and the //grapht:root
// types as roots.
func (p *Package) Module() (*grapht.Module, error) {
	b, err := p.build()
	if err != nil {
		return nil, err
	}
	cfg, err := b.builder().Build()
	if err != nil {
		return nil, fmt.Errorf("srcscan: %w", err)
	}
	return &grapht.Module{Universe: b.universe, Config: cfg, Roots: b.roots}, nil
}

func (p *Package) build() (*build, error) {
	b := p.newBuild()
	b.run()
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("srcscan: %w", errors.Join(b.errs...))
	}
	return b, nil
}

// build is one conversion of a Package into a Universe.
type build struct {
	pkg       *Package
	universe  *grapht.Universe
	roots     []grapht.Desire
	noDefault []grapht.TypeName
	errs      []error

	sets     map[string]map[string]string
	visiting map[string]bool
}

func (p *Package) newBuild() *build {
	return &build{
		pkg:      p,
		universe: grapht.NewUniverse(),
		errs:     append([]error(nil), p.errs...),
		sets:     make(map[string]map[string]string),
		visiting: make(map[string]bool),
	}
}

func (b *build) builder() *grapht.Builder {
	builder := grapht.NewBuilder(b.universe)
	for _, t := range b.noDefault {
		builder.AddDefaultExclusion(t)
	}
	return builder
}

func (b *build) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

func (b *build) run() {
	b.qualifiers()
	for _, name := range b.pkg.order {
		b.defineType(b.pkg.types[name])
	}
}

// qualifiers registers every //grapht:qualifier directive, wherever it
// appears.
func (b *build) qualifiers() {
	var all []directive
	all = append(all, b.pkg.free...)
	for _, name := range b.pkg.order {
		all = append(all, b.pkg.types[name].dirs...)
	}
	for _, f := range b.pkg.funcs {
		all = append(all, f.dirs...)
	}
	for _, d := range all {
		if d.name != dirQualifier {
			continue
		}
		class, def, err := qualifierDecl(d)
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		b.universe.DefineQualifier(class, def)
	}
}

func (b *build) defineType(td *typeDecl) {
	name := grapht.TypeName(td.name)
	spec := grapht.TypeSpec{
		Name:     name,
		Abstract: td.kind == interfaceDecl,
	}
	if _, ok := findDirective(td.dirs, dirAbstract); ok {
		spec.Abstract = true
	}
	spec.Supertypes = b.supertypes(td)
	spec.Constructors = b.constructors(td)
	spec.Setters = b.setters(td)
	spec.Provides = b.provides(td)

	for _, d := range td.dirs {
		switch d.name {
		case dirDefault:
			if len(d.args) != 1 {
				b.fail("%s: %s: expected one implementation type", d.pos, d)
				continue
			}
			spec.Defaults.Implementation = grapht.TypeName(d.args[0])
		case dirProvider:
			if len(d.args) != 1 {
				b.fail("%s: %s: expected one provider type", d.pos, d)
				continue
			}
			spec.Defaults.Provider = grapht.TypeName(d.args[0])
		case dirRoot:
			q, nullable, err := pointOptions(d.args)
			if err != nil {
				b.fail("%s: %s: %w", d.pos, d, err)
				continue
			}
			b.roots = append(b.roots, grapht.RootDesire(name, q, nullable))
		case dirNoDefault:
			b.noDefault = append(b.noDefault, name)
		}
	}

	if err := b.universe.Define(spec); err != nil {
		b.fail("%s: %w", td.pos, err)
	}
}

// supertypes lists the interfaces a type can be assigned to: embedded
// interfaces for an interface, and every non-empty scanned interface whose
// method set it covers for anything else.
func (b *build) supertypes(td *typeDecl) []grapht.TypeName {
	var out []grapht.TypeName
	if td.kind == interfaceDecl {
		for _, e := range td.embeds {
			if other, ok := b.pkg.types[e]; ok && other.kind == interfaceDecl {
				out = append(out, grapht.TypeName(e))
			}
		}
		return out
	}
	have := b.methodSet(td.name)
	for _, name := range b.pkg.order {
		iface := b.pkg.types[name]
		if iface.kind != interfaceDecl {
			continue
		}
		want := b.methodSet(name)
		if len(want) > 0 && covers(have, want) {
			out = append(out, grapht.TypeName(name))
		}
	}
	return out
}

func covers(have, want map[string]string) bool {
	for m, sig := range want {
		if have[m] != sig {
			return false
		}
	}
	return true
}

// methodSet returns name → signature for a scanned type, including methods
// promoted from embedded fields and embedded interfaces. Pointer and value
// receivers are not distinguished.
func (b *build) methodSet(name string) map[string]string {
	if set, ok := b.sets[name]; ok {
		return set
	}
	set := make(map[string]string)
	td, ok := b.pkg.types[name]
	if !ok || b.visiting[name] {
		return set
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	for _, e := range td.embeds {
		for m, sig := range b.methodSet(baseType(e)) {
			set[m] = sig
		}
	}
	for m, sig := range td.methods {
		set[m] = sig
	}
	for _, f := range b.pkg.methods[name] {
		set[f.name] = f.sig
	}
	b.sets[name] = set
	return set
}

// constructors returns the injection points of New<T> and of functions
// marked //grapht:constructor that return T or *T.
func (b *build) constructors(td *typeDecl) [][]grapht.PointSpec {
	if td.kind == interfaceDecl {
		return nil
	}
	var out [][]grapht.PointSpec
	for _, f := range b.pkg.funcs {
		if len(f.results) == 0 || baseType(f.results[0]) != td.name {
			continue
		}
		_, marked := findDirective(f.dirs, dirConstructor)
		if f.name != "New"+td.name && !marked {
			continue
		}
		points, err := b.paramPoints(f)
		if err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		out = append(out, points)
	}
	return out
}

func (b *build) paramPoints(f *funcDecl) ([]grapht.PointSpec, error) {
	points := make([]grapht.PointSpec, len(f.params))
	index := make(map[string]int, len(f.params))
	for i, p := range f.params {
		if strings.HasPrefix(p.typ, "...") {
			return nil, fmt.Errorf("%s: %s: variadic parameter %s cannot be injected", f.pos, f.name, p.name)
		}
		points[i] = grapht.PointSpec{Type: grapht.TypeName(baseType(p.typ))}
		if p.name != "" {
			index[p.name] = i
		}
	}
	for _, d := range f.dirs {
		if d.name != dirInject {
			continue
		}
		if len(d.args) == 0 {
			return nil, fmt.Errorf("%s: %s: expected a parameter name", d.pos, d)
		}
		i, ok := index[d.args[0]]
		if !ok {
			return nil, fmt.Errorf("%s: %s: %s has no parameter %q", d.pos, d, f.name, d.args[0])
		}
		q, nullable, err := pointOptions(d.args[1:])
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", d.pos, d, err)
		}
		points[i].Qualifier = q
		points[i].Nullable = nullable
	}
	return points, nil
}

// setters returns tagged fields followed by methods marked
// //grapht:inject, in source order.
func (b *build) setters(td *typeDecl) []grapht.PointSpec {
	var out []grapht.PointSpec
	for _, f := range td.fields {
		q, nullable, ok, err := fieldTag(f.tag)
		if err != nil {
			b.fail("%s: field %s: %w", td.pos, f.name, err)
			continue
		}
		if !ok {
			continue
		}
		out = append(out, grapht.PointSpec{Type: grapht.TypeName(baseType(f.typ)), Qualifier: q, Nullable: nullable})
	}
	for _, m := range b.pkg.methods[td.name] {
		d, ok := findDirective(m.dirs, dirInject)
		if !ok {
			continue
		}
		if len(m.params) != 1 {
			b.fail("%s: setter %s.%s must take exactly one parameter", m.pos, td.name, m.name)
			continue
		}
		q, nullable, err := pointOptions(d.args)
		if err != nil {
			b.fail("%s: %s: %w", d.pos, d, err)
			continue
		}
		out = append(out, grapht.PointSpec{Type: grapht.TypeName(baseType(m.params[0].typ)), Qualifier: q, Nullable: nullable})
	}
	return out
}

// provides reads //grapht:provides, falling back to the first result of a
// Provide method.
func (b *build) provides(td *typeDecl) grapht.TypeName {
	if d, ok := findDirective(td.dirs, dirProvides); ok {
		if len(d.args) != 1 {
			b.fail("%s: %s: expected one product type", d.pos, d)
			return ""
		}
		return grapht.TypeName(d.args[0])
	}
	if td.kind == interfaceDecl {
		return ""
	}
	for _, m := range b.pkg.methods[td.name] {
		if m.name == "Provide" && len(m.params) == 0 && len(m.results) > 0 {
			return grapht.TypeName(baseType(m.results[0]))
		}
	}
	return ""
}

func baseType(s string) string {
	return strings.TrimLeft(s, "*")
}
