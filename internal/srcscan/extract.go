package srcscan

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

type declKind uint8

const (
	structDecl declKind = iota + 1
	interfaceDecl
	namedDecl // any other defined type: type Port int, type HandlerFunc func()
)

// typeDecl is one type_spec found in a file.
type typeDecl struct {
	name    string
	kind    declKind
	pos     string
	methods map[string]string // interfaces only: method name → signature
	embeds  []string
	fields  []fieldPoint
	dirs    []directive
}

// fieldPoint is a struct field tagged for injection.
type fieldPoint struct {
	name string
	typ  string
	tag  string
}

// funcDecl is a top-level function or a method.
type funcDecl struct {
	name    string
	recv    string // base receiver type; empty for functions
	pos     string
	params  []param
	results []string
	sig     string
	dirs    []directive
}

type param struct {
	name string
	typ  string
}

// fileDecls holds everything extracted from one source file.
type fileDecls struct {
	path  string
	types []*typeDecl
	funcs []*funcDecl
	// free holds directives not attached to a declaration.
	free []directive
}

// parseFile parses src with the Go grammar and extracts its declarations.
func parseFile(ctx context.Context, path string, src []byte) (*fileDecls, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(goLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("srcscan: parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("srcscan: parse %s: syntax error near %s", path, firstError(root, path))
	}

	x := &extractor{src: src, out: &fileDecls{path: path}}
	x.walkDecls(root)
	return x.out, nil
}

type extractor struct {
	src []byte
	out *fileDecls
}

func (x *extractor) text(n *sitter.Node) string {
	return n.Content(x.src)
}

func (x *extractor) pos(n *sitter.Node) string {
	return fmt.Sprintf("%s:%d", x.out.path, n.StartPoint().Row+1)
}

// walkDecls visits the named children of a source file or grouped type
// declaration, attaching each run of line comments to the declaration that
// directly follows it.
func (x *extractor) walkDecls(parent *sitter.Node) {
	var pending []directive
	var lastComment *sitter.Node
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		n := parent.NamedChild(i)
		if n.Type() == "comment" {
			if lastComment != nil && n.StartPoint().Row > lastComment.EndPoint().Row+1 {
				x.out.free = append(x.out.free, pending...)
				pending = nil
			}
			if d, ok := parseDirective(x.text(n), x.pos(n)); ok {
				pending = append(pending, d)
			}
			lastComment = n
			continue
		}
		if lastComment != nil && n.StartPoint().Row > lastComment.EndPoint().Row+1 {
			x.out.free = append(x.out.free, pending...)
			pending = nil
		}

		switch n.Type() {
		case "type_declaration":
			x.typeDeclaration(n, pending)
		case "function_declaration":
			x.function(n, "", pending)
		case "method_declaration":
			x.function(n, x.receiver(n), pending)
		default:
			x.out.free = append(x.out.free, pending...)
		}
		pending = nil
		lastComment = nil
	}
	x.out.free = append(x.out.free, pending...)
}

func (x *extractor) typeDeclaration(n *sitter.Node, dirs []directive) {
	specs := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "type_spec" {
			specs++
		}
	}
	if specs > 1 {
		// Grouped declaration: comments inside the group attach to specs.
		x.out.free = append(x.out.free, dirs...)
		x.walkSpecs(n)
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == "type_spec" {
			x.typeSpec(c, dirs)
		}
	}
}

func (x *extractor) walkSpecs(group *sitter.Node) {
	var pending []directive
	for i := 0; i < int(group.NamedChildCount()); i++ {
		c := group.NamedChild(i)
		switch c.Type() {
		case "comment":
			if d, ok := parseDirective(x.text(c), x.pos(c)); ok {
				pending = append(pending, d)
			}
		case "type_spec":
			x.typeSpec(c, pending)
			pending = nil
		}
	}
	x.out.free = append(x.out.free, pending...)
}

func (x *extractor) typeSpec(n *sitter.Node, dirs []directive) {
	nameNode := n.ChildByFieldName("name")
	typeNode := n.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	td := &typeDecl{name: x.text(nameNode), pos: x.pos(n), dirs: dirs}
	switch typeNode.Type() {
	case "struct_type":
		td.kind = structDecl
		x.structFields(typeNode, td)
	case "interface_type":
		td.kind = interfaceDecl
		td.methods = make(map[string]string)
		x.interfaceElems(typeNode, td)
	default:
		td.kind = namedDecl
	}
	x.out.types = append(x.out.types, td)
}

func (x *extractor) structFields(st *sitter.Node, td *typeDecl) {
	var list *sitter.Node
	for i := 0; i < int(st.NamedChildCount()); i++ {
		if c := st.NamedChild(i); c.Type() == "field_declaration_list" {
			list = c
		}
	}
	if list == nil {
		return
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		f := list.NamedChild(i)
		if f.Type() != "field_declaration" {
			continue
		}
		typeNode := f.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		var names []string
		for j := 0; j < int(f.NamedChildCount()); j++ {
			if c := f.NamedChild(j); c.Type() == "field_identifier" {
				names = append(names, x.text(c))
			}
		}
		if len(names) == 0 {
			td.embeds = append(td.embeds, x.typeName(typeNode))
			continue
		}
		tag := ""
		if tagNode := f.ChildByFieldName("tag"); tagNode != nil {
			tag = x.text(tagNode)
		}
		if tag == "" {
			continue
		}
		for _, name := range names {
			td.fields = append(td.fields, fieldPoint{name: name, typ: x.typeName(typeNode), tag: tag})
		}
	}
}

func (x *extractor) interfaceElems(it *sitter.Node, td *typeDecl) {
	for i := 0; i < int(it.NamedChildCount()); i++ {
		c := it.NamedChild(i)
		switch c.Type() {
		case "method_elem", "method_spec":
			nameNode := c.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			name := x.text(nameNode)
			td.methods[name] = x.signature(name, c)
		case "type_elem", "constraint_elem", "interface_type_name":
			// A single embedded interface; unions and approximations are
			// constraints and carry no methods.
			if c.NamedChildCount() == 1 {
				td.embeds = append(td.embeds, x.typeName(c.NamedChild(0)))
			} else if c.NamedChildCount() == 0 {
				td.embeds = append(td.embeds, x.text(c))
			}
		case "qualified_type", "type_identifier":
			td.embeds = append(td.embeds, x.typeName(c))
		case "method_spec_list":
			x.interfaceElems(c, td)
		}
	}
}

func (x *extractor) function(n *sitter.Node, recv string, dirs []directive) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	fd := &funcDecl{
		name: x.text(nameNode),
		recv: recv,
		pos:  x.pos(n),
		dirs: dirs,
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		fd.params = x.params(params)
	}
	if result := n.ChildByFieldName("result"); result != nil {
		fd.results = x.results(result)
	}
	fd.sig = x.signature(fd.name, n)
	x.out.funcs = append(x.out.funcs, fd)
}

// receiver returns the base type name of a method's receiver.
func (x *extractor) receiver(n *sitter.Node) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	ps := x.params(recv)
	if len(ps) == 0 {
		return ""
	}
	base := strings.TrimPrefix(ps[0].typ, "*")
	if i := strings.IndexByte(base, '['); i >= 0 {
		base = base[:i]
	}
	return base
}

func (x *extractor) params(list *sitter.Node) []param {
	var out []param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		p := list.NamedChild(i)
		typeNode := p.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		typ := x.typeName(typeNode)
		if p.Type() == "variadic_parameter_declaration" {
			typ = "..." + typ
		} else if p.Type() != "parameter_declaration" {
			continue
		}
		var names []string
		for j := 0; j < int(p.NamedChildCount()); j++ {
			if c := p.NamedChild(j); c.Type() == "identifier" {
				names = append(names, x.text(c))
			}
		}
		if len(names) == 0 {
			names = []string{""}
		}
		for _, name := range names {
			out = append(out, param{name: name, typ: typ})
		}
	}
	return out
}

func (x *extractor) results(n *sitter.Node) []string {
	if n.Type() != "parameter_list" {
		return []string{x.typeName(n)}
	}
	var out []string
	for _, p := range x.params(n) {
		out = append(out, p.typ)
	}
	return out
}

// signature renders name(params)(results) with parameter names dropped,
// so an interface method and its implementation compare equal.
func (x *extractor) signature(name string, n *sitter.Node) string {
	var ps, rs []string
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range x.params(params) {
			ps = append(ps, p.typ)
		}
	}
	if result := n.ChildByFieldName("result"); result != nil {
		rs = x.results(result)
	}
	return name + "(" + strings.Join(ps, ",") + ")(" + strings.Join(rs, ",") + ")"
}

// typeName renders a type node as source text with whitespace collapsed.
// Pointer stars are kept; callers that want the base type strip them.
func (x *extractor) typeName(n *sitter.Node) string {
	return strings.Join(strings.Fields(x.text(n)), " ")
}

func firstError(n *sitter.Node, path string) string {
	if n.Type() == "ERROR" || n.IsMissing() {
		return fmt.Sprintf("%s:%d", path, n.StartPoint().Row+1)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return firstError(c, path)
		}
	}
	return path
}
