package srcscan

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jward/grapht"
)

const directivePrefix = "//grapht:"

// Directive names.
const (
	dirDefault     = "default"     // //grapht:default Impl
	dirProvider    = "provider"    // //grapht:provider ImplProvider
	dirProvides    = "provides"    // //grapht:provides Product
	dirAbstract    = "abstract"    // //grapht:abstract
	dirRoot        = "root"        // //grapht:root [@Qualifier] [nullable]
	dirNoDefault   = "nodefault"   // //grapht:nodefault
	dirQualifier   = "qualifier"   // //grapht:qualifier Class [default=v] [type=T] [implementation=T]
	dirConstructor = "constructor" // //grapht:constructor
	dirInject      = "inject"      // //grapht:inject [param] [@Qualifier] [nullable]
)

type directive struct {
	name string
	args []string
	pos  string
}

func (d directive) String() string {
	return directivePrefix + strings.Join(append([]string{d.name}, d.args...), " ")
}

// parseDirective recognizes a //grapht: line comment.
func parseDirective(comment, pos string) (directive, bool) {
	if !strings.HasPrefix(comment, directivePrefix) {
		return directive{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(comment, directivePrefix))
	if len(fields) == 0 {
		return directive{}, false
	}
	return directive{name: fields[0], args: fields[1:], pos: pos}, true
}

func findDirective(dirs []directive, name string) (directive, bool) {
	for _, d := range dirs {
		if d.name == name {
			return d, true
		}
	}
	return directive{}, false
}

// pointOptions parses the trailing [@Qualifier] [nullable] arguments shared
// by inject and root directives.
func pointOptions(args []string) (grapht.Qualifier, bool, error) {
	var q grapht.Qualifier
	nullable := false
	for _, a := range args {
		if a == "nullable" {
			nullable = true
			continue
		}
		parsed, err := grapht.ParseQualifier(a)
		if err != nil {
			return q, false, err
		}
		q = parsed
	}
	return q, nullable, nil
}

// qualifierDecl parses //grapht:qualifier Class key=value...
func qualifierDecl(d directive) (string, grapht.Defaults, error) {
	var def grapht.Defaults
	if len(d.args) == 0 {
		return "", def, fmt.Errorf("%s: %s: missing qualifier class", d.pos, d)
	}
	class := strings.TrimPrefix(d.args[0], "@")
	for _, kv := range d.args[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return "", def, fmt.Errorf("%s: %s: expected key=value, got %q", d.pos, d, kv)
		}
		switch key {
		case "default":
			def.HasValue = true
			def.Value = literal(value)
		case "type":
			def.ValueType = grapht.TypeName(value)
		case "implementation":
			def.Implementation = grapht.TypeName(value)
		default:
			return "", def, fmt.Errorf("%s: %s: unknown key %q", d.pos, d, key)
		}
	}
	return class, def, nil
}

// literal converts a directive value to a bool, int, float or string.
func literal(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

// fieldTag parses a `grapht:"..."` struct tag. ok is false when the field
// carries no grapht key.
func fieldTag(raw string) (q grapht.Qualifier, nullable, ok bool, err error) {
	tag, uerr := strconv.Unquote(raw)
	if uerr != nil {
		return q, false, false, fmt.Errorf("bad struct tag %s", raw)
	}
	value, ok := reflect.StructTag(tag).Lookup("grapht")
	if !ok {
		return q, false, false, nil
	}
	for _, opt := range strings.Split(value, ",") {
		key, val, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "", "inject":
		case "nullable":
			nullable = true
		case "named":
			q = grapht.Named(val)
		case "qualifier":
			q, err = grapht.ParseQualifier(val)
			if err != nil {
				return q, false, true, err
			}
		default:
			return q, false, true, fmt.Errorf("unknown grapht tag option %q", key)
		}
	}
	return q, nullable, true, nil
}
