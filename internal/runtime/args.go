package runtime

import (
	"fmt"

	"github.com/risor-io/risor/object"
)

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

// optionsArg returns the optional trailing options map at args[i].
func optionsArg(args []object.Object, i int) (map[string]object.Object, error) {
	if len(args) <= i {
		return map[string]object.Object{}, nil
	}
	return extractMap(args[i])
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getBool(m map[string]object.Object, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return false
}

// getOptionalBool distinguishes an absent key from false.
func getOptionalBool(m map[string]object.Object, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(*object.Bool)
	if !ok {
		return false, false
	}
	return b.Value(), true
}

// getStringList accepts a single string or a list of strings.
func getStringList(m map[string]object.Object, key string) ([]string, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	return toStringList(v)
}

func toStringList(obj object.Object) ([]string, error) {
	switch v := obj.(type) {
	case *object.String:
		return []string{v.Value()}, nil
	case *object.List:
		var out []string
		for _, item := range v.Value() {
			s, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case *object.NilType:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %s", obj.Type())
	}
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// toGo converts a script value to the Go value bound as an instance.
func toGo(obj object.Object) any {
	if _, ok := obj.(*object.NilType); ok {
		return nil
	}
	return obj.Interface()
}
