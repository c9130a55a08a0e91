// Package manifest loads type universes and bind configurations from YAML.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML form of a module: the types the solver may
// construct, the qualifier classes, the bind rules and the root requests.
type Manifest struct {
	Version    string          `yaml:"version"`
	Qualifiers []QualifierDecl `yaml:"qualifiers,omitempty"`
	Types      []TypeDecl      `yaml:"types"`
	Bindings   []BindingDecl   `yaml:"bindings,omitempty"`
	Parameters []ParameterDecl `yaml:"parameters,omitempty"`
	Exclusions []string        `yaml:"exclude,omitempty"`
	Roots      []RootDecl      `yaml:"roots,omitempty"`
}

// QualifierDecl declares the defaults of a qualifier class.
type QualifierDecl struct {
	Class          string `yaml:"class"`
	Default        any    `yaml:"default,omitempty"`
	DefaultType    string `yaml:"default_type,omitempty"`
	Implementation string `yaml:"implementation,omitempty"`
}

// TypeDecl registers a type.
type TypeDecl struct {
	Name         string        `yaml:"name"`
	Abstract     bool          `yaml:"abstract,omitempty"`
	Supertypes   StringOrList  `yaml:"supertypes,omitempty"`
	Constructor  []PointDecl   `yaml:"constructor,omitempty"`
	Constructors [][]PointDecl `yaml:"constructors,omitempty"`
	Setters      []PointDecl   `yaml:"setters,omitempty"`
	Provides     string        `yaml:"provides,omitempty"`
	Default      DefaultDecl   `yaml:"default,omitempty"`
}

// PointDecl is one injection point.
type PointDecl struct {
	Type      string `yaml:"type"`
	Qualifier string `yaml:"qualifier,omitempty"`
	Nullable  bool   `yaml:"nullable,omitempty"`
}

// DefaultDecl names the default implementation or provider of a type.
type DefaultDecl struct {
	Implementation string `yaml:"implementation,omitempty"`
	Provider       string `yaml:"provider,omitempty"`
}

// BindingDecl is one bind rule. Exactly one of To, Instance, Provider and
// Null is set.
type BindingDecl struct {
	Bind      string       `yaml:"bind"`
	Qualifier string       `yaml:"qualifier,omitempty"`
	In        StringOrList `yaml:"in,omitempty"`
	To        string       `yaml:"to,omitempty"`
	Instance  any          `yaml:"instance,omitempty"`
	Provider  string       `yaml:"provider,omitempty"`
	Null      bool         `yaml:"null,omitempty"`
	Final     bool         `yaml:"final,omitempty"`
	Generated *bool        `yaml:"generated,omitempty"`
	Exclude   StringOrList `yaml:"exclude,omitempty"`
}

// ParameterDecl binds every qualifier of a class to a literal value.
type ParameterDecl struct {
	Class string       `yaml:"class"`
	Value any          `yaml:"value"`
	In    StringOrList `yaml:"in,omitempty"`
}

// RootDecl is a root request.
type RootDecl struct {
	Type      string `yaml:"type"`
	Qualifier string `yaml:"qualifier,omitempty"`
	Nullable  bool   `yaml:"nullable,omitempty"`
}

// UnmarshalYAML lets a root be written as a bare type name.
func (r *RootDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&r.Type)
	}
	type plain RootDecl
	return node.Decode((*plain)(r))
}

// StringOrList accepts either a single string or a list of strings.
type StringOrList []string

// UnmarshalYAML implements custom YAML unmarshaling for StringOrList.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}
		if str == "" {
			*s = nil
		} else {
			*s = StringOrList{str}
		}
		return nil
	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}
		*s = arr
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML writes a single element as a plain string.
func (s StringOrList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}
