package grapht

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseQualifier reads a qualifier in the form printed by Qualifier.String:
// @Class, @Class("value") or @Class(value). The leading @ is optional.
// An empty string and @none yield the zero qualifier.
func ParseQualifier(s string) (Qualifier, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	if s == "" || s == "none" {
		return Qualifier{}, nil
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if !validClass(s) {
			return Qualifier{}, fmt.Errorf("grapht: parse qualifier %q: invalid class name", s)
		}
		return Qualifier{Class: s}, nil
	}
	if !strings.HasSuffix(s, ")") {
		return Qualifier{}, fmt.Errorf("grapht: parse qualifier %q: missing closing parenthesis", s)
	}
	class, value := s[:open], strings.TrimSpace(s[open+1:len(s)-1])
	if !validClass(class) {
		return Qualifier{}, fmt.Errorf("grapht: parse qualifier %q: invalid class name", s)
	}
	if strings.HasPrefix(value, `"`) {
		unq, err := strconv.Unquote(value)
		if err != nil {
			return Qualifier{}, fmt.Errorf("grapht: parse qualifier %q: %w", s, err)
		}
		value = unq
	}
	return Qualifier{Class: class, Value: value}, nil
}

// ParseQualifierMatcher reads a matcher in the form printed by
// QualifierMatcher.String. "any" and "none" may be written with or without
// the @, and @Class(*) matches every qualifier of a class.
func ParseQualifierMatcher(s string) (QualifierMatcher, error) {
	s = strings.TrimSpace(s)
	switch strings.TrimPrefix(s, "@") {
	case "", "none":
		return MatchNone(), nil
	case "any", "*":
		return MatchAny(), nil
	}
	if class, ok := strings.CutSuffix(strings.TrimPrefix(s, "@"), "(*)"); ok {
		if !validClass(class) {
			return QualifierMatcher{}, fmt.Errorf("grapht: parse qualifier matcher %q: invalid class name", s)
		}
		return MatchClass(class), nil
	}
	q, err := ParseQualifier(s)
	if err != nil {
		return QualifierMatcher{}, err
	}
	return MatchQualifier(q), nil
}

// ParseContextElement reads a context element: "." for any single node,
// "Type" for a type under any qualifier, or "<matcher> Type".
func ParseContextElement(s string) (ContextElement, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return ContextElement{}, fmt.Errorf("grapht: parse context element: empty")
	case ".":
		return MatchAnyNode(), nil
	case ".*":
		return AnyNumber(), nil
	}
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return MatchType(TypeName(s)), nil
	}
	qm, err := ParseQualifierMatcher(s[:i])
	if err != nil {
		return ContextElement{}, err
	}
	return MatchQualifiedType(qm, TypeName(strings.TrimSpace(s[i+1:]))), nil
}

// ParseContextChain reads a chain of elements, root-most first. AnyNumber
// runs are not allowed in chains.
func ParseContextChain(elems []string) (ContextChain, error) {
	chain := RootChain()
	for _, s := range elems {
		e, err := ParseContextElement(s)
		if err != nil {
			return ContextChain{}, err
		}
		if e.kind == elementAnyNumber {
			return ContextChain{}, fmt.Errorf("grapht: parse context chain: %q is not allowed in a chain", s)
		}
		chain = chain.Push(e)
	}
	return chain, nil
}

func validClass(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && r != '.' && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z') && !('0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
