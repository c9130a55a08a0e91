package grapht

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQualifier(t *testing.T) {
	tests := []struct {
		in   string
		want Qualifier
	}{
		{"", Qualifier{}},
		{"@none", Qualifier{}},
		{"@Port", QualifierOf("Port")},
		{"Port", QualifierOf("Port")},
		{`@Named("primary")`, Named("primary")},
		{`Named(primary)`, Named("primary")},
		{`@Named("a b")`, Named("a b")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQualifier(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"@Named(", "@(x)", "@Na-med", `@Named("x)`} {
		_, err := ParseQualifier(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseQualifier_RoundTripsString(t *testing.T) {
	for _, q := range []Qualifier{QualifierOf("Port"), Named("x"), Named(`quote"d`)} {
		got, err := ParseQualifier(q.String())
		require.NoError(t, err)
		assert.Equal(t, q, got)
	}
}

func TestParseQualifierMatcher(t *testing.T) {
	tests := []struct {
		in   string
		want QualifierMatcher
	}{
		{"", MatchNone()},
		{"none", MatchNone()},
		{"@any", MatchAny()},
		{"any", MatchAny()},
		{"@Named(*)", MatchClass("Named")},
		{`@Named("x")`, MatchQualifier(Named("x"))},
	}
	for _, tt := range tests {
		got, err := ParseQualifierMatcher(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.want.String(), got.String())
	}
}

func TestParseContextChain(t *testing.T) {
	chain, err := ParseContextChain([]string{"Web", ".", `@Named("db") Repo`})
	require.NoError(t, err)
	assert.Equal(t, `[Web / . / @Named("db") Repo]`, chain.String())

	_, err = ParseContextChain([]string{"Web", ".*"})
	assert.Error(t, err)
	_, err = ParseContextChain([]string{""})
	assert.Error(t, err)
}
