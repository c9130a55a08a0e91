package grapht

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextPattern_EmptyAndAny(t *testing.T) {
	u := hierarchyUniverse(t)

	assert.NotNil(t, AnyPattern().Matches(u, makeContext()))
	assert.NotNil(t, EmptyPattern().Matches(u, makeContext()))
	assert.Nil(t, EmptyPattern().Matches(u, makeContext(typeA)))

	for _, ctx := range []InjectionContext{
		makeContext(typeA),
		makeContext(typeA, typeB),
		makeContext(typeA, typeAp),
		makeContext(typeA, typeB, typeC),
	} {
		assert.NotNil(t, AnyPattern().Matches(u, ctx), "context %s", ctx)
	}
}

func TestContextPattern_Singleton(t *testing.T) {
	u := hierarchyUniverse(t)
	p := EmptyPattern().AppendType(typeA)

	assert.NotNil(t, p.Matches(u, makeContext(typeA)))
	assert.Nil(t, p.Matches(u, makeContext(typeB)))
	assert.Nil(t, p.Matches(u, makeContext()))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeB)))
	assert.Nil(t, p.Matches(u, makeContext(typeB, typeA)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeA)))
}

func TestContextPattern_SubsequenceEqualChain(t *testing.T) {
	u := hierarchyUniverse(t)

	assert.NotNil(t, SubsequenceOf(typeA).Matches(u, makeContext(typeA)))
	assert.NotNil(t, SubsequenceOf(typeA, typeB).Matches(u, makeContext(typeA, typeB)))
	assert.NotNil(t, SubsequenceOf(typeA, typeB, typeC).Matches(u, makeContext(typeA, typeB, typeC)))
}

func TestContextPattern_Substring(t *testing.T) {
	u := hierarchyUniverse(t)
	abc := makeContext(typeA, typeB, typeC)

	assert.NotNil(t, SubsequenceOf(typeA).Matches(u, abc))
	assert.NotNil(t, SubsequenceOf(typeB).Matches(u, abc))
	assert.NotNil(t, SubsequenceOf(typeC).Matches(u, abc))
	assert.NotNil(t, SubsequenceOf(typeA, typeB).Matches(u, abc))
	assert.NotNil(t, SubsequenceOf(typeB, typeC).Matches(u, abc))
	assert.NotNil(t, SubsequenceOf(typeB, typeC).Matches(u, makeContext(typeA, typeB, typeC, typeAp)))
}

func TestContextPattern_Subsequence(t *testing.T) {
	u := hierarchyUniverse(t)
	long := makeContext(typeA, typeB, typeC, typeAp, typeBp, typeCp)

	tests := [][]Type{
		{typeA, typeC},
		{typeA, typeAp},
		{typeA, typeBp},
		{typeA, typeC, typeBp},
		{typeA, typeB, typeAp},
		{typeB, typeCp},
		{typeA, typeCp},
		{typeC, typeAp, typeBp},
	}
	for _, types := range tests {
		assert.NotNil(t, SubsequenceOf(types...).Matches(u, long), "pattern %v", types)
	}
}

func TestContextPattern_SubtypeMatch(t *testing.T) {
	u := hierarchyUniverse(t)

	assert.NotNil(t, SubsequenceOf(typeA).Matches(u, makeContext(typeAp)))
	assert.NotNil(t, SubsequenceOf(typeA, typeC).Matches(u, makeContext(typeAp, typeCp)))
	assert.NotNil(t, SubsequenceOf(typeA, typeC).Matches(u, makeContext(typeA, typeCp)))
	assert.NotNil(t, SubsequenceOf(typeA, typeC).Matches(u, makeContext(typeAp, typeC)))

	// Supertypes do not match subtype elements.
	assert.Nil(t, SubsequenceOf(typeAp).Matches(u, makeContext(typeA)))
}

func TestContextPattern_NonSubsequence(t *testing.T) {
	u := hierarchyUniverse(t)

	assert.Nil(t, SubsequenceOf(typeA).Matches(u, makeContext(typeB)))
	assert.Nil(t, SubsequenceOf(typeA, typeB).Matches(u, makeContext(typeB, typeA)))
	assert.Nil(t, SubsequenceOf(typeB, typeA, typeC).Matches(u, makeContext(typeC, typeB, typeA)))
	assert.Nil(t, SubsequenceOf(typeA, typeB, typeC).Matches(u, makeContext(typeC, typeB, typeA)))
}

func TestContextPattern_Superstring(t *testing.T) {
	u := hierarchyUniverse(t)

	assert.Nil(t, SubsequenceOf(typeA, typeB).Matches(u, makeContext(typeA)))
	assert.Nil(t, SubsequenceOf(typeA, typeB, typeC).Matches(u, makeContext(typeA, typeC)))
	assert.Nil(t, SubsequenceOf(typeA, typeB, typeC).Matches(u, makeContext(typeA, typeB)))
	assert.Nil(t, SubsequenceOf(typeA, typeA).Matches(u, makeContext(typeA)))
	assert.NotNil(t, SubsequenceOf(typeA, typeA).Matches(u, makeContext(typeA, typeA)))
}

func TestContextPattern_TailAnchored(t *testing.T) {
	u := hierarchyUniverse(t)
	p := AnyPattern().AppendType(typeA)

	assert.False(t, p.AnchoredStart())
	assert.True(t, p.AnchoredEnd())
	assert.Nil(t, p.Matches(u, makeContext()))
	assert.NotNil(t, p.Matches(u, makeContext(typeA)))
	assert.NotNil(t, p.Matches(u, makeContext(typeB, typeA)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeB)))
}

func TestContextPattern_AnchoredAndUnanchored(t *testing.T) {
	u := hierarchyUniverse(t)
	p := AnyPattern().AppendType(typeA).AppendType(typeB).AppendDotStar()

	assert.Nil(t, p.Matches(u, makeContext()))
	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeB)))
	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeB, typeC)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeC, typeB)))
}

func TestContextPattern_AdjacentSegmentAfterFalseStart(t *testing.T) {
	u := hierarchyUniverse(t)
	p := AnyPattern().AppendType(typeA).AppendType(typeB).AppendDotStar()

	// The first A is not followed by B; the match must use the second A.
	m := p.Matches(u, makeContext(typeA, typeA, typeB))
	require.NotNil(t, m)
	assert.Equal(t, []int{1, 2}, m.Positions)
}

func TestContextPattern_HeadAnchored(t *testing.T) {
	u := hierarchyUniverse(t)
	p := EmptyPattern().AppendType(typeA).AppendDotStar().AppendType(typeC)

	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeC)))
	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeB, typeC)))
	assert.Nil(t, p.Matches(u, makeContext(typeB, typeA, typeC)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeC, typeB)))
	// A single node cannot serve both anchors.
	assert.Nil(t, EmptyPattern().AppendType(typeA).AppendDotStar().AppendType(typeA).
		Matches(u, makeContext(typeA)))
}

func TestContextPattern_WildcardNode(t *testing.T) {
	u := hierarchyUniverse(t)
	p := EmptyPattern().AppendType(typeA).Append(MatchAnyNode()).AppendType(typeC)

	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeB, typeC)))
	assert.NotNil(t, p.Matches(u, makeContext(typeA, typeA, typeC)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeC)))
	assert.Nil(t, p.Matches(u, makeContext(typeA, typeB, typeB, typeC)))
}

func TestContextPattern_QualifiedElement(t *testing.T) {
	u := hierarchyUniverse(t)
	ctx := EmptyContext().
		Extend(Class(typeA), Named("x")).
		Extend(Class(typeB), Qualifier{})

	assert.NotNil(t, Subsequence(MatchQualifiedType(MatchQualifier(Named("x")), typeA)).Matches(u, ctx))
	assert.Nil(t, Subsequence(MatchQualifiedType(MatchQualifier(Named("y")), typeA)).Matches(u, ctx))
	assert.Nil(t, Subsequence(MatchQualifiedType(MatchNone(), typeA)).Matches(u, ctx))
	assert.NotNil(t, Subsequence(MatchQualifiedType(MatchNone(), typeB)).Matches(u, ctx))
}

func TestContextPattern_AppendDoesNotMutate(t *testing.T) {
	base := AnyPattern().AppendType(typeA)
	_ = base.AppendType(typeB)
	_ = base.AppendType(typeC)

	assert.Len(t, base.Elements(), 2)
	assert.Equal(t, "<.* A>", base.String())
}

// subsequenceReference decides subsequence membership by exhaustive
// recursion, for comparison with the matcher.
func subsequenceReference(u *Universe, want []Type, chain []Type) bool {
	if len(want) == 0 {
		return true
	}
	for i, typ := range chain {
		if u.Assignable(typ, want[0]) && subsequenceReference(u, want[1:], chain[i+1:]) {
			return true
		}
	}
	return false
}

func TestContextPattern_RandomSubsequences(t *testing.T) {
	u := hierarchyUniverse(t)
	all := []Type{typeA, typeB, typeC, typeAp, typeBp, typeCp}
	rng := rand.New(rand.NewSource(42))
	pick := func(n int) []Type {
		out := make([]Type, n)
		for i := range out {
			out[i] = all[rng.Intn(len(all))]
		}
		return out
	}

	for i := 0; i < 500; i++ {
		chain := pick(rng.Intn(7))
		want := pick(rng.Intn(4))
		got := SubsequenceOf(want...).Matches(u, makeContext(chain...)) != nil
		assert.Equal(t, subsequenceReference(u, want, chain), got, "pattern %v chain %v", want, chain)
	}
}
