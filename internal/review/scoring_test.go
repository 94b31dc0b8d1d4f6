package review

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFinalScoreFormula(t *testing.T) {
	got := ComputeFinalScore(3.0, 3.0, 3.0)
	want := -0.3057 + 0.7134*3 + 0.4242*3 + 1.0588*3
	require.InDelta(t, want, got, 0.001)
}

func TestScoreClamping(t *testing.T) {
	require.Equal(t, 1.0, ComputeFinalScore(0, 0, 0))
	require.LessOrEqual(t, ComputeFinalScore(4, 4, 4), 10.0)
	require.Equal(t, 10.0, ComputeFinalScore(5, 5, 5))
}

func TestContributionHasHighestWeight(t *testing.T) {
	base := ComputeFinalScore(2, 2, 2)
	deltaC := ComputeFinalScore(2, 2, 3) - base
	deltaS := ComputeFinalScore(3, 2, 2) - base
	deltaP := ComputeFinalScore(2, 3, 2) - base

	require.InDelta(t, 1.0588, deltaC, 0.001)
	require.InDelta(t, 0.7134, deltaS, 0.001)
	require.InDelta(t, 0.4242, deltaP, 0.001)
	require.Greater(t, deltaC, deltaS)
	require.Greater(t, deltaS, deltaP)
}

func TestInterpretScore(t *testing.T) {
	cases := map[float64]string{
		2.0: "Strong Reject",
		3.5: "Reject",
		4.5: "Weak Reject",
		5.5: "Borderline",
		6.5: "Weak Accept",
		7.5: "Accept",
		8.5: "Strong Accept",
	}
	for score, want := range cases {
		require.Equal(t, want, InterpretScore(score), "score %.1f", score)
	}
}

func TestInterpretScoreBoundariesGoToHigherBand(t *testing.T) {
	require.Equal(t, "Reject", InterpretScore(3.0))
	require.Equal(t, "Weak Reject", InterpretScore(4.0))
	require.Equal(t, "Borderline", InterpretScore(5.0))
	require.Equal(t, "Weak Accept", InterpretScore(6.0))
	require.Equal(t, "Accept", InterpretScore(7.0))
	require.Equal(t, "Strong Accept", InterpretScore(8.0))
	require.Equal(t, "Strong Accept", InterpretScore(10.0))
}

func TestParseDimensionScores(t *testing.T) {
	s, p, c, ok := ParseDimensionScores("3.5, 4, 2.0")
	require.True(t, ok)
	require.Equal(t, 3.5, s)
	require.Equal(t, 4.0, p)
	require.Equal(t, 2.0, c)
}

func TestParseDimensionScoresFailureYieldsNeutral(t *testing.T) {
	for _, input := range []string{"", "great paper!", "3.5,4", "a,b,c", "3,4,7"} {
		s, p, c, ok := ParseDimensionScores(input)
		require.False(t, ok, "input %q", input)
		require.Equal(t, NeutralDimensionScore, s)
		require.Equal(t, NeutralDimensionScore, p)
		require.Equal(t, NeutralDimensionScore, c)
	}
}

func TestNeutralDefaultScoreIsDeterministic(t *testing.T) {
	s, p, c, _ := ParseDimensionScores("unparseable")
	got := ComputeFinalScore(s, p, c)
	want := -0.3057 + (0.7134+0.4242+1.0588)*2.5
	require.True(t, math.Abs(got-want) < 0.001)
}

func TestParseLines(t *testing.T) {
	text := "- First point\n* Second point\n\n3. Third point\n   \n• Fourth"
	require.Equal(t, []string{"First point", "Second point", "Third point", "Fourth"}, ParseLines(text))
}
