package qcm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
)

const wellFormed = `**Capitals**
What is the capital of France?
A) Lyon
B) Paris
C) Nice
D) Lille
Correct answer: B) Paris`

func TestParseWellFormedBlock(t *testing.T) {
	got := Parse(wellFormed)

	require.Len(t, got, 1)
	q := got[0]
	assert.Equal(t, "1", q.ID)
	assert.Equal(t, "Capitals", q.Title)
	assert.Equal(t, "What is the capital of France?", q.Prompt)
	assert.Equal(t, assessment.KindSingleChoice, q.Kind)
	assert.Equal(t, []string{"Lyon", "Paris", "Nice", "Lille"}, q.Options)
	require.NotNil(t, q.CorrectIndex)
	assert.Equal(t, 1, *q.CorrectIndex)
	assert.Equal(t, []string{"Paris"}, q.CorrectAnswers)
	assert.Equal(t, 1, q.Points)
}

func TestParseToleratesMissingLetter(t *testing.T) {
	got := Parse("Pick one\nA) a\nB) b\nD) d")

	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Options[2])
	assert.Nil(t, got[0].CorrectIndex)
	assert.Empty(t, got[0].CorrectAnswers)
}

func TestParseDropsContentFreeBlocks(t *testing.T) {
	text := strings.Join([]string{
		"**Only a title**",
		wellFormed,
		"**Another title**\nCorrect answer: A)",
		"Plain question?\nA) yes\nB) no",
	}, "\n\n\n")

	got, report := ParseWithReport(text)

	require.Len(t, got, 2)
	assert.Equal(t, Report{Blocks: 4, Emitted: 2, Dropped: 2}, report)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestParseSyntheticTitlesIncrement(t *testing.T) {
	got := Parse("First?\nA) x\n\nSecond?\nA) y\n\nThird?\nA) z")

	require.Len(t, got, 3)
	assert.Equal(t, "QCM 1", got[0].Title)
	assert.Equal(t, "QCM 2", got[1].Title)
	assert.Equal(t, "QCM 3", got[2].Title)
}

func TestParseLaterOptionOverwrites(t *testing.T) {
	got := Parse("Q?\nA) first\nA) second")

	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Options[0])
}

func TestParseCorrectMarkerIsCaseInsensitive(t *testing.T) {
	got := Parse("Q?\nA) x\nB) y\nC) z\nD) w\nanswer notes... correct ANSWER: c)")

	require.Len(t, got, 1)
	require.NotNil(t, got[0].CorrectIndex)
	assert.Equal(t, 2, *got[0].CorrectIndex)
	assert.Equal(t, []string{"z"}, got[0].CorrectAnswers)
}

func TestParseNormalizesCRLF(t *testing.T) {
	got := Parse(strings.ReplaceAll(wellFormed+"\n\n"+wellFormed, "\n", "\r\n"))

	require.Len(t, got, 2)
	assert.Equal(t, "Lille", got[1].Options[3])
}

func TestParseEmptyInput(t *testing.T) {
	got, report := ParseWithReport("  \n\n ")

	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Equal(t, Report{}, report)
}
