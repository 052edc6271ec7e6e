package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	svc := NewService(mem, zerolog.Nop())
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("t-%d", n)
	}
	return svc, mem
}

func goTest(title, category string) assessment.Test {
	return assessment.Test{
		Title:           title,
		Category:        category,
		DurationMinutes: 10,
		Questions: []assessment.Question{
			{ID: "1", Prompt: "Spawn keyword?", Kind: assessment.KindFreeText, CorrectAnswers: []string{"go"}, Points: 1},
			{ID: "2", Prompt: "Zero value of int?", Kind: assessment.KindSingleChoice, Options: []string{"0", "nil"}, CorrectAnswers: []string{"0"}, Points: 1},
			{ID: "3", Prompt: "Reference types", Kind: assessment.KindMultipleChoice, Options: []string{"map", "int", "chan"}, CorrectAnswers: []string{"map", "chan"}, Points: 2},
		},
	}
}

func TestCreateAssignsIDAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, mem := newTestService()

	created, err := svc.Create(ctx, goTest("Go basics", "Backend"))
	require.NoError(t, err)
	assert.Equal(t, "t-1", created.ID)

	var stored []assessment.Test
	require.NoError(t, store.GetJSON(ctx, mem, store.KeyTests, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "Go basics", stored[0].Title)

	got, err := svc.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateRejectsInvalidTests(t *testing.T) {
	svc, _ := newTestService()

	bad := goTest("", "Backend")
	bad.Questions[1].CorrectAnswers = []string{"zero"}
	_, err := svc.Create(context.Background(), bad)

	var verrs assessment.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "title", verrs[0].Field)

	bad.Title = "Named"
	_, err = svc.Create(context.Background(), bad)
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "questions[1].correct_answers", verrs[0].Field)
}

func TestListFiltersByTitleOrCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	_, err := svc.Create(ctx, goTest("Go basics", "Backend"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, goTest("React hooks", "Frontend"))
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byTitle, err := svc.List(ctx, "REACT")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "React hooks", byTitle[0].Title)

	byCategory, err := svc.List(ctx, "backend")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Go basics", byCategory[0].Title)
}

func TestDuplicateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	orig, err := svc.Create(ctx, goTest("Go basics", "Backend"))
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "t-2", dup.ID)
	assert.Equal(t, "Go basics (Copy)", dup.Title)
	assert.Equal(t, orig.Questions, dup.Questions)

	require.NoError(t, svc.Delete(ctx, orig.ID))
	_, err = svc.Get(ctx, orig.ID)
	assert.ErrorIs(t, err, ErrTestNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, orig.ID), ErrTestNotFound)
	_, err = svc.Duplicate(ctx, "missing")
	assert.ErrorIs(t, err, ErrTestNotFound)

	remaining, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, dup.ID, remaining[0].ID)
}

func TestSummarize(t *testing.T) {
	sum := Summarize(goTest("Go basics", "Backend"))
	assert.Equal(t, Summary{Total: 3, SingleChoice: 1, MultipleChoice: 1, FreeText: 1, MaxScore: 4}, sum)
}
