package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-persona/internal/model"
	"github.com/rcliao/agent-persona/internal/storage"
)

func contents(recs []model.MemoryRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Content
	}
	return out
}

func TestGetAssociated(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAppend(t, s, "the ocean waves at night", model.KindExperience)
	mustAppend(t, s, "mountain hiking trip", model.KindExperience)
	mustAppend(t, s, "ocean waves crash on rocks", model.KindExperience)
	mustAppend(t, s, "night ocean swim", model.KindExperience)

	got := s.GetAssociated("ocean waves at night", 0)
	assert.Equal(t, []string{
		"the ocean waves at night",  // 3 shared
		"night ocean swim",          // 2 shared, newer
		"ocean waves crash on rocks", // 2 shared, older
	}, contents(got))
}

func TestGetAssociated_OverlapScores(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAppend(t, s, "coffee morning ritual", model.KindFact)
	mustAppend(t, s, "coffee beans", model.KindFact)

	matches := s.Associated("morning coffee", 5)
	require.Len(t, matches, 2)
	assert.Equal(t, 2, matches[0].Overlap)
	assert.Equal(t, 1, matches[1].Overlap)
	assert.GreaterOrEqual(t, matches[0].Overlap, matches[1].Overlap)
}

func TestGetAssociated_LimitAndDefault(t *testing.T) {
	s, _, _ := newTestStore(t)
	for i := 0; i < 8; i++ {
		mustAppend(t, s, "garden flowers", model.KindFact)
	}
	assert.Len(t, s.GetAssociated("flowers", 0), DefaultAssociatedLimit)
	assert.Len(t, s.GetAssociated("flowers", 2), 2)
}

func TestGetAssociated_NoMatch(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAppend(t, s, "garden flowers", model.KindFact)

	got := s.GetAssociated("quantum physics", 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, s.GetAssociated("", 5))
}

func TestDetectPatterns(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAppend(t, s, "coffee morning ritual", model.KindFact)
	mustAppend(t, s, "garden flowers bloom", model.KindFact)
	mustAppend(t, s, "morning coffee ritual again", model.KindFact)
	mustAppend(t, s, "coffee ritual morning", model.KindFact)
	mustAppend(t, s, "flowers bloom garden", model.KindFact)
	mustAppend(t, s, "stock market crash", model.KindFact)

	got := s.DetectPatterns()
	require.Len(t, got, 2)
	assert.Equal(t, "coffee morning ritual", got[0].Pattern)
	assert.Equal(t, 3, got[0].Frequency)
	assert.Equal(t, "bloom flowers garden", got[1].Pattern)
	assert.Equal(t, 2, got[1].Frequency)
}

func TestDetectPatterns_Empty(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Empty(t, s.DetectPatterns())

	mustAppend(t, s, "only one", model.KindFact)
	assert.Empty(t, s.DetectPatterns())

	mustAppend(t, s, "completely different", model.KindFact)
	assert.Empty(t, s.DetectPatterns())
}

func TestStatsExportImport(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()
	s.Append(ctx, AppendParams{Content: "hello there", Kind: model.KindInteraction, Platform: model.PlatformTwitter, EmotionalContext: model.StateCreative})
	s.Append(ctx, AppendParams{Content: "a fact", Kind: model.KindFact})

	st := s.Stats()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.ByKind["interaction"])
	assert.Equal(t, 1, st.ByPlatform["twitter"])
	assert.Equal(t, 1, st.ByEmotion["creative"])
	require.NotNil(t, st.Oldest)
	assert.True(t, st.Oldest.Before(*st.Newest))

	exported := s.ExportAll()
	require.Len(t, exported, 2)
	assert.Equal(t, "hello there", exported[0].Content)

	other, _, _ := newTestStore(t)
	n, err := other.Import(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := other.Query(QueryParams{Platform: model.PlatformTwitter})
	require.Len(t, got, 1)
	assert.Equal(t, model.StateCreative, got[0].EmotionalContext)
	assert.Equal(t, model.KindInteraction, got[0].Kind)
}

func TestResultsDoNotAliasLog(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAppend(t, s, "ocean waves at night", model.KindExperience)
	want := s.Query(QueryParams{})[0].Associations
	require.NotEmpty(t, want)
	want = append([]string(nil), want...)

	q := s.Query(QueryParams{})
	q[0].Associations[0] = "tampered"
	m := s.Associated("ocean waves", 1)
	require.Len(t, m, 1)
	m[0].Associations[0] = "tampered"
	e := s.ExportAll()
	e[0].Associations[0] = "tampered"

	assert.Equal(t, want, s.Query(QueryParams{})[0].Associations)
	assert.Equal(t, want, s.GetAssociated("ocean waves", 1)[0].Associations)
}

func TestImport_InvalidRecordImportsNothing(t *testing.T) {
	s, _, st := newTestStore(t)
	ctx := context.Background()
	batch := []model.MemoryRecord{
		{Content: "first memory", Kind: model.KindFact},
		{Content: "second memory", Kind: model.Kind("dream")},
		{Content: "third memory", Kind: model.KindFact},
	}

	n, err := s.Import(ctx, batch)
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, model.ErrKindValidation, model.KindOf(err))
	assert.Contains(t, err.Error(), "memory 1")
	assert.Equal(t, 0, s.Len())

	stored, err := st.Query(ctx, DefaultCollection, storage.Query{})
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, err = s.Import(ctx, []model.MemoryRecord{{Content: "   ", Kind: model.KindFact}})
	assert.Equal(t, model.ErrKindValidation, model.KindOf(err))
	assert.Equal(t, 0, s.Len())
}

func TestStats_Empty(t *testing.T) {
	s, _, _ := newTestStore(t)
	st := s.Stats()
	assert.Equal(t, 0, st.Total)
	assert.Nil(t, st.Oldest)
}
