package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-studio/pkg/models"
)

var fixedNow = time.Date(2026, time.October, 17, 14, 30, 0, 0, time.UTC)

type assemblerFixture struct {
	tenantID    uuid.UUID
	brands      *fakeBrandRepo
	corpus      *fakeCorpus
	learnings   *fakeLearningRepo
	preferences *fakePreferenceRepo
	state       *fakeStateRepo
}

func newAssemblerFixture() *assemblerFixture {
	return &assemblerFixture{
		tenantID:    uuid.New(),
		brands:      newFakeBrandRepo(),
		corpus:      &fakeCorpus{},
		learnings:   &fakeLearningRepo{},
		preferences: &fakePreferenceRepo{},
		state:       &fakeStateRepo{},
	}
}

func (f *assemblerFixture) assembler() *contextAssembler {
	a := NewContextAssembler(f.brands, f.corpus, f.learnings, f.preferences, f.state,
		DefaultAssemblerConfig(), zap.NewNop()).(*contextAssembler)
	a.now = func() time.Time { return fixedNow }
	return a
}

func savingsProfile(tenantID uuid.UUID) *models.BrandProfile {
	return &models.BrandProfile{
		TenantID:         tenantID,
		Name:             "Penny",
		Voice:            "friendly and plain-spoken",
		MessagingPillars: []string{"small steps add up"},
		ContentPillars: []models.ContentPillar{
			{Name: "Education", TargetPercentage: 40},
			{Name: "Community", TargetPercentage: 30},
			{Name: "Product", TargetPercentage: 30},
		},
		TargetAudience: models.TargetAudience{Demographics: "students", PainPoints: []string{"rent", "debt"}},
		Hashtags:       []string{"#money", "#savings"},
	}
}

func TestContextAssembler_RendersAllSections(t *testing.T) {
	f := newAssemblerFixture()
	f.brands = newFakeBrandRepo(savingsProfile(f.tenantID))
	f.corpus.chunks = []models.KnowledgeChunk{
		{DocumentID: "a.md", Index: 0, Text: "Pay yourself first every payday.", SourceTitle: "Savings Guide"},
		{DocumentID: "b.md", Index: 0, Text: "Our office hours are 9 to 5.", SourceTitle: "About"},
	}
	f.learnings.learnings = []models.Learning{
		{TenantID: f.tenantID, Category: "hooks", Insight: "Questions about savings outperform statements", Confidence: models.ConfidenceValidated},
		{TenantID: f.tenantID, Category: "timing", Insight: "Post before noon", Confidence: models.ConfidenceLow},
	}
	f.preferences.prefs = []models.Preference{{Key: "emoji_usage", Value: "sparingly"}}
	scheduled := fixedNow.Add(48 * time.Hour)
	f.state.recent = []models.ContentItem{
		{Platform: "tiktok", Status: "scheduled", Pillar: "Education", ScheduledAt: &scheduled},
		{Platform: "instagram", Status: "published"},
	}
	f.state.campaigns = []models.Campaign{{
		Name: "Back to school", Objective: "grow followers", Platforms: []string{"tiktok", "instagram"},
		StartsAt: fixedNow.AddDate(0, 0, -7), EndsAt: fixedNow.AddDate(0, 0, 7),
	}}
	f.state.counts = map[string]int{"Education": 6, "Community": 2, "": 2}

	bundle, err := f.assembler().Assemble(context.Background(), f.tenantID, "weekly savings tip")
	require.NoError(t, err)

	assert.Contains(t, bundle.BrandText, "Brand: Penny")
	assert.Contains(t, bundle.BrandText, "- Education (target 40%)")
	assert.Contains(t, bundle.BrandText, "Pain points: rent, debt")

	assert.Contains(t, bundle.KnowledgeText, "[Savings Guide] Pay yourself first every payday.")

	assert.Contains(t, bundle.LearningsText, "- [validated] hooks: Questions about savings outperform statements")
	assert.Contains(t, bundle.PreferencesText, "- emoji_usage: sparingly")

	assert.Contains(t, bundle.StateText, "- tiktok | scheduled | pillar: Education | scheduled 2026-10-19 14:30 UTC")
	assert.Contains(t, bundle.StateText, "- instagram | published | pillar: unassigned | unscheduled")
	assert.Contains(t, bundle.StateText, "- Back to school: grow followers (platforms: tiktok, instagram; 2026-10-10 to 2026-10-24)")
	assert.Contains(t, bundle.StateText, "Pillar distribution (October 2026):")
	assert.Contains(t, bundle.StateText, "- Education: 6 of 10 items, 60% (target 40%)")
	assert.Contains(t, bundle.StateText, "- unassigned (untracked): 2 items")
	assert.Contains(t, bundle.StateText, `WARNING: pillar "Education" is over-represented at 60%`)
	assert.Contains(t, bundle.StateText, `WARNING: pillar "Product" is under-represented at 0%`)
	assert.NotContains(t, bundle.StateText, `pillar "Community"`, "exactly at tolerance is not flagged")

	assert.Equal(t, 100, f.learnings.gotLimit, "learning pool bounds the store read")
}

func TestContextAssembler_CurrentMonthWindow(t *testing.T) {
	f := newAssemblerFixture()

	_, err := f.assembler().Assemble(context.Background(), f.tenantID, "anything")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), f.state.gotFrom)
	assert.Equal(t, time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), f.state.gotTo)
	assert.Equal(t, fixedNow, f.state.gotAt)
}

func TestContextAssembler_MissingBrandProfile(t *testing.T) {
	f := newAssemblerFixture()
	f.state.counts = map[string]int{"Education": 3}

	bundle, err := f.assembler().Assemble(context.Background(), f.tenantID, "topic")
	require.NoError(t, err)

	assert.Equal(t, "No brand profile configured.", bundle.BrandText)
	assert.Contains(t, bundle.StateText, "Pillar analysis skipped")
	assert.NotContains(t, bundle.StateText, "WARNING")
	assert.Equal(t, "No relevant knowledge found.", bundle.KnowledgeText)
	assert.Equal(t, "No learnings recorded yet.", bundle.LearningsText)
	assert.Equal(t, "No preferences set.", bundle.PreferencesText)
}

func TestContextAssembler_ZeroContentThisPeriod(t *testing.T) {
	f := newAssemblerFixture()
	f.brands = newFakeBrandRepo(savingsProfile(f.tenantID))

	bundle, err := f.assembler().Assemble(context.Background(), f.tenantID, "weekly savings tip")
	require.NoError(t, err)

	assert.Contains(t, bundle.StateText, "No content exists yet this period.")
	assert.NotContains(t, bundle.StateText, "WARNING")
}

func TestContextAssembler_StoreErrorFailsAssembly(t *testing.T) {
	f := newAssemblerFixture()
	f.preferences.err = errors.New("connection refused")

	_, err := f.assembler().Assemble(context.Background(), f.tenantID, "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load preferences")
}

func TestContextAssembler_ReadsRunConcurrently(t *testing.T) {
	f := newAssemblerFixture()
	b := newBarrier(7)
	f.brands.barrier = b
	f.corpus.barrier = b
	f.learnings.barrier = b
	f.preferences.barrier = b
	f.state.barrier = b

	_, err := f.assembler().Assemble(context.Background(), f.tenantID, "topic")
	assert.NoError(t, err)
}

func TestAnalyzePillars(t *testing.T) {
	pillars := []models.ContentPillar{
		{Name: "Education", TargetPercentage: 40},
		{Name: "Community", TargetPercentage: 30},
		{Name: "Product", TargetPercentage: 30},
	}

	t.Run("balanced output has no warnings", func(t *testing.T) {
		r := AnalyzePillars(pillars, map[string]int{"Education": 4, "Community": 3, "Product": 3}, 10)
		assert.Equal(t, 10, r.Total)
		assert.Empty(t, r.Warnings())
	})

	t.Run("zero items flags nothing", func(t *testing.T) {
		r := AnalyzePillars(pillars, map[string]int{}, 10)
		assert.Equal(t, 0, r.Total)
		assert.Empty(t, r.Warnings())
		require.Len(t, r.Shares, 3)
	})

	t.Run("single pillar dominates", func(t *testing.T) {
		r := AnalyzePillars(pillars, map[string]int{"Education": 5}, 10)
		warnings := r.Warnings()
		require.Len(t, warnings, 3)
		assert.Contains(t, warnings[0], "over-represented at 100%")
		assert.Contains(t, warnings[1], "under-represented at 0%")
	})

	t.Run("untracked pillars are reported separately", func(t *testing.T) {
		r := AnalyzePillars(pillars, map[string]int{"Education": 4, "Memes": 1}, 10)
		assert.Equal(t, map[string]int{"Memes": 1}, r.Untracked)
		assert.InDelta(t, 80, r.Shares[0].Actual, 1e-9)
	})

	t.Run("tolerance is configurable", func(t *testing.T) {
		r := AnalyzePillars(pillars, map[string]int{"Education": 5, "Community": 3, "Product": 2}, 5)
		assert.Len(t, r.Warnings(), 2)
	})
}
