package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-studio/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-studio/pkg/corpus"
	"github.com/ekaya-inc/ekaya-studio/pkg/models"
	"github.com/ekaya-inc/ekaya-studio/pkg/repositories"
	"github.com/ekaya-inc/ekaya-studio/pkg/retrieval"
)

const noBrandProfileText = "No brand profile configured."

// AssemblerConfig bounds how much context is gathered per request.
type AssemblerConfig struct {
	KnowledgeLimit     int
	LearningLimit      int
	LearningPool       int
	RecentContentLimit int
	// PillarTolerance is the allowed deviation in percentage points before a
	// pillar is flagged.
	PillarTolerance float64
}

// DefaultAssemblerConfig returns the documented defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		KnowledgeLimit:     5,
		LearningLimit:      10,
		LearningPool:       100,
		RecentContentLimit: 20,
		PillarTolerance:    10,
	}
}

// ContextAssembler gathers a tenant's brand, knowledge, learnings,
// preferences and pipeline state into prompt-ready text.
type ContextAssembler interface {
	Assemble(ctx context.Context, tenantID uuid.UUID, query string) (*models.ContextBundle, error)
}

type contextAssembler struct {
	brands      repositories.BrandProfileRepository
	corpus      corpus.Corpus
	learnings   repositories.LearningRepository
	preferences repositories.PreferenceRepository
	state       repositories.PipelineStateRepository
	cfg         AssemblerConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewContextAssembler creates a ContextAssembler.
func NewContextAssembler(
	brands repositories.BrandProfileRepository,
	corpus corpus.Corpus,
	learnings repositories.LearningRepository,
	preferences repositories.PreferenceRepository,
	state repositories.PipelineStateRepository,
	cfg AssemblerConfig,
	logger *zap.Logger,
) ContextAssembler {
	return &contextAssembler{
		brands:      brands,
		corpus:      corpus,
		learnings:   learnings,
		preferences: preferences,
		state:       state,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger.Named("context-assembler"),
	}
}

var _ ContextAssembler = (*contextAssembler)(nil)

func (a *contextAssembler) Assemble(ctx context.Context, tenantID uuid.UUID, query string) (*models.ContextBundle, error) {
	start := time.Now()
	now := a.now().UTC()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	var (
		profile     *models.BrandProfile
		knowledge   []models.SearchResult
		learnings   []models.Learning
		preferences []models.Preference
		recent      []models.ContentItem
		campaigns   []models.Campaign
		pillarCount map[string]int
	)

	// The reads are independent; the first failure cancels the rest.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.brands.Get(gctx, tenantID)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load brand profile: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		chunks, err := a.corpus.Chunks(gctx, tenantID)
		if err != nil {
			return fmt.Errorf("load knowledge: %w", err)
		}
		knowledge = retrieval.Search(chunks, query, a.cfg.KnowledgeLimit)
		return nil
	})
	g.Go(func() error {
		pool, err := a.learnings.ListRecent(gctx, tenantID, a.cfg.LearningPool)
		if err != nil {
			return fmt.Errorf("load learnings: %w", err)
		}
		learnings = retrieval.RankLearnings(pool, query, a.cfg.LearningLimit)
		return nil
	})
	g.Go(func() error {
		prefs, err := a.preferences.List(gctx, tenantID)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		preferences = prefs
		return nil
	})
	g.Go(func() error {
		items, err := a.state.RecentContent(gctx, tenantID, a.cfg.RecentContentLimit)
		if err != nil {
			return fmt.Errorf("load recent content: %w", err)
		}
		recent = items
		return nil
	})
	g.Go(func() error {
		active, err := a.state.ActiveCampaigns(gctx, tenantID, now)
		if err != nil {
			return fmt.Errorf("load campaigns: %w", err)
		}
		campaigns = active
		return nil
	})
	g.Go(func() error {
		counts, err := a.state.PillarCounts(gctx, tenantID, periodStart, periodEnd)
		if err != nil {
			return fmt.Errorf("count pillars: %w", err)
		}
		pillarCount = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var report *PillarReport
	if profile != nil {
		r := AnalyzePillars(profile.ContentPillars, pillarCount, a.cfg.PillarTolerance)
		report = &r
	}

	bundle := &models.ContextBundle{
		BrandText:       renderBrand(profile),
		KnowledgeText:   renderKnowledge(knowledge),
		LearningsText:   renderLearnings(learnings),
		PreferencesText: renderPreferences(preferences),
		StateText:       renderState(recent, campaigns, report, periodStart),
	}

	a.logger.Debug("Assembled context",
		zap.String("tenant_id", tenantID.String()),
		zap.Bool("has_brand_profile", profile != nil),
		zap.Int("knowledge_results", len(knowledge)),
		zap.Int("learnings", len(learnings)),
		zap.Int("recent_content", len(recent)),
		zap.Int("active_campaigns", len(campaigns)),
		zap.Duration("elapsed", time.Since(start)))

	return bundle, nil
}

// PillarShare is one profile pillar's share of the current period.
type PillarShare struct {
	Name    string
	Count   int
	Actual  float64 // Percentage of all items this period
	Target  float64
	Flagged bool
}

// PillarReport compares the current period's output to the pillar targets.
type PillarReport struct {
	Total     int
	Tolerance float64
	Shares    []PillarShare
	// Untracked counts items whose pillar is not in the profile. Items with no
	// pillar are counted under "".
	Untracked map[string]int
}

// AnalyzePillars computes each pillar's share of counts and flags pillars
// whose share deviates from target by more than tolerance points. With no
// items nothing is flagged.
func AnalyzePillars(pillars []models.ContentPillar, counts map[string]int, tolerance float64) PillarReport {
	report := PillarReport{
		Tolerance: tolerance,
		Shares:    make([]PillarShare, 0, len(pillars)),
		Untracked: make(map[string]int),
	}
	for _, n := range counts {
		report.Total += n
	}

	known := make(map[string]bool, len(pillars))
	for _, p := range pillars {
		known[p.Name] = true
		share := PillarShare{Name: p.Name, Count: counts[p.Name], Target: p.TargetPercentage}
		if report.Total > 0 {
			share.Actual = float64(share.Count) / float64(report.Total) * 100
			share.Flagged = math.Abs(share.Actual-share.Target) > tolerance
		}
		report.Shares = append(report.Shares, share)
	}

	for name, n := range counts {
		if !known[name] && n > 0 {
			report.Untracked[name] = n
		}
	}

	return report
}

// Warnings returns one advisory line per flagged pillar.
func (r PillarReport) Warnings() []string {
	warnings := make([]string, 0)
	for _, s := range r.Shares {
		if !s.Flagged {
			continue
		}
		direction := "over-represented"
		if s.Actual < s.Target {
			direction = "under-represented"
		}
		warnings = append(warnings, fmt.Sprintf("WARNING: pillar %q is %s at %s (target %s, tolerance %s points)",
			s.Name, direction, formatPercent(s.Actual), formatPercent(s.Target), formatNumber(r.Tolerance)))
	}
	return warnings
}

func renderBrand(p *models.BrandProfile) string {
	if p == nil {
		return noBrandProfileText
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Brand: %s\n", p.Name))
	writeField(&b, "Voice", p.Voice)
	writeField(&b, "Tone", p.Tone)
	if len(p.MessagingPillars) > 0 {
		b.WriteString(fmt.Sprintf("Messaging pillars: %s\n", strings.Join(p.MessagingPillars, "; ")))
	}
	if len(p.ContentPillars) > 0 {
		b.WriteString("Content pillars:\n")
		for _, cp := range p.ContentPillars {
			b.WriteString(fmt.Sprintf("- %s (target %s)", cp.Name, formatPercent(cp.TargetPercentage)))
			if cp.Description != "" {
				b.WriteString(": " + cp.Description)
			}
			b.WriteString("\n")
		}
	}

	ta := p.TargetAudience
	if ta.Demographics != "" || ta.Psychographics != "" || len(ta.PainPoints) > 0 || len(ta.Goals) > 0 {
		b.WriteString("Target audience:\n")
		writeField(&b, "  Demographics", ta.Demographics)
		writeField(&b, "  Psychographics", ta.Psychographics)
		writeField(&b, "  Pain points", strings.Join(ta.PainPoints, ", "))
		writeField(&b, "  Goals", strings.Join(ta.Goals, ", "))
	}

	writeField(&b, "Guidelines", p.Guidelines)
	writeField(&b, "Competitors", strings.Join(p.Competitors, ", "))
	writeField(&b, "Preferred hashtags", strings.Join(p.Hashtags, " "))

	return strings.TrimRight(b.String(), "\n")
}

func renderKnowledge(results []models.SearchResult) string {
	if len(results) == 0 {
		return "No relevant knowledge found."
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[%s] %s", r.SourceTitle(), r.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

func renderLearnings(learnings []models.Learning) string {
	if len(learnings) == 0 {
		return "No learnings recorded yet."
	}
	var b strings.Builder
	for _, l := range learnings {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", l.Confidence, l.Category, l.Insight))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPreferences(prefs []models.Preference) string {
	if len(prefs) == 0 {
		return "No preferences set."
	}
	var b strings.Builder
	for _, p := range prefs {
		b.WriteString(fmt.Sprintf("- %s: %s\n", p.Key, p.Value))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderState(recent []models.ContentItem, campaigns []models.Campaign, report *PillarReport, periodStart time.Time) string {
	var b strings.Builder

	if len(recent) == 0 {
		b.WriteString("Recent content: none.\n")
	} else {
		b.WriteString(fmt.Sprintf("Recent content (%d most recent):\n", len(recent)))
		for _, item := range recent {
			pillar := item.Pillar
			if pillar == "" {
				pillar = "unassigned"
			}
			schedule := "unscheduled"
			if item.ScheduledAt != nil {
				schedule = "scheduled " + item.ScheduledAt.UTC().Format("2006-01-02 15:04 UTC")
			}
			b.WriteString(fmt.Sprintf("- %s | %s | pillar: %s | %s\n", item.Platform, item.Status, pillar, schedule))
		}
	}
	b.WriteString("\n")

	if len(campaigns) == 0 {
		b.WriteString("Active campaigns: none.\n")
	} else {
		b.WriteString("Active campaigns:\n")
		for _, c := range campaigns {
			b.WriteString(fmt.Sprintf("- %s: %s (platforms: %s; %s to %s)\n",
				c.Name, c.Objective, strings.Join(c.Platforms, ", "),
				c.StartsAt.UTC().Format("2006-01-02"), c.EndsAt.UTC().Format("2006-01-02")))
		}
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Pillar distribution (%s):\n", periodStart.Format("January 2006")))
	b.WriteString(renderPillarReport(report))

	return strings.TrimRight(b.String(), "\n")
}

func renderPillarReport(report *PillarReport) string {
	if report == nil {
		return "Pillar analysis skipped: " + noBrandProfileText + "\n"
	}
	if report.Total == 0 {
		return "No content exists yet this period.\n"
	}

	var b strings.Builder
	if len(report.Shares) == 0 {
		b.WriteString("No content pillars configured.\n")
	}
	for _, s := range report.Shares {
		b.WriteString(fmt.Sprintf("- %s: %d of %d items, %s (target %s)\n",
			s.Name, s.Count, report.Total, formatPercent(s.Actual), formatPercent(s.Target)))
	}

	if len(report.Untracked) > 0 {
		names := make([]string, 0, len(report.Untracked))
		for name := range report.Untracked {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			label := name
			if label == "" {
				label = "unassigned"
			}
			b.WriteString(fmt.Sprintf("- %s (untracked): %d items\n", label, report.Untracked[name]))
		}
	}

	for _, w := range report.Warnings() {
		b.WriteString(w + "\n")
	}

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(fmt.Sprintf("%s: %s\n", label, value))
}

func formatPercent(v float64) string {
	return formatNumber(v) + "%"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
