package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"shaasam/internal/cache"
	"shaasam/internal/models"
	"shaasam/internal/observability"
	"shaasam/internal/repository"
	"shaasam/internal/taxonomy"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Search bounds and defaults.
const (
	SortRecent = "recent"
	SortScore  = "score"

	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	DefaultMaxRate     = 10000
	maxQueryLength     = 64
	maxScoreWindow     = 100
	scoreOverFetch     = 3
)

// SearchQuery is an agent directory query.
type SearchQuery struct {
	Q             string
	Skills        []string
	Categories    []string
	Availability  string
	MinRate       *float64
	MaxRate       *float64
	Limit         int
	Offset        int
	Sort          string
	IncludeScores bool
}

// SearchMeta describes the returned page.
type SearchMeta struct {
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

// SearchResult is a ranked page of public profiles.
type SearchResult struct {
	Data []models.PublicHuman `json:"data"`
	Meta SearchMeta           `json:"meta"`
}

// ScoreParams is the normalized query the scoring function sees. Skills and
// categories hold normalized values.
type ScoreParams struct {
	Q            string
	Skills       []string
	Categories   []string
	Availability string
	MinRate      float64
	MaxRate      float64
}

// MatchingService searches the human directory.
type MatchingService struct {
	humans        repository.HumanRepository
	rdb           *redis.Client
	requireReview bool
	now           func() time.Time
}

// NewMatchingService creates a matching service. rdb may be nil.
func NewMatchingService(humans repository.HumanRepository, rdb *redis.Client, requireReview bool) *MatchingService {
	return &MatchingService{humans: humans, rdb: rdb, requireReview: requireReview, now: time.Now}
}

func normalizeSearch(q SearchQuery) (ScoreParams, int, int) {
	in := ScoreParams{
		Q:            truncate(strings.TrimSpace(q.Q), maxQueryLength),
		Availability: strings.TrimSpace(q.Availability),
		MinRate:      0,
		MaxRate:      DefaultMaxRate,
	}
	if q.MinRate != nil {
		in.MinRate = *q.MinRate
	}
	if q.MaxRate != nil {
		in.MaxRate = *q.MaxRate
	}

	seen := map[string]bool{}
	for _, s := range q.Skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		in.Skills = append(in.Skills, s)
		if len(in.Skills) == taxonomy.MaxRequestSkills {
			break
		}
	}
	_, in.Categories = taxonomy.NormalizeCategories(q.Categories)

	limit := clampLimit(q.Limit, DefaultSearchLimit, MaxSearchLimit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	return in, limit, offset
}

// Search runs an eligibility-filtered directory query. Scoring applies when the
// query carries text, skills or categories, or when asked for explicitly; it
// over-fetches a recency window, scores it and keeps the top of the window.
func (s *MatchingService) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	start := time.Now()
	in, limit, offset := normalizeSearch(q)

	shouldScore := q.Sort == SortScore || q.IncludeScores ||
		in.Q != "" || len(in.Skills) > 0 || len(in.Categories) > 0
	mode := SortRecent
	fetch := limit
	if shouldScore {
		mode = SortScore
		fetch = min(limit*scoreOverFetch, maxScoreWindow)
	}

	ctx, span := observability.StartSpan(ctx, "matching", "search",
		attribute.String("sort", mode),
		attribute.Int("limit", limit))
	humans, err := s.humans.Search(ctx, repository.HumanSearch{
		RequireReview: s.requireReview,
		Skills:        in.Skills,
		Categories:    in.Categories,
		Availability:  in.Availability,
		MinRate:       in.MinRate,
		MaxRate:       in.MaxRate,
		Query:         in.Q,
		Offset:        offset,
		Limit:         fetch,
	})
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		human models.Human
		score float64
	}
	rows := make([]ranked, len(humans))
	now := s.now()
	for i, h := range humans {
		rows[i] = ranked{human: h}
		if shouldScore {
			rows[i].score = Score(&h, in, now)
		}
	}
	if shouldScore {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].score > rows[j].score })
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	data := make([]models.PublicHuman, 0, len(rows))
	for _, r := range rows {
		pub := r.human.Public()
		if q.IncludeScores {
			score := r.score
			pub.Score = &score
		}
		data = append(data, pub)
	}

	observability.ObserveSearch(mode, start, len(data))
	return &SearchResult{
		Data: data,
		Meta: SearchMeta{Count: len(data), Limit: limit, Offset: offset, Sort: mode},
	}, nil
}

// Score is the weighted relevance of h for in at now, rounded to two decimals.
func Score(h *models.Human, in ScoreParams, now time.Time) float64 {
	var score float64

	if len(in.Skills) > 0 {
		score += float64(overlap(h.SkillsNormalized, in.Skills)) * 10
	}
	if len(in.Categories) > 0 {
		score += float64(overlap(h.CategoriesNormalized, in.Categories)) * 6
	}
	if in.Availability != "" && h.Availability == in.Availability {
		score += 4
	}

	if in.Q != "" {
		needle := strings.ToLower(in.Q)
		if containsFold(h.DisplayName, needle) {
			score += 6
		}
		if containsFold(h.Headline, needle) {
			score += 4
		}
		if containsFold(h.Bio, needle) {
			score += 2
		}
		if anyContainsFold(h.Skills, needle) {
			score += 3
		}
		if anyContainsFold(h.Categories, needle) {
			score += 2
		}
	}

	span := math.Max(in.MaxRate-in.MinRate, 1)
	position := math.Min(math.Max(h.HourlyRate-in.MinRate, 0), span)
	score += math.Max(0, 4*(1-position/span))

	if !h.UpdatedAt.IsZero() {
		hours := now.Sub(h.UpdatedAt).Hours()
		score += math.Max(0, 6-hours/24)
	}

	return math.Round(score*100) / 100
}

// GetEligible returns the public profile of an eligible human, cached briefly.
func (s *MatchingService) GetEligible(ctx context.Context, id string) (*models.PublicHuman, error) {
	var pub models.PublicHuman
	err := cache.CacheAside(ctx, s.rdb, cache.HumanKey(id), &pub, cache.HumanTTL, func() error {
		h, err := s.humans.GetByID(ctx, id)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return models.NewNotFoundError("Human", nil)
			}
			return err
		}
		if !h.EligibleForWork(s.requireReview) {
			return models.NewNotFoundError("Human", nil)
		}
		pub = h.Public()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pub, nil
}

// Invalidate drops the cached public profile of id.
func (s *MatchingService) Invalidate(ctx context.Context, id string) {
	cache.Invalidate(ctx, s.rdb, cache.HumanKey(id))
}

func overlap(have models.TagList, want []string) int {
	n := 0
	for _, w := range want {
		if have.Contains(w) {
			n++
		}
	}
	return n
}

func containsFold(s, lowerNeedle string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerNeedle)
}

func anyContainsFold(values []string, lowerNeedle string) bool {
	for _, v := range values {
		if containsFold(v, lowerNeedle) {
			return true
		}
	}
	return false
}
