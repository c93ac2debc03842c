// Package seed creates demo humans and requests for local development.
// It is not used by the server.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"shaasam/internal/models"
	"shaasam/internal/taxonomy"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls a seeding run.
type Options struct {
	Humans   int
	Requests int
	// PendingRatio is the share of humans left awaiting review, 0..1.
	PendingRatio float64
	// MaxDays spreads updated_at over the last MaxDays days.
	MaxDays int
	DryRun  bool
	Seed    int64
}

// Factory builds domain entities and persists them.
type Factory struct {
	db      *gorm.DB
	opts    Options
	faker   *gofakeit.Faker
	rng     *rand.Rand
	catalog *taxonomy.Catalog
	phones  int
}

// NewFactory creates a Factory bound to db. A zero opts.Seed picks a time-based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	return &Factory{
		db:      db,
		opts:    opts,
		faker:   gofakeit.New(seed),
		rng:     rand.New(rand.NewSource(seed)),
		catalog: taxonomy.Default(),
	}
}

func (f *Factory) pickSkills(n int) []string {
	skills := f.catalog.Skills
	picked := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(skills))[:min(n, len(skills))] {
		picked = append(picked, skills[i].Label)
	}
	return picked
}

// BuildHuman returns a verified human with catalog skills. It is not persisted.
func (f *Factory) BuildHuman(overrides ...func(*models.Human)) *models.Human {
	f.phones++
	now := time.Now()
	updated := now.Add(-time.Duration(f.rng.Intn(f.opts.MaxDays*24)) * time.Hour)

	labels, normalized := f.catalog.NormalizeSkills(f.pickSkills(1 + f.rng.Intn(4)))
	categories, categoryIDs := f.catalog.DeriveCategories(labels)

	rate := float64(f.faker.Number(40, 180))
	if suggested, ok := f.catalog.SuggestedRate(labels); ok && f.rng.Intn(2) == 0 {
		rate = suggested
	}
	availability := []string{
		models.AvailabilityNow, models.AvailabilityWeekdays,
		models.AvailabilityWeekends, models.AvailabilityNights,
	}[f.rng.Intn(4)]
	locations := f.catalog.Locations()

	review := models.ReviewStatusApproved
	if f.rng.Float64() < f.opts.PendingRatio {
		review = models.ReviewStatusPending
	}

	first := f.faker.FirstName()
	h := &models.Human{
		Phone:                fmt.Sprintf("+1555%07d", f.phones),
		Email:                strings.ToLower(first) + "@" + f.faker.DomainName(),
		DisplayName:          first + " " + f.faker.LastName()[:1] + ".",
		Headline:             fmt.Sprintf("%s for %s teams", labels[0], strings.ToLower(f.faker.BuzzWord())),
		Bio:                  f.faker.Paragraph(1, 3, 12, " "),
		Skills:               labels,
		SkillsNormalized:     models.TagList(normalized),
		Categories:           categories,
		CategoriesNormalized: models.TagList(categoryIDs),
		HourlyRate:           rate,
		Location:             locations[f.rng.Intn(len(locations))],
		Availability:         availability,
		Verified:             true,
		VerifiedAt:           &updated,
		ReviewStatus:         review,
		Status:               models.AccountStatusActive,
		CreatedAt:            updated,
		UpdatedAt:            updated,
	}
	for _, override := range overrides {
		override(h)
	}
	return h
}

// BuildRequest returns an open agent request. It is not persisted.
func (f *Factory) BuildRequest(overrides ...func(*models.Request)) *models.Request {
	labels := f.pickSkills(1 + f.rng.Intn(2))
	skills, normalized := taxonomy.NormalizeRequestSkills(labels)
	categories, ids := f.catalog.DeriveCategories(skills)
	budget := float64(f.faker.Number(2, 40) * 25)

	r := &models.Request{
		Title:                fmt.Sprintf("%s: %s", skills[0], f.faker.HackerPhrase()),
		Description:          f.faker.Paragraph(1, 2, 16, " "),
		Skills:               skills,
		SkillsNormalized:     models.TagList(normalized),
		Categories:           categories,
		CategoriesNormalized: models.TagList(ids),
		Budget:               &budget,
		Requester: models.Requester{
			Name: f.faker.AppName() + " agent",
			Org:  f.faker.Company(),
		},
		Status: models.RequestStatusOpen,
	}
	if len(r.Title) > 120 {
		r.Title = r.Title[:120]
	}
	for _, override := range overrides {
		override(r)
	}
	return r
}

// CreateHumans persists n generated humans in one batch.
func (f *Factory) CreateHumans(n int) ([]*models.Human, error) {
	humans := make([]*models.Human, 0, n)
	for i := 0; i < n; i++ {
		humans = append(humans, f.BuildHuman())
	}
	if f.opts.DryRun || n == 0 {
		slog.Info("seed humans built", slog.Int("count", n), slog.Bool("dry_run", f.opts.DryRun))
		return humans, nil
	}
	if err := f.db.CreateInBatches(humans, 100).Error; err != nil {
		return nil, fmt.Errorf("create humans: %w", err)
	}
	return humans, nil
}

// CreateRequests persists n generated requests in one batch.
func (f *Factory) CreateRequests(n int) ([]*models.Request, error) {
	requests := make([]*models.Request, 0, n)
	for i := 0; i < n; i++ {
		requests = append(requests, f.BuildRequest())
	}
	if f.opts.DryRun || n == 0 {
		slog.Info("seed requests built", slog.Int("count", n), slog.Bool("dry_run", f.opts.DryRun))
		return requests, nil
	}
	if err := f.db.CreateInBatches(requests, 100).Error; err != nil {
		return nil, fmt.Errorf("create requests: %w", err)
	}
	return requests, nil
}

// Run seeds opts.Humans humans and opts.Requests requests. Existing rows are kept.
func (f *Factory) Run() error {
	humans, err := f.CreateHumans(f.opts.Humans)
	if err != nil {
		return err
	}
	requests, err := f.CreateRequests(f.opts.Requests)
	if err != nil {
		return err
	}
	slog.Info("seed complete", slog.Int("humans", len(humans)), slog.Int("requests", len(requests)))
	return nil
}

// Clear deletes every marketplace row. Audit logs are kept.
func Clear(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&models.RequestDecline{}, &models.Payment{}, &models.Request{},
			&models.Verification{}, &models.Human{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
