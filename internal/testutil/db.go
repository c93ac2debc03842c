// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"shaasam/internal/database"
	"shaasam/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory sqlite database. It holds a single
// connection so concurrent callers share one database and serialize on it.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// HumanOpts customizes CreateHuman.
type HumanOpts struct {
	Phone        string
	DisplayName  string
	Headline     string
	Bio          string
	Skills       []string
	Categories   []string
	HourlyRate   float64
	Availability string
	Review       models.ReviewStatus
	Status       models.AccountStatus
	Unverified   bool
	UpdatedAt    time.Time
}

var phoneSeq atomic.Int64

// CreateHuman inserts a verified, approved, active human. Skills and
// categories are stored as given with lowercase normalized forms.
func CreateHuman(t *testing.T, db *gorm.DB, opts HumanOpts) *models.Human {
	t.Helper()

	if opts.Phone == "" {
		opts.Phone = fmt.Sprintf("+1415555%04d", phoneSeq.Add(1))
	}
	if opts.Review == "" {
		opts.Review = models.ReviewStatusApproved
	}
	if opts.Status == "" {
		opts.Status = models.AccountStatusActive
	}
	if opts.Availability == "" {
		opts.Availability = models.AvailabilityWeekdays
	}
	if opts.DisplayName == "" {
		opts.DisplayName = "Test Human"
	}

	now := time.Now()
	human := &models.Human{
		Phone:                opts.Phone,
		DisplayName:          opts.DisplayName,
		Headline:             opts.Headline,
		Bio:                  opts.Bio,
		Skills:               models.StringList(opts.Skills),
		SkillsNormalized:     lower(opts.Skills),
		Categories:           models.StringList(opts.Categories),
		CategoriesNormalized: lower(opts.Categories),
		HourlyRate:           opts.HourlyRate,
		Availability:         opts.Availability,
		Verified:             !opts.Unverified,
		ReviewStatus:         opts.Review,
		Status:               opts.Status,
	}
	if human.Verified {
		human.VerifiedAt = &now
	}
	require.NoError(t, db.Create(human).Error)

	if !opts.UpdatedAt.IsZero() {
		require.NoError(t, db.Model(human).UpdateColumn("updated_at", opts.UpdatedAt).Error)
		human.UpdatedAt = opts.UpdatedAt
	}
	return human
}

// CreateRequest inserts an open request requiring skills.
func CreateRequest(t *testing.T, db *gorm.DB, title string, skills ...string) *models.Request {
	t.Helper()

	req := &models.Request{
		Title:            title,
		Skills:           models.StringList(skills),
		SkillsNormalized: lower(skills),
		Status:           models.RequestStatusOpen,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(req).Error)
	return req
}

func lower(values []string) models.TagList {
	out := make(models.TagList, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(v))
	}
	return out
}
