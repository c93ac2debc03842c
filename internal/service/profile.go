package service

import (
	"context"
	"strings"

	"shaasam/internal/models"
	"shaasam/internal/repository"
	"shaasam/internal/taxonomy"
	"shaasam/internal/validation"
)

// Profile field limits.
const (
	maxEmail        = 160
	maxDisplayName  = 80
	maxHeadline     = 120
	maxBio          = 1200
	maxLocation     = 120
	maxAvailability = 32
)

// ProfileUpdate is the self-service profile edit. A nil Alias leaves the alias
// unchanged; an empty one clears it.
type ProfileUpdate struct {
	Alias        *string
	Email        string
	DisplayName  string
	Headline     string
	Bio          string
	Skills       any
	HourlyRate   float64
	Location     string
	Availability string
}

// PrivateProfile is what a human sees of their own account.
type PrivateProfile struct {
	*models.Human
	SuggestedRate *float64 `json:"suggestedRate,omitempty"`
}

// AliasAvailability answers an alias lookup.
type AliasAvailability struct {
	Available bool   `json:"available"`
	Alias     string `json:"alias"`
	Reason    string `json:"reason,omitempty"`
}

// ProfileService manages a human's own profile.
type ProfileService struct {
	humans   repository.HumanRepository
	audit    auditor
	catalog  *taxonomy.Catalog
	matching *MatchingService
}

// NewProfileService creates the profile service. matching may be nil; when set
// its profile cache is invalidated after every update.
func NewProfileService(humans repository.HumanRepository, audit repository.AuditRepository, matching *MatchingService) *ProfileService {
	return &ProfileService{
		humans:   humans,
		audit:    auditor{repo: audit},
		catalog:  taxonomy.Default(),
		matching: matching,
	}
}

// Get returns the private profile of humanID.
func (s *ProfileService) Get(ctx context.Context, humanID string) (*PrivateProfile, error) {
	h, err := s.humans.GetByID(ctx, humanID)
	if err != nil {
		return nil, err
	}
	return s.private(h), nil
}

func (s *ProfileService) private(h *models.Human) *PrivateProfile {
	out := &PrivateProfile{Human: h}
	if rate, ok := s.catalog.SuggestedRate(h.Skills); ok {
		out.SuggestedRate = &rate
	}
	return out
}

// Update applies in to humanID's profile.
func (s *ProfileService) Update(ctx context.Context, humanID string, in ProfileUpdate) (*PrivateProfile, error) {
	h, err := s.humans.GetByID(ctx, humanID)
	if err != nil {
		return nil, err
	}

	availability := truncate(strings.TrimSpace(in.Availability), maxAvailability)
	if availability == "" {
		availability = models.AvailabilityWeekdays
	}
	if !models.ValidAvailability(availability) {
		return nil, models.NewValidationError("Invalid availability.")
	}
	if in.HourlyRate < 0 {
		return nil, models.NewValidationError("Hourly rate must be zero or more.")
	}

	if in.Alias != nil {
		if err := s.applyAlias(ctx, h, *in.Alias); err != nil {
			return nil, err
		}
	}

	skills, skillsNormalized := s.catalog.NormalizeSkills(in.Skills)
	categories, categoryIDs := s.catalog.DeriveCategories(skills)

	h.Email = truncate(strings.TrimSpace(in.Email), maxEmail)
	h.DisplayName = truncate(strings.TrimSpace(in.DisplayName), maxDisplayName)
	h.Headline = truncate(strings.TrimSpace(in.Headline), maxHeadline)
	h.Bio = truncate(strings.TrimSpace(in.Bio), maxBio)
	h.Location = truncate(strings.TrimSpace(in.Location), maxLocation)
	h.Availability = availability
	h.HourlyRate = in.HourlyRate
	h.Skills = skills
	h.SkillsNormalized = models.TagList(skillsNormalized)
	h.Categories = categories
	h.CategoriesNormalized = models.TagList(categoryIDs)

	if err := s.humans.UpdateProfile(ctx, h); err != nil {
		return nil, err
	}
	if s.matching != nil {
		s.matching.Invalidate(ctx, h.ID)
	}

	s.audit.record(ctx, models.AuditLog{
		Action:      "profile.update",
		ActorID:     h.ID,
		ActorType:   models.ActorHuman,
		SubjectType: models.SubjectUser,
		SubjectID:   h.ID,
		Meta:        models.JSONMap{"skills": len(skills), "alias": h.Alias != ""},
	})
	return s.private(h), nil
}

func (s *ProfileService) applyAlias(ctx context.Context, h *models.Human, raw string) error {
	if strings.TrimSpace(raw) == "" {
		h.Alias = ""
		h.AliasNormalized = nil
		return nil
	}
	res := validation.ValidateAlias(raw)
	if !res.Valid {
		return models.NewValidationError(res.Reason)
	}
	taken, err := s.humans.AliasTaken(ctx, res.Normalized, h.ID)
	if err != nil {
		return err
	}
	if taken {
		return models.NewConflictError("Alias already taken.")
	}
	normalized := res.Normalized
	h.Alias = normalized
	h.AliasNormalized = &normalized
	return nil
}

// CheckAlias reports whether raw could be claimed. The requester's own alias counts as available.
func (s *ProfileService) CheckAlias(ctx context.Context, raw, requesterID string) (*AliasAvailability, error) {
	res := validation.ValidateAlias(raw)
	out := &AliasAvailability{Alias: res.Normalized}
	if !res.Valid {
		out.Reason = res.Reason
		return out, nil
	}
	taken, err := s.humans.AliasTaken(ctx, res.Normalized, requesterID)
	if err != nil {
		return nil, err
	}
	out.Available = !taken
	if taken {
		out.Reason = "Alias already taken."
	}
	return out, nil
}
