package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"shaasam/internal/featureflags"
	"shaasam/internal/models"
	"shaasam/internal/notifications"
	"shaasam/internal/observability"
	"shaasam/internal/repository"
	"shaasam/internal/taxonomy"

	"go.opentelemetry.io/otel/attribute"
)

// Request limits.
const (
	DefaultRequestTitle   = "Help needed"
	maxTitleLength        = 120
	maxDescriptionLength  = 2000
	maxCallbackURLLength  = 400
	maxRequesterLength    = 120
	DefaultRequestLimit   = 20
	MaxRequestLimit       = 50
	humanRequestListLimit = 50
)

// EventPublisher publishes lifecycle events for realtime subscribers.
type EventPublisher interface {
	PublishRequestEvent(ctx context.Context, evt notifications.RequestEvent) error
}

// CallbackSender delivers lifecycle events to agent callback URLs.
type CallbackSender interface {
	Dispatch(ctx context.Context, url string, evt notifications.RequestEvent)
}

// CreateRequestInput is an agent-posted request before normalization.
type CreateRequestInput struct {
	Title       string
	Description string
	Skills      []string
	Categories  []string
	Budget      *float64
	CallbackURL string
	Requester   models.Requester
}

// HumanRequests is the work view of one human.
type HumanRequests struct {
	Available []models.Request `json:"available"`
	Mine      []models.Request `json:"mine"`
}

// ActionResult is the outcome of a lifecycle action.
type ActionResult struct {
	OK     bool                 `json:"ok"`
	Status models.RequestStatus `json:"status"`
}

// LifecycleService owns request creation and the human-driven state machine.
type LifecycleService struct {
	requests      repository.RequestRepository
	humans        repository.HumanRepository
	audit         auditor
	events        EventPublisher
	callbacks     CallbackSender
	flags         *featureflags.Manager
	requireReview bool
	now           func() time.Time
}

// NewLifecycleService creates a lifecycle service. events, callbacks and flags may be nil.
func NewLifecycleService(
	requests repository.RequestRepository,
	humans repository.HumanRepository,
	audit repository.AuditRepository,
	events EventPublisher,
	callbacks CallbackSender,
	flags *featureflags.Manager,
	requireReview bool,
) *LifecycleService {
	return &LifecycleService{
		requests:      requests,
		humans:        humans,
		audit:         auditor{repo: audit},
		events:        events,
		callbacks:     callbacks,
		flags:         flags,
		requireReview: requireReview,
		now:           time.Now,
	}
}

// Create stores a new open request. Free text is truncated rather than rejected.
func (s *LifecycleService) Create(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	title := truncate(strings.TrimSpace(in.Title), maxTitleLength)
	if title == "" {
		title = DefaultRequestTitle
	}
	skills, skillsNormalized := taxonomy.NormalizeRequestSkills(in.Skills)
	categories, categoryIDs := taxonomy.NormalizeCategories(in.Categories)

	req := &models.Request{
		Title:                title,
		Description:          truncate(in.Description, maxDescriptionLength),
		Skills:               models.StringList(skills),
		SkillsNormalized:     models.TagList(skillsNormalized),
		Categories:           models.StringList(categories),
		CategoriesNormalized: models.TagList(categoryIDs),
		Budget:               in.Budget,
		CallbackURL:          truncate(strings.TrimSpace(in.CallbackURL), maxCallbackURLLength),
		Requester: models.Requester{
			Name:  truncate(in.Requester.Name, maxRequesterLength),
			Org:   truncate(in.Requester.Org, maxRequesterLength),
			Email: truncate(in.Requester.Email, maxRequesterLength),
		},
		Status: models.RequestStatusOpen,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	observability.RequestsCreated.Inc()
	s.audit.record(ctx, models.AuditLog{
		Action:      "request.create",
		ActorType:   models.ActorAgent,
		SubjectType: models.SubjectRequest,
		SubjectID:   req.ID,
	})
	return req, nil
}

// List returns requests newest first, optionally filtered by status.
func (s *LifecycleService) List(ctx context.Context, status string, limit int) ([]models.Request, error) {
	st := models.RequestStatus(strings.TrimSpace(status))
	if st != "" && !st.Valid() {
		return nil, models.NewValidationError("Invalid status.")
	}
	return s.requests.List(ctx, st, clampLimit(limit, DefaultRequestLimit, MaxRequestLimit))
}

// Get returns one request.
func (s *LifecycleService) Get(ctx context.Context, id string) (*models.Request, error) {
	return s.requests.GetByID(ctx, id)
}

// ListForHuman returns the open pool visible to humanID and the requests it holds.
func (s *LifecycleService) ListForHuman(ctx context.Context, humanID string) (*HumanRequests, error) {
	human, err := s.eligibleHuman(ctx, humanID)
	if err != nil {
		return nil, err
	}

	available, err := s.requests.ListAvailable(ctx, human.ID, matchKeys(human), humanRequestListLimit)
	if err != nil {
		return nil, err
	}
	mine, err := s.requests.ListAccepted(ctx, human.ID, humanRequestListLimit)
	if err != nil {
		return nil, err
	}
	return &HumanRequests{Available: available, Mine: mine}, nil
}

// Act applies action to request id on behalf of humanID.
func (s *LifecycleService) Act(ctx context.Context, humanID, id, rawAction string) (*ActionResult, error) {
	action := models.RequestAction(strings.ToLower(strings.TrimSpace(rawAction)))
	if !action.Valid() {
		return nil, models.NewValidationError("Invalid action.")
	}

	human, err := s.eligibleHuman(ctx, humanID)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "lifecycle", string(action),
		attribute.String("request.id", id),
		attribute.String("human.id", human.ID))
	req, err := s.apply(ctx, human.ID, id, action)
	observability.EndSpan(span, err)
	if err != nil {
		outcome := "error"
		if models.IsCode(err, models.CodeConflict) {
			outcome = "conflict"
		}
		observability.RequestTransitions.WithLabelValues(string(action), outcome).Inc()
		return nil, err
	}
	observability.RequestTransitions.WithLabelValues(string(action), "ok").Inc()

	s.afterAction(ctx, human.ID, req, action)
	return &ActionResult{OK: true, Status: req.Status}, nil
}

func (s *LifecycleService) apply(ctx context.Context, humanID, id string, action models.RequestAction) (*models.Request, error) {
	current, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if action == models.ActionDecline {
		if err := s.requests.Decline(ctx, id, humanID, now); err != nil {
			return nil, err
		}
		return current, nil
	}

	target, _ := action.Target()
	var (
		updated     *models.Request
		conflictMsg string
	)
	switch action {
	case models.ActionAccept:
		conflictMsg = "Request already claimed."
		if !models.CanTransition(current.Status, target) {
			return nil, models.NewConflictError(conflictMsg)
		}
		updated, err = s.requests.Accept(ctx, id, humanID, now)
	case models.ActionStart:
		conflictMsg = "Unable to start request."
		if !models.CanTransition(current.Status, target) {
			return nil, models.NewConflictError(conflictMsg)
		}
		updated, err = s.requests.Start(ctx, id, humanID, now)
	case models.ActionComplete:
		conflictMsg = "Unable to complete request."
		if !models.CanTransition(current.Status, target) {
			return nil, models.NewConflictError(conflictMsg)
		}
		updated, err = s.requests.Complete(ctx, id, humanID, now)
	}
	if repository.IsTransitionConflict(err) {
		return nil, models.NewConflictError(conflictMsg)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// afterAction runs the post-commit side effects. None of them can fail the action.
func (s *LifecycleService) afterAction(ctx context.Context, humanID string, req *models.Request, action models.RequestAction) {
	eventName := "request." + string(action)
	s.audit.record(ctx, models.AuditLog{
		Action:      eventName,
		ActorID:     humanID,
		ActorType:   models.ActorHuman,
		SubjectType: models.SubjectRequest,
		SubjectID:   req.ID,
	})

	evt := notifications.RequestEvent{
		Event:     eventName,
		RequestID: req.ID,
		Status:    string(req.Status),
		HumanID:   humanID,
	}
	if s.events != nil {
		if err := s.events.PublishRequestEvent(ctx, evt); err != nil {
			slog.WarnContext(ctx, "request event publish failed",
				slog.String("request_id", req.ID),
				slog.String("error", err.Error()))
		}
	}
	if req.CallbackURL != "" && s.callbacks != nil &&
		s.flags.EnabledOr(featureflags.RequestCallbacks, "", true) {
		s.callbacks.Dispatch(ctx, req.CallbackURL, evt)
	}
}

func (s *LifecycleService) eligibleHuman(ctx context.Context, humanID string) (*models.Human, error) {
	human, err := s.humans.GetByID(ctx, humanID)
	if err != nil {
		return nil, err
	}
	if err := checkEligible(human, s.requireReview); err != nil {
		return nil, err
	}
	return human, nil
}

// matchKeys is the union of a human's normalized skills and lowercased skill labels.
func matchKeys(h *models.Human) []string {
	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range h.SkillsNormalized {
		add(v)
	}
	for _, v := range h.Skills {
		add(v)
	}
	return out
}
