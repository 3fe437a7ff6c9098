package services

import (
	"context"
	"strings"

	"studynotes-dashboard/internal/content"
	"studynotes-dashboard/internal/models"
	"studynotes-dashboard/internal/poller"
)

const (
	MinPlanDays = 7
	MaxPlanDays = 365
)

type StudyPlanBackend interface {
	CreateStudyPlan(ctx context.Context, req models.CreateStudyPlanRequest) (*models.StudyPlan, error)
	GetStudyPlan(ctx context.Context, planID string) (*models.StudyPlan, error)
	ListStudyPlans(ctx context.Context) ([]models.StudyPlan, error)
	SetModuleCompleted(ctx context.Context, planID, moduleID string, completed bool) error
}

type StudyPlanService struct {
	backend StudyPlanBackend
}

func NewStudyPlanService(backend StudyPlanBackend) *StudyPlanService {
	return &StudyPlanService{backend: backend}
}

// Create checks the request before anything is sent; an invalid plan never
// reaches the network.
func (s *StudyPlanService) Create(ctx context.Context, req models.CreateStudyPlanRequest) (*models.StudyPlan, error) {
	req.Goal = strings.TrimSpace(req.Goal)

	fieldErrors := make(map[string]string)
	if req.Goal == "" {
		fieldErrors["goal"] = "Goal is required"
	}
	if req.DurationDays < MinPlanDays || req.DurationDays > MaxPlanDays {
		fieldErrors["duration_days"] = "Duration must be between 7 and 365 days"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	plan, err := s.backend.CreateStudyPlan(ctx, req)
	return plan, translate(err)
}

func (s *StudyPlanService) Get(ctx context.Context, planID string) (*models.StudyPlan, error) {
	plan, err := s.backend.GetStudyPlan(ctx, planID)
	return plan, translate(err)
}

func (s *StudyPlanService) List(ctx context.Context) ([]models.StudyPlan, error) {
	plans, err := s.backend.ListStudyPlans(ctx)
	return plans, translate(err)
}

func (s *StudyPlanService) Wait(ctx context.Context, planID string, opts poller.Options, onUpdate func(*models.StudyPlan)) (*models.StudyPlan, error) {
	plan, err := poller.Until(ctx, opts, func(ctx context.Context) (*models.StudyPlan, error) {
		p, err := s.backend.GetStudyPlan(ctx, planID)
		if err == nil && onUpdate != nil {
			onUpdate(p)
		}
		return p, err
	}, content.PlanIsTerminal)
	return plan, translate(err)
}

// CompleteModule marks a module optimistically and puts it back when the
// backend refuses.
func (s *StudyPlanService) CompleteModule(ctx context.Context, plan *models.StudyPlan, moduleID string, completed bool) error {
	idx := -1
	for i := range plan.Modules {
		if plan.Modules[i].ID == moduleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Message: "Module not found in study plan"}
	}

	m := &plan.Modules[idx]
	previous := m.Completed
	return Optimistic(ctx,
		func() { m.Completed = completed },
		func() { m.Completed = previous },
		func(ctx context.Context) error {
			return translate(s.backend.SetModuleCompleted(ctx, plan.ID, moduleID, completed))
		},
	)
}
