package api

import (
	"context"
	"fmt"
	"net/http"

	"studynotes-dashboard/internal/models"
)

const studyPlansPath = "/learning-journeys/study-plans"

// CreateStudyPlan returns the plan as accepted, usually still "generating".
func (c *Client) CreateStudyPlan(ctx context.Context, req models.CreateStudyPlanRequest) (*models.StudyPlan, error) {
	var plan models.StudyPlan
	if err := c.do(ctx, http.MethodPost, studyPlansPath, req, &plan); err != nil {
		return nil, err
	}
	if plan.ID == "" {
		return nil, fmt.Errorf("create study plan: backend returned no plan id")
	}
	return &plan, nil
}

func (c *Client) GetStudyPlan(ctx context.Context, planID string) (*models.StudyPlan, error) {
	var plan models.StudyPlan
	if err := c.do(ctx, http.MethodGet, studyPlansPath+"/"+escape(planID), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *Client) ListStudyPlans(ctx context.Context) ([]models.StudyPlan, error) {
	raw, _, err := c.send(ctx, http.MethodGet, studyPlansPath, nil)
	if err != nil {
		return nil, err
	}
	var plans []models.StudyPlan
	if err := unmarshalList(raw, "study_plans", &plans); err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}
	return plans, nil
}

func (c *Client) SetModuleCompleted(ctx context.Context, planID, moduleID string, completed bool) error {
	path := studyPlansPath + "/" + escape(planID) + "/modules/" + escape(moduleID)
	return c.do(ctx, http.MethodPut, path, models.ModuleCompletionRequest{Completed: completed}, nil)
}
