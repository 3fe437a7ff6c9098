package models

type StudyPlan struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	Goal         string            `json:"goal"`
	DurationDays int               `json:"duration_days"`
	Status       string            `json:"status"` // "generating" | "active" | "completed" | "failed"
	Modules      []StudyPlanModule `json:"modules"`
	Error        string            `json:"error,omitempty"`
	CreatedAt    Timestamp         `json:"created_at"`
}

type StudyPlanModule struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type"` // "video" | "reading" | "practice" | "quiz" | "project"
	DueDate     *Timestamp `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	Order       int        `json:"order"`
}

// CompletedCount and ProgressPercent drive the plan progress bar.
func (p *StudyPlan) CompletedCount() int {
	n := 0
	for _, m := range p.Modules {
		if m.Completed {
			n++
		}
	}
	return n
}

func (p *StudyPlan) ProgressPercent() int {
	if len(p.Modules) == 0 {
		return 0
	}
	return p.CompletedCount() * 100 / len(p.Modules)
}

type CreateStudyPlanRequest struct {
	Goal         string `json:"goal"`
	DurationDays int    `json:"duration_days"`
}

type StudyPlanList struct {
	StudyPlans []StudyPlan `json:"study_plans"`
}

type ModuleCompletionRequest struct {
	Completed bool `json:"completed"`
}
