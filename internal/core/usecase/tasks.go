package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// TaskGeneratorUseCase derives one remediation task per affected control of a
// gap analysis and manages task lifecycle updates. The (gap_analysis_id,
// control_id) uniqueness constraint makes generation safely re-runnable.
type TaskGeneratorUseCase struct {
	docs     ports.DocumentRepository
	analyses ports.GapAnalysisRepository
	tasks    ports.TaskRepository
	router   ports.TeamRouter
}

func NewTaskGeneratorUseCase(
	docs ports.DocumentRepository,
	analyses ports.GapAnalysisRepository,
	tasks ports.TaskRepository,
	router ports.TeamRouter,
) *TaskGeneratorUseCase {
	return &TaskGeneratorUseCase{docs: docs, analyses: analyses, tasks: tasks, router: router}
}

func (uc *TaskGeneratorUseCase) Generate(ctx context.Context, gapAnalysisID string) (ports.GenerateResult, error) {
	ga, err := uc.analyses.GetByID(ctx, gapAnalysisID)
	if err != nil {
		return ports.GenerateResult{}, fmt.Errorf("fetch gap analysis: %w", err)
	}

	regulationTitle := ga.DocumentID
	if doc, err := uc.docs.GetByID(ctx, ga.DocumentID); err == nil {
		regulationTitle = doc.Title
	}

	now := time.Now().UTC()
	priority := domain.PriorityForSeverity(ga.Severity)
	dueAt := now.AddDate(0, 0, priority.DueDays())

	createdCount := 0
	for _, gap := range ga.AffectedControls {
		task := buildTask(ga, gap, regulationTitle, priority, dueAt, now)
		task.AssignedTeam = uc.router.Route(gap.ControlID, gap.Effort)

		created, err := uc.tasks.Create(ctx, task)
		if err != nil {
			return ports.GenerateResult{}, fmt.Errorf("create task for control %s: %w", gap.ControlID, err)
		}
		if created {
			createdCount++
		}
	}

	all, err := uc.tasks.ListByGapAnalysisID(ctx, gapAnalysisID)
	if err != nil {
		return ports.GenerateResult{}, fmt.Errorf("list generated tasks: %w", err)
	}
	return ports.GenerateResult{Tasks: all, CreatedCount: createdCount}, nil
}

func buildTask(
	ga *domain.GapAnalysis,
	gap domain.ControlGap,
	regulationTitle string,
	priority domain.TaskPriority,
	dueAt, now time.Time,
) *domain.Task {
	controlName := gap.ControlID
	pillar := ""
	if control, ok := domain.ControlByID(gap.ControlID); ok {
		controlName = control.Name
		pillar = strings.ReplaceAll(string(control.Pillar), "_", " ")
	}

	parts := []string{
		"Regulation: " + regulationTitle,
		"Control: " + controlName,
	}
	if pillar != "" {
		parts = append(parts, "Pillar: "+pillar)
	}
	if gap.Description != "" {
		parts = append(parts, "Gap: "+gap.Description)
	}
	if gap.Remediation != "" {
		parts = append(parts, "Recommendation: "+gap.Remediation)
	}

	due := dueAt
	return &domain.Task{
		ID:            uuid.NewString(),
		DocumentID:    ga.DocumentID,
		GapAnalysisID: ga.ID,
		ControlID:     gap.ControlID,
		Title:         fmt.Sprintf("[%s] Address gap in %s", gap.ControlID, controlName),
		Description:   strings.Join(parts, "\n"),
		Priority:      priority,
		Status:        domain.TaskPending,
		DueAt:         &due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Update applies a partial update. Status changes go through the explicit
// transition table; illegal ones surface as ErrInvalidTransition.
func (uc *TaskGeneratorUseCase) Update(ctx context.Context, taskID string, update domain.TaskUpdate) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}

	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update task",
				fmt.Errorf("unknown status %q", *update.Status))
		}
		if err := task.Transition(*update.Status); err != nil {
			return nil, err
		}
	}
	if update.AssignedTeam != nil {
		if strings.TrimSpace(*update.AssignedTeam) == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update task",
				fmt.Errorf("assigned team cannot be empty"))
		}
		task.AssignedTeam = *update.AssignedTeam
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return nil, domain.WrapError(domain.ErrInvalidInput, "update task",
				fmt.Errorf("unknown priority %q", *update.Priority))
		}
		task.Priority = *update.Priority
	}
	if update.DueAt != nil {
		task.DueAt = update.DueAt
	}

	task.UpdatedAt = time.Now().UTC()
	if err := uc.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("persist task update: %w", err)
	}
	return task, nil
}
