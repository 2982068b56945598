package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

func newTaskRepoWithMock(t *testing.T) (*TaskRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewTaskRepository(db), mock, func() { _ = db.Close() }
}

func sampleTask() *domain.Task {
	now := time.Now().UTC()
	due := now.AddDate(0, 0, 7)
	return &domain.Task{
		ID:            "task-1",
		DocumentID:    "doc-1",
		GapAnalysisID: "ga-1",
		ControlID:     "CDD-01",
		Title:         "[CDD-01] Address gap in Customer Identification Program (CIP)",
		Description:   "details",
		AssignedTeam:  "AML Operations",
		Priority:      domain.PriorityCritical,
		Status:        domain.TaskPending,
		DueAt:         &due,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTaskCreateReportsNotCreatedOnConflict(t *testing.T) {
	repo, mock, done := newTaskRepoWithMock(t)
	defer done()

	task := sampleTask()
	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(task.ID, task.DocumentID, task.GapAnalysisID, task.ControlID, task.Title,
			task.Description, task.AssignedTeam, "critical", "pending",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.Create(context.Background(), task)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created {
		t.Fatalf("conflicting insert must report created=false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskUpdateReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newTaskRepoWithMock(t)
	defer done()

	task := sampleTask()
	task.ID = "missing"
	mock.ExpectExec("UPDATE tasks").
		WithArgs("missing", task.AssignedTeam, "critical", "pending",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), task)
	if !domain.IsKind(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskListBuildsFilterConditions(t *testing.T) {
	repo, mock, done := newTaskRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "gap_analysis_id", "control_id", "title", "description",
		"assigned_team", "priority", "status", "due_at", "created_at", "updated_at",
	}).AddRow("task-1", "doc-1", "ga-1", "CDD-01", "title", "", "AML Operations",
		"high", "pending", nil, time.Now(), time.Now())

	mock.ExpectQuery("FROM tasks").
		WithArgs("pending", "AML Operations", "high", 10, 20).
		WillReturnRows(rows)

	tasks, err := repo.List(context.Background(), domain.TaskFilter{
		Status:   domain.TaskPending,
		Team:     "AML Operations",
		Priority: domain.PriorityHigh,
		Limit:    10,
		Offset:   20,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].DueAt != nil {
		t.Errorf("NULL due_at must scan as nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTaskListByGapAnalysisOrdersByControl(t *testing.T) {
	repo, mock, done := newTaskRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{
		"id", "document_id", "gap_analysis_id", "control_id", "title", "description",
		"assigned_team", "priority", "status", "due_at", "created_at", "updated_at",
	}).
		AddRow("task-1", "doc-1", "ga-1", "CDD-01", "a", "", "AML Operations",
			"high", "pending", nil, time.Now(), time.Now()).
		AddRow("task-2", "doc-1", "ga-1", "CDD-02", "b", "", "AML Operations",
			"high", "pending", nil, time.Now(), time.Now())

	mock.ExpectQuery("ORDER BY control_id ASC").
		WithArgs("ga-1").
		WillReturnRows(rows)

	tasks, err := repo.ListByGapAnalysisID(context.Background(), "ga-1")
	if err != nil {
		t.Fatalf("ListByGapAnalysisID() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
