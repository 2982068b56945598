package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, document_id, gap_analysis_id, control_id, title, description, assigned_team, priority, status, due_at, created_at, updated_at`

// Create inserts a task unless one exists for the (gap_analysis_id,
// control_id) pair; re-runs of generation report created=false instead of
// duplicating work.
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (id, document_id, gap_analysis_id, control_id, title, description, assigned_team, priority, status, due_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (gap_analysis_id, control_id) DO NOTHING
`,
		task.ID, task.DocumentID, task.GapAnalysisID, task.ControlID, task.Title, task.Description,
		task.AssignedTeam, string(task.Priority), string(task.Status), task.DueAt, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert task rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE id = $1
`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrTaskNotFound, "get task", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return task, nil
}

func (r *TaskRepository) ListByGapAnalysisID(ctx context.Context, gapAnalysisID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+taskColumns+`
FROM tasks
WHERE gap_analysis_id = $1
ORDER BY control_id ASC
`, gapAnalysisID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by gap analysis: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET assigned_team = $2, priority = $3, status = $4, due_at = $5, updated_at = $6
WHERE id = $1
`, task.ID, task.AssignedTeam, string(task.Priority), string(task.Status), task.DueAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrTaskNotFound, "update task", fmt.Errorf("id=%s", task.ID))
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `
SELECT ` + taskColumns + `
FROM tasks
`
	args := []any{}
	where := ""
	appendCond := func(cond, value string) {
		args = append(args, value)
		if where == "" {
			where = fmt.Sprintf("WHERE %s = $%d\n", cond, len(args))
			return
		}
		where += fmt.Sprintf("AND %s = $%d\n", cond, len(args))
	}
	if filter.Status != "" {
		appendCond("status", string(filter.Status))
	}
	if filter.Team != "" {
		appendCond("assigned_team", filter.Team)
	}
	if filter.Priority != "" {
		appendCond("priority", string(filter.Priority))
	}
	query += where + "ORDER BY updated_at DESC\n"
	args = append(args, limitOrDefault(filter.Limit))
	query += fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var priority, status string
	var dueAt sql.NullTime

	err := row.Scan(
		&task.ID, &task.DocumentID, &task.GapAnalysisID, &task.ControlID, &task.Title,
		&task.Description, &task.AssignedTeam, &priority, &status, &dueAt,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Priority = domain.TaskPriority(priority)
	task.Status = domain.TaskStatus(status)
	if dueAt.Valid {
		t := dueAt.Time
		task.DueAt = &t
	}
	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]domain.Task, error) {
	out := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}
