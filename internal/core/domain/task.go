package domain

import (
	"fmt"
	"time"

	"github.com/anggasct/fluo"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// PriorityForSeverity maps gap severity onto the generated task priority.
func PriorityForSeverity(s GapSeverity) TaskPriority {
	switch s {
	case SeverityCritical:
		return PriorityCritical
	case SeverityHigh:
		return PriorityHigh
	case SeverityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// DueDays returns the remediation window for a priority, in days.
func (p TaskPriority) DueDays() int {
	switch p {
	case PriorityCritical:
		return 7
	case PriorityHigh:
		return 14
	case PriorityLow:
		return 60
	default:
		return 30
	}
}

// Task is one unit of remediation work, derived from a single affected
// control of a gap analysis. Unique per (gap_analysis_id, control_id).
type Task struct {
	ID            string       `json:"id"`
	DocumentID    string       `json:"document_id"`
	GapAnalysisID string       `json:"gap_analysis_id"`
	ControlID     string       `json:"control_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	AssignedTeam  string       `json:"assigned_team"`
	Priority      TaskPriority `json:"priority"`
	Status        TaskStatus   `json:"status"`
	DueAt         *time.Time   `json:"due_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

const (
	taskEventStart    = "start"
	taskEventComplete = "complete"
)

// taskLifecycle is the explicit transition table for task status. Forward
// only: pending may start or fast-close, in_progress may complete, completed
// is terminal. There is no reopen event.
var taskLifecycle = fluo.NewMachine().
	State(string(TaskPending)).Initial().
	To(string(TaskInProgress)).On(taskEventStart).
	To(string(TaskCompleted)).On(taskEventComplete).
	State(string(TaskInProgress)).
	To(string(TaskCompleted)).On(taskEventComplete).
	State(string(TaskCompleted)).Final().
	Build()

func taskEventFor(target TaskStatus) string {
	switch target {
	case TaskInProgress:
		return taskEventStart
	case TaskCompleted:
		return taskEventComplete
	default:
		return ""
	}
}

// CanTransition reports whether a status change is legal. Same-state updates
// are idempotent no-ops and always allowed.
func CanTransition(from, to TaskStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	event := taskEventFor(to)
	if event == "" {
		return false
	}

	machine := taskLifecycle.CreateInstance()
	if err := machine.Start(); err != nil {
		return false
	}
	if from != TaskPending {
		if err := machine.SetState(string(from)); err != nil {
			return false
		}
	}
	result := machine.HandleEvent(event, nil)
	return result.Processed && result.CurrentState == string(to)
}

// Transition applies a status change or fails with ErrInvalidTransition.
// Illegal changes are surfaced, never silently coerced.
func (t *Task) Transition(to TaskStatus) error {
	if !CanTransition(t.Status, to) {
		return WrapError(ErrInvalidTransition, "transition task",
			fmt.Errorf("%s -> %s is not allowed", t.Status, to))
	}
	t.Status = to
	return nil
}

// TaskFilter narrows task listings; zero values mean "no filter".
type TaskFilter struct {
	Status   TaskStatus
	Team     string
	Priority TaskPriority
	Limit    int
	Offset   int
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Status       *TaskStatus
	AssignedTeam *string
	Priority     *TaskPriority
	DueAt        *time.Time
}
