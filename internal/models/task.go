package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityLow    TaskPriority = "low"
)

// TimestampLayout is the format of every stored timestamp (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// Task field order here is the order of the JSON object on the wire.
type Task struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     string       `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// NewTask builds an unsaved pending task. An unknown priority becomes medium.
func NewTask(userID int64, title, description, dueDate, priority string) Task {
	p := TaskPriority(priority)
	if !p.Valid() {
		p = TaskPriorityMedium
	}
	return Task{
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    p,
		Status:      TaskStatusPending,
	}
}

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	}
	return false
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// IsValid must hold before a task is written to storage.
func (t *Task) IsValid() bool {
	return t.Title != "" && t.Priority.Valid() && t.Status.Valid()
}

// Apply merges a partial update. Only keys present in fields are changed;
// the caller re-validates afterwards.
func (t *Task) Apply(fields map[string]string) {
	if v, ok := fields["title"]; ok {
		t.Title = v
	}
	if v, ok := fields["description"]; ok {
		t.Description = v
	}
	if v, ok := fields["due_date"]; ok {
		t.DueDate = v
	}
	if v, ok := fields["priority"]; ok {
		t.Priority = TaskPriority(v)
	}
	if v, ok := fields["status"]; ok {
		t.Status = TaskStatus(v)
	}
}

// NormalizeCreatedAt expands a date-only value (YYYY-MM-DD) to midnight.
// Full timestamps pass through untouched.
func NormalizeCreatedAt(s string) string {
	if len(s) == len("2006-01-02") {
		return s + " 00:00:00"
	}
	return s
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
