package models

import (
	"errors"
	"strings"
	"time"

	"task-tracker/backend/internal/apperr"
	"task-tracker/backend/internal/validation"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

var errInvalidDate = errors.New("invalid date")

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description string     `json:"description,omitempty" gorm:"size:500"`
	Status      TaskStatus `json:"status" gorm:"size:16;not null;default:'pending'"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	OwnerID     uuid.UUID  `json:"owner" gorm:"column:owner_id;type:varchar(36);not null;index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TaskInput struct {
	Title       string     `json:"title" validate:"required,max=100"`
	Description string     `json:"description" validate:"max=500"`
	Status      TaskStatus `json:"status" validate:"omitempty,oneof=pending completed"`
	DueDate     *string    `json:"dueDate"`
}

// Validate trims text fields in place and checks every field of the input.
func (in *TaskInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	fields := validation.Fields(in)
	if fields == nil {
		fields = map[string]string{}
	}
	if in.DueDate != nil {
		if _, err := ParseDueDate(*in.DueDate); err != nil {
			fields["dueDate"] = "Due date must be a valid date"
		}
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// NewTask builds a task owned by owner from a validated input.
func (in TaskInput) NewTask(owner uuid.UUID) (Task, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Task{}, err
	}

	task := Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		OwnerID:     owner,
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	if in.DueDate != nil {
		task.DueDate, _ = ParseDueDate(*in.DueDate)
	}
	return task, nil
}

// TaskPatch is a partial update. Nil fields are left unchanged; an empty
// dueDate clears the due date.
type TaskPatch struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Status      *TaskStatus `json:"status"`
	DueDate     *string     `json:"dueDate"`
}

func (p *TaskPatch) Validate() error {
	fields := map[string]string{}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
		if msg, ok := validation.Var("title", title, "required,max=100"); !ok {
			fields["title"] = msg
		}
	}
	if p.Description != nil {
		description := strings.TrimSpace(*p.Description)
		p.Description = &description
		if msg, ok := validation.Var("description", description, "max=500"); !ok {
			fields["description"] = msg
		}
	}
	if p.Status != nil {
		if msg, ok := validation.Var("status", string(*p.Status), "required,oneof=pending completed"); !ok {
			fields["status"] = msg
		}
	}
	if p.DueDate != nil {
		if _, err := ParseDueDate(*p.DueDate); err != nil {
			fields["dueDate"] = "Due date must be a valid date"
		}
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

// Changes maps the set fields of a validated patch to column assignments.
func (p TaskPatch) Changes() map[string]interface{} {
	changes := map[string]interface{}{}
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	if p.DueDate != nil {
		due, _ := ParseDueDate(*p.DueDate)
		changes["due_date"] = due
	}
	return changes
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. An
// empty string yields a nil date.
func ParseDueDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errInvalidDate
}
