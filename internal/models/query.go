package models

import (
	"sort"
	"strings"

	"task-tracker/backend/internal/validation"
)

// TaskQuery filters and orders a task list. Zero values mean no filter and
// newest first.
type TaskQuery struct {
	Status string `form:"status" json:"status" validate:"omitempty,oneof=pending completed"`
	Sort   string `form:"sort" json:"sort" validate:"omitempty,oneof=createdAt dueDate title status"`
	Order  string `form:"order" json:"order" validate:"omitempty,oneof=asc desc"`
}

func (q TaskQuery) Validate() error {
	return validation.Struct(q)
}

// Apply returns the tasks matching q in q's order. tasks is not modified.
func (q TaskQuery) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if q.Status == "" || string(task.Status) == q.Status {
			out = append(out, task)
		}
	}

	desc := q.Order != "asc"
	if q.Sort == "" && q.Order == "" {
		return out
	}

	compare := compareCreatedAt
	switch q.Sort {
	case "dueDate":
		compare = compareDueDate(desc)
	case "title":
		compare = func(a, b *Task) int { return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)) }
	case "status":
		compare = func(a, b *Task) int { return strings.Compare(string(a.Status), string(b.Status)) }
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := compare(&out[i], &out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareCreatedAt(a, b *Task) int {
	return a.CreatedAt.Compare(b.CreatedAt)
}

// Tasks without a due date sort last in either direction.
func compareDueDate(desc bool) func(a, b *Task) int {
	last := 1
	if desc {
		last = -1
	}
	return func(a, b *Task) int {
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return last
		case b.DueDate == nil:
			return -last
		}
		return a.DueDate.Compare(*b.DueDate)
	}
}
