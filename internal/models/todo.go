package models

import (
	"time"
)

// Priority represents how important a todo is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns all priorities in rank order, lowest first
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Rank returns the position of the priority in the declared order (low=0 .. urgent=3).
// Unknown values rank -1.
func (p Priority) Rank() int {
	for i, candidate := range Priorities() {
		if p == candidate {
			return i
		}
	}
	return -1
}

// IsValid reports whether p is one of the declared priorities
func (p Priority) IsValid() bool {
	return p.Rank() >= 0
}

// Todo represents a todo item. JSON names match the persisted "todos" blob.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so callers can't alias the cached collection
func (t Todo) Clone() Todo {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	return out
}

// HasTags reports whether the todo carries at least one tag
func (t Todo) HasTags() bool {
	return len(t.Tags) > 0
}

// CreateTodoInput is the caller-supplied part of a new todo.
// ID, completion and timestamps are assigned by the store.
type CreateTodoInput struct {
	Title       string     `json:"title" validate:"required,max=100"`
	Description string     `json:"description,omitempty" validate:"max=500"`
	Priority    Priority   `json:"priority" validate:"omitempty,priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags,omitempty" validate:"dive,max=50"`
}

// UpdateTodoInput is a partial update. Nil fields are left unchanged.
type UpdateTodoInput struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,max=100"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	Completed    *bool      `json:"completed,omitempty"`
	Priority     *Priority  `json:"priority,omitempty" validate:"omitempty,priority"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	ClearDueDate bool       `json:"clearDueDate,omitempty"`
	Tags         []string   `json:"tags,omitempty" validate:"omitempty,dive,max=50"`
}

// IsEmpty reports whether the update carries no field changes
func (u UpdateTodoInput) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil &&
		u.Priority == nil && u.DueDate == nil && !u.ClearDueDate && u.Tags == nil
}
