// Package query derives filtered, sorted and aggregated views from a todo snapshot.
// Every function is pure: inputs are never mutated and results never alias them.
package query

import (
	"strings"

	"github.com/benvon/todo-pet/internal/models"
)

// Filter returns the todos matching every active predicate of f, in input order
func Filter(todos []models.Todo, f models.TodoFilter) []models.Todo {
	tag := strings.ToLower(f.Tag)
	search := strings.ToLower(f.Search)

	out := make([]models.Todo, 0, len(todos))
	for _, todo := range todos {
		if !matchStatus(todo, f.Status) {
			continue
		}
		if f.Priority != "" && todo.Priority != f.Priority {
			continue
		}
		if tag != "" && !hasTagContaining(todo, tag) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(todo.Title), search) &&
			!strings.Contains(strings.ToLower(todo.Description), search) {
			continue
		}
		out = append(out, todo.Clone())
	}
	return out
}

func matchStatus(todo models.Todo, status models.StatusFilter) bool {
	switch status {
	case models.StatusCompleted:
		return todo.Completed
	case models.StatusPending:
		return !todo.Completed
	default:
		return true
	}
}

// hasTagContaining expects needle already lowercased
func hasTagContaining(todo models.Todo, needle string) bool {
	for _, tag := range todo.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// ByStatus returns the completed (or pending) todos
func ByStatus(todos []models.Todo, completed bool) []models.Todo {
	status := models.StatusPending
	if completed {
		status = models.StatusCompleted
	}
	return Filter(todos, models.TodoFilter{Status: status})
}

// ByPriority returns the todos with exactly priority p
func ByPriority(todos []models.Todo, p models.Priority) []models.Todo {
	if p == "" {
		return []models.Todo{}
	}
	return Filter(todos, models.TodoFilter{Priority: p})
}

// ByTag returns the todos having a tag that contains tag, ignoring case
func ByTag(todos []models.Todo, tag string) []models.Todo {
	return Filter(todos, models.TodoFilter{Tag: tag})
}
