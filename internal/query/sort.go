package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/benvon/todo-pet/internal/models"
)

// sortKey is computed once per record. Only one of the fields is meaningful,
// depending on the sort field.
type sortKey struct {
	num  int64
	text string
}

type keyed struct {
	key  sortKey
	todo models.Todo
}

func keyFor(todo models.Todo, by models.SortField) sortKey {
	switch by {
	case models.SortByTitle:
		return sortKey{text: strings.ToLower(todo.Title)}
	case models.SortByPriority:
		// unknown priorities rank below low
		return sortKey{num: int64(todo.Priority.Rank() + 1)}
	case models.SortByDueDate:
		if todo.DueDate == nil {
			return sortKey{}
		}
		return sortKey{num: todo.DueDate.UnixMilli()}
	case models.SortByUpdatedAt:
		return sortKey{num: todo.UpdatedAt.UnixMilli()}
	default:
		return sortKey{num: todo.CreatedAt.UnixMilli()}
	}
}

func compareKeys(a, b sortKey, by models.SortField) int {
	if by == models.SortByTitle {
		return strings.Compare(a.text, b.text)
	}
	return cmp.Compare(a.num, b.num)
}

// Sort returns a sorted copy of todos. Empty fields of s take their defaults.
// Records with equal keys keep their relative input order.
func Sort(todos []models.Todo, s models.TodoSort) []models.Todo {
	s = s.Normalize()

	items := make([]keyed, len(todos))
	for i, todo := range todos {
		items[i] = keyed{key: keyFor(todo, s.By), todo: todo}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		c := compareKeys(a.key, b.key, s.By)
		if s.Order == models.SortDesc {
			return -c
		}
		return c
	})

	out := make([]models.Todo, len(items))
	for i, item := range items {
		out[i] = item.todo.Clone()
	}
	return out
}

// Apply filters then sorts the filtered subset
func Apply(todos []models.Todo, f models.TodoFilter, s models.TodoSort) []models.Todo {
	return Sort(Filter(todos, f), s)
}
