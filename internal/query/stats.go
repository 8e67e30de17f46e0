package query

import "github.com/benvon/todo-pet/internal/models"

// Stats aggregates the whole collection. ByPriority always carries all four
// priorities; ByTag only the tags actually observed.
func Stats(todos []models.Todo) models.TodoStats {
	stats := models.TodoStats{
		Total:      len(todos),
		ByPriority: make(map[models.Priority]int, len(models.Priorities())),
		ByTag:      make(map[string]int),
	}
	for _, p := range models.Priorities() {
		stats.ByPriority[p] = 0
	}

	for _, todo := range todos {
		if todo.Completed {
			stats.Completed++
		}
		if todo.Priority.IsValid() {
			stats.ByPriority[todo.Priority]++
		}
		for _, tag := range todo.Tags {
			stats.ByTag[tag]++
		}
	}

	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats
}
