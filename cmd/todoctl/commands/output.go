package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benvon/todo-pet/internal/models"
)

const shortIDLength = 8

var priorityLabels = map[models.Priority]string{
	models.PriorityLow:    "Low",
	models.PriorityMedium: "Medium",
	models.PriorityHigh:   "High",
	models.PriorityUrgent: "Urgent",
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// shortID keeps the tail of the id; the head of a UUIDv7 is a timestamp shared by
// todos created close together
func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[len(id)-shortIDLength:]
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format("2006-01-02")
}

func printTodo(w io.Writer, todo models.Todo) {
	check := " "
	if todo.Completed {
		check = "x"
	}
	fmt.Fprintf(w, "[%s] %s  %s (%s)\n", check, shortID(todo.ID), todo.Title, priorityLabels[todo.Priority])
	if todo.Description != "" {
		fmt.Fprintf(w, "    %s\n", todo.Description)
	}
	if todo.DueDate != nil {
		fmt.Fprintf(w, "    due %s\n", formatDue(todo.DueDate))
	}
	if todo.HasTags() {
		fmt.Fprintf(w, "    tags: %s\n", strings.Join(todo.Tags, ", "))
	}
}

func printTodos(w io.Writer, todos []models.Todo) error {
	if len(todos) == 0 {
		_, err := fmt.Fprintln(w, "No todos")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tDUE\tTITLE\tTAGS")
	for _, todo := range todos {
		done := ""
		if todo.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(todo.ID),
			done,
			priorityLabels[todo.Priority],
			formatDue(todo.DueDate),
			todo.Title,
			strings.Join(todo.Tags, ","),
		)
	}
	return tw.Flush()
}

func printStats(w io.Writer, stats models.TodoStats) error {
	fmt.Fprintf(w, "Total:      %d\n", stats.Total)
	fmt.Fprintf(w, "Completed:  %d\n", stats.Completed)
	fmt.Fprintf(w, "Pending:    %d\n", stats.Pending)
	fmt.Fprintf(w, "Completion: %.0f%%\n", stats.CompletionRate)

	fmt.Fprintln(w, "By priority:")
	for _, p := range models.Priorities() {
		fmt.Fprintf(w, "  %-7s %d\n", priorityLabels[p], stats.ByPriority[p])
	}

	if len(stats.ByTag) > 0 {
		tags := make([]string, 0, len(stats.ByTag))
		for tag := range stats.ByTag {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		fmt.Fprintln(w, "By tag:")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %-7s %d\n", tag, stats.ByTag[tag])
		}
	}
	return nil
}

// parseDueDate accepts RFC 3339 or a bare date, read as local midnight
func parseDueDate(value string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q (use YYYY-MM-DD or RFC 3339)", value)
	}
	return &t, nil
}
