package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/todo-pet/internal/database"
	"github.com/benvon/todo-pet/internal/models"
	"github.com/spf13/cobra"
)

// NewAddCmd creates the add command
func NewAddCmd(opts *globalOptions) *cobra.Command {
	var description, priority, due string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			input := models.CreateTodoInput{
				Title:       args[0],
				Description: description,
				Priority:    models.Priority(priority),
				Tags:        tags,
			}
			if due != "" {
				dueDate, err := parseDueDate(due)
				if err != nil {
					return err
				}
				input.DueDate = dueDate
			}

			todo, err := a.manager.AddTodo(ctx, input)
			if err != nil {
				return fmt.Errorf("failed to add todo: %w", err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), todo)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", shortID(todo.ID))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Longer description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium, high or urgent (default medium)")
	cmd.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Tag (repeatable or comma separated)")

	return cmd
}

// NewListCmd creates the list command
func NewListCmd(opts *globalOptions) *cobra.Command {
	var filter models.TodoFilter
	var status, priority, sortBy, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		Long:  "List todos, optionally filtered by status, priority, tag or text and sorted by any field",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			filter.Status = models.StatusFilter(status)
			filter.Priority = models.Priority(priority)
			if err := a.manager.SetFilter(filter); err != nil {
				return fmt.Errorf("invalid filter: %w", err)
			}
			if err := a.manager.SetSort(models.TodoSort{By: models.SortField(sortBy), Order: models.SortOrder(order)}); err != nil {
				return fmt.Errorf("invalid sort: %w", err)
			}

			view := a.manager.View()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), view)
			}
			return printTodos(cmd.OutOrStdout(), view)
		}),
	}

	cmd.Flags().StringVar(&status, "status", string(models.StatusAll), "all, completed or pending")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Only this priority")
	cmd.Flags().StringVarP(&filter.Tag, "tag", "t", "", "Only todos with a tag containing this text")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Only todos whose title or description contains this text")
	cmd.Flags().StringVar(&sortBy, "sort", string(models.SortByCreatedAt), "createdAt, updatedAt, dueDate, priority or title")
	cmd.Flags().StringVar(&order, "order", string(models.SortDesc), "asc or desc")

	return cmd
}

// NewUpdateCmd creates the update command. Only flags that are set are changed.
func NewUpdateCmd(opts *globalOptions) *cobra.Command {
	var title, description, priority, due string
	var completed, clearDue bool
	var tags []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var input models.UpdateTodoInput
			if flags.Changed("title") {
				input.Title = &title
			}
			if flags.Changed("description") {
				input.Description = &description
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				input.Priority = &p
			}
			if flags.Changed("completed") {
				input.Completed = &completed
			}
			if flags.Changed("due") {
				dueDate, err := parseDueDate(due)
				if err != nil {
					return err
				}
				input.DueDate = dueDate
			}
			input.ClearDueDate = clearDue
			if flags.Changed("tag") {
				input.Tags = tags
				if input.Tags == nil {
					input.Tags = []string{}
				}
			}
			if input.IsEmpty() {
				return errors.New("nothing to update")
			}

			todo, err := a.manager.UpdateTodo(ctx, id, input)
			if err != nil {
				return notFoundHint(args[0], err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), todo)
			}
			printTodo(cmd.OutOrStdout(), todo)
			return nil
		}),
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority")
	cmd.Flags().BoolVar(&completed, "completed", false, "Set the completion flag (no XP is awarded; use toggle)")
	cmd.Flags().StringVar(&due, "due", "", "New due date")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace tags (pass --tag= to clear)")

	return cmd
}

// NewToggleCmd creates the toggle command
func NewToggleCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between pending and completed",
		Long:  "Flip a todo between pending and completed. Completing a todo feeds your cat.",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}

			stageBefore := a.pet.CurrentStage()
			todo, err := a.manager.ToggleTodo(ctx, id)
			if err != nil {
				return notFoundHint(args[0], err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), todo)
			}
			out := cmd.OutOrStdout()
			if todo.Completed {
				fmt.Fprintf(out, "Completed %q (cat xp %d)\n", todo.Title, a.pet.CurrentXP())
				if stage := a.pet.CurrentStage(); stage > stageBefore {
					fmt.Fprintf(out, "Your cat grew to stage %d!\n", stage)
				}
			} else {
				fmt.Fprintf(out, "Reopened %q\n", todo.Title)
			}
			return nil
		}),
	}
}

// NewDeleteCmd creates the delete command
func NewDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			id, err := a.resolveID(args[0])
			if err != nil {
				return err
			}
			if err := a.manager.DeleteTodo(ctx, id); err != nil {
				return fmt.Errorf("failed to delete todo: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", shortID(id))
			return nil
		}),
	}
}

// NewClearCompletedCmd creates the clear-completed command
func NewClearCompletedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			before := len(a.manager.Todos())
			if err := a.manager.ClearCompleted(ctx); err != nil {
				return fmt.Errorf("failed to clear completed todos: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed todos\n", before-len(a.manager.Todos()))
			return nil
		}),
	}
}

// NewStatsCmd creates the stats command
func NewStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: run(opts, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			stats := a.manager.Stats()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return printStats(cmd.OutOrStdout(), stats)
		}),
	}
}

func notFoundHint(arg string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("no todo with id %q: %w", arg, err)
	}
	return err
}
