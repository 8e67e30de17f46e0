package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/benvon/todo-pet/internal/models"
)

// isolate keeps the user's real config and env out of the test
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"TODOPET_CONFIG", "TODOPET_STORE_BACKEND", "TODOPET_STORE_PATH", "TODOPET_STORE_URL", "TODOPET_LOG_FORMAT", "TODOPET_XP_PER_COMPLETION", "OTEL_ENABLED"} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return t.TempDir()
}

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--backend", "file", "--path", dir}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := execute(t, dir, args...)
	if err != nil {
		t.Fatalf("todoctl %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestTodoctl_Lifecycle(t *testing.T) {
	dir := isolate(t)

	var added models.Todo
	out := mustExecute(t, dir, "--json", "add", "Buy milk", "--priority", "high", "--tag", "errands,home", "--due", "2030-01-15")
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("Expected JSON todo, got %q: %v", out, err)
	}
	if added.Title != "Buy milk" || added.Priority != models.PriorityHigh || len(added.Tags) != 2 || added.DueDate == nil {
		t.Errorf("Unexpected todo %+v", added)
	}
	mustExecute(t, dir, "add", "Call mom")

	out = mustExecute(t, dir, "list", "--sort", "title", "--order", "asc")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "Call mom") {
		t.Errorf("Expected both todos listed, got %q", out)
	}
	if strings.Index(out, "Buy milk") > strings.Index(out, "Call mom") {
		t.Errorf("Expected title ascending order, got %q", out)
	}

	out = mustExecute(t, dir, "toggle", shortID(added.ID))
	if !strings.Contains(out, "Completed") {
		t.Errorf("Expected completion message, got %q", out)
	}

	var status petStatus
	out = mustExecute(t, dir, "--json", "pet")
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("Expected JSON pet status, got %q: %v", out, err)
	}
	if status.XP != 5 || status.Stage != 0 || status.NextStageXP != 10 {
		t.Errorf("Expected xp=5 stage=0 next=10, got %+v", status)
	}

	var stats models.TodoStats
	out = mustExecute(t, dir, "--json", "stats")
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("Expected JSON stats, got %q: %v", out, err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.CompletionRate != 50 {
		t.Errorf("Expected 2 total, 1 completed, 50%%, got %+v", stats)
	}

	out = mustExecute(t, dir, "list", "--status", "pending")
	if strings.Contains(out, "Buy milk") || !strings.Contains(out, "Call mom") {
		t.Errorf("Expected only the pending todo, got %q", out)
	}

	mustExecute(t, dir, "clear-completed")
	out = mustExecute(t, dir, "list")
	if strings.Contains(out, "Buy milk") {
		t.Errorf("Expected completed todo cleared, got %q", out)
	}

	out = mustExecute(t, dir, "storage", "size")
	if strings.HasPrefix(out, "0 bytes") {
		t.Errorf("Expected a non-empty collection, got %q", out)
	}

	mustExecute(t, dir, "storage", "clear", "--all")
	out = mustExecute(t, dir, "list")
	if !strings.Contains(out, "No todos") {
		t.Errorf("Expected empty list after clear, got %q", out)
	}
	out = mustExecute(t, dir, "--json", "pet")
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("Expected JSON pet status: %v", err)
	}
	if status.XP != 0 {
		t.Errorf("Expected pet reset, got xp %d", status.XP)
	}
}

func TestTodoctl_Update(t *testing.T) {
	dir := isolate(t)

	var added models.Todo
	out := mustExecute(t, dir, "--json", "add", "Draft", "--due", "2030-02-01", "--tag", "work")
	if err := json.Unmarshal([]byte(out), &added); err != nil {
		t.Fatalf("Expected JSON todo: %v", err)
	}

	var updated models.Todo
	out = mustExecute(t, dir, "--json", "update", added.ID, "--title", "Final", "--clear-due", "--tag=")
	if err := json.Unmarshal([]byte(out), &updated); err != nil {
		t.Fatalf("Expected JSON todo, got %q: %v", out, err)
	}
	if updated.Title != "Final" || updated.DueDate != nil || len(updated.Tags) != 0 {
		t.Errorf("Expected title changed, due and tags cleared, got %+v", updated)
	}

	if _, err := execute(t, dir, "update", added.ID); err == nil {
		t.Errorf("Expected an error when no fields are given")
	}
	if _, err := execute(t, dir, "update", added.ID, "--title", "   "); err == nil {
		t.Errorf("Expected a validation error for a blank title")
	}
}

func TestTodoctl_Errors(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"blank title", []string{"add", "  "}},
		{"bad priority", []string{"add", "x", "--priority", "someday"}},
		{"bad due date", []string{"add", "x", "--due", "tomorrow"}},
		{"toggle unknown id", []string{"toggle", "does-not-exist"}},
		{"bad status filter", []string{"list", "--status", "later"}},
		{"bad sort", []string{"list", "--sort", "color"}},
		{"bad xp amount", []string{"pet", "add-xp", "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, dir, tt.args...); err == nil {
				t.Errorf("Expected todoctl %s to fail", strings.Join(tt.args, " "))
			}
		})
	}

	if _, err := execute(t, dir, "delete", "does-not-exist"); err != nil {
		t.Errorf("Expected delete of an unknown id to succeed, got %v", err)
	}
}

func TestTodoctl_PetAddXP(t *testing.T) {
	dir := isolate(t)

	out := mustExecute(t, dir, "pet", "add-xp", "27")
	if !strings.Contains(out, "XP is now 27 (stage 2)") {
		t.Errorf("Expected xp 27 at stage 2, got %q", out)
	}
	out = mustExecute(t, dir, "pet")
	if !strings.Contains(out, "Adult cat") || !strings.Contains(out, "27 / 50") {
		t.Errorf("Expected adult cat with 27/50, got %q", out)
	}
}

func TestParseDueDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value       string
		expectError bool
	}{
		{"2030-01-15", false},
		{"2030-01-15T09:30:00Z", false},
		{"2030-01-15T09:30:00+02:00", false},
		{"15/01/2030", true},
		{"", true},
	}

	for _, tt := range tests {
		_, err := parseDueDate(tt.value)
		if (err != nil) != tt.expectError {
			t.Errorf("parseDueDate(%q) error = %v, expectError %v", tt.value, err, tt.expectError)
		}
	}
}
