package models

// StatusFilter selects todos by completion flag
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// TodoFilter narrows a collection. Zero-valued fields are inactive; active ones are ANDed.
type TodoFilter struct {
	Status   StatusFilter `json:"status,omitempty" yaml:"status" validate:"omitempty,oneof=all completed pending"`
	Priority Priority     `json:"priority,omitempty" yaml:"priority" validate:"omitempty,priority"`
	Tag      string       `json:"tag,omitempty" yaml:"tag"`
	Search   string       `json:"search,omitempty" yaml:"search"`
}

// DefaultFilter returns the filter a fresh view starts with
func DefaultFilter() TodoFilter {
	return TodoFilter{Status: StatusAll}
}

// SortField is the attribute a view is ordered by
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByTitle     SortField = "title"
)

// SortOrder is the direction of a sort
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TodoSort configures the ordering of a view
type TodoSort struct {
	By    SortField `json:"by" yaml:"by" validate:"omitempty,oneof=createdAt updatedAt dueDate priority title"`
	Order SortOrder `json:"order" yaml:"order" validate:"omitempty,oneof=asc desc"`
}

// DefaultSort returns newest-first ordering
func DefaultSort() TodoSort {
	return TodoSort{By: SortByCreatedAt, Order: SortDesc}
}

// Normalize fills empty fields with their defaults
func (s TodoSort) Normalize() TodoSort {
	if s.By == "" {
		s.By = SortByCreatedAt
	}
	if s.Order == "" {
		s.Order = SortDesc
	}
	return s
}

// TodoStats aggregates a full collection
type TodoStats struct {
	Total          int              `json:"total"`
	Completed      int              `json:"completed"`
	Pending        int              `json:"pending"`
	CompletionRate float64          `json:"completionRate"`
	ByPriority     map[Priority]int `json:"byPriority"`
	ByTag          map[string]int   `json:"byTag"`
}
