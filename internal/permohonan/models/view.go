package models

import "time"

// FilterAll matches every status or kind.
const FilterAll = "all"

// Query selects a subset of the snapshot. Empty or FilterAll filters match everything.
type Query struct {
	Text   string `json:"q"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

// Page is one paginated view of a filtered snapshot.
type Page struct {
	Items         []ServiceRequest `json:"items"`
	Page          int              `json:"page"`
	PageSize      int              `json:"page_size"`
	TotalPages    int              `json:"total_pages"`
	FilteredCount int              `json:"filtered_count"`
	TotalCount    int              `json:"total_count"`
}

// Stats counts requests per status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
}

// Notice is a transient, non-fatal failure surfaced to the admin.
type Notice struct {
	Operation string    `json:"operation"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Draft keeps the values of a failed process action so the admin can retry.
type Draft struct {
	RequestID int64     `json:"request_id"`
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	Error     string    `json:"error"`
	FailedAt  time.Time `json:"failed_at"`
}

// ListResult is what the admin list endpoint returns.
type ListResult struct {
	Page
	Stats    Stats     `json:"stats"`
	Notice   *Notice   `json:"notice,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}
