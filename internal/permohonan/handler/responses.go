package handler

import (
	"metrologi/internal/permohonan/models"
	"metrologi/pkg/platform/httputil"
)

// RefreshResponse reports the outcome of a manual reload.
type RefreshResponse struct {
	Refreshed bool         `json:"refreshed"`
	Stats     models.Stats `json:"stats"`
	Notice    string       `json:"notice,omitempty"`
}

// ProcessResponse reports an accepted process action. Applied always holds
// the written status, note and processed time. Request is the reloaded row
// and is omitted when Reloaded is false.
type ProcessResponse struct {
	Processed bool                   `json:"processed"`
	Reloaded  bool                   `json:"reloaded"`
	Applied   models.ProcessUpdate   `json:"applied"`
	Request   *models.ServiceRequest `json:"request,omitempty"`
}

// ProcessErrorResponse is the error envelope plus the retained draft.
type ProcessErrorResponse struct {
	httputil.ErrorResponse
	Draft *models.Draft `json:"draft,omitempty"`
}
