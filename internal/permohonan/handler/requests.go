package handler

import (
	"net/http"
	"strconv"
	"strings"

	"metrologi/internal/permohonan/models"
	dErrors "metrologi/pkg/domain-errors"
)

// ProcessRequest is the HTTP request body for POST /admin/permohonan/{id}/process.
type ProcessRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`

	parsedStatus models.Status
}

// Validate implements httputil.Validatable. A missing status is rejected here,
// before the service or store is called.
func (r *ProcessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Note) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "note must be at most 2000 characters")
	}
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	if !status.IsProcessTarget() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of processing, approved, rejected")
	}
	r.parsedStatus = status
	return nil
}

type listParams struct {
	Query    models.Query
	Page     int
	PageSize int
}

func parseListParams(r *http.Request) (listParams, error) {
	v := r.URL.Query()
	p := listParams{
		Query: models.Query{
			Text:   v.Get("q"),
			Status: defaultAll(v.Get("status")),
			Kind:   defaultAll(v.Get("kind")),
		},
		Page: 1,
	}
	if raw := v.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return listParams{}, dErrors.New(dErrors.CodeBadRequest, "page must be an integer")
		}
		p.Page = n
	}
	if raw := v.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return listParams{}, dErrors.New(dErrors.CodeBadRequest, "page_size must be a positive integer")
		}
		p.PageSize = n
	}
	return p, nil
}

func defaultAll(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return models.FilterAll
	}
	return v
}
