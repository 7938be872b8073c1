package controller

import (
	"strings"

	"metrologi/internal/permohonan/models"
)

// Filter returns the requests matching every clause of q, in their original
// order. The text clause is a case-insensitive substring over applicant name,
// email, equipment type and equipment brand.
func Filter(items []models.ServiceRequest, q models.Query) []models.ServiceRequest {
	text := strings.ToLower(q.Text)
	statusAll := isAll(q.Status)
	kindAll := isAll(q.Kind)

	var kind models.Kind
	if !kindAll {
		parsed, err := models.ParseKind(q.Kind)
		if err != nil {
			return []models.ServiceRequest{}
		}
		kind = parsed
	}

	out := make([]models.ServiceRequest, 0, len(items))
	for _, r := range items {
		if !matchesText(r, text) {
			continue
		}
		if !statusAll && string(r.Status) != q.Status {
			continue
		}
		if !kindAll && r.Kind != kind {
			continue
		}
		out = append(out, r)
	}
	return out
}

func isAll(v string) bool {
	return v == "" || v == models.FilterAll
}

func matchesText(r models.ServiceRequest, lowered string) bool {
	if lowered == "" {
		return true
	}
	for _, field := range []string{r.ApplicantName, r.Email, r.EquipmentType, r.EquipmentBrand} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// TotalPages is ceil(n / pageSize).
func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the slice [(page-1)*pageSize, page*pageSize) of filtered
// after clamping page, along with the page actually used.
func Paginate(filtered []models.ServiceRequest, pageSize, page int) ([]models.ServiceRequest, int) {
	if pageSize <= 0 {
		return []models.ServiceRequest{}, 1
	}
	page = ClampPage(page, TotalPages(len(filtered), pageSize))
	start := (page - 1) * pageSize
	if start >= len(filtered) {
		return []models.ServiceRequest{}, page
	}
	end := min(start+pageSize, len(filtered))
	return filtered[start:end], page
}

// ComputeStats counts requests per status.
func ComputeStats(items []models.ServiceRequest) models.Stats {
	stats := models.Stats{Total: len(items)}
	for _, r := range items {
		switch r.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusProcessing:
			stats.Processing++
		case models.StatusApproved:
			stats.Approved++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}

// BuildPage derives one page of the filtered view from items.
func BuildPage(items []models.ServiceRequest, q models.Query, pageSize, page int) models.Page {
	filtered := Filter(items, q)
	pageItems, used := Paginate(filtered, pageSize, page)
	return models.Page{
		Items:         pageItems,
		Page:          used,
		PageSize:      pageSize,
		TotalPages:    TotalPages(len(filtered), pageSize),
		FilteredCount: len(filtered),
		TotalCount:    len(items),
	}
}
