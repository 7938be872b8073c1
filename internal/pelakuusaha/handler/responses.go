package handler

import "metrologi/internal/pelakuusaha/models"

// PelakuResponse adds the derived instrument count to a business.
type PelakuResponse struct {
	models.PelakuUsaha
	UTTPCount int `json:"uttp_count"`
}

// ListResponse is the body of GET /admin/pelaku-usaha.
type ListResponse struct {
	Items []PelakuResponse `json:"items"`
	Count int              `json:"count"`
}

// UTTPListResponse is the body of GET /admin/pelaku-usaha/uttp.
type UTTPListResponse struct {
	Items []models.Equipment `json:"items"`
	Count int                `json:"count"`
}

func toResponse(p models.PelakuUsaha) PelakuResponse {
	return PelakuResponse{PelakuUsaha: p, UTTPCount: p.UTTPCount()}
}
