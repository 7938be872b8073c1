// Package models holds the admin dashboard summary.
package models

import (
	"time"

	pelakumodels "metrologi/internal/pelakuusaha/models"
)

// RecentLimit is the number of newest businesses shown on the dashboard.
const RecentLimit = 5

// Summary is the dashboard payload.
type Summary struct {
	TotalBusinesses        int              `json:"total_pelaku_usaha"`
	TotalUTTP              int              `json:"total_uttp"`
	RecalibrationThisMonth int              `json:"tera_ulang_bulan_ini"`
	NewBusinessesThisMonth int              `json:"pelaku_baru_bulan_ini"`
	Recent                 []RecentBusiness `json:"terbaru"`
	GeneratedAt            time.Time        `json:"generated_at"`
}

type RecentBusiness struct {
	ID        int64                          `json:"id"`
	OwnerName string                         `json:"nama_pemilik"`
	StallKind pelakumodels.StallKind         `json:"jenis_lapak"`
	Location  string                         `json:"lokasi"`
	UTTPCount int                            `json:"uttp_count"`
	Status    pelakumodels.CalibrationStatus `json:"status_tera"`
	CreatedAt time.Time                      `json:"created_at"`
}

func NewRecentBusiness(p pelakumodels.PelakuUsaha) RecentBusiness {
	return RecentBusiness{
		ID:        p.ID,
		OwnerName: p.OwnerName,
		StallKind: p.StallKind,
		Location:  p.Location,
		UTTPCount: p.UTTPCount(),
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

// MonthStart returns midnight on the first day of now's month, in now's location.
func MonthStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
}
