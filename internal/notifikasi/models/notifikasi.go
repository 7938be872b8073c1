// Package models holds admin notifications.
package models

import (
	"strconv"
	"time"
)

type Kind string

const (
	KindNewRequest    Kind = "permohonan_baru"
	KindExpiryWarning Kind = "tera_exp_warning"
	KindExpired       Kind = "tera_expired"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindNewRequest, KindExpiryWarning, KindExpired:
		return true
	}
	return false
}

// Notification is one message in the admin bell.
//
// Invariants:
//   - at most one notification per (PelakuUsahaID, Kind, ExpiryDate) and per (PermohonanID, Kind)
//   - Read only moves from false to true
type Notification struct {
	ID            int64  `json:"id"`
	Kind          Kind   `json:"jenis"`
	Title         string `json:"judul"`
	Message       string `json:"pesan"`
	PelakuUsahaID *int64 `json:"pelaku_usaha_id,omitempty"`
	PermohonanID  *int64 `json:"permohonan_id,omitempty"`
	// ExpiryDate is the calibration expiry an expiry notification refers to.
	ExpiryDate *time.Time `json:"tanggal_kedaluwarsa,omitempty"`
	Read       bool       `json:"dibaca"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ExpiryDateLayout is the calendar-day form of ExpiryDate used for dedupe.
const ExpiryDateLayout = "2006-01-02"

// DedupeKey identifies the subject a notification is about. Notifications
// with equal keys are duplicates. Business notifications are keyed by the
// expiry they refer to, so a renewed calibration is notified again.
func (n *Notification) DedupeKey() (string, bool) {
	switch {
	case n.PelakuUsahaID != nil:
		key := "pelaku:" + string(n.Kind) + ":" + strconv.FormatInt(*n.PelakuUsahaID, 10)
		if n.ExpiryDate != nil {
			key += ":" + n.ExpiryDate.Format(ExpiryDateLayout)
		}
		return key, true
	case n.PermohonanID != nil:
		return "permohonan:" + string(n.Kind) + ":" + strconv.FormatInt(*n.PermohonanID, 10), true
	}
	return "", false
}

func (n Notification) Clone() Notification {
	out := n
	if n.PelakuUsahaID != nil {
		v := *n.PelakuUsahaID
		out.PelakuUsahaID = &v
	}
	if n.PermohonanID != nil {
		v := *n.PermohonanID
		out.PermohonanID = &v
	}
	if n.ExpiryDate != nil {
		v := *n.ExpiryDate
		out.ExpiryDate = &v
	}
	return out
}

// Summary is the bell badge.
type Summary struct {
	Unread int `json:"unread"`
	Total  int `json:"total"`
}
