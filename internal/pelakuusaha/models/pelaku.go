// Package models holds the business registry (pelaku usaha) and the
// measuring equipment (UTTP) registered against each business.
package models

import (
	"strings"
	"time"

	dErrors "metrologi/pkg/domain-errors"
)

// FilterAll is the list filter value that matches every stall kind or status.
const FilterAll = "semua"

// MaxUTTPSlots is how many equipment items one business can register.
const MaxUTTPSlots = 3

type StallKind string

const (
	StallKios StallKind = "Kios"
	StallLos  StallKind = "Los"
	StallPKL  StallKind = "PKL"
)

func (k StallKind) IsValid() bool {
	switch k {
	case StallKios, StallLos, StallPKL:
		return true
	}
	return false
}

// CalibrationStatus is the tera status of a business.
type CalibrationStatus string

const (
	StatusActive           CalibrationStatus = "Aktif"
	StatusNeedsRecalibrate CalibrationStatus = "Perlu Tera Ulang"
	StatusInactive         CalibrationStatus = "Tidak Aktif"
)

func (s CalibrationStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusNeedsRecalibrate, StatusInactive:
		return true
	}
	return false
}

type Condition string

const (
	ConditionGood   Condition = "Baik"
	ConditionBroken Condition = "Rusak"
)

// UTTP is one registered measuring instrument (ukur, takar, timbang dan perlengkapannya).
type UTTP struct {
	Type            string    `json:"jenis"`
	Brand           string    `json:"merk,omitempty"`
	Condition       Condition `json:"kondisi,omitempty"`
	CalibrationYear *int      `json:"tahun_tera,omitempty"`
}

// Counts tallies instruments per class: timbangan elektronik, timbangan
// meja, ..., alat takar.
type Counts struct {
	TE  int `json:"te"`
	TM  int `json:"tm"`
	CB  int `json:"cb"`
	TBI int `json:"tbi"`
	TF  int `json:"tf"`
	DL  int `json:"dl"`
	AT  int `json:"at"`
}

func (c Counts) Total() int {
	return c.TE + c.TM + c.CB + c.TBI + c.TF + c.DL + c.AT
}

func (c Counts) hasNegative() bool {
	for _, v := range []int{c.TE, c.TM, c.CB, c.TBI, c.TF, c.DL, c.AT} {
		if v < 0 {
			return true
		}
	}
	return false
}

// PelakuUsaha is one registered business.
//
// Invariants:
//   - at most MaxUTTPSlots instruments, each with a type
//   - StallKind and Status are known values
//   - CalibrationExpiry, when set, is not before LastCalibration
type PelakuUsaha struct {
	ID                int64             `json:"id"`
	OwnerName         string            `json:"nama_pemilik"`
	StallKind         StallKind         `json:"jenis_lapak"`
	Location          string            `json:"lokasi"`
	Goods             string            `json:"jenis_dagangan"`
	UTTP              []UTTP            `json:"uttp"`
	Counts            Counts            `json:"jumlah"`
	Note              string            `json:"keterangan,omitempty"`
	LastCalibration   *time.Time        `json:"tanggal_tera_ulang,omitempty"`
	CalibrationExpiry *time.Time        `json:"masa_berlaku_tera,omitempty"`
	Status            CalibrationStatus `json:"status_tera"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// UTTPCount is the number of registered instruments.
func (p *PelakuUsaha) UTTPCount() int {
	return len(p.UTTP)
}

// LastCalibrationYear is the year shown in exports; zero when unknown.
func (p *PelakuUsaha) LastCalibrationYear() int {
	if p.LastCalibration != nil {
		return p.LastCalibration.Year()
	}
	latest := 0
	for _, u := range p.UTTP {
		if u.CalibrationYear != nil && *u.CalibrationYear > latest {
			latest = *u.CalibrationYear
		}
	}
	return latest
}

func (p *PelakuUsaha) CheckInvariants() error {
	if strings.TrimSpace(p.OwnerName) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "owner name is required")
	}
	if !p.StallKind.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid stall kind")
	}
	if !p.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid calibration status")
	}
	if len(p.UTTP) > MaxUTTPSlots {
		return dErrors.New(dErrors.CodeInvariantViolation, "too many instruments")
	}
	for _, u := range p.UTTP {
		if strings.TrimSpace(u.Type) == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "instrument type is required")
		}
	}
	if p.Counts.hasNegative() {
		return dErrors.New(dErrors.CodeInvariantViolation, "instrument counts cannot be negative")
	}
	if p.LastCalibration != nil && p.CalibrationExpiry != nil && p.CalibrationExpiry.Before(*p.LastCalibration) {
		return dErrors.New(dErrors.CodeInvariantViolation, "calibration expiry is before the last calibration")
	}
	return nil
}

// Clone returns a deep copy.
func (p PelakuUsaha) Clone() PelakuUsaha {
	out := p
	if p.UTTP != nil {
		out.UTTP = make([]UTTP, len(p.UTTP))
		for i, u := range p.UTTP {
			if u.CalibrationYear != nil {
				y := *u.CalibrationYear
				u.CalibrationYear = &y
			}
			out.UTTP[i] = u
		}
	}
	if p.LastCalibration != nil {
		t := *p.LastCalibration
		out.LastCalibration = &t
	}
	if p.CalibrationExpiry != nil {
		t := *p.CalibrationExpiry
		out.CalibrationExpiry = &t
	}
	return out
}

// ExpiryState classifies CalibrationExpiry relative to now.
type ExpiryState int

const (
	ExpiryUnknown ExpiryState = iota
	ExpiryValid
	ExpiryWarning
	ExpiryPassed
)

// ExpiryStateAt reports whether the calibration has expired at now or expires
// within window.
func (p *PelakuUsaha) ExpiryStateAt(now time.Time, window time.Duration) ExpiryState {
	if p.CalibrationExpiry == nil {
		return ExpiryUnknown
	}
	expiry := *p.CalibrationExpiry
	switch {
	case !now.Before(expiry):
		return ExpiryPassed
	case expiry.Sub(now) <= window:
		return ExpiryWarning
	default:
		return ExpiryValid
	}
}

// Equipment is one row of the flat instrument list (daftar alat).
type Equipment struct {
	PelakuUsahaID int64  `json:"pelaku_usaha_id"`
	OwnerName     string `json:"nama_pemilik"`
	Location      string `json:"lokasi"`
	Slot          int    `json:"slot"`
	UTTP
}

// Query selects businesses for the admin list.
type Query struct {
	Text      string
	StallKind string
	Status    string
}

// Filter keeps businesses whose owner name or location contains the text
// (case-insensitive) and whose stall kind and status match. Order is preserved.
func Filter(items []PelakuUsaha, q Query) []PelakuUsaha {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	out := make([]PelakuUsaha, 0, len(items))
	for _, p := range items {
		if text != "" &&
			!strings.Contains(strings.ToLower(p.OwnerName), text) &&
			!strings.Contains(strings.ToLower(p.Location), text) {
			continue
		}
		if !matches(q.StallKind, string(p.StallKind)) || !matches(q.Status, string(p.Status)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(filter, value string) bool {
	return filter == "" || filter == FilterAll || filter == value
}

// Flatten lists every instrument of items in slot order.
func Flatten(items []PelakuUsaha) []Equipment {
	var out []Equipment
	for _, p := range items {
		for i, u := range p.UTTP {
			out = append(out, Equipment{
				PelakuUsahaID: p.ID,
				OwnerName:     p.OwnerName,
				Location:      p.Location,
				Slot:          i + 1,
				UTTP:          u,
			})
		}
	}
	return out
}
