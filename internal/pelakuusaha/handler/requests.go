package handler

import (
	"net/http"
	"strings"
	"time"

	"metrologi/internal/pelakuusaha/models"
	dErrors "metrologi/pkg/domain-errors"
	"metrologi/pkg/platform/validation"
)

const dateLayout = "2006-01-02"

// UTTPRequest is one instrument slot in an upsert body.
type UTTPRequest struct {
	Type            string `json:"jenis" validate:"required,max=100"`
	Brand           string `json:"merk" validate:"max=100"`
	Condition       string `json:"kondisi" validate:"omitempty,oneof=Baik Rusak"`
	CalibrationYear *int   `json:"tahun_tera" validate:"omitempty,min=1900,max=2100"`
}

// CountsRequest carries instrument counts per class.
type CountsRequest struct {
	TE  int `json:"te" validate:"gte=0"`
	TM  int `json:"tm" validate:"gte=0"`
	CB  int `json:"cb" validate:"gte=0"`
	TBI int `json:"tbi" validate:"gte=0"`
	TF  int `json:"tf" validate:"gte=0"`
	DL  int `json:"dl" validate:"gte=0"`
	AT  int `json:"at" validate:"gte=0"`
}

// UpsertRequest is the body of POST and PUT /admin/pelaku-usaha.
type UpsertRequest struct {
	OwnerName         string        `json:"nama_pemilik" validate:"required,max=200"`
	StallKind         string        `json:"jenis_lapak" validate:"required,oneof=Kios Los PKL"`
	Location          string        `json:"lokasi" validate:"max=300"`
	Goods             string        `json:"jenis_dagangan" validate:"max=200"`
	UTTP              []UTTPRequest `json:"uttp" validate:"max=3,dive"`
	Counts            CountsRequest `json:"jumlah"`
	Note              string        `json:"keterangan" validate:"max=2000"`
	LastCalibration   string        `json:"tanggal_tera_ulang" validate:"omitempty,datetime=2006-01-02"`
	CalibrationExpiry string        `json:"masa_berlaku_tera" validate:"omitempty,datetime=2006-01-02"`
	Status            string        `json:"status_tera" validate:"omitempty,oneof='Aktif' 'Perlu Tera Ulang' 'Tidak Aktif'"`
}

// Validate implements httputil.Validatable.
func (r *UpsertRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.OwnerName = strings.TrimSpace(r.OwnerName)
	r.Location = strings.TrimSpace(r.Location)
	r.Goods = strings.TrimSpace(r.Goods)
	for i := range r.UTTP {
		r.UTTP[i].Type = strings.TrimSpace(r.UTTP[i].Type)
		r.UTTP[i].Brand = strings.TrimSpace(r.UTTP[i].Brand)
	}
	return validation.Struct(r)
}

// ToModel converts a validated request. Dates were checked by Validate.
func (r *UpsertRequest) ToModel() *models.PelakuUsaha {
	p := &models.PelakuUsaha{
		OwnerName: r.OwnerName,
		StallKind: models.StallKind(r.StallKind),
		Location:  r.Location,
		Goods:     r.Goods,
		Note:      strings.TrimSpace(r.Note),
		Status:    models.CalibrationStatus(r.Status),
		Counts: models.Counts{
			TE: r.Counts.TE, TM: r.Counts.TM, CB: r.Counts.CB, TBI: r.Counts.TBI,
			TF: r.Counts.TF, DL: r.Counts.DL, AT: r.Counts.AT,
		},
		LastCalibration:   parseDate(r.LastCalibration),
		CalibrationExpiry: parseDate(r.CalibrationExpiry),
	}
	for _, u := range r.UTTP {
		p.UTTP = append(p.UTTP, models.UTTP{
			Type:            u.Type,
			Brand:           u.Brand,
			Condition:       models.Condition(u.Condition),
			CalibrationYear: u.CalibrationYear,
		})
	}
	return p
}

func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

func parseQuery(r *http.Request) models.Query {
	v := r.URL.Query()
	return models.Query{
		Text:      strings.TrimSpace(v.Get("q")),
		StallKind: defaultAll(v.Get("jenis_lapak")),
		Status:    defaultAll(v.Get("status")),
	}
}

func defaultAll(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return models.FilterAll
	}
	return v
}
