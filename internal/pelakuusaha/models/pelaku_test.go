package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(y int) *int { return &y }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sample() []PelakuUsaha {
	return []PelakuUsaha{
		{ID: 3, OwnerName: "Siti Aminah", StallKind: StallKios, Location: "Pasar Baru Blok A", Status: StatusActive},
		{ID: 2, OwnerName: "Budi Santoso", StallKind: StallLos, Location: "Pasar Minggu", Status: StatusNeedsRecalibrate},
		{ID: 1, OwnerName: "Wayan", StallKind: StallPKL, Location: "Jl. Baru", Status: StatusInactive},
	}
}

func ids(items []PelakuUsaha) []int64 {
	out := make([]int64, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []int64
	}{
		{"empty query keeps everything", Query{}, []int64{3, 2, 1}},
		{"semua matches every value", Query{StallKind: FilterAll, Status: FilterAll}, []int64{3, 2, 1}},
		{"text matches owner or location", Query{Text: "baru"}, []int64{3, 1}},
		{"text is case-insensitive", Query{Text: "BUDI"}, []int64{2}},
		{"stall kind is exact", Query{StallKind: "Los"}, []int64{2}},
		{"status is exact", Query{Status: "Tidak Aktif"}, []int64{1}},
		{"predicates are combined", Query{Text: "baru", StallKind: "PKL"}, []int64{1}},
		{"no match", Query{Text: "zzz"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample(), tt.q)))
		})
	}
}

func TestCheckInvariants(t *testing.T) {
	valid := func() PelakuUsaha {
		return PelakuUsaha{
			OwnerName: "Siti",
			StallKind: StallKios,
			Status:    StatusActive,
			UTTP:      []UTTP{{Type: "Timbangan", CalibrationYear: year(2023)}},
		}
	}

	p := valid()
	require.NoError(t, p.CheckInvariants())

	t.Run("four instruments", func(t *testing.T) {
		p := valid()
		p.UTTP = append(p.UTTP, UTTP{Type: "a"}, UTTP{Type: "b"}, UTTP{Type: "c"})
		assert.Error(t, p.CheckInvariants())
	})
	t.Run("instrument without type", func(t *testing.T) {
		p := valid()
		p.UTTP[0].Type = " "
		assert.Error(t, p.CheckInvariants())
	})
	t.Run("negative count", func(t *testing.T) {
		p := valid()
		p.Counts.TF = -1
		assert.Error(t, p.CheckInvariants())
	})
	t.Run("expiry before last calibration", func(t *testing.T) {
		p := valid()
		p.LastCalibration = date(2024, 5, 1)
		p.CalibrationExpiry = date(2024, 4, 1)
		assert.Error(t, p.CheckInvariants())
	})
	t.Run("unknown stall kind", func(t *testing.T) {
		p := valid()
		p.StallKind = "Ruko"
		assert.Error(t, p.CheckInvariants())
	})
}

func TestExpiryStateAt(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour

	p := PelakuUsaha{}
	assert.Equal(t, ExpiryUnknown, p.ExpiryStateAt(now, window))

	p.CalibrationExpiry = date(2024, 12, 1)
	assert.Equal(t, ExpiryValid, p.ExpiryStateAt(now, window))

	p.CalibrationExpiry = date(2024, 6, 20)
	assert.Equal(t, ExpiryWarning, p.ExpiryStateAt(now, window))

	p.CalibrationExpiry = date(2024, 5, 31)
	assert.Equal(t, ExpiryPassed, p.ExpiryStateAt(now, window))
}

func TestLastCalibrationYear(t *testing.T) {
	p := PelakuUsaha{UTTP: []UTTP{{Type: "a", CalibrationYear: year(2021)}, {Type: "b", CalibrationYear: year(2023)}, {Type: "c"}}}
	assert.Equal(t, 2023, p.LastCalibrationYear())

	p.LastCalibration = date(2024, 1, 10)
	assert.Equal(t, 2024, p.LastCalibrationYear())
}

func TestFlattenAndClone(t *testing.T) {
	p := PelakuUsaha{ID: 7, OwnerName: "Siti", UTTP: []UTTP{{Type: "Timbangan"}, {Type: "Meteran", CalibrationYear: year(2022)}}}
	flat := Flatten([]PelakuUsaha{p})
	require.Len(t, flat, 2)
	assert.Equal(t, 2, flat[1].Slot)
	assert.Equal(t, "Meteran", flat[1].Type)
	assert.Equal(t, int64(7), flat[1].PelakuUsahaID)

	cp := p.Clone()
	*cp.UTTP[1].CalibrationYear = 1999
	cp.UTTP[0].Type = "changed"
	assert.Equal(t, 2022, *p.UTTP[1].CalibrationYear)
	assert.Equal(t, "Timbangan", p.UTTP[0].Type)
}

func TestCountsTotal(t *testing.T) {
	assert.Equal(t, 28, Counts{TE: 1, TM: 2, CB: 3, TBI: 4, TF: 5, DL: 6, AT: 7}.Total())
}
