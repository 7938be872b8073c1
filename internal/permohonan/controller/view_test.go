package controller

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrologi/internal/permohonan/models"
)

func request(id int64, name string, status models.Status, kind models.Kind) models.ServiceRequest {
	return models.ServiceRequest{
		ID:             id,
		ApplicantName:  name,
		Email:          strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Kind:           kind,
		EquipmentType:  "Timbangan Meja",
		EquipmentBrand: "Camry",
		Status:         status,
		SubmittedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Duration(id) * time.Hour),
	}
}

func numbered(n int) []models.ServiceRequest {
	out := make([]models.ServiceRequest, n)
	for i := range out {
		out[i] = request(int64(i+1), fmt.Sprintf("Pemohon %d", i+1), models.StatusPending, models.KindNewCalibration)
	}
	return out
}

func ids(items []models.ServiceRequest) []int64 {
	out := make([]int64, len(items))
	for i, r := range items {
		out[i] = r.ID
	}
	return out
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	items := []models.ServiceRequest{
		request(1, "Budi Santoso", models.StatusPending, models.KindNewCalibration),
		request(2, "Siti Aminah", models.StatusPending, models.KindNewCalibration),
	}
	for _, q := range []string{"Budi", "budi", "BUDI", "bUdI"} {
		got := Filter(items, models.Query{Text: q, Status: models.FilterAll, Kind: models.FilterAll})
		require.Len(t, got, 1, "query %q", q)
		assert.Equal(t, "Budi Santoso", got[0].ApplicantName)
	}
}

func TestFilterSearchFields(t *testing.T) {
	r := request(1, "Budi Santoso", models.StatusPending, models.KindNewCalibration)
	r.EquipmentType = "Meteran Kayu"
	r.EquipmentBrand = "Tanita"
	items := []models.ServiceRequest{r}

	for _, q := range []string{"santoso", "budi.santoso@", "meteran", "TANITA"} {
		assert.Len(t, Filter(items, models.Query{Text: q}), 1, "query %q", q)
	}
	assert.Empty(t, Filter(items, models.Query{Text: "Jl. Pasar"}))
}

func TestFilterAndsPredicatesAndPreservesOrder(t *testing.T) {
	items := []models.ServiceRequest{
		request(1, "Budi A", models.StatusPending, models.KindRecalibration),
		request(2, "Budi B", models.StatusApproved, models.KindRecalibration),
		request(3, "Siti C", models.StatusPending, models.KindRecalibration),
		request(4, "Budi D", models.StatusPending, models.KindNewCalibration),
		request(5, "Budi E", models.StatusPending, models.KindRecalibration),
	}

	got := Filter(items, models.Query{Text: "budi", Status: "pending", Kind: "recalibration"})
	assert.Equal(t, []int64{1, 5}, ids(got))

	for _, r := range got {
		assert.Contains(t, strings.ToLower(r.ApplicantName), "budi")
		assert.Equal(t, models.StatusPending, r.Status)
		assert.Equal(t, models.KindRecalibration, r.Kind)
	}
}

func TestFilterAllMatchesEverything(t *testing.T) {
	items := numbered(7)
	items[2].Status = models.StatusRejected
	items[4].Kind = models.KindRecalibration

	assert.Equal(t, ids(items), ids(Filter(items, models.Query{Status: models.FilterAll, Kind: models.FilterAll})))
	assert.Equal(t, ids(items), ids(Filter(items, models.Query{})))
}

func TestFilterKindAcceptsLegacyValue(t *testing.T) {
	items := []models.ServiceRequest{
		request(1, "A", models.StatusPending, models.KindRecalibration),
		request(2, "B", models.StatusPending, models.KindNewCalibration),
	}
	assert.Equal(t, []int64{1}, ids(Filter(items, models.Query{Kind: "tera_ulang"})))
	assert.Empty(t, Filter(items, models.Query{Kind: "unknown"}))
}

func TestPaginateScenario(t *testing.T) {
	items := numbered(23)

	page1, used := Paginate(items, 10, 1)
	assert.Equal(t, 1, used)
	assert.Len(t, page1, 10)

	page3, used := Paginate(items, 10, 3)
	assert.Equal(t, 3, used)
	assert.Len(t, page3, 3)

	assert.Equal(t, 3, TotalPages(len(items), 10))
}

func TestPaginatePagesReproduceFilteredSet(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 23, 40} {
		for _, k := range []int{1, 3, 10, 25} {
			items := numbered(n)
			total := TotalPages(n, k)
			assert.Equal(t, (n+k-1)/k, total, "n=%d k=%d", n, k)

			var joined []int64
			for p := 1; p <= total; p++ {
				page, used := Paginate(items, k, p)
				require.Equal(t, p, used)
				joined = append(joined, ids(page)...)
			}
			if n == 0 {
				assert.Empty(t, joined)
				continue
			}
			assert.Equal(t, ids(items), joined, "n=%d k=%d", n, k)
		}
	}
}

func TestPaginateClampsWhenFilteredSetShrinks(t *testing.T) {
	items := numbered(12)
	page, used := Paginate(items, 10, 5)
	assert.Equal(t, 2, used)
	assert.Len(t, page, 2)

	page, used = Paginate(items, 10, 0)
	assert.Equal(t, 1, used)
	assert.Len(t, page, 10)

	page, used = Paginate(nil, 10, 3)
	assert.Equal(t, 1, used)
	assert.Empty(t, page)
}

func TestComputeStats(t *testing.T) {
	items := []models.ServiceRequest{
		request(1, "a", models.StatusPending, models.KindNewCalibration),
		request(2, "b", models.StatusProcessing, models.KindNewCalibration),
		request(3, "c", models.StatusApproved, models.KindNewCalibration),
		request(4, "d", models.StatusApproved, models.KindNewCalibration),
		request(5, "e", models.StatusRejected, models.KindNewCalibration),
	}
	assert.Equal(t, models.Stats{Total: 5, Pending: 1, Processing: 1, Approved: 2, Rejected: 1}, ComputeStats(items))
}

func TestBuildPage(t *testing.T) {
	items := numbered(23)
	items[0].ApplicantName = "Budi Santoso"

	p := BuildPage(items, models.Query{Text: "pemohon"}, 10, 9)
	assert.Equal(t, 22, p.FilteredCount)
	assert.Equal(t, 23, p.TotalCount)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 3, p.Page)
	assert.Len(t, p.Items, 2)
}
