package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "metrologi/pkg/domain-errors"
)

func TestReadingMinutes(t *testing.T) {
	words := func(n int) string {
		return strings.TrimSpace(strings.Repeat("kata ", n))
	}
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"only tags", "<p></p><br/>", 0},
		{"one word", "<p>Tera</p>", 1},
		{"exactly 200", words(200), 1},
		{"201 rounds up", words(201), 2},
		{"tags are not words", "<p>" + strings.Repeat("<b>kata</b> ", 400) + "</p>", 2},
		{"tags between words split them", "satu<br>dua", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadingMinutes(tt.content))
		})
	}
	assert.Equal(t, 2, WordCount("satu<br>dua"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tera-ulang-2024-jadwal-pasar", Slugify("  Tera Ulang 2024: Jadwal Pasar!! "))
	assert.Equal(t, "artikel", Slugify("?!"))
}

func TestPublishLifecycle(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a := Article{Title: "Jadwal", Content: "isi", Status: StatusDraft}

	require.NoError(t, a.CanPublish())
	a.ApplyPublish(now)
	assert.Equal(t, StatusPublished, a.Status)
	require.NotNil(t, a.PublishedAt)

	err := a.CanPublish()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, a.CanUnpublish())
	a.ApplyUnpublish(now)
	assert.Nil(t, a.PublishedAt)
	assert.True(t, dErrors.HasCode(a.CanUnpublish(), dErrors.CodeConflict))

	empty := Article{Status: StatusDraft}
	assert.True(t, dErrors.HasCode(empty.CanPublish(), dErrors.CodeValidation))
}
