package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metrologi/internal/artikel/models"
	"metrologi/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewInMemory()

	var ids []int64
	for i, slug := range []string{"satu", "dua", "tiga", "empat"} {
		a := &models.Article{Title: slug, Slug: slug, Content: "isi", Status: models.StatusDraft, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.Create(ctx, a))
		ids = append(ids, a.ID)
	}

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		err := s.Create(ctx, &models.Article{Title: "satu", Slug: "satu"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("published list is ordered by publish time and limited", func(t *testing.T) {
		// publish in reverse creation order
		for i, id := range []int64{ids[3], ids[0], ids[2], ids[1]} {
			at := base.Add(24*time.Hour + time.Duration(i)*time.Minute)
			_, err := s.Execute(ctx, id,
				func(a *models.Article) error { return a.CanPublish() },
				func(a *models.Article) { a.ApplyPublish(at) },
			)
			require.NoError(t, err)
		}
		got, err := s.ListPublished(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{ids[1], ids[2], ids[0]}, []int64{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("execute validation failure leaves row untouched", func(t *testing.T) {
		_, err := s.Execute(ctx, ids[0],
			func(a *models.Article) error { return a.CanPublish() },
			func(a *models.Article) { a.Title = "changed" },
		)
		require.Error(t, err)
		got, err := s.FindByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "satu", got.Title)
	})

	t.Run("list is newest first", func(t *testing.T) {
		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, ids[3], all[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, ids[0]))
		assert.ErrorIs(t, s.Delete(ctx, ids[0]), sentinel.ErrNotFound)
		_, err := s.FindByID(ctx, ids[0])
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
