package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

func seeded(items ...models.Solicitacao) *Collection {
	c := NewCollection(func(context.Context) ([]models.Solicitacao, error) { return items, nil })
	if err := c.Load(context.Background()); err != nil {
		panic(err)
	}
	return c
}

func TestApplyAndReplace(t *testing.T) {
	c := seeded(models.Solicitacao{ID: "a", Status: models.StatusAberto})
	v0 := c.Version()

	prev, err := c.Apply("a", func(s *models.Solicitacao) { s.Status = models.StatusConcluido })
	require.NoError(t, err)
	assert.Equal(t, models.StatusAberto, prev.Status)
	got, _ := c.Get("a")
	assert.Equal(t, models.StatusConcluido, got.Status)
	assert.Greater(t, c.Version(), v0)

	assert.True(t, c.Replace(prev))
	got, _ = c.Get("a")
	assert.Equal(t, models.StatusAberto, got.Status)
}

func TestReplace_NoOpWhenGone(t *testing.T) {
	c := seeded(models.Solicitacao{ID: "a"})
	prev, _, err := c.Remove("a")
	require.NoError(t, err)
	v := c.Version()

	assert.False(t, c.Replace(prev))
	assert.Equal(t, v, c.Version())
}

func TestRemoveRestoreKeepsPosition(t *testing.T) {
	c := seeded(models.Solicitacao{ID: "a"}, models.Solicitacao{ID: "b"}, models.Solicitacao{ID: "c"})
	prev, pos, err := c.Remove("b")
	require.NoError(t, err)
	c.Restore(prev, pos)

	items, _ := c.Snapshot()
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[1].ID)

	_, err = c.Apply("zzz", func(*models.Solicitacao) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertDiscard(t *testing.T) {
	c := seeded(models.Solicitacao{ID: "a"})
	c.Insert(models.Solicitacao{ID: "n"})
	items, _ := c.Snapshot()
	assert.Equal(t, "n", items[0].ID)
	assert.True(t, c.Discard("n"))
	assert.False(t, c.Discard("n"))
}

func TestSnapshotIsACopy(t *testing.T) {
	now := time.Now()
	c := seeded(models.Solicitacao{ID: "a", VisualizadoEm: &now})
	items, _ := c.Snapshot()
	items[0].Titulo = "mudou"
	*items[0].VisualizadoEm = now.Add(time.Hour)

	got, _ := c.Get("a")
	assert.Empty(t, got.Titulo)
	assert.True(t, got.VisualizadoEm.Equal(now))
}

func TestLoad_DeduplicatesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := NewCollection(func(context.Context) ([]models.Solicitacao, error) {
		calls.Add(1)
		<-release
		return nil, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Load(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnsure_PropagatesError(t *testing.T) {
	boom := errors.New("mongo down")
	c := NewCollection(func(context.Context) ([]models.Solicitacao, error) { return nil, boom })
	assert.ErrorIs(t, c.Ensure(context.Background()), boom)
}

func TestPut_ReplacesOrInserts(t *testing.T) {
	c := seeded(models.Solicitacao{ID: "a", Titulo: "velho"}, models.Solicitacao{ID: "b"})
	c.Put(models.Solicitacao{ID: "b", Titulo: "novo"})
	c.Put(models.Solicitacao{ID: "z"})

	items, _ := c.Snapshot()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"z", "a", "b"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "novo", items[2].Titulo)
}

func TestInvalidate_EnsureReloads(t *testing.T) {
	var db []models.Solicitacao
	c := NewCollection(func(context.Context) ([]models.Solicitacao, error) { return db, nil })
	require.NoError(t, c.Ensure(context.Background()))

	db = []models.Solicitacao{{ID: "tarde"}}
	require.NoError(t, c.Ensure(context.Background()))
	_, ok := c.Get("tarde")
	assert.False(t, ok, "loaded collection is not re-read by Ensure")

	c.Invalidate()
	require.NoError(t, c.Ensure(context.Background()))
	_, ok = c.Get("tarde")
	assert.True(t, ok)
}

func TestLoad_DropsResultWhenChangedDuringRead(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	reloading := false
	c := NewCollection(func(context.Context) ([]models.Solicitacao, error) {
		if reloading {
			close(started)
			<-release
		}
		return []models.Solicitacao{{ID: "a", Status: models.StatusAberto}}, nil
	})
	require.NoError(t, c.Load(context.Background()))

	reloading = true
	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-started
	_, err := c.Apply("a", func(s *models.Solicitacao) { s.Status = models.StatusConcluido })
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	got, _ := c.Get("a")
	assert.Equal(t, models.StatusConcluido, got.Status)
}
