package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidnotes/memvault/pkg/memory"
	"github.com/lucidnotes/memvault/pkg/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	key := make([]byte, storage.KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	client, err := NewClient(&Config{
		DBPath: filepath.Join(t.TempDir(), "memvault.db"),
		Key:    key,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func sampleMemory(id int64) *memory.Memory {
	now := time.Now().UTC().Truncate(time.Second)
	return &memory.Memory{
		ID:             id,
		Content:        "Prefers tea over coffee",
		Type:           memory.TypeJournalFact,
		Importance:     0.7,
		Tags:           []string{"preferences"},
		CreatedAt:      now,
		LastAccessedAt: now,
		SourceEntryID:  "entry-42",
	}
}

func TestInsertAndGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	m := sampleMemory(1)
	require.NoError(t, client.Insert(ctx, m))

	got, err := client.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, m.Type, got.Type)
	assert.Equal(t, m.Importance, got.Importance)
	assert.Equal(t, m.Tags, got.Tags)
	assert.Equal(t, m.SourceEntryID, got.SourceEntryID)
	assert.True(t, m.CreatedAt.Equal(got.CreatedAt))
}

func TestGetMissing(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Get(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBlobIsOpaque(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Insert(ctx, sampleMemory(1)))

	var blob []byte
	err := client.db.QueryRowContext(ctx,
		`SELECT blob FROM memories WHERE id = 1`).Scan(&blob)
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "tea")
}

func TestGetCorruptRecord(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Insert(ctx, sampleMemory(1)))

	var blob []byte
	require.NoError(t, client.db.QueryRowContext(ctx,
		`SELECT blob FROM memories WHERE id = 1`).Scan(&blob))
	blob[len(blob)-1] ^= 0x01
	_, err := client.db.ExecContext(ctx,
		`UPDATE memories SET blob = ? WHERE id = 1`, blob)
	require.NoError(t, err)

	_, err = client.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrCorruptRecord)

	_, err = client.GetAll(ctx)
	assert.ErrorIs(t, err, storage.ErrCorruptRecord)
}

func TestGetAllOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := int64(1); i <= 3; i++ {
		m := sampleMemory(i)
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, client.Insert(ctx, m))
	}

	all, err := client.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(1), all[2].ID)
}

func TestUpdateFields(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	m := sampleMemory(1)
	require.NoError(t, client.Insert(ctx, m))

	pinned := true
	tags := []string{"Health", "health", "diet"}
	accessed := m.CreatedAt.Add(time.Hour)
	err := client.UpdateFields(ctx, 1, storage.FieldUpdate{
		Pinned:         &pinned,
		Tags:           &tags,
		LastAccessedAt: &accessed,
	})
	require.NoError(t, err)

	got, err := client.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Pinned)
	assert.Equal(t, []string{"Health", "diet"}, got.Tags)
	assert.True(t, accessed.Equal(got.LastAccessedAt))
	assert.Equal(t, m.Content, got.Content)
}

func TestUpdateFieldsMissing(t *testing.T) {
	client := newTestClient(t)
	pinned := true
	err := client.UpdateFields(context.Background(), 7, storage.FieldUpdate{Pinned: &pinned})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.Delete(context.Background(), 404))
}

func TestDeleteManyAndCount(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := int64(1); i <= 4; i++ {
		require.NoError(t, client.Insert(ctx, sampleMemory(i)))
	}
	require.NoError(t, client.DeleteMany(ctx, []int64{2, 4}))

	n, err := client.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = client.Get(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	pinned := sampleMemory(1)
	pinned.Pinned = true
	require.NoError(t, client.Insert(ctx, pinned))
	require.NoError(t, client.Insert(ctx, sampleMemory(2)))
	require.NoError(t, client.DeleteAll(ctx))

	n, err := client.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSettingsRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.LoadSettings(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	want := memory.Settings{
		AutomaticExtraction:    false,
		MaxMemoryCount:         250,
		MinImportanceThreshold: 0.4,
	}
	require.NoError(t, client.SaveSettings(ctx, want))

	got, err := client.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.MaxMemoryCount = 500
	require.NoError(t, client.SaveSettings(ctx, want))
	got, err = client.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500, got.MaxMemoryCount)
}
