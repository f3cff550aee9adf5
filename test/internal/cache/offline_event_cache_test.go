package cache

import (
	"testing"
	"wichty-checkin/internal/cache"
	"wichty-checkin/internal/model"
	"wichty-checkin/internal/store"
	apperrors "wichty-checkin/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func sampleRows() []model.EventTicketRow {
	return []model.EventTicketRow{
		{TicketID: uuid.New(), Code: "EVT-A1", Status: model.TicketStatusValid, HolderName: strPtr("Alice Huang"), CategoryName: strPtr("VIP")},
		{TicketID: uuid.New(), Code: "EVT-A2", Status: model.TicketStatusValid, HolderName: strPtr("Bob Lin"), CategoryName: strPtr("Standard")},
		{TicketID: uuid.New(), Code: "EVT-A3", Status: model.TicketStatusCancelled, HolderName: strPtr("Carol Wu"), CategoryName: strPtr("Standard")},
	}
}

func TestReplaceSnapshot(t *testing.T) {
	eventID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		count, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		status := c.Status()
		assert.True(t, status.HasSnapshot)
		assert.Equal(t, 3, status.TicketCount)
		assert.Equal(t, 0, status.PendingUnsynced)
		assert.NotNil(t, status.LastDownloadAt)
	})

	t.Run("Idempotent - repeated download", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		rows := sampleRows()
		count1, err := c.ReplaceSnapshot(eventID, rows, "en")
		require.NoError(t, err)
		count2, err := c.ReplaceSnapshot(eventID, rows, "en")
		require.NoError(t, err)

		assert.Equal(t, count1, count2)
		assert.Equal(t, 3, c.Status().TicketCount)
	})

	t.Run("Redownload preserves unsynced checkins", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-A1")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Status().PendingUnsynced)

		// 重新下載不能弄丟還沒回放的紀錄
		_, err = c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		assert.Equal(t, 1, c.Status().PendingUnsynced)

		unsynced := c.UnsyncedCheckins()
		require.Len(t, unsynced, 1)
		assert.Equal(t, "EVT-A1", unsynced[0].Code)

		// 保留紀錄的票在新快照裡仍是 used
		_, err = c.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})

	t.Run("Redownload drops synced checkins", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-A1")
		require.NoError(t, err)
		require.NoError(t, c.MarkSynced(c.UnsyncedCheckins()))

		// 已同步的紀錄不再保留，遠端回報 valid 的票可以再驗
		_, err = c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		assert.Equal(t, 0, c.Status().PendingUnsynced)

		_, err = c.CheckIn("EVT-A1")
		assert.NoError(t, err)
	})

	t.Run("Fallback display names by language", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		rows := []model.EventTicketRow{
			{TicketID: uuid.New(), Code: "EVT-B1", Status: model.TicketStatusValid},
		}
		_, err := c.ReplaceSnapshot(eventID, rows, "de-AT")
		require.NoError(t, err)

		receipt, err := c.CheckIn("EVT-B1")
		require.NoError(t, err)
		assert.Equal(t, "Gast", receipt.HolderName)
		assert.Equal(t, "Standard", receipt.CategoryName)
	})
}

func TestCheckIn(t *testing.T) {
	eventID := uuid.New()

	newLoadedCache := func(t *testing.T) cache.OfflineEventCache {
		t.Helper()
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		return c
	}

	t.Run("Success", func(t *testing.T) {
		c := newLoadedCache(t)

		receipt, err := c.CheckIn("EVT-A1")
		require.NoError(t, err)
		assert.Equal(t, "Alice Huang", receipt.HolderName)
		assert.Equal(t, "VIP", receipt.CategoryName)
		assert.False(t, receipt.CheckedInAt.IsZero())
		assert.Equal(t, 1, c.Status().PendingUnsynced)
	})

	t.Run("Failed - AlreadyUsed on second checkin", func(t *testing.T) {
		c := newLoadedCache(t)

		_, err := c.CheckIn("EVT-A1")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
		assert.Equal(t, 1, c.Status().PendingUnsynced)
	})

	t.Run("Case-insensitive code", func(t *testing.T) {
		c := newLoadedCache(t)

		_, err := c.CheckIn("evt-a1")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})

	t.Run("Failed - TicketNotFoundOffline", func(t *testing.T) {
		c := newLoadedCache(t)

		_, err := c.CheckIn("EVT-UNKNOWN")
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFoundOffline)
	})

	t.Run("Failed - Cancelled", func(t *testing.T) {
		c := newLoadedCache(t)

		_, err := c.CheckIn("EVT-A3")
		assert.ErrorIs(t, err, apperrors.ErrTicketCancelled)
		assert.Equal(t, 0, c.Status().PendingUnsynced)
	})

	t.Run("Failed - AlreadyUsed from snapshot", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		rows := []model.EventTicketRow{
			{TicketID: uuid.New(), Code: "EVT-C1", Status: model.TicketStatusUsed, HolderName: strPtr("Dan Chen"), CategoryName: strPtr("VIP")},
		}
		_, err := c.ReplaceSnapshot(eventID, rows, "en")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-C1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})

	t.Run("Failed - NoSnapshot", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())

		_, err := c.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrNoSnapshot)
	})
}

func TestUnsyncedCheckinsAndMarkSynced(t *testing.T) {
	eventID := uuid.New()

	t.Run("Insertion order and MarkSynced", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)

		_, err = c.CheckIn("EVT-A2")
		require.NoError(t, err)
		_, err = c.CheckIn("EVT-A1")
		require.NoError(t, err)

		unsynced := c.UnsyncedCheckins()
		require.Len(t, unsynced, 2)
		assert.Equal(t, "EVT-A2", unsynced[0].Code)
		assert.Equal(t, "EVT-A1", unsynced[1].Code)

		require.NoError(t, c.MarkSynced(unsynced))
		assert.Empty(t, c.UnsyncedCheckins())
		assert.Equal(t, 0, c.Status().PendingUnsynced)

		// 標記後仍然擋重複驗票
		_, err = c.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})
}

func TestLoadAfterRestart(t *testing.T) {
	eventID := uuid.New()

	t.Run("State survives restart", func(t *testing.T) {
		kv := store.NewMemoryStore()

		c1 := cache.NewOfflineEventCache(kv)
		_, err := c1.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		_, err = c1.CheckIn("EVT-A1")
		require.NoError(t, err)

		// 同一個 store 開新的 cache，模擬行程重啟
		c2 := cache.NewOfflineEventCache(kv)
		require.NoError(t, c2.Load(eventID))

		status := c2.Status()
		assert.True(t, status.HasSnapshot)
		assert.Equal(t, 3, status.TicketCount)
		assert.Equal(t, 1, status.PendingUnsynced)
		assert.NotNil(t, status.LastDownloadAt)

		_, err = c2.CheckIn("EVT-A1")
		assert.ErrorIs(t, err, apperrors.ErrTicketAlreadyUsed)
	})

	t.Run("Active event restored automatically", func(t *testing.T) {
		kv := store.NewMemoryStore()

		c1 := cache.NewOfflineEventCache(kv)
		_, err := c1.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		_, err = c1.CheckIn("EVT-A1")
		require.NoError(t, err)

		// 不知道活動 ID 也能還原上次的狀態
		c2 := cache.NewOfflineEventCache(kv)
		require.NoError(t, c2.LoadActive())

		status := c2.Status()
		assert.True(t, status.HasSnapshot)
		require.NotNil(t, status.EventID)
		assert.Equal(t, eventID, *status.EventID)
		assert.Equal(t, 1, status.PendingUnsynced)
	})

	t.Run("LoadActive without prior download", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		require.NoError(t, c.LoadActive())
		assert.False(t, c.Status().HasSnapshot)
	})

	t.Run("Load without snapshot", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		require.NoError(t, c.Load(eventID))

		status := c.Status()
		assert.False(t, status.HasSnapshot)
		assert.Equal(t, 0, status.TicketCount)
	})
}

func TestClear(t *testing.T) {
	eventID := uuid.New()
	otherEventID := uuid.New()

	t.Run("Clear removes snapshot and checkins", func(t *testing.T) {
		kv := store.NewMemoryStore()
		c := cache.NewOfflineEventCache(kv)
		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)
		_, err = c.CheckIn("EVT-A1")
		require.NoError(t, err)

		require.NoError(t, c.Clear(eventID))

		status := c.Status()
		assert.False(t, status.HasSnapshot)
		assert.Equal(t, 0, status.TicketCount)
		assert.Equal(t, 0, status.PendingUnsynced)

		// store 裡也不能留下任何東西，還原標記一併移除
		c2 := cache.NewOfflineEventCache(kv)
		require.NoError(t, c2.Load(eventID))
		assert.False(t, c2.Status().HasSnapshot)

		c3 := cache.NewOfflineEventCache(kv)
		require.NoError(t, c3.LoadActive())
		assert.False(t, c3.Status().HasSnapshot)
	})

	t.Run("Clear other event leaves state", func(t *testing.T) {
		c := cache.NewOfflineEventCache(store.NewMemoryStore())
		_, err := c.ReplaceSnapshot(eventID, sampleRows(), "en")
		require.NoError(t, err)

		require.NoError(t, c.Clear(otherEventID))
		assert.True(t, c.Status().HasSnapshot)
		assert.Equal(t, 3, c.Status().TicketCount)
	})
}
