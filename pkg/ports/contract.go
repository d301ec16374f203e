package ports

import (
	"testing"
	"time"

	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract. newStore must return an empty store
// whose start dialog is "start".
func RunStateStoreContract(t *testing.T, newStore func() StateStore) {
	t.Run("GetOrCreate keeps identity", func(t *testing.T) {
		store := newStore()
		first := store.GetOrCreate(1)
		second := store.GetOrCreate(1)
		require.NotNil(t, first)
		assert.Same(t, first, second, "repeated calls must not create a duplicate record")
		assert.Equal(t, "start", first.CurrentDialogID)
		assert.Equal(t, domain.NoMessage, first.LastMessageID)
	})

	t.Run("Snapshot creates lazily and copies", func(t *testing.T) {
		store := newStore()
		assert.False(t, store.Exists(2))
		snap := store.Snapshot(2)
		assert.True(t, store.Exists(2))

		snap.Data["leak"] = true
		_, ok := store.Data(2, "leak")
		assert.False(t, ok, "snapshot mutations must not reach the store")
	})

	t.Run("Mutations", func(t *testing.T) {
		store := newStore()
		store.SetDialog(3, "menu")
		store.SetLastRender(3, 42, domain.KindPhoto)
		store.SetReplyKeyboardActive(3, true)
		store.SetData(3, "name", "ada")

		snap := store.Snapshot(3)
		assert.Equal(t, "menu", snap.CurrentDialogID)
		assert.Equal(t, int64(42), snap.LastMessageID)
		assert.Equal(t, domain.KindPhoto, snap.LastKind)
		assert.True(t, snap.ReplyKeyboardActive)
		assert.Equal(t, "ada", snap.Data["name"])

		store.SetLastMessage(3, 43)
		assert.Equal(t, int64(43), store.Snapshot(3).LastMessageID)
		assert.Equal(t, domain.KindPhoto, store.Snapshot(3).LastKind)

		assert.True(t, store.DeleteData(3, "name"))
		assert.False(t, store.DeleteData(3, "name"))
	})

	t.Run("Wait", func(t *testing.T) {
		store := newStore()
		store.SetWait(4, "w1", []domain.InputKind{domain.InputText})
		snap := store.Snapshot(4)
		require.NotNil(t, snap.Wait)
		assert.Equal(t, "w1", snap.Wait.ID)

		assert.False(t, store.ClearWaitIf(4, "other"))
		assert.True(t, store.Snapshot(4).IsWaiting())
		assert.True(t, store.ClearWaitIf(4, "w1"))
		assert.False(t, store.Snapshot(4).IsWaiting())

		store.SetWait(4, "w2", nil)
		store.ClearWait(4)
		assert.False(t, store.Snapshot(4).IsWaiting())
	})

	t.Run("Reset keeps identity", func(t *testing.T) {
		store := newStore()
		rec := store.GetOrCreate(5)
		store.SetDialog(5, "deep")
		store.SetData(5, "k", 1)

		store.Reset(5)
		assert.Same(t, rec, store.GetOrCreate(5))
		snap := store.Snapshot(5)
		assert.Equal(t, "start", snap.CurrentDialogID)
		assert.Empty(t, snap.Data)
	})

	t.Run("Remove and List", func(t *testing.T) {
		store := newStore()
		store.GetOrCreate(6)
		store.GetOrCreate(7)
		assert.ElementsMatch(t, []domain.ConversationID{6, 7}, store.List())

		store.Remove(6)
		assert.ElementsMatch(t, []domain.ConversationID{7}, store.List())
	})

	t.Run("Sweep", func(t *testing.T) {
		store := newStore()
		store.GetOrCreate(8)
		time.Sleep(20 * time.Millisecond)
		store.GetOrCreate(9)

		removed := store.Sweep(10 * time.Millisecond)
		assert.Equal(t, []domain.ConversationID{8}, removed)
		assert.False(t, store.Exists(8))
		assert.True(t, store.Exists(9))
	})
}
