package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/shop/internal/service/cart"
)

func TestSessionStore_GetCreatesCart(t *testing.T) {
	store := cart.NewSessionStore(time.Minute)

	first := store.Get("session-1")
	require.NotNil(t, first)
	assert.Equal(t, 0, first.Len())

	require.NoError(t, first.AddItem("p-1", "Widget", 1000, 2))

	// Повторное обращение возвращает ту же корзину.
	again := store.Get("session-1")
	assert.Equal(t, 1, again.Len())

	other := store.Get("session-2")
	assert.Equal(t, 0, other.Len(), "cart must be isolated per session")
}

func TestSessionStore_Clear(t *testing.T) {
	store := cart.NewSessionStore(time.Minute)

	c := store.Get("session-1")
	require.NoError(t, c.AddItem("p-1", "Widget", 1000, 1))
	store.Clear("session-1")

	assert.Equal(t, 0, store.Get("session-1").Len())
}

func TestSessionStore_ExpiredCartReplaced(t *testing.T) {
	store := cart.NewSessionStore(10 * time.Millisecond)

	c := store.Get("session-1")
	require.NoError(t, c.AddItem("p-1", "Widget", 1000, 1))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, store.Get("session-1").Len(), "expired cart must be replaced with empty one")
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	store := cart.NewSessionStore(10 * time.Millisecond)
	store.Get("session-1")
	store.Get("session-2")

	time.Sleep(30 * time.Millisecond)
	deleted, err := store.DeleteExpired(time.Now().UTC(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 0, store.Len())
}

func TestCleanupWorker_DeleteExpired(t *testing.T) {
	store := cart.NewSessionStore(10 * time.Millisecond)
	store.Get("session-1")
	store.Get("session-2")
	time.Sleep(30 * time.Millisecond)
	store.Get("session-3")

	worker := cart.NewCleanupWorker(store, cart.WithBatchSize(1))
	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 1, store.Len(), "live session must survive cleanup")
}
