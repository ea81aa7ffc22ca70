package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopchat/shopchat/core"
)

func TestEnsureCreatesOnce(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Exists("s1"))

	s.Ensure("s1")
	assert.True(t, s.Exists("s1"))

	s.AddProducts("s1", []core.Product{{SKU: "SKU-IP15", Name: "iPhone 15 Pro"}})

	// Ensure again must not reset existing state.
	s.Ensure("s1")
	turn, err := s.BeginTurn("s1")
	require.NoError(t, err)
	defer turn.Commit()
	assert.Equal(t, "s1", turn.SessionID())
	assert.Len(t, turn.Products(), 1)
}

func TestAddProductsSkipsErrorMarkers(t *testing.T) {
	s := NewStore()
	s.AddProducts("s1", []core.Product{
		{SKU: "sku-ip15", Name: "iPhone 15 Pro"},
		{SKU: "SKU-NOPE", Err: "Ürün bulunamadı"},
	})

	turn, err := s.BeginTurn("s1")
	require.NoError(t, err)
	defer turn.Commit()

	products := turn.Products()
	require.Len(t, products, 1)
	// SKU normalized to upper case on merge.
	assert.Equal(t, "SKU-IP15", products[0].SKU)
}

func TestAddProductsCreatesSession(t *testing.T) {
	s := NewStore()
	s.AddProducts("auto", []core.Product{{SKU: "SKU-S24", Name: "Galaxy S24"}})
	assert.True(t, s.Exists("auto"))
}

func TestBeginTurnUnknownSession(t *testing.T) {
	s := NewStore()
	_, err := s.BeginTurn("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTurnCommitKeepsHistory(t *testing.T) {
	s := NewStore()
	s.Ensure("s1")

	turn, err := s.BeginTurn("s1")
	require.NoError(t, err)
	turn.Append(core.NewUserMessage("hello"))
	turn.Append(core.NewAssistantMessage("hi"))
	turn.Commit()

	turn2, err := s.BeginTurn("s1")
	require.NoError(t, err)
	defer turn2.Commit()
	assert.Len(t, turn2.Messages(), 2)
}

func TestTurnRollbackRestoresSnapshot(t *testing.T) {
	s := NewStore()
	s.Ensure("s1")

	turn, err := s.BeginTurn("s1")
	require.NoError(t, err)
	turn.Append(core.NewUserMessage("first"))
	turn.Append(core.NewAssistantMessage("reply"))
	turn.Commit()

	turn, err = s.BeginTurn("s1")
	require.NoError(t, err)
	turn.Append(core.NewUserMessage("doomed"))
	turn.Append(core.NewAssistantMessage("partial"))
	turn.Rollback()

	turn2, err := s.BeginTurn("s1")
	require.NoError(t, err)
	defer turn2.Commit()
	msgs := turn2.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text())
}

func TestTurnTrimKeepsMostRecent(t *testing.T) {
	s := NewStore()
	s.Ensure("s1")

	turn, err := s.BeginTurn("s1")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		turn.Append(core.NewUserMessage("m"))
	}
	turn.Trim(4)
	assert.Len(t, turn.Messages(), 4)
	turn.Commit()
}

func TestConcurrentTurnsSerialize(t *testing.T) {
	s := NewStore()
	s.Ensure("s1")

	var order []string
	var mu sync.Mutex
	record := func(step string) {
		mu.Lock()
		order = append(order, step)
		mu.Unlock()
	}

	first, err := s.BeginTurn("s1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		second, err := s.BeginTurn("s1")
		require.NoError(t, err)
		record("second-acquired")
		second.Commit()
	}()

	time.Sleep(20 * time.Millisecond)
	record("first-release")
	first.Commit()
	<-done

	assert.Equal(t, []string{"first-release", "second-acquired"}, order)
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	s := NewStore(func(o *Options) { o.TTL = 10 * time.Minute })
	s.Ensure("idle")
	s.Ensure("active")

	// Backdate the idle session past the TTL.
	s.mu.Lock()
	s.sessions["idle"].lastActivity = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	evicted := s.sweep(time.Now())
	assert.Equal(t, 1, evicted)
	assert.False(t, s.Exists("idle"))
	assert.True(t, s.Exists("active"))
}

func TestEvictedSessionNotResurrected(t *testing.T) {
	s := NewStore(func(o *Options) { o.TTL = time.Nanosecond })
	s.Ensure("s1")

	time.Sleep(time.Millisecond)
	s.sweep(time.Now())

	_, err := s.BeginTurn("s1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, s.Exists("s1"))
}
