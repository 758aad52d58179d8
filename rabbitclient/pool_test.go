package rabbitclient

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPool_TracksUpToCapacity(t *testing.T) {
	conn := NewFakeConnection()
	conn.SetMaxChannels(3)
	pool := newChannelPool(conn, &defaultLogger{}, nil)

	for i := 1; i <= 3; i++ {
		ch, err := pool.Get()
		require.NoError(t, err)
		assert.Equal(t, i, ch.ID())
		assert.Equal(t, i, pool.size())
	}

	// At capacity the pool stops growing and hands the last channel out.
	ch, err := pool.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, ch.ID())
	assert.Equal(t, 3, pool.size())
}

func TestChannelPool_UnboundedIsUntracked(t *testing.T) {
	conn := NewFakeConnection()
	pool := newChannelPool(conn, &defaultLogger{}, nil)

	a, err := pool.Get()
	require.NoError(t, err)
	b, err := pool.Get()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 0, pool.size())
}

func TestChannelPool_SelfPrunesOnShutdown(t *testing.T) {
	conn := NewFakeConnection()
	conn.SetMaxChannels(2)
	pool := newChannelPool(conn, &defaultLogger{}, nil)

	a, err := pool.Get()
	require.NoError(t, err)
	b, err := pool.Get()
	require.NoError(t, err)
	require.Equal(t, 2, pool.size())

	// Closing from either side reclaims the slot via the shutdown callback.
	require.NoError(t, a.Close())
	assert.Equal(t, 1, pool.size())

	c, err := pool.Get()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), c.ID())
	assert.NotEqual(t, b.ID(), c.ID())
}

func TestChannelPool_RemoveUnknownChannelIsNoop(t *testing.T) {
	conn := NewFakeConnection()
	conn.SetMaxChannels(2)
	pool := newChannelPool(conn, &defaultLogger{}, nil)

	_, err := pool.Get()
	require.NoError(t, err)

	pool.remove(NewFakeChannel(99))
	assert.Equal(t, 1, pool.size())
}

func TestChannelPool_ConcurrentGet(t *testing.T) {
	conn := NewFakeConnection()
	conn.SetMaxChannels(8)
	pool := newChannelPool(conn, &defaultLogger{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, err := pool.Get()
			assert.NoError(t, err)
			assert.NotNil(t, ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, pool.size())
}
