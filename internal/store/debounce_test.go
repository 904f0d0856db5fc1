package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingKV struct {
	*MemoryKV
	mu   sync.Mutex
	sets []string
	fail error
}

func newCountingKV() *countingKV { return &countingKV{MemoryKV: NewMemoryKV()} }

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	fail := c.fail
	c.sets = append(c.sets, key)
	c.mu.Unlock()
	if fail != nil {
		return fail
	}
	return c.MemoryKV.Set(ctx, key, value)
}

func (c *countingKV) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

func TestDebouncer_CoalescesAndFlushes(t *testing.T) {
	t.Parallel()

	kv := newCountingKV()
	d := NewDebouncer(kv, time.Hour, zerolog.Nop())

	d.Schedule("a", []byte("1"))
	d.Schedule("a", []byte("2"))
	d.Schedule("b", []byte("x"))
	assert.Equal(t, 2, d.Pending())
	assert.Equal(t, 0, kv.Sets())

	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, 2, kv.Sets())
	v, ok, _ := kv.Get(context.Background(), "a")
	require.True(t, ok)
	assert.Equal(t, "2", string(v))
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_SkipsUnchanged(t *testing.T) {
	t.Parallel()

	kv := newCountingKV()
	d := NewDebouncer(kv, time.Hour, zerolog.Nop())
	d.Seen("a", []byte("same"))

	d.Schedule("a", []byte("same"))
	assert.Equal(t, 0, d.Pending())

	d.Schedule("a", []byte("new"))
	d.Schedule("a", []byte("same"))
	assert.Equal(t, 0, d.Pending(), "reverting to the stored value cancels the write")

	d.Schedule("a", []byte("new"))
	require.NoError(t, d.Flush(context.Background()))
	d.Schedule("a", []byte("new"))
	require.NoError(t, d.Flush(context.Background()))
	assert.Equal(t, 1, kv.Sets())
}

func TestDebouncer_TimerWrites(t *testing.T) {
	t.Parallel()

	kv := newCountingKV()
	d := NewDebouncer(kv, 10*time.Millisecond, zerolog.Nop())
	d.Schedule("a", []byte("1"))

	require.Eventually(t, func() bool { return kv.Sets() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_FailedWritesStayPending(t *testing.T) {
	t.Parallel()

	kv := newCountingKV()
	kv.fail = errors.New("disk full")
	d := NewDebouncer(kv, time.Hour, zerolog.Nop())
	d.Schedule("a", []byte("1"))

	err := d.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, d.Err())
	assert.Equal(t, 1, d.Pending())

	kv.mu.Lock()
	kv.fail = nil
	kv.mu.Unlock()
	require.NoError(t, d.Flush(context.Background()))
	assert.NoError(t, d.Err())
	assert.Equal(t, 0, d.Pending())
}
