package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultDebounce = 250 * time.Millisecond

// Debouncer coalesces writes per key. Only the latest value scheduled within the delay is
// written, and a value equal to the last one written (or seen) is skipped.
type Debouncer struct {
	kv    KV
	delay time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[string][]byte
	written map[string][]byte
	timer   *time.Timer
	lastErr error
}

func NewDebouncer(kv KV, delay time.Duration, log zerolog.Logger) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{
		kv:      kv,
		delay:   delay,
		log:     log,
		pending: map[string][]byte{},
		written: map[string][]byte{},
	}
}

// Seen records value as the stored state of key (e.g. after a load).
func (d *Debouncer) Seen(key string, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.written[key] = append([]byte(nil), value...)
}

// Schedule queues value for key. The payload is copied.
func (d *Debouncer) Schedule(key string, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.written[key]; ok && bytes.Equal(prev, value) {
		delete(d.pending, key)
		return
	}
	d.pending[key] = append([]byte(nil), value...)
	if d.delay == 0 {
		return
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *Debouncer) fire() {
	if err := d.Flush(context.Background()); err != nil {
		d.log.Error().Err(err).Msg("persist workspace state")
	}
}

// Pending reports how many keys are waiting to be written.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush writes every pending key now, in key order. Failed keys stay pending.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	batch := d.pending
	d.pending = map[string][]byte{}
	d.mu.Unlock()

	keys := make([]string, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var firstErr error
	for _, k := range keys {
		v := batch[k]
		if err := d.kv.Set(ctx, k, v); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			d.requeue(k, v)
			continue
		}
		d.mu.Lock()
		d.written[k] = v
		d.mu.Unlock()
		d.log.Debug().Str("key", k).Int("bytes", len(v)).Msg("state written")
	}
	d.mu.Lock()
	d.lastErr = firstErr
	d.mu.Unlock()
	return firstErr
}

func (d *Debouncer) requeue(key string, value []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, newer := d.pending[key]; !newer {
		d.pending[key] = value
	}
}

// Err returns the error of the most recent flush, if any.
func (d *Debouncer) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}
