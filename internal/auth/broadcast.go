package auth

import (
	"context"
	"sync"
)

// Broadcaster fans session changes out to subscribers. Per the provider
// contract, every new subscriber receives one eager Change carrying the
// current session shortly after subscribing.
//
// Sends never block the publisher: a subscriber that falls more than a full
// buffer behind loses the oldest-undelivered change. Subscribers treat the
// stream as level state (latest session wins), so a dropped intermediate
// change is harmless.
type Broadcaster struct {
	mu      sync.Mutex
	subs    map[int]chan Change
	next    int
	current func() *Session
}

// NewBroadcaster builds a broadcaster; current is sampled for the eager
// initial emit on every Subscribe.
func NewBroadcaster(current func() *Session) *Broadcaster {
	return &Broadcaster{
		subs:    make(map[int]chan Change),
		current: current,
	}
}

// Subscribe registers a listener. The returned cancel is idempotent and must
// be called to release the channel. The eager initial change is delivered
// asynchronously so subscribing never blocks on the caller's own channel.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Change, func()) {
	b.mu.Lock()
	ch := make(chan Change, 8)
	key := b.next
	b.next++
	b.subs[key] = ch
	b.mu.Unlock()

	go func() {
		initial := Change{Event: EventInitial, Session: b.current()}
		select {
		case ch <- initial:
		case <-ctx.Done():
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, key)
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the change to all current subscribers without blocking.
func (b *Broadcaster) Publish(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
