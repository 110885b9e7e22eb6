package mobileapi

import (
	"sync"

	"github.com/keshon/companion/internal/emotion"
)

// Broadcaster fans emotional snapshots out to websocket subscribers. Sends
// never block: a slow client drops frames, the next snapshot supersedes them
// anyway.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan emotion.Snapshot]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan emotion.Snapshot]struct{})}
}

// Subscribe registers a buffered subscription channel.
func (b *Broadcaster) Subscribe(buffer int) chan emotion.Snapshot {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan emotion.Snapshot, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan emotion.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Broadcast delivers snap to every subscriber, dropping on overflow.
func (b *Broadcaster) Broadcast(snap emotion.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
