package store

import (
	"sync"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

// Broadcaster fans documents out to subscribers and replays the latest one to
// each new subscriber. Every subscriber owns a one-slot mailbox that always
// holds the newest document, so a slow reader skips intermediate versions and
// never blocks Publish.
type Broadcaster struct {
	mu     sync.Mutex
	last   *domain.HabitDocument
	subs   map[int]chan *domain.HabitDocument
	nextID int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan *domain.HabitDocument),
	}
}

// Subscribe returns the subscriber's stream and a function that ends the
// subscription and closes the stream.
func (b *Broadcaster) Subscribe() (<-chan *domain.HabitDocument, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan *domain.HabitDocument, 1)
	if b.last != nil {
		ch <- b.last.Clone()
	}
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

func (b *Broadcaster) Publish(doc *domain.HabitDocument) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = doc.Clone()
	for _, ch := range b.subs {
		offer(ch, doc.Clone())
	}
}

// offer replaces whatever is waiting in the mailbox. Only Publish sends, under
// the broadcaster lock, so the second send cannot block.
func offer(ch chan *domain.HabitDocument, doc *domain.HabitDocument) {
	select {
	case ch <- doc:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}
	ch <- doc
}

// Last returns a copy of the most recently published document, or nil.
func (b *Broadcaster) Last() *domain.HabitDocument {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.last == nil {
		return nil
	}
	return b.last.Clone()
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
