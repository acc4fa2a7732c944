package events

import (
	"sync"
)

// Collection names a durable collection for change notifications.
type Collection string

const (
	CollectionProducts      Collection = "products"
	CollectionPrices        Collection = "price_entries"
	CollectionLists         Collection = "shopping_lists"
	CollectionListItems     Collection = "shopping_list_items"
	CollectionSavedItems    Collection = "saved_items"
	CollectionSearchResults Collection = "cached_search_results"
)

// Op describes the kind of write that occurred.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change is one write notification. It carries no row data: subscribers
// re-derive their view by querying, which keeps the bus payload-agnostic.
type Change struct {
	Collection Collection
	Op         Op
}

const subscriberBuffer = 16

// Bus fans out per-collection change notifications to subscribers. Services
// publish after a successful write; view layers subscribe and re-run their
// queries. Publishing never blocks: a subscriber that falls more than
// subscriberBuffer events behind misses intermediate notifications, which is
// harmless because every event means the same thing ("re-read").
type Bus struct {
	mu   sync.RWMutex
	subs map[Collection][]chan Change
}

// NewBus constructs an empty change bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Collection][]chan Change)}
}

// Subscribe registers for changes to the given collection. The returned
// cancel function closes the channel and removes the subscription.
func (b *Bus) Subscribe(collection Collection) (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	b.mu.Lock()
	b.subs[collection] = append(b.subs[collection], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[collection]
		for i, sub := range subs {
			if sub == ch {
				b.subs[collection] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish notifies all subscribers of the collection. Safe to call with a nil
// bus so services can run without change notification wired up.
func (b *Bus) Publish(collection Collection, op Op) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[collection] {
		select {
		case ch <- Change{Collection: collection, Op: op}:
		default:
		}
	}
}
