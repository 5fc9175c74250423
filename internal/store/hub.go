package store

import "sync"

// changeHub fans out per-topic change signals to subscribers. Signal
// channels are buffered with capacity one so rapid writes coalesce into
// a single re-query rather than piling up.
type changeHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

func newChangeHub() *changeHub {
	return &changeHub{subs: make(map[string]map[int]chan struct{})}
}

func (h *changeHub) subscribe(topic string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan struct{}, 1)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}
	h.subs[topic][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(h.subs, topic)
			}
		}
	}
	return ch, cancel
}

func (h *changeHub) notify(topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		for _, ch := range h.subs[topic] {
			select {
			case ch <- struct{}{}:
			default:
				// A signal is already pending; the subscriber will
				// re-query and pick this change up too.
			}
		}
	}
}
