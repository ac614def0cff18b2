package playback

import (
	"sync"

	"github.com/livetv-cli/livetv/hls"
	"github.com/livetv-cli/livetv/media"
)

// envelope carries an asynchronous event tagged with the generation that produced it.
type envelope struct {
	generation int
	media      *media.Event
	engine     *hls.Event
}

// inbox is an unbounded queue; posting never blocks the producer.
type inbox struct {
	mu     sync.Mutex
	queue  []envelope
	notify chan struct{}
}

func newInbox() *inbox {
	return &inbox{notify: make(chan struct{}, 1)}
}

func (b *inbox) post(e envelope) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

func (b *inbox) drain() []envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	queue := b.queue
	b.queue = nil
	return queue
}
