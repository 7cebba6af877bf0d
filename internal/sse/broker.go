// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast. An empty Topic reaches every
// subscriber; otherwise only subscribers of that topic receive it.
type Event struct {
	Topic string      `json:"-"`
	Type  string      `json:"type"`
	Data  interface{} `json:"data"`
}

type docEventReq struct {
	kind string
	name string
}

type subscription struct {
	topic string
	ch    chan []byte
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + files.changed throttle timestamp). Public methods communicate with
// this loop through channels, so no mutexes are required.
type Broker struct {
	filesMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	docEventCh    chan docEventReq
	countReqCh    chan countReq

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type countReq struct {
	topic string
	all   bool
	resp  chan int
}

// NewBroker creates a new SSE broker with the given files.changed throttle interval.
func NewBroker(filesThrottle time.Duration) *Broker {
	if filesThrottle <= 0 {
		filesThrottle = 2 * time.Second
	}

	b := &Broker{
		filesMin:      filesThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		docEventCh:    make(chan docEventReq, 256),
		countReqCh:    make(chan countReq),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var lastFiles time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, topic := range clients {
			if event.Topic != "" && event.Topic != topic {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.topic

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.docEventCh:
			data := map[string]string{"name": req.name}
			switch req.kind {
			case "created":
				broadcast(Event{Type: "doc.created", Data: data})
			case "updated":
				broadcast(Event{Type: "doc.updated", Data: data})
			case "deleted":
				broadcast(Event{Type: "doc.deleted", Data: data})
			}

			now := time.Now()
			if now.Sub(lastFiles) >= b.filesMin {
				lastFiles = now
				broadcast(Event{Type: "files.changed", Data: map[string]string{}})
			}

		case req := <-b.countReqCh:
			n := 0
			for _, topic := range clients {
				if req.all || topic == req.topic {
					n++
				}
			}
			req.resp <- n
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client for topic and returns its channel. The empty
// topic receives only global events.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{topic: topic, ch: ch}:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	return b.count(countReq{all: true})
}

// TopicCount returns the number of clients subscribed to topic.
func (b *Broker) TopicCount(topic string) int {
	return b.count(countReq{topic: topic})
}

func (b *Broker) count(req countReq) int {
	if b.closed.Load() {
		return 0
	}

	req.resp = make(chan int, 1)
	select {
	case b.countReqCh <- req:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-req.resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to the clients of its topic.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocEvent publishes a docs file change and a throttled files.changed event.
func (b *Broker) PublishDocEvent(kind, name string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.docEventCh <- docEventReq{kind: kind, name: name}:
	case <-b.stopped:
	}
}

// ServeHTTP is the global SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.Stream(w, r, "")
}

// Handler returns an SSE handler whose topic is derived from the request.
// hooks, when non-nil, run around the stream.
func (b *Broker) Handler(topicFn func(*http.Request) (string, bool), hooks ...func(topic string) func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic, ok := topicFn(r)
		if !ok {
			http.Error(w, "unknown topic", http.StatusNotFound)
			return
		}
		for _, h := range hooks {
			if done := h(topic); done != nil {
				defer done()
			}
		}
		b.Stream(w, r, topic)
	}
}

// Stream writes events of topic to w until the request ends or the broker closes.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(topic)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
