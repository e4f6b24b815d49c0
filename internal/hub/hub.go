package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xealabs/xea-oracle/internal/model"
)

// Event kinds broadcast to subscribers
const (
	EventConnected     = "connected"
	EventMinerResponse = "miner_response"
	EventStatus        = "status"
	EventAggregate     = "aggregate"
	EventKeepalive     = "keepalive"
	EventPong          = "pong"
)

// Event is a structured progress/result message for one job
type Event struct {
	Type     string                `json:"type"`
	JobID    string                `json:"job_id,omitempty"`
	ClaimID  string                `json:"claim_id,omitempty"`
	Response *model.MinerResponse  `json:"miner_response,omitempty"`
	Status   model.JobStatus       `json:"status,omitempty"`
	Progress *model.JobProgress    `json:"progress,omitempty"`
	Bundle   *model.EvidenceBundle `json:"evidence_bundle,omitempty"`
	Message  string                `json:"message,omitempty"`
}

// Subscription is one live subscriber to a job's event stream.
// Events arrive pre-serialized on C.
type Subscription struct {
	ID    string
	JobID string
	C     chan []byte

	mu       sync.Mutex
	lastSent time.Time
}

func (s *Subscription) touch() {
	s.mu.Lock()
	s.lastSent = time.Now()
	s.mu.Unlock()
}

func (s *Subscription) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSent
}

// jobSubs holds one job's subscriber set behind its own lock, so
// broadcasts for different jobs never contend.
type jobSubs struct {
	mu   sync.Mutex
	subs map[string]*Subscription
}

// Hub multiplexes job progress events to live subscribers. One Hub is
// constructed at process start and shared by everything that drives
// jobs; its lifecycle is the process's, not any single job's.
type Hub struct {
	mu   sync.RWMutex
	jobs map[string]*jobSubs

	keepaliveInterval time.Duration
	bufferSize        int
}

// New creates a Hub. keepaliveInterval is the idle window after which
// a silent subscriber is sent a keepalive instead of being dropped.
func New(keepaliveInterval time.Duration) *Hub {
	if keepaliveInterval <= 0 {
		keepaliveInterval = 30 * time.Second
	}
	return &Hub{
		jobs:              make(map[string]*jobSubs),
		keepaliveInterval: keepaliveInterval,
		bufferSize:        64,
	}
}

// Subscribe registers a new subscriber for a job and immediately
// delivers a connected event on its channel.
func (h *Hub) Subscribe(jobID string) *Subscription {
	sub := &Subscription{
		ID:       uuid.NewString(),
		JobID:    jobID,
		C:        make(chan []byte, h.bufferSize),
		lastSent: time.Now(),
	}

	js := h.jobSet(jobID, true)
	js.mu.Lock()
	js.subs[sub.ID] = sub
	js.mu.Unlock()

	h.deliver(sub, Event{
		Type:    EventConnected,
		JobID:   jobID,
		Message: "connected to job updates stream",
	})
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	js := h.jobSet(sub.JobID, false)
	if js == nil {
		return
	}
	js.mu.Lock()
	if _, ok := js.subs[sub.ID]; ok {
		delete(js.subs, sub.ID)
		close(sub.C)
	}
	js.mu.Unlock()
}

// Broadcast serializes the event once and delivers it to every
// subscriber of the job. Delivery is best-effort per subscriber: a
// subscriber whose channel is full is dropped from the set without
// affecting the others or failing the broadcast.
func (h *Hub) Broadcast(jobID string, ev Event) {
	js := h.jobSet(jobID, false)
	if js == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	for id, sub := range js.subs {
		select {
		case sub.C <- payload:
			sub.touch()
		default:
			delete(js.subs, id)
			close(sub.C)
		}
	}
}

// Ping answers a subscriber's liveness ping with a pong event.
// Returns false if the subscriber is unknown.
func (h *Hub) Ping(jobID, subID string) bool {
	js := h.jobSet(jobID, false)
	if js == nil {
		return false
	}
	js.mu.Lock()
	sub, ok := js.subs[subID]
	js.mu.Unlock()
	if !ok {
		return false
	}
	h.deliver(sub, Event{Type: EventPong, JobID: jobID})
	return true
}

// SubscriberCount returns the number of live subscribers for a job
func (h *Hub) SubscriberCount(jobID string) int {
	js := h.jobSet(jobID, false)
	if js == nil {
		return 0
	}
	js.mu.Lock()
	defer js.mu.Unlock()
	return len(js.subs)
}

// Run sends keepalives to idle subscribers until ctx is cancelled.
// Subscribers are only ever dropped on delivery failure, never for
// being idle.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.keepaliveInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweepKeepalives()
		}
	}
}

func (h *Hub) sweepKeepalives() {
	h.mu.RLock()
	sets := make([]*jobSubs, 0, len(h.jobs))
	for _, js := range h.jobs {
		sets = append(sets, js)
	}
	h.mu.RUnlock()

	cutoff := time.Now().Add(-h.keepaliveInterval)
	for _, js := range sets {
		js.mu.Lock()
		idle := make([]*Subscription, 0)
		for _, sub := range js.subs {
			if sub.idleSince().Before(cutoff) {
				idle = append(idle, sub)
			}
		}
		js.mu.Unlock()

		for _, sub := range idle {
			h.deliver(sub, Event{Type: EventKeepalive, JobID: sub.JobID})
		}
	}
}

// deliver sends one event to one subscriber, dropping it on failure.
// The send happens under the job set's lock, after re-checking
// membership: Unsubscribe closes the channel under the same lock, so a
// concurrent ping or keepalive can never send on a closed channel.
func (h *Hub) deliver(sub *Subscription, ev Event) {
	js := h.jobSet(sub.JobID, false)
	if js == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	if _, ok := js.subs[sub.ID]; !ok {
		return
	}
	select {
	case sub.C <- payload:
		sub.touch()
	default:
		delete(js.subs, sub.ID)
		close(sub.C)
	}
}

func (h *Hub) jobSet(jobID string, create bool) *jobSubs {
	h.mu.RLock()
	js, ok := h.jobs[jobID]
	h.mu.RUnlock()
	if ok {
		return js
	}
	if !create {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if js, ok := h.jobs[jobID]; ok {
		return js
	}
	js = &jobSubs{subs: make(map[string]*Subscription)}
	h.jobs[jobID] = js
	return js
}
