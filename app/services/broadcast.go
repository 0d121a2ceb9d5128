// Package services provides external service integrations and technical concerns like tokens and realtime fan-out
package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

// locationChannel is the Redis pub/sub channel carrying position updates
// between instances
const locationChannel = "fieldops:locations"

var (
	locationSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldops_location_stream_subscribers",
		Help: "Number of connected live location stream subscribers",
	})
	locationUpdatesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldops_location_updates_published_total",
		Help: "Total number of technician location updates published",
	})
	locationUpdatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fieldops_location_updates_dropped_total",
		Help: "Total number of location updates dropped on slow subscribers",
	})
)

// LocationUpdate is the payload fanned out to live subscribers after a
// position report has been persisted
type LocationUpdate struct {
	TechnicianID   uint      `json:"technician_id"`
	OrderID        *uint     `json:"order_id,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
}

// LocationBroadcaster fans persisted position reports out to live listeners.
// Publishing is fire and forget: a failed or slow broadcast never fails the
// ingest that triggered it.
type LocationBroadcaster interface {
	Publish(ctx context.Context, update LocationUpdate)
	// Subscribe registers a listener. The returned cancel func must be called
	// when the listener goes away; after cancel the channel is closed.
	Subscribe() (<-chan LocationUpdate, func())
}

// LocationHub is the in-process fan-out of location updates. With a Redis
// client attached it also bridges updates across instances through pub/sub.
type LocationHub struct {
	mu          sync.RWMutex
	subscribers map[chan LocationUpdate]struct{}
	redisClient *redis.Client
	stopOnce    sync.Once
	stopped     chan struct{}
}

// NewLocationHub creates a hub. redisClient may be nil for single-instance
// deployments; the in-process fan-out works either way.
func NewLocationHub(redisClient *redis.Client) *LocationHub {
	return &LocationHub{
		subscribers: make(map[chan LocationUpdate]struct{}),
		redisClient: redisClient,
		stopped:     make(chan struct{}),
	}
}

// Publish delivers the update to live listeners. With Redis configured the
// update goes through pub/sub and comes back via Run's loop, so every
// instance (this one included) delivers it exactly once; without Redis it is
// fanned out in process directly.
func (h *LocationHub) Publish(ctx context.Context, update LocationUpdate) {
	locationUpdatesPublished.Inc()

	if h.redisClient == nil {
		h.fanOut(update)
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		log.Printf("location hub: marshal update: %v", err)
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := h.redisClient.Publish(publishCtx, locationChannel, payload).Err(); err != nil {
		log.Printf("location hub: redis publish: %v", err)
		// Redis down: degrade to in-process delivery so local streams stay live.
		h.fanOut(update)
	}
}

// Subscribe registers a live listener
func (h *LocationHub) Subscribe() (<-chan LocationUpdate, func()) {
	ch := make(chan LocationUpdate, 16)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	locationSubscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
			locationSubscribers.Dec()
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Run consumes the Redis pub/sub channel and feeds remote updates into the
// local fan-out. Returns a stop func. No-op without a Redis client.
func (h *LocationHub) Run(ctx context.Context) func() {
	if h.redisClient == nil {
		return func() { h.stopOnce.Do(func() { close(h.stopped) }) }
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub := h.redisClient.Subscribe(runCtx, locationChannel)

	go func() {
		defer sub.Close()
		for {
			select {
			case <-runCtx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var update LocationUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					log.Printf("location hub: unmarshal update: %v", err)
					continue
				}
				h.fanOut(update)
			}
		}
	}()

	return func() {
		cancel()
		h.stopOnce.Do(func() { close(h.stopped) })
	}
}

// fanOut delivers to local subscribers, dropping updates on full buffers so
// one stalled connection cannot back up the rest
func (h *LocationHub) fanOut(update LocationUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- update:
		default:
			locationUpdatesDropped.Inc()
		}
	}
}
