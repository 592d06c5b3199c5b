package dispatch

import (
	"errors"
	"sync"

	"maestro-hq/maestro/pkg/providers"
)

// ErrQueueFull is surfaced as a failed response when a provider's queue is
// at capacity. The caller is never blocked on a full queue.
var ErrQueueFull = errors.New("dispatch: provider queue full")

// taskQueue caps the number of pending-or-running tasks per provider.
// Capacity defaults to max_concurrent times the configured multiplier.
type taskQueue struct {
	mu       sync.Mutex
	capacity map[providers.ID]int
	depth    map[providers.ID]int
}

// newTaskQueue builds per-provider queues from profiles and the queue
// multiplier.
func newTaskQueue(profiles map[providers.ID]providers.Profile, multiplier int) *taskQueue {
	if multiplier <= 0 {
		multiplier = 2
	}
	capacity := make(map[providers.ID]int, len(profiles))
	for id, profile := range profiles {
		capacity[id] = profile.MaxConcurrent * multiplier
	}
	return &taskQueue{
		capacity: capacity,
		depth:    make(map[providers.ID]int, len(profiles)),
	}
}

// enter reserves a queue slot. Returns ErrQueueFull when the provider's
// queue is at capacity.
func (q *taskQueue) enter(provider providers.ID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.depth[provider] >= q.capacity[provider] {
		return ErrQueueFull
	}
	q.depth[provider]++
	return nil
}

// leave releases a queue slot.
func (q *taskQueue) leave(provider providers.ID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.depth[provider] > 0 {
		q.depth[provider]--
	}
}

// length returns the provider's current queue depth.
func (q *taskQueue) length(provider providers.ID) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth[provider]
}
