package dispatch

import (
	"errors"
	"testing"

	"maestro-hq/maestro/pkg/providers"
)

func testProfiles(maxConcurrent int) map[providers.ID]providers.Profile {
	return map[providers.ID]providers.Profile{
		providers.Claude: {ID: providers.Claude, MaxConcurrent: maxConcurrent},
	}
}

func TestQueueCapacity(t *testing.T) {
	q := newTaskQueue(testProfiles(2), 2)

	for i := 0; i < 4; i++ {
		if err := q.enter(providers.Claude); err != nil {
			t.Fatalf("enter %d failed: %v", i, err)
		}
	}

	if err := q.enter(providers.Claude); !errors.Is(err, ErrQueueFull) {
		t.Errorf("enter beyond capacity = %v, want ErrQueueFull", err)
	}
	if q.length(providers.Claude) != 4 {
		t.Errorf("length = %d, want 4", q.length(providers.Claude))
	}

	q.leave(providers.Claude)
	if err := q.enter(providers.Claude); err != nil {
		t.Errorf("enter after leave failed: %v", err)
	}
}

func TestQueueDefaultMultiplier(t *testing.T) {
	q := newTaskQueue(testProfiles(3), 0)

	for i := 0; i < 6; i++ {
		if err := q.enter(providers.Claude); err != nil {
			t.Fatalf("enter %d failed: %v", i, err)
		}
	}
	if err := q.enter(providers.Claude); !errors.Is(err, ErrQueueFull) {
		t.Errorf("default multiplier should cap at 2x max_concurrent, got %v", err)
	}
}

func TestQueueUnknownProviderHasNoCapacity(t *testing.T) {
	q := newTaskQueue(testProfiles(2), 2)

	if err := q.enter(providers.Gemini); !errors.Is(err, ErrQueueFull) {
		t.Errorf("unknown provider enter = %v, want ErrQueueFull", err)
	}
}

func TestQueueLeaveNeverNegative(t *testing.T) {
	q := newTaskQueue(testProfiles(1), 1)

	q.leave(providers.Claude)
	if q.length(providers.Claude) != 0 {
		t.Errorf("length = %d, want 0", q.length(providers.Claude))
	}
}
