package realtime

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())

	a := h.Subscribe("a")
	b := h.Subscribe("b")
	defer h.Unsubscribe("a")
	defer h.Unsubscribe("b")

	h.Publish(Event{Name: TestSlotCreated, Payload: map[string]string{"id": "x"}})

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Name != TestSlotCreated {
				t.Errorf("subscriber %s: got event %q, want %q", name, ev.Name, TestSlotCreated)
			}
		default:
			t.Errorf("subscriber %s received nothing", name)
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(zap.NewNop())

	ch := h.Subscribe("a")
	h.Unsubscribe("a")

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}

	// Publishing with no subscribers is a no-op.
	h.Publish(Event{Name: RegistrationUpdate})
}

func TestHub_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	h := NewHub(zap.NewNop())

	_ = h.Subscribe("slow")
	defer h.Unsubscribe("slow")

	// Overfill the buffer; Publish must never block on a slow consumer.
	for i := 0; i < subscriberBuffer*2; i++ {
		h.Publish(Event{Name: RegistrationUpdate, Payload: i})
	}

	if got := h.Dropped(); got != subscriberBuffer {
		t.Errorf("dropped = %d, want %d", got, subscriberBuffer)
	}
}

func TestHub_ConcurrentPublishAndSubscribe(t *testing.T) {
	h := NewHub(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("sub-%d", i)
			ch := h.Subscribe(id)
			for j := 0; j < 10; j++ {
				h.Publish(Event{Name: RegistrationUpdate, Payload: j})
				select {
				case <-ch:
				default:
				}
			}
			h.Unsubscribe(id)
		}(i)
	}
	wg.Wait()

	if n := h.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d, want 0 after all unsubscribes", n)
	}
}
