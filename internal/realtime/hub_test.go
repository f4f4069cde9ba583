package realtime

import (
	"testing"
	"time"
)

func TestHub(t *testing.T) {
	t.Run("subscriber receives published changes", func(t *testing.T) {
		hub := NewHub()
		changes, cancel := hub.Subscribe("s1")
		defer cancel()

		hub.Publish("s1", TableClaims)

		select {
		case change := <-changes:
			if change.Table != TableClaims {
				t.Errorf("Table = %q, want %q", change.Table, TableClaims)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for change")
		}
	})

	t.Run("changes do not cross sessions", func(t *testing.T) {
		hub := NewHub()
		changes, cancel := hub.Subscribe("s1")
		defer cancel()

		hub.Publish("other", TableItems)

		select {
		case change := <-changes:
			t.Errorf("unexpected change for other session: %+v", change)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("a slow subscriber coalesces rather than blocks", func(t *testing.T) {
		hub := NewHub()
		changes, cancel := hub.Subscribe("s1")
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 100; i++ {
				hub.Publish("s1", TableClaims)
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Publish blocked on a slow subscriber")
		}

		// At least one notice must survive the collapse.
		select {
		case <-changes:
		case <-time.After(time.Second):
			t.Fatal("expected at least one coalesced change")
		}
	})

	t.Run("cancel removes the subscriber", func(t *testing.T) {
		hub := NewHub()
		_, cancel := hub.Subscribe("s1")
		if n := hub.SubscriberCount("s1"); n != 1 {
			t.Fatalf("SubscriberCount = %d, want 1", n)
		}

		cancel()
		cancel() // second cancel is a no-op

		if n := hub.SubscriberCount("s1"); n != 0 {
			t.Errorf("SubscriberCount = %d, want 0", n)
		}
	})
}
